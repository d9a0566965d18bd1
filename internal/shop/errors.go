package shop

import "errors"

var (
	ErrEmptyCart            = errors.New("shop: cart is empty")
	ErrNotForSale           = errors.New("shop: product is not for sale")
	ErrInsufficientCredit   = errors.New("shop: insufficient credit")
	ErrDuplicateProductName = errors.New("shop: product name already in use")
	ErrOrderAlreadyCleared  = errors.New("shop: order already cleared")
	ErrNotFound             = errors.New("shop: not found")
	ErrInvalidAmount        = errors.New("shop: invalid amount")
)
