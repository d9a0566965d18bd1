package shop

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"chatshop/internal/domain"
	"chatshop/internal/ledger"
	"chatshop/internal/repo"
)

// PlaceOrder turns a cart into an order and debits the buyer in one unit of
// work. If the debit would leave the buyer with negative credit nothing is
// written and ErrInsufficientCredit is returned.
func (s *Service) PlaceOrder(ctx context.Context, userID int64, lines []CartLine, notes string) (*domain.Order, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	var total domain.Money
	var items []domain.OrderItem
	for _, l := range lines {
		if !l.Product.ForSale() {
			return nil, fmt.Errorf("%w: %s", ErrNotForSale, l.Product.Name)
		}
		total = total.Add(l.Subtotal())
		for i := 0; i < l.Quantity; i++ {
			items = append(items, domain.OrderItem{ProductID: l.Product.ID})
		}
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	var orderID uint64
	err := s.tx(ctx, func(tx *gorm.DB) error {
		o := &domain.Order{UserID: userID, CreationDate: s.now(), Notes: notes, Items: items}
		if err := repo.NewOrderRepo(tx).Create(o); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		credit, err := ledger.Post(tx, &domain.Transaction{
			UserID:  userID,
			Value:   total.Neg(),
			Notes:   fmt.Sprintf("Order %d", o.ID),
			OrderID: &o.ID,
		})
		if err != nil {
			return err
		}
		if credit.IsNegative() {
			return ErrInsufficientCredit
		}
		orderID = o.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Order(ctx, orderID)
}

func (s *Service) Order(ctx context.Context, id uint64) (*domain.Order, error) {
	o, err := repo.NewOrderRepo(s.conn(ctx)).FindByID(id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrNotFound
	}
	return o, nil
}

// UserOrders returns the newest limit orders of a user.
func (s *Service) UserOrders(ctx context.Context, userID int64, limit int) ([]domain.Order, error) {
	return repo.NewOrderRepo(s.conn(ctx)).ListByUser(userID, limit)
}

// PendingOrders returns orders neither delivered nor refunded, oldest first.
func (s *Service) PendingOrders(ctx context.Context) ([]domain.Order, error) {
	return repo.NewOrderRepo(s.conn(ctx)).ListPending()
}

// CompleteOrder records delivery. It fails with ErrOrderAlreadyCleared if the
// order was completed or refunded before, by anyone.
func (s *Service) CompleteOrder(ctx context.Context, id uint64) (*domain.Order, error) {
	err := s.tx(ctx, func(tx *gorm.DB) error {
		orders := repo.NewOrderRepo(tx)
		o, err := orders.FindByID(id)
		if err != nil {
			return err
		}
		if o == nil {
			return ErrNotFound
		}
		if o.Cleared() {
			return ErrOrderAlreadyCleared
		}
		now := s.now()
		o.DeliveryDate = &now
		ok, err := orders.MarkDelivered(o)
		if err != nil {
			return err
		}
		if !ok {
			return ErrOrderAlreadyCleared
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Order(ctx, id)
}

// RefundOrder records the refund and voids the order's debit, restoring the
// buyer's credit, all in one unit of work.
func (s *Service) RefundOrder(ctx context.Context, id uint64, reason string) (*domain.Order, error) {
	err := s.tx(ctx, func(tx *gorm.DB) error {
		orders := repo.NewOrderRepo(tx)
		o, err := orders.FindByID(id)
		if err != nil {
			return err
		}
		if o == nil {
			return ErrNotFound
		}
		if o.Cleared() {
			return ErrOrderAlreadyCleared
		}
		now := s.now()
		o.RefundDate = &now
		o.RefundReason = reason
		ok, err := orders.MarkRefunded(o)
		if err != nil {
			return err
		}
		if !ok {
			return ErrOrderAlreadyCleared
		}
		t, err := repo.NewTransactionRepo(tx).FindByOrderID(id)
		if err != nil {
			return err
		}
		if t != nil && !t.Refunded {
			if _, err := ledger.Void(tx, t.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Order(ctx, id)
}
