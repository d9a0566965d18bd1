package domain

import "time"

type Product struct {
	ID          uint64 `gorm:"primaryKey"`
	Name        string `gorm:"size:255;not null;index"`
	Description string `gorm:"type:text"`
	// Price is nil when the product is not for sale.
	Price       *Money
	ImageFileID string `gorm:"size:255"`
	ImageKey    string `gorm:"size:255"`
	Deleted     bool   `gorm:"not null;default:false;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Product) TableName() string { return "products" }

func (p Product) ForSale() bool { return p.Price != nil }

func (p Product) HasImage() bool { return p.ImageFileID != "" }

// PriceOrZero is the unit price, or zero when not for sale.
func (p Product) PriceOrZero() Money {
	if p.Price == nil {
		return 0
	}
	return *p.Price
}

type Order struct {
	ID           uint64    `gorm:"primaryKey"`
	UserID       int64     `gorm:"not null;index"`
	User         User      `gorm:"foreignKey:UserID"`
	CreationDate time.Time `gorm:"not null"`
	Notes        string    `gorm:"type:text"`
	DeliveryDate *time.Time
	RefundDate   *time.Time
	RefundReason string       `gorm:"type:text"`
	Items        []OrderItem  `gorm:"foreignKey:OrderID"`
	Transaction  *Transaction `gorm:"foreignKey:OrderID"`
}

func (Order) TableName() string { return "orders" }

// Cleared reports whether the order reached a terminal state.
func (o Order) Cleared() bool { return o.DeliveryDate != nil || o.RefundDate != nil }

// Total is the amount debited for the order.
func (o Order) Total() Money {
	if o.Transaction != nil {
		return o.Transaction.Value.Neg()
	}
	var sum Money
	for _, it := range o.Items {
		sum = sum.Add(it.Product.PriceOrZero())
	}
	return sum
}

// OrderItem is one unit of a product; quantity is the number of rows.
type OrderItem struct {
	ID        uint64  `gorm:"primaryKey"`
	OrderID   uint64  `gorm:"not null;index"`
	ProductID uint64  `gorm:"not null;index"`
	Product   Product `gorm:"foreignKey:ProductID"`
}

func (OrderItem) TableName() string { return "order_items" }
