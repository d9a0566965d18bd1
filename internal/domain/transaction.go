package domain

import "time"

const (
	ProviderManual     = "Manual"
	ProviderCash       = "Cash"
	ProviderCreditCard = "Credit Card"
)

// Transaction is an append-only ledger row. Refunded rows no longer count toward credit.
type Transaction struct {
	ID               uint64  `gorm:"primaryKey"`
	UserID           int64   `gorm:"not null;index"`
	User             User    `gorm:"foreignKey:UserID"`
	Value            Money   `gorm:"not null"`
	Refunded         bool    `gorm:"not null;default:false"`
	Notes            string  `gorm:"type:text"`
	Provider         string  `gorm:"size:64"`
	TelegramChargeID string  `gorm:"size:255"`
	ProviderChargeID string  `gorm:"size:255"`
	PaymentName      string  `gorm:"size:255"`
	PaymentPhone     string  `gorm:"size:64"`
	PaymentEmail     string  `gorm:"size:255"`
	OrderID          *uint64 `gorm:"index"`
	CreatedAt        time.Time
}

func (Transaction) TableName() string { return "transactions" }

// Models lists every entity for schema migration.
func Models() []any {
	return []any{&User{}, &Admin{}, &Product{}, &Order{}, &OrderItem{}, &Transaction{}}
}
