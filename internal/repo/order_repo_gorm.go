package repo

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"chatshop/internal/domain"
)

type OrderRepo struct{ db *gorm.DB }

func NewOrderRepo(db *gorm.DB) *OrderRepo { return &OrderRepo{db: db} }

func (r *OrderRepo) full() *gorm.DB {
	return r.db.Preload("User").Preload("Items.Product").Preload("Transaction")
}

// Create inserts the order together with its items.
func (r *OrderRepo) Create(o *domain.Order) error {
	if err := r.db.Omit(clause.Associations).Create(o).Error; err != nil {
		return err
	}
	if len(o.Items) == 0 {
		return nil
	}
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
	}
	return r.db.Omit("Product").Create(&o.Items).Error
}

func (r *OrderRepo) FindByID(id uint64) (*domain.Order, error) {
	var o domain.Order
	err := r.full().First(&o, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ListByUser returns the newest orders of a user first.
func (r *OrderRepo) ListByUser(userID int64, limit int) ([]domain.Order, error) {
	var out []domain.Order
	err := r.full().Where("user_id = ?", userID).Order("creation_date desc, id desc").Limit(limit).Find(&out).Error
	return out, err
}

// ListPending returns orders with neither delivery nor refund date, oldest first.
func (r *OrderRepo) ListPending() ([]domain.Order, error) {
	var out []domain.Order
	err := r.full().Where("delivery_date IS NULL AND refund_date IS NULL").Order("creation_date asc, id asc").Find(&out).Error
	return out, err
}

// MarkDelivered sets the delivery date only if the order is still pending.
func (r *OrderRepo) MarkDelivered(o *domain.Order) (bool, error) {
	res := r.db.Model(&domain.Order{}).
		Where("id = ? AND delivery_date IS NULL AND refund_date IS NULL", o.ID).
		Update("delivery_date", o.DeliveryDate)
	return res.RowsAffected > 0, res.Error
}

// MarkRefunded sets refund date and reason only if the order is still pending.
func (r *OrderRepo) MarkRefunded(o *domain.Order) (bool, error) {
	res := r.db.Model(&domain.Order{}).
		Where("id = ? AND delivery_date IS NULL AND refund_date IS NULL", o.ID).
		Updates(map[string]any{"refund_date": o.RefundDate, "refund_reason": o.RefundReason})
	return res.RowsAffected > 0, res.Error
}
