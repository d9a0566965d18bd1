package repo

import (
	"errors"

	"gorm.io/gorm"

	"chatshop/internal/domain"
)

type TransactionRepo struct{ db *gorm.DB }

func NewTransactionRepo(db *gorm.DB) *TransactionRepo { return &TransactionRepo{db: db} }

func (r *TransactionRepo) FindByOrderID(orderID uint64) (*domain.Transaction, error) {
	var t domain.Transaction
	err := r.db.First(&t, "order_id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Page returns transactions newest first.
func (r *TransactionRepo) Page(offset, limit int) ([]domain.Transaction, int64, error) {
	var total int64
	if err := r.db.Model(&domain.Transaction{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []domain.Transaction
	err := r.db.Preload("User").Order("id desc").Offset(offset).Limit(limit).Find(&out).Error
	return out, total, err
}

// All returns every transaction oldest first.
func (r *TransactionRepo) All() ([]domain.Transaction, error) {
	var out []domain.Transaction
	err := r.db.Order("id asc").Find(&out).Error
	return out, err
}

// ListByUser returns a user's transactions oldest first.
func (r *TransactionRepo) ListByUser(userID int64) ([]domain.Transaction, error) {
	var out []domain.Transaction
	err := r.db.Where("user_id = ?", userID).Order("id asc").Find(&out).Error
	return out, err
}
