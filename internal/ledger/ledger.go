// Package ledger keeps User.Credit equal to the sum of the user's non-refunded transactions.
//
// Every function takes the *gorm.DB of an open transaction; callers decide the
// unit of work, the ledger only guarantees the recalculation happens inside it.
package ledger

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"chatshop/internal/domain"
)

var (
	ErrUnknownUser        = errors.New("ledger: unknown user")
	ErrUnknownTransaction = errors.New("ledger: unknown transaction")
	ErrAlreadyRefunded    = errors.New("ledger: transaction already refunded")
)

// Sum returns the total value of the user's active transactions.
func Sum(tx *gorm.DB, userID int64) (domain.Money, error) {
	var sum int64
	err := tx.Model(&domain.Transaction{}).
		Select("COALESCE(SUM(value), 0)").
		Where("user_id = ? AND refunded = ?", userID, false).
		Scan(&sum).Error
	if err != nil {
		return 0, fmt.Errorf("sum transactions of %d: %w", userID, err)
	}
	return domain.Money(sum), nil
}

// Recalculate rewrites the cached credit in a single statement and returns it.
func Recalculate(tx *gorm.DB, userID int64) (domain.Money, error) {
	sub := tx.Session(&gorm.Session{NewDB: true}).
		Model(&domain.Transaction{}).
		Select("COALESCE(SUM(value), 0)").
		Where("user_id = ? AND refunded = ?", userID, false)
	res := tx.Model(&domain.User{}).Where("id = ?", userID).Update("credit", sub)
	if res.Error != nil {
		return 0, fmt.Errorf("recalculate credit of %d: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, ErrUnknownUser
	}
	var u domain.User
	if err := tx.Session(&gorm.Session{NewDB: true}).Select("credit").First(&u, "id = ?", userID).Error; err != nil {
		return 0, fmt.Errorf("read credit of %d: %w", userID, err)
	}
	return u.Credit, nil
}

// lockUser takes the user's row lock before any ledger write, so writers for
// one user recompute one after the other and never from a stale sum. SQLite
// drops the clause; it already serializes writers.
func lockUser(tx *gorm.DB, userID int64) error {
	var u domain.User
	err := tx.Session(&gorm.Session{NewDB: true}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&u, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUnknownUser
	}
	if err != nil {
		return fmt.Errorf("lock user %d: %w", userID, err)
	}
	return nil
}

// Post appends t and returns the owner's new credit.
func Post(tx *gorm.DB, t *domain.Transaction) (domain.Money, error) {
	if err := lockUser(tx, t.UserID); err != nil {
		return 0, err
	}
	if err := tx.Create(t).Error; err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	return Recalculate(tx, t.UserID)
}

// Void marks a transaction refunded and returns the owner's new credit.
func Void(tx *gorm.DB, transactionID uint64) (domain.Money, error) {
	var t domain.Transaction
	err := tx.First(&t, "id = ?", transactionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrUnknownTransaction
	}
	if err != nil {
		return 0, err
	}
	if err := lockUser(tx, t.UserID); err != nil {
		return 0, err
	}
	res := tx.Model(&domain.Transaction{}).
		Where("id = ? AND refunded = ?", transactionID, false).
		Update("refunded", true)
	if res.Error != nil {
		return 0, fmt.Errorf("refund transaction %d: %w", transactionID, res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, ErrAlreadyRefunded
	}
	return Recalculate(tx, t.UserID)
}
