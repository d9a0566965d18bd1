package domain

import (
	"fmt"
	"strings"
	"time"
)

type User struct {
	ID        int64  `gorm:"primaryKey;autoIncrement:false"`
	FirstName string `gorm:"size:255;not null"`
	LastName  string `gorm:"size:255"`
	Username  string `gorm:"size:64"`
	Language  string `gorm:"size:16;not null"`
	// Credit is derived from the transaction history; only the ledger writes it.
	Credit    Money `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (User) TableName() string { return "users" }

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u User) String() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	return u.FullName()
}

// Identifiable is the label used on selection keyboards and cash payments.
func (u User) Identifiable() string {
	return fmt.Sprintf("user_%d (%s)", u.ID, u.String())
}

// Admin holds the capability flags of a User.
type Admin struct {
	UserID                int64 `gorm:"primaryKey;autoIncrement:false"`
	User                  User  `gorm:"foreignKey:UserID"`
	CanEditProducts       bool  `gorm:"not null;default:false"`
	CanReceiveOrders      bool  `gorm:"not null;default:false"`
	CanCreateTransactions bool  `gorm:"not null;default:false"`
	CanDisplayOnHelp      bool  `gorm:"not null;default:false"`
	IsOwner               bool  `gorm:"not null;default:false"`
	LiveMode              bool  `gorm:"not null;default:false"`
}

func (Admin) TableName() string { return "admins" }

// NewOwner returns the bootstrap admin with every capability.
func NewOwner(userID int64) *Admin {
	return &Admin{
		UserID:                userID,
		CanEditProducts:       true,
		CanReceiveOrders:      true,
		CanCreateTransactions: true,
		CanDisplayOnHelp:      true,
		IsOwner:               true,
	}
}
