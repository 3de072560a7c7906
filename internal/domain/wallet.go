package domain

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Wallet Model. Wallets are never deleted; frozen wallets (IsActive false)
// reject every debit and credit until unfrozen.
type Wallet struct {
	ID             string  `gorm:"type:char(36);primaryKey"`  // UUID primary key
	UserID         *string `gorm:"type:char(36);uniqueIndex"` // Owning user; nil for stall wallets
	DisplayName    string  `gorm:"not null"`                  // Shown on dashboards and leaderboards
	Balance        int64   `gorm:"not null;default:0"`        // Integer points, never negative
	InitialBalance int64   `gorm:"not null;default:0"`        // Seed balance at creation, reconciliation baseline
	IsActive       bool    `gorm:"not null"`                  // False = frozen; always set explicitly on create
	CreatedAt      int64   `gorm:"autoCreateTime:milli"`
}

func (w *Wallet) BeforeCreate(*gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}
