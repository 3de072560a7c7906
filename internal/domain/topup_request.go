package domain

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TopupStatus of a payment-proof submission.
type TopupStatus string

const (
	TopupPending  TopupStatus = "pending"
	TopupApproved TopupStatus = "approved"
	TopupRejected TopupStatus = "rejected"
)

// TopupRequest Model. The unique ImageHash column is the duplicate-proof
// guard: the store, not the handler, decides which of two concurrent
// submissions of the same image wins.
type TopupRequest struct {
	ID            string      `gorm:"type:char(36);primaryKey"`
	UserID        string      `gorm:"type:char(36);not null;index"`
	WalletID      string      `gorm:"type:char(36);not null"`
	Amount        int64       `gorm:"not null"`
	ImagePath     string      `gorm:"not null"`                          // Blob store key of the normalized proof
	ImageHash     string      `gorm:"type:char(64);uniqueIndex;not null"` // sha256 of the raw upload
	Status        TopupStatus `gorm:"type:varchar(16);not null;default:pending;index"`
	TransactionID *string     `gorm:"type:char(36)"` // Ledger row that satisfied the request
	AdminID       *string     `gorm:"type:char(36)"` // Admin who decided it
	CreatedAt     int64       `gorm:"autoCreateTime:milli"`
}

func (r *TopupRequest) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
