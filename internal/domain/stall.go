package domain

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Stall Model. A stall is a physical entity with its own wallet; it is
// operated by separately assigned operator users.
type Stall struct {
	ID           string `gorm:"type:char(36);primaryKey"`
	Name         string `gorm:"uniqueIndex;not null"`
	WalletID     string `gorm:"type:char(36);uniqueIndex;not null"` // Fixed at creation
	PricePerPlay int64  `gorm:"not null"`                           // Mutable by admin
	CreatedAt    int64  `gorm:"autoCreateTime:milli"`
}

func (s *Stall) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
