package domain

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AttendanceRecord captures a visitor checking in at the event desk.
type AttendanceRecord struct {
	ID        string `gorm:"type:char(36);primaryKey"`
	UserID    string `gorm:"type:char(36);not null;index"`
	Username  string `gorm:"not null"`
	RegNo     string `gorm:"not null"`
	WalletID  string `gorm:"type:char(36);not null"`
	CreatedAt int64  `gorm:"autoCreateTime:milli"`
}

func (a *AttendanceRecord) BeforeCreate(*gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// Models lists every persisted type for migration.
func Models() []any {
	return []any{
		&User{},
		&Wallet{},
		&Transaction{},
		&ActivePlay{},
		&TopupRequest{},
		&Stall{},
		&StallOperatorAssignment{},
		&StallSession{},
		&AttendanceRecord{},
	}
}
