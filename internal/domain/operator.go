package domain

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StallOperatorAssignment is the long-lived "may operate" relation. The
// unique UserID index enforces the one-operator-one-stall policy at the
// store level.
type StallOperatorAssignment struct {
	ID        string `gorm:"type:char(36);primaryKey"`
	StallID   string `gorm:"type:char(36);not null;index"`
	UserID    string `gorm:"type:char(36);uniqueIndex;not null"`
	CreatedAt int64  `gorm:"autoCreateTime:milli"`
}

func (a *StallOperatorAssignment) BeforeCreate(*gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// StallSession is the short-lived "is currently live" relation. ActiveKey
// holds "<stall>:<user>" while the session is open and nil once closed, so
// the unique index admits any number of closed sessions but at most one open
// one per pair.
type StallSession struct {
	ID        string  `gorm:"type:char(36);primaryKey"`
	StallID   string  `gorm:"type:char(36);not null;index"`
	UserID    string  `gorm:"type:char(36);not null;index"`
	StartedAt int64   `gorm:"autoCreateTime:milli"`
	EndedAt   *int64  // Millisecond timestamp, nil while open
	IsActive  bool    `gorm:"not null;default:true"`
	ActiveKey *string `gorm:"type:varchar(80);uniqueIndex"`
}

func (s *StallSession) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// SessionActiveKey builds the ActiveKey value for an open session.
func SessionActiveKey(stallID, userID string) string {
	return stallID + ":" + userID
}
