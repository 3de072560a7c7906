package domain

import (
	"github.com/google/uuid" // UUID primary keys
	"gorm.io/gorm"
)

// Role of a user. Operators run physical stalls; stalls themselves do not log in.
type Role string

const (
	RoleVisitor  Role = "visitor"
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
)

// User Model
type User struct {
	ID           string `gorm:"type:char(36);primaryKey"` // UUID primary key
	Username     string `gorm:"uniqueIndex;not null"`     // Unique login name
	PasswordHash string `gorm:"not null"`                 // bcrypt hash
	Name         string // Display name
	Role         Role   `gorm:"type:varchar(16);not null;default:visitor"` // visitor, admin or operator
	CreatedAt    int64  `gorm:"autoCreateTime:milli"`     // Timestamp of creation in milliseconds
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
