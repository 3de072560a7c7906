package domain

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransactionType enumerates the ledger movement kinds.
type TransactionType string

const (
	TxTopup      TransactionType = "topup"       // Approved visitor topup request
	TxAdminTopup TransactionType = "admin_topup" // Direct admin credit
	TxPlay       TransactionType = "play"        // Visitor pays a stall to play
	TxPlayReward TransactionType = "play_reward" // Score-based prize back to the visitor
)

// Transaction Model. Rows are append-only; the single permitted mutation is
// attaching a score to an unsettled play row.
type Transaction struct {
	ID           string          `gorm:"type:char(36);primaryKey"`      // UUID primary key
	Type         TransactionType `gorm:"type:varchar(16);not null"`     // Movement kind
	FromWalletID *string         `gorm:"type:char(36);index"`           // Debited wallet, nil for one-sided credits
	ToWalletID   *string         `gorm:"type:char(36);index"`           // Credited wallet, nil for one-sided debits
	PointsAmount int64           `gorm:"not null"`                      // Always positive
	Score        *int64          // Nil while a play is unsettled
	StallID      *string         `gorm:"type:char(36);index"`           // Set on play and play_reward rows
	PlayID       *string         `gorm:"type:char(36);uniqueIndex"`     // On play_reward rows: the play it rewards, at most once
	CreatedAt    int64           `gorm:"autoCreateTime:milli;index"`    // Timestamp of creation in milliseconds
}

func (t *Transaction) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// ActivePlay is the single-in-flight-game guard: one row per visitor wallet
// while a play transaction has no score. The primary key makes a second
// concurrent start a unique violation instead of a race.
type ActivePlay struct {
	WalletID      string `gorm:"type:char(36);primaryKey"`
	TransactionID string `gorm:"type:char(36);not null"`
	CreatedAt     int64  `gorm:"autoCreateTime:milli"`
}
