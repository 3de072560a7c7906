// Package ledger owns every balance mutation. All point movement goes
// through the Transfer primitive: debit, credit and the appended transaction
// row commit or roll back as one unit, and the preconditions are re-checked
// under that unit's isolation rather than against a stale read.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"arcade_wallet/internal/domain"
	"arcade_wallet/internal/fault"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrInvalidAmount       = fmt.Errorf("%w: amount must be positive", fault.ErrPreconditionFailed)
	ErrNoLeg               = fmt.Errorf("%w: transfer needs at least one wallet", fault.ErrPreconditionFailed)
	ErrWalletNotFound      = fmt.Errorf("%w: wallet", fault.ErrNotFound)
	ErrWalletFrozen        = fmt.Errorf("%w: wallet frozen", fault.ErrPreconditionFailed)
	ErrInsufficientBalance = fmt.Errorf("%w: insufficient balance", fault.ErrPreconditionFailed)
	ErrDuplicateEntry      = fmt.Errorf("%w: duplicate ledger entry", fault.ErrConflict)
)

// Engine executes atomic transfers against the store.
type Engine struct {
	db    *gorm.DB
	retry RetryPolicy
}

func New(db *gorm.DB) *Engine {
	return &Engine{db: db, retry: DefaultRetryPolicy()}
}

// NewWithRetry overrides the transient-failure retry policy.
func NewWithRetry(db *gorm.DB, retry RetryPolicy) *Engine {
	return &Engine{db: db, retry: retry}
}

// TransferParams describes one transfer. Either leg may be omitted for
// one-sided adjustments; the default flows always carry both.
type TransferParams struct {
	FromWalletID *string
	ToWalletID   *string
	Amount       int64
	Type         domain.TransactionType
	StallID      *string // play and play_reward rows
	PlayID       *string // play_reward rows: the play being rewarded
}

// Transfer runs the primitive in its own transaction, retrying transient
// store failures with bounded backoff. Terminal errors (not found, frozen,
// insufficient balance, duplicate) surface immediately with no effect.
func (e *Engine) Transfer(ctx context.Context, p TransferParams) (*domain.Transaction, error) {
	var txn *domain.Transaction
	err := e.retry.Do(ctx, func() error {
		err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			t, err := e.TransferTx(tx, p)
			if err != nil {
				return err
			}
			txn = t
			return nil
		})
		return fault.AsTransient(err)
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"from":   deref(p.FromWalletID),
			"to":     deref(p.ToWalletID),
			"amount": p.Amount,
			"type":   p.Type,
			"error":  err.Error(),
		}).Warn("Transfer failed")
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"transaction_id": txn.ID,
		"from":           deref(p.FromWalletID),
		"to":             deref(p.ToWalletID),
		"amount":         p.Amount,
		"type":           p.Type,
	}).Info("Transfer committed")
	return txn, nil
}

// TransferTx runs the primitive inside the caller's transaction, so topup
// approval and game start can compose it with their own state transitions in
// a single atomic unit.
func (e *Engine) TransferTx(tx *gorm.DB, p TransferParams) (*domain.Transaction, error) {
	if p.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if p.FromWalletID == nil && p.ToWalletID == nil {
		return nil, ErrNoLeg
	}
	// The row goes in before the legs so a duplicate entry (unique play_id)
	// surfaces as a conflict even when a leg would also fail; a duplicate
	// reward claim against a drained stall wallet must not read as an
	// insufficient balance. A failed leg rolls the row back with it.
	txn := &domain.Transaction{
		Type:         p.Type,
		FromWalletID: p.FromWalletID,
		ToWalletID:   p.ToWalletID,
		PointsAmount: p.Amount,
		StallID:      p.StallID,
		PlayID:       p.PlayID,
	}
	if err := tx.Create(txn).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateEntry
		}
		return nil, err
	}
	if p.FromWalletID != nil {
		if err := debit(tx, *p.FromWalletID, p.Amount); err != nil {
			return nil, err
		}
	}
	if p.ToWalletID != nil {
		if err := credit(tx, *p.ToWalletID, p.Amount); err != nil {
			return nil, err
		}
	}
	return txn, nil
}

// History returns the wallet's transactions newest first, with the total row
// count for pagination.
func (e *Engine) History(ctx context.Context, walletID string, page, pageSize int) ([]domain.Transaction, int64, error) {
	var total int64
	if err := e.db.WithContext(ctx).Model(&domain.Transaction{}).
		Where("from_wallet_id = ? OR to_wallet_id = ?", walletID, walletID).
		Count(&total).Error; err != nil {
		return nil, 0, fault.AsTransient(err)
	}
	var txns []domain.Transaction
	if err := e.db.WithContext(ctx).
		Where("from_wallet_id = ? OR to_wallet_id = ?", walletID, walletID).
		Order("created_at desc").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&txns).Error; err != nil {
		return nil, 0, fault.AsTransient(err)
	}
	return txns, total, nil
}

// debit takes amount off the wallet only when it exists, is active and can
// cover it. The conditional update is a single statement, so there is no
// window between the check and the write; a zero row count is disambiguated
// by a re-read under the same transaction.
func debit(tx *gorm.DB, walletID string, amount int64) error {
	res := tx.Model(&domain.Wallet{}).
		Where("id = ? AND is_active = ? AND balance >= ?", walletID, true, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}
	return explainLegFailure(tx, walletID, amount)
}

func credit(tx *gorm.DB, walletID string, amount int64) error {
	res := tx.Model(&domain.Wallet{}).
		Where("id = ? AND is_active = ?", walletID, true).
		Update("balance", gorm.Expr("balance + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}
	return explainLegFailure(tx, walletID, 0)
}

func explainLegFailure(tx *gorm.DB, walletID string, needed int64) error {
	var w domain.Wallet
	err := tx.Where("id = ?", walletID).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrWalletNotFound
	}
	if err != nil {
		return err
	}
	if !w.IsActive {
		return ErrWalletFrozen
	}
	if needed > 0 && w.Balance < needed {
		return ErrInsufficientBalance
	}
	// The wallet was mutated between the update and the re-read; treat it as
	// a conflict the caller may observe but not retry blindly.
	return fmt.Errorf("%w: wallet %s changed underfoot", fault.ErrConflict, walletID)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
