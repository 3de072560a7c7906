// Package game runs the play lifecycle: start charges the visitor and
// credits the stall while claiming the single-in-flight-game guard; settle
// attaches the score; reward issues the score-based prize as its own
// idempotent ledger entry.
package game

import (
	"context"
	"errors"
	"fmt"

	"arcade_wallet/internal/domain"
	"arcade_wallet/internal/fault"
	"arcade_wallet/internal/ledger"
	"arcade_wallet/internal/operator"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrStallNotFound   = fmt.Errorf("%w: stall", fault.ErrNotFound)
	ErrGameInProgress  = fmt.Errorf("%w: visitor already has a game in progress", fault.ErrConflict)
	ErrPlayNotFound    = fmt.Errorf("%w: play transaction", fault.ErrNotFound)
	ErrAlreadySettled  = fmt.Errorf("%w: play already settled", fault.ErrConflict)
	ErrPlayNotSettled  = fmt.Errorf("%w: play has no score yet", fault.ErrPreconditionFailed)
	ErrRewardIssued    = fmt.Errorf("%w: reward already issued for play", fault.ErrConflict)
	ErrNegativeScore   = fmt.Errorf("%w: score must not be negative", fault.ErrPreconditionFailed)
)

// RewardPolicy maps a settled score to the prize amount. A non-positive
// result means no reward for that play.
type RewardPolicy interface {
	Amount(score int64) int64
}

// MultiplierPolicy pays score times a fixed multiplier.
type MultiplierPolicy struct {
	Multiplier int64
}

func (p MultiplierPolicy) Amount(score int64) int64 { return score * p.Multiplier }

// Engine is the game session engine.
type Engine struct {
	db      *gorm.DB
	ledger  *ledger.Engine
	ops     *operator.Engine
	rewards RewardPolicy
}

func New(db *gorm.DB, ldg *ledger.Engine, ops *operator.Engine, rewards RewardPolicy) *Engine {
	return &Engine{db: db, ledger: ldg, ops: ops, rewards: rewards}
}

// Start charges the visitor the stall's price, credits the stall wallet and
// opens an unsettled play row, all in one atomic unit. The ActivePlay guard
// row makes "at most one unsettled game per visitor" hold under concurrent
// starts: of N simultaneous calls for one visitor exactly one creates the
// guard, the rest roll back with a conflict.
func (e *Engine) Start(ctx context.Context, visitorWalletID, stallID, operatorUserID string) (*domain.Transaction, error) {
	var txn *domain.Transaction
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stall domain.Stall
		err := tx.Where("id = ?", stallID).First(&stall).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStallNotFound
		}
		if err != nil {
			return err
		}

		if err := e.ops.ActiveForTx(tx, stallID, operatorUserID); err != nil {
			return err
		}

		t, err := e.ledger.TransferTx(tx, ledger.TransferParams{
			FromWalletID: &visitorWalletID,
			ToWalletID:   &stall.WalletID,
			Amount:       stall.PricePerPlay,
			Type:         domain.TxPlay,
			StallID:      &stall.ID,
		})
		if err != nil {
			return err
		}

		err = tx.Create(&domain.ActivePlay{WalletID: visitorWalletID, TransactionID: t.ID}).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrGameInProgress
		}
		if err != nil {
			return err
		}
		txn = t
		return nil
	})
	if err != nil {
		return nil, fault.AsTransient(err)
	}
	logrus.WithFields(logrus.Fields{
		"transaction_id": txn.ID,
		"visitor_wallet": visitorWalletID,
		"stall_id":       stallID,
		"operator_id":    operatorUserID,
		"price":          txn.PointsAmount,
	}).Info("Game started")
	return txn, nil
}

// Settle attaches the score to an unsettled play and releases the guard.
// Settling twice is rejected, not repeated.
func (e *Engine) Settle(ctx context.Context, transactionID string, score int64) (*domain.Transaction, error) {
	if score < 0 {
		return nil, ErrNegativeScore
	}
	var settled domain.Transaction
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Transaction{}).
			Where("id = ? AND type = ? AND score IS NULL", transactionID, domain.TxPlay).
			Update("score", score)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var existing domain.Transaction
			err := tx.Where("id = ? AND type = ?", transactionID, domain.TxPlay).First(&existing).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPlayNotFound
			}
			if err != nil {
				return err
			}
			return ErrAlreadySettled
		}

		err := tx.Where("transaction_id = ?", transactionID).Delete(&domain.ActivePlay{}).Error
		if err != nil {
			return err
		}
		return tx.Where("id = ?", transactionID).First(&settled).Error
	})
	if err != nil {
		return nil, fault.AsTransient(err)
	}
	logrus.WithFields(logrus.Fields{"transaction_id": transactionID, "score": score}).Info("Game settled")
	return &settled, nil
}

// Reward issues the prize for a settled play as a play_reward transfer from
// the stall wallet back to the visitor. The unique play_id column makes a
// second claim a conflict; a zero-amount policy result is a quiet no-op.
func (e *Engine) Reward(ctx context.Context, playTransactionID string) (*domain.Transaction, error) {
	var play domain.Transaction
	err := e.db.WithContext(ctx).
		Where("id = ? AND type = ?", playTransactionID, domain.TxPlay).
		First(&play).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPlayNotFound
	}
	if err != nil {
		return nil, fault.AsTransient(err)
	}
	if play.Score == nil {
		return nil, ErrPlayNotSettled
	}

	amount := e.rewards.Amount(*play.Score)
	if amount <= 0 {
		return nil, nil
	}

	txn, err := e.ledger.Transfer(ctx, ledger.TransferParams{
		FromWalletID: play.ToWalletID,   // stall wallet funds the prize
		ToWalletID:   play.FromWalletID, // back to the visitor
		Amount:       amount,
		Type:         domain.TxPlayReward,
		StallID:      play.StallID,
		PlayID:       &playTransactionID,
	})
	if errors.Is(err, ledger.ErrDuplicateEntry) {
		return nil, ErrRewardIssued
	}
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// PendingForStall lists the stall's unsettled plays, newest first.
func (e *Engine) PendingForStall(ctx context.Context, stallID string) ([]domain.Transaction, error) {
	var plays []domain.Transaction
	err := e.db.WithContext(ctx).
		Where("stall_id = ? AND type = ? AND score IS NULL", stallID, domain.TxPlay).
		Order("created_at desc").
		Find(&plays).Error
	if err != nil {
		return nil, fault.AsTransient(err)
	}
	return plays, nil
}
