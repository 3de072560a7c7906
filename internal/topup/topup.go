// Package topup handles visitor payment-proof submissions and the admin
// approval workflow. Duplicate proofs are rejected by the store's unique
// hash constraint, not by an application-level lookup, so two concurrent
// submissions of the same image cannot both land.
package topup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"arcade_wallet/internal/domain"
	"arcade_wallet/internal/fault"
	"arcade_wallet/internal/ledger"
	"arcade_wallet/internal/proofimg"
	"arcade_wallet/internal/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MaxProofBytes is the raw upload ceiling for payment proofs.
const MaxProofBytes = 5 << 20 // 5 MiB

var (
	ErrInvalidAmount    = fmt.Errorf("%w: amount must be positive", fault.ErrPreconditionFailed)
	ErrProofTooLarge    = fmt.Errorf("%w: proof image exceeds size ceiling", fault.ErrPreconditionFailed)
	ErrBadProofImage    = fmt.Errorf("%w: proof is not a decodable image", fault.ErrPreconditionFailed)
	ErrWalletInactive   = fmt.Errorf("%w: wallet frozen", fault.ErrPreconditionFailed)
	ErrWalletNotFound   = fmt.Errorf("%w: wallet", fault.ErrNotFound)
	ErrDuplicateProof   = fmt.Errorf("%w: duplicate payment proof", fault.ErrConflict)
	ErrRequestNotFound  = fmt.Errorf("%w: topup request", fault.ErrNotFound)
	ErrAlreadyProcessed = fmt.Errorf("%w: request already processed", fault.ErrConflict)
	ErrAdminNoWallet    = fmt.Errorf("%w: admin wallet", fault.ErrNotFound)
)

// BlobStore is where normalized proof images live, addressed by content.
// Put must be write-once per key; SignedURL issues a time-limited read URL.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	SignedURL(key string, ttl time.Duration) (string, error)
}

// Service is the topup intake and approval engine.
type Service struct {
	db     *gorm.DB
	ledger *ledger.Engine
	blobs  BlobStore
}

func New(db *gorm.DB, ldg *ledger.Engine, blobs BlobStore) *Service {
	return &Service{db: db, ledger: ldg, blobs: blobs}
}

// Submit validates the proof, persists its normalized copy keyed by content
// hash, and creates a pending request. Submitting the same image twice,
// whatever the status of the first request, is a conflict.
func (s *Service) Submit(ctx context.Context, userID string, amount int64, proof []byte) (*domain.TopupRequest, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if len(proof) > MaxProofBytes {
		return nil, ErrProofTooLarge
	}

	var wallet domain.Wallet
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, fault.AsTransient(err)
	}
	if !wallet.IsActive {
		return nil, ErrWalletInactive
	}

	hash := utils.ContentHash(proof)
	normalized, err := proofimg.Normalize(proof)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadProofImage, err)
	}

	path := "topups/" + hash + ".jpg"
	if err := s.blobs.Put(ctx, path, normalized, "image/jpeg"); err != nil {
		return nil, fault.AsTransient(err)
	}

	req := &domain.TopupRequest{
		UserID:    userID,
		WalletID:  wallet.ID,
		Amount:    amount,
		ImagePath: path,
		ImageHash: hash,
		Status:    domain.TopupPending,
	}
	if err := s.db.WithContext(ctx).Create(req).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateProof
		}
		return nil, fault.AsTransient(err)
	}

	logrus.WithFields(logrus.Fields{
		"request_id": req.ID,
		"user_id":    userID,
		"amount":     amount,
		"image_hash": hash,
	}).Info("Topup request created")
	return req, nil
}

// Approve moves a pending request to approved and credits the visitor from
// the approving admin's wallet, all in one atomic unit. Re-approving an
// already approved request returns the original transaction instead of
// crediting twice; the status flip is a conditional update inside the same
// transaction as the transfer, so two concurrent approvals cannot both pass
// the status check.
func (s *Service) Approve(ctx context.Context, requestID, adminID string) (*domain.Transaction, error) {
	var result *domain.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req domain.TopupRequest
		err := tx.Where("id = ?", requestID).First(&req).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRequestNotFound
		}
		if err != nil {
			return err
		}

		if req.Status == domain.TopupApproved {
			// Idempotent re-approve: hand back the credit that satisfied it.
			if req.TransactionID == nil {
				return ErrRequestNotFound
			}
			var original domain.Transaction
			if err := tx.Where("id = ?", *req.TransactionID).First(&original).Error; err != nil {
				return err
			}
			result = &original
			return nil
		}
		if req.Status != domain.TopupPending {
			return ErrRequestNotFound
		}

		res := tx.Model(&domain.TopupRequest{}).
			Where("id = ? AND status = ?", requestID, domain.TopupPending).
			Updates(map[string]any{"status": domain.TopupApproved, "admin_id": adminID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost a race with another decision after our read.
			return ErrAlreadyProcessed
		}

		var adminWallet domain.Wallet
		err = tx.Where("user_id = ?", adminID).First(&adminWallet).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAdminNoWallet
		}
		if err != nil {
			return err
		}

		txn, err := s.ledger.TransferTx(tx, ledger.TransferParams{
			FromWalletID: &adminWallet.ID,
			ToWalletID:   &req.WalletID,
			Amount:       req.Amount,
			Type:         domain.TxTopup,
		})
		if err != nil {
			return fmt.Errorf("fund topup: %w", err)
		}
		err = tx.Model(&domain.TopupRequest{}).
			Where("id = ?", requestID).
			Update("transaction_id", txn.ID).Error
		if err != nil {
			return err
		}
		result = txn
		return nil
	})
	if err != nil {
		return nil, fault.AsTransient(err)
	}

	logrus.WithFields(logrus.Fields{
		"request_id":     requestID,
		"admin_id":       adminID,
		"transaction_id": result.ID,
	}).Info("Topup request approved")
	return result, nil
}

// Reject moves a pending request to rejected. No balance effect.
func (s *Service) Reject(ctx context.Context, requestID, adminID string) error {
	res := s.db.WithContext(ctx).Model(&domain.TopupRequest{}).
		Where("id = ? AND status = ?", requestID, domain.TopupPending).
		Updates(map[string]any{"status": domain.TopupRejected, "admin_id": adminID})
	if res.Error != nil {
		return fault.AsTransient(res.Error)
	}
	if res.RowsAffected == 0 {
		var req domain.TopupRequest
		err := s.db.WithContext(ctx).Where("id = ?", requestID).First(&req).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRequestNotFound
		}
		if err != nil {
			return fault.AsTransient(err)
		}
		return ErrAlreadyProcessed
	}
	logrus.WithFields(logrus.Fields{"request_id": requestID, "admin_id": adminID}).Info("Topup request rejected")
	return nil
}

// Pending lists open requests oldest first, for the admin review queue.
func (s *Service) Pending(ctx context.Context) ([]domain.TopupRequest, error) {
	var reqs []domain.TopupRequest
	err := s.db.WithContext(ctx).
		Where("status = ?", domain.TopupPending).
		Order("created_at asc").
		Find(&reqs).Error
	if err != nil {
		return nil, fault.AsTransient(err)
	}
	return reqs, nil
}

// SignedImageURL issues a time-limited URL for reviewing a request's proof.
func (s *Service) SignedImageURL(req *domain.TopupRequest, ttl time.Duration) (string, error) {
	return s.blobs.SignedURL(req.ImagePath, ttl)
}
