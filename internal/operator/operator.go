// Package operator governs which user may run which stall and whether that
// assignment is currently live. States per (stall, user) pair:
// Unassigned -> Assigned -> Active -> Assigned -> Unassigned.
package operator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"arcade_wallet/internal/domain"
	"arcade_wallet/internal/fault"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound    = fmt.Errorf("%w: user", fault.ErrNotFound)
	ErrNotOperator     = fmt.Errorf("%w: user is not an operator", fault.ErrPreconditionFailed)
	ErrStallNotFound   = fmt.Errorf("%w: stall", fault.ErrNotFound)
	ErrNotAssigned     = fmt.Errorf("%w: operator not assigned to stall", fault.ErrPreconditionFailed)
	ErrSessionActive   = fmt.Errorf("%w: session already active", fault.ErrConflict)
	ErrNoActiveSession = fmt.Errorf("%w: no active session", fault.ErrPreconditionFailed)
)

// AlreadyAssignedError reports an assign attempt by a user who already holds
// a stall, naming the conflicting stall.
type AlreadyAssignedError struct {
	StallID   string
	StallName string
}

func (e *AlreadyAssignedError) Error() string {
	return fmt.Sprintf("already assigned to stall %q (%s)", e.StallName, e.StallID)
}

func (e *AlreadyAssignedError) Unwrap() error { return fault.ErrConflict }

// Engine is the assignment and activation state machine.
type Engine struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// Assign creates the "may operate" relation. One operator holds at most one
// stall; the unique index on user_id backs the policy under concurrency.
func (e *Engine) Assign(ctx context.Context, stallID, userID string) error {
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user domain.User
		err := tx.Where("id = ?", userID).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}
		if user.Role != domain.RoleOperator {
			return ErrNotOperator
		}
		if err := stallExists(tx, stallID); err != nil {
			return err
		}

		err = tx.Create(&domain.StallOperatorAssignment{StallID: stallID, UserID: userID}).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return e.alreadyAssigned(tx, userID)
		}
		return err
	})
	if err != nil {
		return fault.AsTransient(err)
	}
	logrus.WithFields(logrus.Fields{"stall_id": stallID, "user_id": userID}).Info("Operator assigned")
	return nil
}

// alreadyAssigned builds the conflict error naming the stall the user holds.
func (e *Engine) alreadyAssigned(tx *gorm.DB, userID string) error {
	var existing domain.StallOperatorAssignment
	if err := tx.Where("user_id = ?", userID).First(&existing).Error; err != nil {
		return fmt.Errorf("%w: user already assigned", fault.ErrConflict)
	}
	var stall domain.Stall
	if err := tx.Where("id = ?", existing.StallID).First(&stall).Error; err != nil {
		return &AlreadyAssignedError{StallID: existing.StallID}
	}
	return &AlreadyAssignedError{StallID: stall.ID, StallName: stall.Name}
}

// Activate opens a live session for an assigned operator. The unique
// ActiveKey makes a second activation a conflict rather than a second row.
func (e *Engine) Activate(ctx context.Context, stallID, userID string) (*domain.StallSession, error) {
	var session *domain.StallSession
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := assignmentExists(tx, stallID, userID); err != nil {
			return err
		}
		key := domain.SessionActiveKey(stallID, userID)
		s := &domain.StallSession{StallID: stallID, UserID: userID, IsActive: true, ActiveKey: &key}
		err := tx.Create(s).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrSessionActive
		}
		if err != nil {
			return err
		}
		session = s
		return nil
	})
	if err != nil {
		return nil, fault.AsTransient(err)
	}
	logrus.WithFields(logrus.Fields{"stall_id": stallID, "user_id": userID, "session_id": session.ID}).Info("Operator session opened")
	return session, nil
}

// Deactivate closes the live session for the pair.
func (e *Engine) Deactivate(ctx context.Context, stallID, userID string) error {
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return closeActiveSession(tx, stallID, userID, true)
	})
	if err != nil {
		return fault.AsTransient(err)
	}
	logrus.WithFields(logrus.Fields{"stall_id": stallID, "user_id": userID}).Info("Operator session closed")
	return nil
}

// Remove deletes the assignment from any state. A live session is closed
// first in the same atomic unit, so an active session can never outlive its
// assignment.
func (e *Engine) Remove(ctx context.Context, stallID, userID string) error {
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := closeActiveSession(tx, stallID, userID, false); err != nil {
			return err
		}
		res := tx.Where("stall_id = ? AND user_id = ?", stallID, userID).
			Delete(&domain.StallOperatorAssignment{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotAssigned
		}
		return nil
	})
	if err != nil {
		return fault.AsTransient(err)
	}
	logrus.WithFields(logrus.Fields{"stall_id": stallID, "user_id": userID}).Info("Operator removed")
	return nil
}

// ActiveForTx verifies, inside the caller's transaction, that the user is
// assigned to the stall and currently live. Game start composes with this.
func (e *Engine) ActiveForTx(tx *gorm.DB, stallID, userID string) error {
	if err := assignmentExists(tx, stallID, userID); err != nil {
		return err
	}
	var count int64
	err := tx.Model(&domain.StallSession{}).
		Where("stall_id = ? AND user_id = ? AND is_active = ?", stallID, userID, true).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNoActiveSession
	}
	return nil
}

// StallFor returns the stall the operator is assigned to.
func (e *Engine) StallFor(ctx context.Context, userID string) (*domain.Stall, error) {
	var assignment domain.StallOperatorAssignment
	err := e.db.WithContext(ctx).Where("user_id = ?", userID).First(&assignment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotAssigned
	}
	if err != nil {
		return nil, fault.AsTransient(err)
	}
	var stall domain.Stall
	err = e.db.WithContext(ctx).Where("id = ?", assignment.StallID).First(&stall).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrStallNotFound
	}
	if err != nil {
		return nil, fault.AsTransient(err)
	}
	return &stall, nil
}

func stallExists(tx *gorm.DB, stallID string) error {
	var count int64
	if err := tx.Model(&domain.Stall{}).Where("id = ?", stallID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrStallNotFound
	}
	return nil
}

func assignmentExists(tx *gorm.DB, stallID, userID string) error {
	var count int64
	err := tx.Model(&domain.StallOperatorAssignment{}).
		Where("stall_id = ? AND user_id = ?", stallID, userID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotAssigned
	}
	return nil
}

// closeActiveSession ends the live session for the pair. With required set,
// the absence of one is an error; otherwise it is a no-op (the Remove
// cascade path).
func closeActiveSession(tx *gorm.DB, stallID, userID string, required bool) error {
	now := time.Now().UnixMilli()
	res := tx.Model(&domain.StallSession{}).
		Where("stall_id = ? AND user_id = ? AND is_active = ?", stallID, userID, true).
		Updates(map[string]any{"is_active": false, "ended_at": now, "active_key": nil})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 && required {
		return ErrNoActiveSession
	}
	return nil
}
