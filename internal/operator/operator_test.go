package operator

import (
	"context"
	"errors"
	"testing"

	"arcade_wallet/internal/db/sqlitetest"
	"arcade_wallet/internal/domain"
	"arcade_wallet/internal/fault"

	"gorm.io/gorm"
)

type fixture struct {
	engine *Engine
	db     *gorm.DB
	op     *domain.User
	stallA *domain.Stall
	stallB *domain.Stall
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := sqlitetest.Open(t)

	op := &domain.User{Username: "opone", PasswordHash: "x", Name: "Operator One", Role: domain.RoleOperator}
	if err := db.Create(op).Error; err != nil {
		t.Fatalf("create operator: %v", err)
	}
	var stalls []*domain.Stall
	for _, name := range []string{"Ring Toss", "Duck Pond"} {
		w := &domain.Wallet{DisplayName: name, IsActive: true}
		if err := db.Create(w).Error; err != nil {
			t.Fatalf("create wallet: %v", err)
		}
		s := &domain.Stall{Name: name, WalletID: w.ID, PricePerPlay: 10}
		if err := db.Create(s).Error; err != nil {
			t.Fatalf("create stall: %v", err)
		}
		stalls = append(stalls, s)
	}
	return &fixture{engine: New(db), db: db, op: op, stallA: stalls[0], stallB: stalls[1]}
}

func (f *fixture) activeSessions(t *testing.T) []domain.StallSession {
	t.Helper()
	var sessions []domain.StallSession
	if err := f.db.Where("is_active = ?", true).Find(&sessions).Error; err != nil {
		t.Fatalf("load sessions: %v", err)
	}
	return sessions
}

func TestAssign(t *testing.T) {
	f := newFixture(t)

	if err := f.engine.Assign(context.Background(), f.stallA.ID, f.op.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	stall, err := f.engine.StallFor(context.Background(), f.op.ID)
	if err != nil {
		t.Fatalf("stall for operator: %v", err)
	}
	if stall.ID != f.stallA.ID {
		t.Errorf("assigned stall = %s, want %s", stall.ID, f.stallA.ID)
	}
}

func TestAssign_Preconditions(t *testing.T) {
	f := newFixture(t)

	if err := f.engine.Assign(context.Background(), f.stallA.ID, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("missing user: %v", err)
	}
	if err := f.engine.Assign(context.Background(), "missing", f.op.ID); !errors.Is(err, ErrStallNotFound) {
		t.Errorf("missing stall: %v", err)
	}

	visitor := &domain.User{Username: "visitorone", PasswordHash: "x", Role: domain.RoleVisitor}
	if err := f.db.Create(visitor).Error; err != nil {
		t.Fatalf("create visitor: %v", err)
	}
	if err := f.engine.Assign(context.Background(), f.stallA.ID, visitor.ID); !errors.Is(err, ErrNotOperator) {
		t.Errorf("visitor as operator: %v", err)
	}
}

func TestAssign_ElsewhereConflictNamesStall(t *testing.T) {
	f := newFixture(t)
	if err := f.engine.Assign(context.Background(), f.stallA.ID, f.op.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}

	err := f.engine.Assign(context.Background(), f.stallB.ID, f.op.ID)
	var conflict *AlreadyAssignedError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want AlreadyAssignedError", err)
	}
	if conflict.StallID != f.stallA.ID || conflict.StallName != f.stallA.Name {
		t.Errorf("conflict names %q (%s), want stall A", conflict.StallName, conflict.StallID)
	}
	if !errors.Is(err, fault.ErrConflict) {
		t.Error("conflict error should carry the conflict kind")
	}

	// The operator still holds only stall A.
	var count int64
	f.db.Model(&domain.StallOperatorAssignment{}).Where("user_id = ?", f.op.ID).Count(&count)
	if count != 1 {
		t.Errorf("operator holds %d assignments, want 1", count)
	}
}

func TestActivateDeactivate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.engine.Activate(ctx, f.stallA.ID, f.op.ID); !errors.Is(err, ErrNotAssigned) {
		t.Fatalf("activate unassigned = %v", err)
	}

	if err := f.engine.Assign(ctx, f.stallA.ID, f.op.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	session, err := f.engine.Activate(ctx, f.stallA.ID, f.op.ID)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if !session.IsActive || session.ActiveKey == nil {
		t.Errorf("session = %+v, want active with key", session)
	}

	if _, err := f.engine.Activate(ctx, f.stallA.ID, f.op.ID); !errors.Is(err, ErrSessionActive) {
		t.Fatalf("double activate = %v", err)
	}

	if err := f.engine.Deactivate(ctx, f.stallA.ID, f.op.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if sessions := f.activeSessions(t); len(sessions) != 0 {
		t.Errorf("active sessions after deactivate: %+v", sessions)
	}
	var closed domain.StallSession
	if err := f.db.Where("id = ?", session.ID).First(&closed).Error; err != nil {
		t.Fatalf("reload session: %v", err)
	}
	if closed.EndedAt == nil || closed.ActiveKey != nil {
		t.Errorf("closed session = %+v, want ended with nil key", closed)
	}

	if err := f.engine.Deactivate(ctx, f.stallA.ID, f.op.ID); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("double deactivate = %v", err)
	}

	// A pair can go live again after closing.
	if _, err := f.engine.Activate(ctx, f.stallA.ID, f.op.ID); err != nil {
		t.Fatalf("re-activate: %v", err)
	}
}

func TestRemove_CascadesSessionClose(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.engine.Assign(ctx, f.stallA.ID, f.op.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := f.engine.Activate(ctx, f.stallA.ID, f.op.ID); err != nil {
		t.Fatalf("activate: %v", err)
	}

	if err := f.engine.Remove(ctx, f.stallA.ID, f.op.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if sessions := f.activeSessions(t); len(sessions) != 0 {
		t.Fatalf("remove left active sessions: %+v", sessions)
	}
	var count int64
	f.db.Model(&domain.StallOperatorAssignment{}).Count(&count)
	if count != 0 {
		t.Error("assignment survived removal")
	}

	// Invariant: every active session has an assignment. With none of
	// either left, the operator is reassignable anywhere.
	if err := f.engine.Assign(ctx, f.stallB.ID, f.op.ID); err != nil {
		t.Fatalf("reassign after remove: %v", err)
	}
}

func TestRemove_WithoutAssignment(t *testing.T) {
	f := newFixture(t)
	if err := f.engine.Remove(context.Background(), f.stallA.ID, f.op.ID); !errors.Is(err, ErrNotAssigned) {
		t.Fatalf("remove unassigned = %v", err)
	}
}

func TestActiveForTx(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.db.Transaction(func(tx *gorm.DB) error { return f.engine.ActiveForTx(tx, f.stallA.ID, f.op.ID) })
	if !errors.Is(err, ErrNotAssigned) {
		t.Fatalf("unassigned = %v", err)
	}

	if err := f.engine.Assign(ctx, f.stallA.ID, f.op.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	err = f.db.Transaction(func(tx *gorm.DB) error { return f.engine.ActiveForTx(tx, f.stallA.ID, f.op.ID) })
	if !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("assigned but idle = %v", err)
	}

	if _, err := f.engine.Activate(ctx, f.stallA.ID, f.op.ID); err != nil {
		t.Fatalf("activate: %v", err)
	}
	err = f.db.Transaction(func(tx *gorm.DB) error { return f.engine.ActiveForTx(tx, f.stallA.ID, f.op.ID) })
	if err != nil {
		t.Fatalf("live pair = %v, want nil", err)
	}
}
