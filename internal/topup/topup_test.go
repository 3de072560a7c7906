package topup

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"arcade_wallet/internal/db/sqlitetest"
	"arcade_wallet/internal/domain"
	"arcade_wallet/internal/fault"
	"arcade_wallet/internal/ledger"

	"gorm.io/gorm"
)

type fakeBlobs struct {
	mu   sync.Mutex
	puts map[string][]byte
}

func newFakeBlobs() *fakeBlobs { return &fakeBlobs{puts: map[string][]byte{}} }

func (f *fakeBlobs) Put(_ context.Context, key string, data []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.puts[key]; ok {
		return nil // write-once, same content
	}
	f.puts[key] = data
	return nil
}

func (f *fakeBlobs) SignedURL(key string, _ time.Duration) (string, error) {
	return "/api/files/" + key + "?sig=test", nil
}

// proofPNG renders a small image whose pixels depend on seed, so different
// tests produce different content hashes.
func proofPNG(t *testing.T, seed uint8) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := range 8 {
		for y := range 8 {
			img.Set(x, y, color.RGBA{R: seed, G: uint8(x * y), B: uint8(x + y), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test png: %v", err)
	}
	return buf.Bytes()
}

type fixture struct {
	svc          *Service
	db           *gorm.DB
	blobs        *fakeBlobs
	visitor      *domain.User
	visitorWall  *domain.Wallet
	admin        *domain.User
	adminWallet  *domain.Wallet
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := sqlitetest.Open(t)
	blobs := newFakeBlobs()
	ldg := ledger.NewWithRetry(db, ledger.RetryPolicy{Attempts: 1, Sleep: func(time.Duration) {}})

	visitor := &domain.User{Username: "visitorone", PasswordHash: "x", Name: "Visitor One", Role: domain.RoleVisitor}
	admin := &domain.User{Username: "admin", PasswordHash: "x", Name: "Admin", Role: domain.RoleAdmin}
	for _, u := range []*domain.User{visitor, admin} {
		if err := db.Create(u).Error; err != nil {
			t.Fatalf("create user: %v", err)
		}
	}
	visitorWallet := &domain.Wallet{UserID: &visitor.ID, DisplayName: visitor.Name, Balance: 50, InitialBalance: 50, IsActive: true}
	adminWallet := &domain.Wallet{UserID: &admin.ID, DisplayName: admin.Name, Balance: 1000, InitialBalance: 1000, IsActive: true}
	for _, w := range []*domain.Wallet{visitorWallet, adminWallet} {
		if err := db.Create(w).Error; err != nil {
			t.Fatalf("create wallet: %v", err)
		}
	}
	return &fixture{
		svc:         New(db, ldg, blobs),
		db:          db,
		blobs:       blobs,
		visitor:     visitor,
		visitorWall: visitorWallet,
		admin:       admin,
		adminWallet: adminWallet,
	}
}

func (f *fixture) balance(t *testing.T, id string) int64 {
	t.Helper()
	var w domain.Wallet
	if err := f.db.Where("id = ?", id).First(&w).Error; err != nil {
		t.Fatalf("load wallet: %v", err)
	}
	return w.Balance
}

func TestSubmit(t *testing.T) {
	f := newFixture(t)
	proof := proofPNG(t, 1)

	req, err := f.svc.Submit(context.Background(), f.visitor.ID, 20, proof)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if req.Status != domain.TopupPending {
		t.Errorf("status = %s, want pending", req.Status)
	}
	if req.WalletID != f.visitorWall.ID || req.Amount != 20 {
		t.Errorf("request = %+v", req)
	}
	if !strings.HasSuffix(req.ImagePath, ".jpg") || !strings.Contains(req.ImagePath, req.ImageHash) {
		t.Errorf("image path %q not keyed by hash %q", req.ImagePath, req.ImageHash)
	}
	if _, ok := f.blobs.puts[req.ImagePath]; !ok {
		t.Error("normalized proof was not persisted to the blob store")
	}
}

func TestSubmit_Preconditions(t *testing.T) {
	f := newFixture(t)
	proof := proofPNG(t, 2)

	if _, err := f.svc.Submit(context.Background(), f.visitor.ID, 0, proof); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("zero amount: %v", err)
	}
	if _, err := f.svc.Submit(context.Background(), f.visitor.ID, -5, proof); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("negative amount: %v", err)
	}
	if _, err := f.svc.Submit(context.Background(), f.visitor.ID, 10, make([]byte, MaxProofBytes+1)); !errors.Is(err, ErrProofTooLarge) {
		t.Errorf("oversize proof: %v", err)
	}
	if _, err := f.svc.Submit(context.Background(), f.visitor.ID, 10, []byte("not an image")); !errors.Is(err, ErrBadProofImage) {
		t.Errorf("bad image: %v", err)
	}
	if _, err := f.svc.Submit(context.Background(), "no-such-user", 10, proof); !errors.Is(err, ErrWalletNotFound) {
		t.Errorf("unknown user: %v", err)
	}

	f.db.Model(&domain.Wallet{}).Where("id = ?", f.visitorWall.ID).Update("is_active", false)
	if _, err := f.svc.Submit(context.Background(), f.visitor.ID, 10, proof); !errors.Is(err, ErrWalletInactive) {
		t.Errorf("frozen wallet: %v", err)
	}
}

func TestSubmit_DuplicateProof(t *testing.T) {
	f := newFixture(t)
	proof := proofPNG(t, 3)

	if _, err := f.svc.Submit(context.Background(), f.visitor.ID, 20, proof); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	_, err := f.svc.Submit(context.Background(), f.visitor.ID, 35, proof)
	if !errors.Is(err, ErrDuplicateProof) {
		t.Fatalf("second submit = %v, want duplicate proof", err)
	}
	if !errors.Is(err, fault.ErrConflict) {
		t.Error("duplicate proof should carry the conflict kind")
	}
	var count int64
	f.db.Model(&domain.TopupRequest{}).Count(&count)
	if count != 1 {
		t.Errorf("%d requests stored, want 1", count)
	}
}

func TestSubmit_ConcurrentDuplicates(t *testing.T) {
	f := newFixture(t)
	proof := proofPNG(t, 4)

	const workers = 6
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.svc.Submit(context.Background(), f.visitor.ID, 20, proof)
		}()
	}
	wg.Wait()

	ok, dup := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrDuplicateProof):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || dup != workers-1 {
		t.Errorf("ok=%d dup=%d, want exactly one winner", ok, dup)
	}
	var count int64
	f.db.Model(&domain.TopupRequest{}).Count(&count)
	if count != 1 {
		t.Errorf("%d requests stored, want 1", count)
	}
}

func TestApprove_HappyPath(t *testing.T) {
	f := newFixture(t)
	req, err := f.svc.Submit(context.Background(), f.visitor.ID, 20, proofPNG(t, 5))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	txn, err := f.svc.Approve(context.Background(), req.ID, f.admin.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if txn.Type != domain.TxTopup || txn.PointsAmount != 20 {
		t.Errorf("transaction = %+v", txn)
	}
	if got := f.balance(t, f.visitorWall.ID); got != 70 {
		t.Errorf("visitor balance = %d, want 70", got)
	}
	if got := f.balance(t, f.adminWallet.ID); got != 980 {
		t.Errorf("admin balance = %d, want 980", got)
	}

	var stored domain.TopupRequest
	if err := f.db.Where("id = ?", req.ID).First(&stored).Error; err != nil {
		t.Fatalf("reload request: %v", err)
	}
	if stored.Status != domain.TopupApproved {
		t.Errorf("status = %s, want approved", stored.Status)
	}
	if stored.TransactionID == nil || *stored.TransactionID != txn.ID {
		t.Error("request does not record the satisfying transaction")
	}
}

func TestApprove_Idempotent(t *testing.T) {
	f := newFixture(t)
	req, err := f.svc.Submit(context.Background(), f.visitor.ID, 20, proofPNG(t, 6))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	first, err := f.svc.Approve(context.Background(), req.ID, f.admin.ID)
	if err != nil {
		t.Fatalf("first approve: %v", err)
	}
	second, err := f.svc.Approve(context.Background(), req.ID, f.admin.ID)
	if err != nil {
		t.Fatalf("second approve: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("re-approve returned %s, want original %s", second.ID, first.ID)
	}
	if got := f.balance(t, f.visitorWall.ID); got != 70 {
		t.Errorf("visitor balance = %d after double approve, want 70", got)
	}
	var credits int64
	f.db.Model(&domain.Transaction{}).Where("type = ?", domain.TxTopup).Count(&credits)
	if credits != 1 {
		t.Errorf("%d topup transactions, want exactly 1", credits)
	}
}

func TestApprove_ConcurrentApprovals(t *testing.T) {
	f := newFixture(t)
	req, err := f.svc.Submit(context.Background(), f.visitor.ID, 20, proofPNG(t, 9))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	const workers = 6
	var wg sync.WaitGroup
	txns := make([]*domain.Transaction, workers)
	errs := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			txns[i], errs[i] = f.svc.Approve(context.Background(), req.ID, f.admin.ID)
		}()
	}
	wg.Wait()

	// Losers either hit the already-processed conflict or, having read the
	// approved row, get the original transaction back. All returned
	// transactions must be the same one.
	var txnID string
	for i, err := range errs {
		switch {
		case err == nil:
			if txnID == "" {
				txnID = txns[i].ID
			} else if txns[i].ID != txnID {
				t.Errorf("approvals returned different transactions: %s and %s", txnID, txns[i].ID)
			}
		case errors.Is(err, ErrAlreadyProcessed):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if txnID == "" {
		t.Fatal("no approval succeeded")
	}

	// Exactly one credit regardless of the interleaving.
	if got := f.balance(t, f.visitorWall.ID); got != 70 {
		t.Errorf("visitor balance = %d, want 70", got)
	}
	if got := f.balance(t, f.adminWallet.ID); got != 980 {
		t.Errorf("admin balance = %d, want 980", got)
	}
	var credits int64
	f.db.Model(&domain.Transaction{}).Where("type = ?", domain.TxTopup).Count(&credits)
	if credits != 1 {
		t.Errorf("%d topup transactions, want exactly 1", credits)
	}
}

func TestApprove_InsufficientAdminBalance(t *testing.T) {
	f := newFixture(t)
	req, err := f.svc.Submit(context.Background(), f.visitor.ID, 5000, proofPNG(t, 7))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	_, err = f.svc.Approve(context.Background(), req.ID, f.admin.ID)
	if !errors.Is(err, ledger.ErrInsufficientBalance) {
		t.Fatalf("approve = %v, want insufficient balance", err)
	}

	// Nothing committed: request still pending, balances untouched.
	var stored domain.TopupRequest
	f.db.Where("id = ?", req.ID).First(&stored)
	if stored.Status != domain.TopupPending {
		t.Errorf("status = %s, want pending after failed approval", stored.Status)
	}
	if got := f.balance(t, f.visitorWall.ID); got != 50 {
		t.Errorf("visitor balance = %d, want 50", got)
	}
	if got := f.balance(t, f.adminWallet.ID); got != 1000 {
		t.Errorf("admin balance = %d, want 1000", got)
	}
}

func TestApprove_NotFoundAndRejected(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Approve(context.Background(), "missing", f.admin.ID); !errors.Is(err, ErrRequestNotFound) {
		t.Errorf("missing request: %v", err)
	}

	req, err := f.svc.Submit(context.Background(), f.visitor.ID, 20, proofPNG(t, 8))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := f.svc.Reject(context.Background(), req.ID, f.admin.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, err := f.svc.Approve(context.Background(), req.ID, f.admin.ID); !errors.Is(err, ErrRequestNotFound) {
		t.Errorf("approve rejected request: %v", err)
	}
	if err := f.svc.Reject(context.Background(), req.ID, f.admin.ID); !errors.Is(err, ErrAlreadyProcessed) {
		t.Errorf("double reject: %v", err)
	}
	if got := f.balance(t, f.visitorWall.ID); got != 50 {
		t.Errorf("reject moved points: balance = %d", got)
	}
}

func TestPending(t *testing.T) {
	f := newFixture(t)
	first, err := f.svc.Submit(context.Background(), f.visitor.ID, 10, proofPNG(t, 9))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	second, err := f.svc.Submit(context.Background(), f.visitor.ID, 20, proofPNG(t, 10))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := f.svc.Approve(context.Background(), first.ID, f.admin.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	pending, err := f.svc.Pending(context.Background())
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != second.ID {
		t.Errorf("pending = %+v, want only the second request", pending)
	}
}
