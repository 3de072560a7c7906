package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"arcade_wallet/internal/blob"
	"arcade_wallet/internal/db/sqlitetest"
	"arcade_wallet/internal/domain"
	"arcade_wallet/internal/fault"
	"arcade_wallet/internal/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRespondError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: wallet", fault.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: duplicate", fault.ErrConflict), http.StatusConflict},
		{fmt.Errorf("%w: insufficient balance", fault.ErrPreconditionFailed), http.StatusForbidden},
		{fmt.Errorf("%w: db gone", fault.ErrTransient), http.StatusServiceUnavailable},
		{errors.New("something else"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		respondError(c, tc.err)
		if w.Code != tc.want {
			t.Errorf("respondError(%v) = %d, want %d", tc.err, w.Code, tc.want)
		}
	}
}

func TestLoginHandler(t *testing.T) {
	db := sqlitetest.Open(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2hunter2"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	user := domain.User{Username: "alice", PasswordHash: string(hash), Name: "Alice", Role: domain.RoleVisitor}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	r := gin.New()
	r.POST("/api/auth/login", LoginHandler(db, "test-secret"))

	post := func(body any) *httptest.ResponseRecorder {
		b, _ := json.Marshal(body)
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := post(LoginRequest{Username: "Alice", Password: "hunter2hunter2"})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", w.Code, w.Body.String())
	}
	var resp AuthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Role != domain.RoleVisitor {
		t.Errorf("role = %q", resp.Role)
	}
	claims, err := utils.ParseJWT(resp.Token, "test-secret")
	if err != nil {
		t.Fatalf("token does not parse: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("token uid = %q, want %q", claims.UserID, user.ID)
	}

	if w := post(LoginRequest{Username: "alice", Password: "wrong"}); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d", w.Code)
	}
	if w := post(LoginRequest{Username: "nobody", Password: "hunter2hunter2"}); w.Code != http.StatusUnauthorized {
		t.Errorf("unknown user status = %d", w.Code)
	}
}

func TestFileHandler(t *testing.T) {
	blobs := blob.NewStore(t.TempDir(), "/api/files", []byte("test-secret"))
	if err := blobs.Put(t.Context(), "topups/abc.jpg", []byte("jpeg-bytes"), "image/jpeg"); err != nil {
		t.Fatalf("put: %v", err)
	}
	signed, err := blobs.SignedURL("topups/abc.jpg", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	r := gin.New()
	r.GET("/api/files/*path", FileHandler(blobs))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, signed, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("signed fetch status = %d, body %s", w.Code, w.Body.String())
	}
	if w.Body.String() != "jpeg-bytes" {
		t.Errorf("body = %q", w.Body.String())
	}

	// No signature, and a doctored one, are both refused.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/files/topups/abc.jpg", nil))
	if w.Code != http.StatusForbidden {
		t.Errorf("unsigned fetch status = %d", w.Code)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/files/topups/abc.jpg?exp=9999999999&sig=deadbeef", nil))
	if w.Code != http.StatusForbidden {
		t.Errorf("bad sig fetch status = %d", w.Code)
	}
}
