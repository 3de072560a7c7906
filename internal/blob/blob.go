// Package blob is a filesystem blob store for payment-proof images. Keys are
// content hashes, so writes are once-per-key; reads go through HMAC-signed,
// expiring URLs served by the HTTP layer.
package blob

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidKey = errors.New("invalid blob key")
	ErrBadSig     = errors.New("bad or missing signature")
	ErrExpired    = errors.New("signed url expired")
)

// Store keeps blobs under root and signs read URLs under baseURL.
type Store struct {
	root    string
	baseURL string
	secret  []byte
	now     func() time.Time
}

func NewStore(root, baseURL string, secret []byte) *Store {
	return &Store{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  secret,
		now:     time.Now,
	}
}

// Put writes data under key. Content is hash-addressed, so a key that
// already exists is left untouched and the call succeeds.
func (s *Store) Put(_ context.Context, key string, data []byte, _ string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return nil // write-once: same key means same content
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Get returns the blob's bytes.
func (s *Store) Get(key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// SignedURL issues a read URL valid for ttl.
func (s *Store) SignedURL(key string, ttl time.Duration) (string, error) {
	if _, err := s.path(key); err != nil {
		return "", err
	}
	exp := s.now().Add(ttl).Unix()
	q := url.Values{}
	q.Set("exp", strconv.FormatInt(exp, 10))
	q.Set("sig", s.sign(key, exp))
	return s.baseURL + "/" + key + "?" + q.Encode(), nil
}

// Verify checks a signed request before the blob is served.
func (s *Store) Verify(key string, exp int64, sig string) error {
	if _, err := s.path(key); err != nil {
		return err
	}
	expected := s.sign(key, exp)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return ErrBadSig
	}
	if s.now().Unix() > exp {
		return ErrExpired
	}
	return nil
}

func (s *Store) sign(key string, exp int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s\n%d", key, exp)
	return hex.EncodeToString(mac.Sum(nil))
}

// path maps a key to a file inside root, rejecting traversal.
func (s *Store) path(key string) (string, error) {
	if key == "" || strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}
