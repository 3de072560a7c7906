package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentHash returns the hex sha256 of raw bytes. Used as the dedup key
// and blob address for payment proofs.
func ContentHash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
