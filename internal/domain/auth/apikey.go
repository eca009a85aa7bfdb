// Package auth holds API key identity lookup and verification.
package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/go-faster/errors"
)

// ErrUnauthorized is returned for any failed key verification. The cause is
// deliberately not distinguished to callers.
var ErrUnauthorized = errors.New("unauthorized")

// APIKeyInfo holds the identity and permission data for a validated API key.
type APIKeyInfo struct {
	ID      string
	KeyHash string
	Name    string
	Scopes  []string
}

// Repository provides lookup of API keys by their SHA-256 hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}

// HashKey returns the hex-encoded SHA-256 digest of a raw API key. Keys are
// stored hashed; the raw key exists only in the client's hands.
func HashKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Verify authenticates a raw API key: hash, look up, and compare in constant
// time to prevent timing side-channels.
func Verify(ctx context.Context, repo Repository, raw string) (*APIKeyInfo, error) {
	sum := sha256.Sum256([]byte(raw))
	hexHash := hex.EncodeToString(sum[:])

	info, err := repo.FindByHash(ctx, hexHash)
	if err != nil {
		return nil, ErrUnauthorized
	}

	// The lookup already matched, but the stored hash could differ from what
	// we computed if the repository returns a stale/wrong row.
	stored, err := hex.DecodeString(info.KeyHash)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if subtle.ConstantTimeCompare(sum[:], stored) != 1 {
		return nil, ErrUnauthorized
	}

	return info, nil
}
