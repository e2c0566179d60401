package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultBcryptCost = 10
	opaqueTokenBytes  = 32
)

type PasswordHasher struct {
	cost int
}

func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &PasswordHasher{cost: cost}
}

func (h *PasswordHasher) Hash(raw string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(raw), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func (h *PasswordHasher) Verify(raw, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) == nil
}

// FastHash is the lookup hash for opaque one-time tokens. Deterministic and
// unsalted, so it must never be used for passwords.
func FastHash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// NewOpaqueToken returns a random hex token together with its FastHash.
func NewOpaqueToken() (raw string, hash string, err error) {
	secret := make([]byte, opaqueTokenBytes)
	if _, err = rand.Read(secret); err != nil {
		return "", "", fmt.Errorf("read random bytes: %w", err)
	}

	raw = hex.EncodeToString(secret)
	return raw, FastHash(raw), nil
}
