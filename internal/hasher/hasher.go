package hasher

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost matches the original deployment's bcrypt work factor.
const DefaultCost = 12

// Hasher wraps bcrypt with a configurable work factor. The produced
// hash is self-contained (salt and cost are embedded), so Verify
// needs no side channel.
type Hasher struct {
	cost int
}

// New creates a Hasher. Costs outside bcrypt's supported range fall
// back to DefaultCost.
func New(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns the bcrypt hash of the given password.
func (h *Hasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether the password matches the stored hash.
func (h *Hasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
