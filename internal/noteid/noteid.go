package noteid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// DefaultLength is the number of hex characters in a note id
// (16 random bytes).
const DefaultLength = 32

// Generator produces fixed-length note identifiers from a
// cryptographically secure random source. Collisions are not checked
// here; the store's insert enforces uniqueness.
type Generator struct {
	length int
}

// New creates a Generator. Lengths below 2 fall back to DefaultLength;
// odd lengths are rounded down to the nearest even value so the id
// maps to whole random bytes.
func New(length int) *Generator {
	if length < 2 {
		length = DefaultLength
	}
	length -= length % 2
	return &Generator{length: length}
}

// NewID returns a new lowercase-hex identifier.
func (g *Generator) NewID() (string, error) {
	buf := make([]byte, g.length/2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate note id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Length returns the length of generated identifiers.
func (g *Generator) Length() int {
	return g.length
}
