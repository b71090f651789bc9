package domain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// CartID is the opaque token a client presents on every cart operation.
// Tokens are unguessable; possession of the token is possession of the cart.
type CartID string

// cartIDBytes yields 128 bits of entropy, encoded as 32 hex characters.
const cartIDBytes = 16

// NewCartID draws a fresh cart identifier from the OS CSPRNG. The token is
// never derived from time or sequence counters, so carts cannot be
// enumerated. Collisions are treated as negligible; storage still enforces
// uniqueness on the primary key defensively.
func NewCartID() (CartID, error) {
	buf := make([]byte, cartIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate cart id: %w", err)
	}
	return CartID(hex.EncodeToString(buf)), nil
}

// Valid reports whether the token has the shape NewCartID produces.
func (id CartID) Valid() bool {
	if len(id) != cartIDBytes*2 {
		return false
	}
	for _, r := range id {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}

func (id CartID) String() string { return string(id) }
