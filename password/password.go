// Package password hashes and verifies user passwords. Only hashes are ever
// stored or compared; plaintext never leaves the request that carried it.
package password

import (
	"golang.org/x/crypto/bcrypt"
)

// Encoder hashes raw passwords and checks raw passwords against stored hashes.
type Encoder interface {
	Encode(raw string) (string, error)
	Matches(raw, encoded string) bool
}

// BcryptEncoder is the bcrypt-backed Encoder.
type BcryptEncoder struct {
	cost int
}

// NewBcryptEncoder returns an encoder with the given cost; values outside
// bcrypt's accepted range fall back to bcrypt.DefaultCost.
func NewBcryptEncoder(cost int) *BcryptEncoder {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptEncoder{cost: cost}
}

// Encode returns a bcrypt hash of raw.
func (e *BcryptEncoder) Encode(raw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(raw), e.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Matches reports whether raw hashes to encoded. A malformed hash is a mismatch.
func (e *BcryptEncoder) Matches(raw, encoded string) bool {
	return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(raw)) == nil
}
