package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenValidity is how long an issued token stays valid.
const DefaultTokenValidity = 24 * time.Hour

// KeySize is the length in bytes of keys generated by NewRandomKey.
const KeySize = 32

// Claims is the payload of a bearer token.
type Claims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// TokenCodec issues and verifies HS256 bearer tokens with a single signing
// key. It is safe for concurrent use; nothing in it changes after construction.
type TokenCodec struct {
	key      []byte
	validity time.Duration
	now      func() time.Time
	parser   *jwt.Parser
}

// CodecOption customizes a TokenCodec.
type CodecOption func(*TokenCodec)

// WithClock replaces time.Now for issuing and expiry checks.
func WithClock(now func() time.Time) CodecOption {
	return func(c *TokenCodec) {
		c.now = now
	}
}

// NewTokenCodec creates a codec signing with key. A non-positive validity
// means DefaultTokenValidity.
func NewTokenCodec(key []byte, validity time.Duration, opts ...CodecOption) (*TokenCodec, error) {
	if len(key) == 0 {
		return nil, errors.New("signing key must not be empty")
	}
	if validity <= 0 {
		validity = DefaultTokenValidity
	}

	c := &TokenCodec{
		key:      append([]byte(nil), key...),
		validity: validity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return c.now() }),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	return c, nil
}

// NewRandomKey returns KeySize bytes from crypto/rand, for processes that
// are not given a signing secret.
func NewRandomKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate signing key: %w", err)
	}
	return key, nil
}

// Validity returns the lifetime of issued tokens.
func (c *TokenCodec) Validity() time.Duration {
	return c.validity
}

// Issue signs a token for username. The username is not checked against any
// store.
func (c *TokenCodec) Issue(username string, authorities ...string) (string, error) {
	now := c.now()
	claims := Claims{
		Roles: authorities,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.validity)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate reports whether token is well formed, signed with this codec's
// key using HS256, and not expired. It never returns an error.
func (c *TokenCodec) Validate(token string) bool {
	_, ok := c.verify(token)
	return ok
}

// verify parses token once and returns its claims when it is valid.
func (c *TokenCodec) verify(token string) (*Claims, bool) {
	claims, err := c.parse(token)
	if err != nil {
		return nil, false
	}
	return claims, true
}

// ExtractSubject returns the subject of a token. Callers validate first;
// an invalid token yields the parse error.
func (c *TokenCodec) ExtractSubject(token string) (string, error) {
	claims, err := c.parse(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// ExtractAuthorities returns the roles claim of a token, nil when absent.
func (c *TokenCodec) ExtractAuthorities(token string) ([]string, error) {
	claims, err := c.parse(token)
	if err != nil {
		return nil, err
	}
	return claims.Roles, nil
}

func (c *TokenCodec) parse(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := c.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return c.key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return claims, nil
}
