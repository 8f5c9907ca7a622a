package auth

import (
	"fmt"

	"github.com/suporte/usuarios-api/config"
	"github.com/suporte/usuarios-api/password"
)

// Account is a configured login that lives outside the user store.
type Account struct {
	Username     string
	PasswordHash string
	Authorities  []string
}

// AccountStore holds the seed accounts. Passwords are hashed once at
// construction and the store is read-only afterwards.
type AccountStore struct {
	accounts map[string]Account
}

// NewAccountStore hashes every seed with encoder. A later seed with the same
// username replaces an earlier one.
func NewAccountStore(encoder password.Encoder, seeds []config.SeedAccount) (*AccountStore, error) {
	s := &AccountStore{accounts: make(map[string]Account, len(seeds))}
	for _, seed := range seeds {
		hash, err := encoder.Encode(seed.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password of seed account %q: %w", seed.Username, err)
		}
		s.accounts[seed.Username] = Account{
			Username:     seed.Username,
			PasswordHash: hash,
			Authorities:  append([]string(nil), seed.Authorities...),
		}
	}
	return s, nil
}

// Lookup returns the account for username.
func (s *AccountStore) Lookup(username string) (Account, bool) {
	a, ok := s.accounts[username]
	return a, ok
}

// Len returns the number of accounts.
func (s *AccountStore) Len() int {
	return len(s.accounts)
}
