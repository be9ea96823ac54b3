package auth

import (
	"errors"

	"github.com/alexedwards/argon2id"
)

var ErrNoPassphrase = errors.New("admin passphrase is not configured")

// Passphrase verifies the shared admin passphrase against an argon2id hash.
type Passphrase struct {
	hash string
}

// NewPassphrase prefers a precomputed hash and otherwise hashes plain.
func NewPassphrase(plain, hash string) (*Passphrase, error) {
	if hash != "" {
		if _, _, _, err := argon2id.DecodeHash(hash); err != nil {
			return nil, err
		}
		return &Passphrase{hash: hash}, nil
	}
	if plain == "" {
		return nil, ErrNoPassphrase
	}
	h, err := argon2id.CreateHash(plain, argon2id.DefaultParams)
	if err != nil {
		return nil, err
	}
	return &Passphrase{hash: h}, nil
}

func (p *Passphrase) Matches(candidate string) bool {
	if candidate == "" {
		return false
	}
	ok, err := argon2id.ComparePasswordAndHash(candidate, p.hash)
	return err == nil && ok
}
