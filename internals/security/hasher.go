package security

import (
	"github.com/alexedwards/argon2id"
)

// PasswordHasher hashes with argon2id. Params are configurable so tests can
// run with a cheap memory cost.
type PasswordHasher struct {
	params *argon2id.Params
}

func NewPasswordHasher(params *argon2id.Params) *PasswordHasher {
	if params == nil {
		params = argon2id.DefaultParams
	}
	return &PasswordHasher{params: params}
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	return argon2id.CreateHash(password, h.params)
}

func (h *PasswordHasher) Compare(password, hash string) (bool, error) {
	return argon2id.ComparePasswordAndHash(password, hash)
}
