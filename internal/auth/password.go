package auth

import (
	"errors"

	"notes-app/backend/internal/model"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt ignores input past this length; longer passwords are rejected.
const maxPasswordBytes = 72

type PasswordHasher interface {
	Hash(raw string) (string, error)
	// Compare returns nil when raw matches hash.
	Compare(hash, raw string) error
}

type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(raw string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(raw), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h BcryptHasher) Compare(hash, raw string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw))
}

var errNoPassword = errors.New("account has no password")

// checkPassword reports whether raw is the password of a.
func checkPassword(h PasswordHasher, a model.Account, raw string) (bool, error) {
	if !a.HasPassword() {
		return false, errNoPassword
	}
	if err := h.Compare(a.PasswordHash, raw); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
