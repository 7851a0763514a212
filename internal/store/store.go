package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"notes-app/backend/internal/model"
)

var (
	ErrNotFound      = errors.New("not_found")
	ErrConflict      = errors.New("conflict")
	ErrEmailRequired = errors.New("email_required")
)

// Store persists accounts. Implementations must be safe for concurrent use
// and give read-your-writes consistency per account.
type Store interface {
	// CreateAccount inserts a new account. A zero ID or CreatedAt is filled in
	// by the store. Returns ErrConflict when the email is already taken.
	CreateAccount(ctx context.Context, a model.Account) (model.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*model.Account, error)
	GetAccountByID(ctx context.Context, id string) (*model.Account, error)
	// UpdateAccount replaces the mutable fields of an existing account.
	// Returns ErrNotFound when it no longer exists.
	UpdateAccount(ctx context.Context, a model.Account) (model.Account, error)
	// DeleteAccount is idempotent: deleting a missing account is not an error.
	DeleteAccount(ctx context.Context, id string) error
	// DeleteUnverifiedBefore removes every unverified account created before
	// cutoff and returns how many were removed.
	DeleteUnverifiedBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// NormalizeEmail is the canonical form used as the account natural key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
