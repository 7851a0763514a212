// Package auth runs the account lifecycle: password registration with email
// verification, password login and Google sign-in.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"notes-app/backend/internal/identity"
	"notes-app/backend/internal/logging"
	"notes-app/backend/internal/model"
	"notes-app/backend/internal/notify"
	"notes-app/backend/internal/store"
)

// federatedAttempts bounds how often GoogleLogin re-reads an account that
// changed underneath it.
const federatedAttempts = 3

type CodeGenerator interface {
	Generate() (model.OTP, error)
}

type TokenIssuer interface {
	Issue(accountID string) (string, error)
}

type Deps struct {
	Store    store.Store
	Hasher   PasswordHasher
	OTP      CodeGenerator
	Tokens   TokenIssuer
	Notifier notify.Notifier
	Verifier identity.Verifier
	Log      logging.Logger
	Now      func() time.Time
}

type Service struct {
	store    store.Store
	hasher   PasswordHasher
	otp      CodeGenerator
	tokens   TokenIssuer
	notifier notify.Notifier
	verifier identity.Verifier
	log      logging.Logger
	now      func() time.Time
}

// Result is returned by every operation that signs the caller in.
type Result struct {
	Account model.PublicAccount `json:"account"`
	Token   string              `json:"token"`
}

func NewService(d Deps) (*Service, error) {
	switch {
	case d.Store == nil:
		return nil, errors.New("auth: store is required")
	case d.OTP == nil:
		return nil, errors.New("auth: otp generator is required")
	case d.Tokens == nil:
		return nil, errors.New("auth: token issuer is required")
	case d.Notifier == nil:
		return nil, errors.New("auth: notifier is required")
	case d.Verifier == nil:
		return nil, errors.New("auth: identity verifier is required")
	}
	if d.Hasher == nil {
		d.Hasher = BcryptHasher{}
	}
	if d.Log == nil {
		d.Log = logging.Discard()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Service{
		store:    d.Store,
		hasher:   d.Hasher,
		otp:      d.OTP,
		tokens:   d.Tokens,
		notifier: d.Notifier,
		verifier: d.Verifier,
		log:      d.Log.With("component", "auth"),
		now:      d.Now,
	}, nil
}

// Register creates an unverified password account and mails it an OTP.
// No token is issued until the code is verified.
func (s *Service) Register(ctx context.Context, name, email, password string) (model.PublicAccount, error) {
	name = strings.TrimSpace(name)
	email = store.NormalizeEmail(email)
	if name == "" || strings.TrimSpace(password) == "" {
		return model.PublicAccount{}, fmt.Errorf("%w: name, email and password are required", ErrInvalidInput)
	}
	if err := validateEmail(email); err != nil {
		return model.PublicAccount{}, err
	}
	if len(password) > maxPasswordBytes {
		return model.PublicAccount{}, fmt.Errorf("%w: password longer than %d bytes", ErrInvalidInput, maxPasswordBytes)
	}

	_, err := s.store.GetAccountByEmail(ctx, email)
	switch {
	case err == nil:
		return model.PublicAccount{}, ErrAccountExists
	case !errors.Is(err, store.ErrNotFound):
		return model.PublicAccount{}, fmt.Errorf("lookup account: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return model.PublicAccount{}, fmt.Errorf("hash password: %w", err)
	}
	code, err := s.otp.Generate()
	if err != nil {
		return model.PublicAccount{}, err
	}

	created, err := s.store.CreateAccount(ctx, model.Account{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		OTP:          &code,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return model.PublicAccount{}, ErrAccountExists
		}
		return model.PublicAccount{}, fmt.Errorf("create account: %w", err)
	}

	if err := s.notifier.SendOTP(ctx, created.Email, code.Code); err != nil {
		// Roll back so the address can register again.
		if delErr := s.store.DeleteAccount(context.WithoutCancel(ctx), created.ID); delErr != nil {
			s.log.Error(ctx, "rollback after failed otp delivery", "account_id", created.ID, "error", delErr)
		}
		s.log.Warn(ctx, "otp delivery failed", "account_id", created.ID, "error", err)
		return model.PublicAccount{}, fmt.Errorf("%w: %v", ErrEmailDeliveryFailed, err)
	}

	s.log.Info(ctx, "account registered", "account_id", created.ID)
	return created.Public(), nil
}

// VerifyOTP confirms the pending code for email. An expired code deletes
// the account; the owner has to register again.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) (Result, error) {
	a, err := s.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Result{}, ErrAccountNotFound
		}
		return Result{}, err
	}

	if a.OTP == nil || subtle.ConstantTimeCompare([]byte(a.OTP.Code), []byte(strings.TrimSpace(code))) != 1 {
		return Result{}, ErrInvalidOTP
	}

	if a.OTP.Expired(s.now()) {
		if err := s.store.DeleteAccount(ctx, a.ID); err != nil {
			return Result{}, fmt.Errorf("delete expired account: %w", err)
		}
		s.log.Info(ctx, "expired otp, account removed", "account_id", a.ID)
		return Result{}, ErrOTPExpired
	}

	a.Verified = true
	a.OTP = nil
	updated, err := s.store.UpdateAccount(ctx, *a)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Result{}, ErrAccountNotFound
		}
		return Result{}, fmt.Errorf("update account: %w", err)
	}

	s.log.Info(ctx, "account verified", "account_id", updated.ID)
	return s.signIn(updated)
}

// Login signs in a verified password account.
func (s *Service) Login(ctx context.Context, email, password string) (Result, error) {
	a, err := s.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Result{}, ErrInvalidCredentials
		}
		return Result{}, err
	}

	ok, err := checkPassword(s.hasher, *a, password)
	switch {
	case errors.Is(err, errNoPassword):
		return Result{}, ErrUseFederatedLogin
	case err != nil:
		return Result{}, fmt.Errorf("compare password: %w", err)
	case !ok:
		return Result{}, ErrInvalidCredentials
	}

	if !a.Verified {
		return Result{}, ErrNotVerified
	}
	return s.signIn(*a)
}

// GoogleLogin signs in with a Google ID token. An account with the same
// email is linked to the Google subject; otherwise a verified account is
// created.
func (s *Service) GoogleLogin(ctx context.Context, idToken string) (Result, error) {
	claims, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrFederatedTokenInvalid, err)
	}
	email := store.NormalizeEmail(claims.Email)

	for attempt := 0; attempt < federatedAttempts; attempt++ {
		a, err := s.findByEmail(ctx, email)
		if errors.Is(err, store.ErrNotFound) {
			created, err := s.store.CreateAccount(ctx, model.Account{
				Name:     displayName(claims),
				Email:    email,
				GoogleID: claims.Subject,
				Verified: true,
			})
			if errors.Is(err, store.ErrConflict) {
				continue
			}
			if err != nil {
				return Result{}, fmt.Errorf("create account: %w", err)
			}
			s.log.Info(ctx, "account created via google", "account_id", created.ID)
			return s.signIn(created)
		}
		if err != nil {
			return Result{}, err
		}

		if a.GoogleID != "" {
			return s.signIn(*a)
		}

		a.GoogleID = claims.Subject
		a.Verified = true
		a.OTP = nil
		linked, err := s.store.UpdateAccount(ctx, *a)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return Result{}, fmt.Errorf("link account: %w", err)
		}
		s.log.Info(ctx, "google identity linked", "account_id", linked.ID)
		return s.signIn(linked)
	}
	return Result{}, fmt.Errorf("google login: account for %s kept changing", email)
}

// Profile returns the public view of an account.
func (s *Service) Profile(ctx context.Context, accountID string) (model.PublicAccount, error) {
	a, err := s.store.GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.PublicAccount{}, ErrAccountNotFound
		}
		return model.PublicAccount{}, fmt.Errorf("lookup account: %w", err)
	}
	return a.Public(), nil
}

func (s *Service) findByEmail(ctx context.Context, email string) (*model.Account, error) {
	a, err := s.store.GetAccountByEmail(ctx, store.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	return a, nil
}

func (s *Service) signIn(a model.Account) (Result, error) {
	tok, err := s.tokens.Issue(a.ID)
	if err != nil {
		return Result{}, fmt.Errorf("issue token: %w", err)
	}
	return Result{Account: a.Public(), Token: tok}, nil
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: name, email and password are required", ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: malformed email", ErrInvalidInput)
	}
	return nil
}

func displayName(c identity.Claims) string {
	if n := strings.TrimSpace(c.Name); n != "" {
		return n
	}
	local, _, _ := strings.Cut(c.Email, "@")
	return local
}
