package model

import "time"

// OTP is a pending email verification code.
type OTP struct {
	Code      string    `json:"-"`
	ExpiresAt time.Time `json:"-"`
}

// Expired reports whether the code is no longer valid at now.
func (o OTP) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

type Account struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	GoogleID     string    `json:"-"`
	Verified     bool      `json:"verified"`
	OTP          *OTP      `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasPassword reports whether the account can log in with a password.
func (a Account) HasPassword() bool {
	return a.PasswordHash != ""
}

// Clone returns a copy that shares no pointers with a.
func (a Account) Clone() Account {
	if a.OTP != nil {
		otp := *a.OTP
		a.OTP = &otp
	}
	return a
}

// Public strips credentials and verification state.
func (a Account) Public() PublicAccount {
	return PublicAccount{
		ID:       a.ID,
		Name:     a.Name,
		Email:    a.Email,
		Verified: a.Verified,
	}
}

// PublicAccount is the only account shape that leaves the service.
type PublicAccount struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
}
