// Package otp generates numeric one-time codes for email verification.
package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"notes-app/backend/internal/model"
)

const (
	DefaultTTL    = 10 * time.Minute
	DefaultDigits = 6
)

type Generator struct {
	ttl    time.Duration
	digits int
	now    func() time.Time
}

// NewGenerator returns a generator of codes with the given length that stay
// valid for ttl. Zero values fall back to the defaults.
func NewGenerator(ttl time.Duration, digits int, now func() time.Time) *Generator {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if digits <= 0 {
		digits = DefaultDigits
	}
	if now == nil {
		now = time.Now
	}
	return &Generator{ttl: ttl, digits: digits, now: now}
}

// Generate returns a fresh code without leading zeros and its expiry.
func (g *Generator) Generate() (model.OTP, error) {
	low := pow10(g.digits - 1)
	span := new(big.Int).Sub(pow10(g.digits), low)

	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return model.OTP{}, fmt.Errorf("otp: %w", err)
	}
	n.Add(n, low)

	return model.OTP{
		Code:      n.String(),
		ExpiresAt: g.now().UTC().Add(g.ttl),
	}, nil
}

func (g *Generator) TTL() time.Duration { return g.ttl }

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
