// Package identity verifies third-party identity tokens.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/idtoken"
)

var ErrInvalidToken = errors.New("invalid identity token")

// Claims are the verified facts about the token holder.
type Claims struct {
	Subject string
	Email   string
	Name    string
}

type Verifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

type validateFunc func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// GoogleVerifier checks Google ID tokens issued for one OAuth client.
type GoogleVerifier struct {
	audience string
	validate validateFunc
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{audience: clientID, validate: idtoken.Validate}
}

func (v *GoogleVerifier) Verify(ctx context.Context, token string) (Claims, error) {
	if strings.TrimSpace(token) == "" {
		return Claims{}, ErrInvalidToken
	}
	if v.audience == "" {
		return Claims{}, fmt.Errorf("%w: google client id not configured", ErrInvalidToken)
	}

	payload, err := v.validate(ctx, token, v.audience)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" || payload.Subject == "" {
		return Claims{}, fmt.Errorf("%w: missing email or subject", ErrInvalidToken)
	}
	if verified, ok := payload.Claims["email_verified"].(bool); ok && !verified {
		return Claims{}, fmt.Errorf("%w: email not verified by provider", ErrInvalidToken)
	}
	name, _ := payload.Claims["name"].(string)

	return Claims{Subject: payload.Subject, Email: email, Name: name}, nil
}
