package auth

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrAccountExists         = errors.New("account already exists")
	ErrAccountNotFound       = errors.New("account not found")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrInvalidOTP            = errors.New("invalid otp")
	ErrOTPExpired            = errors.New("otp expired, register again")
	ErrEmailDeliveryFailed   = errors.New("failed to send otp email")
	ErrFederatedTokenInvalid = errors.New("invalid google token")
	ErrNotVerified           = errors.New("account not verified")
	ErrUseFederatedLogin     = errors.New("account uses google sign-in")
)
