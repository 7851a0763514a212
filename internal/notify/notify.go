// Package notify delivers one-time verification codes to account owners.
package notify

import (
	"context"

	"notes-app/backend/internal/logging"
)

// Notifier sends the OTP for email. A returned error means the code did not
// reach the delivery channel.
type Notifier interface {
	SendOTP(ctx context.Context, email, code string) error
}

// LogNotifier writes codes to the log instead of mailing them. Development only.
type LogNotifier struct {
	log logging.Logger
}

func NewLogNotifier(log logging.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) SendOTP(ctx context.Context, email, code string) error {
	n.log.Info(ctx, "otp issued", "email", email, "code", code)
	return nil
}
