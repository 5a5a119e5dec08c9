package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Mailer delivers account messages to users.
type Mailer interface {
	SendPasswordResetCode(ctx context.Context, email, code string) error
}

// LogMailer writes messages to the log instead of sending them. It is used
// when no outbound mail transport is configured.
type LogMailer struct {
	logger *logrus.Logger
}

func NewLogMailer(logger *logrus.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendPasswordResetCode(ctx context.Context, email, code string) error {
	m.logger.WithFields(logrus.Fields{
		"to":   email,
		"code": code,
	}).Info("password reset code issued")
	return nil
}
