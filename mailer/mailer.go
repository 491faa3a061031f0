// Package mailer delivers verification codes by email.
package mailer

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

// CodeTTL is how long an emailed verification code stays valid.
const CodeTTL = 10 * time.Minute

var ErrNotConfigured = errors.New("mailer: resend api key not configured")

type Mailer interface {
	SendVerification(ctx context.Context, to, code string) error
}

// GenerateCode returns a random 6 digit code.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

type emailSender interface {
	Send(params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

type Resend struct {
	emails emailSender
	from   string
	log    *zap.Logger
}

func NewResend(apiKey, from string, log *zap.Logger) (*Resend, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	return &Resend{emails: resend.NewClient(apiKey).Emails, from: from, log: log}, nil
}

func (r *Resend) SendVerification(ctx context.Context, to, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sent, err := r.emails.Send(&resend.SendEmailRequest{
		From:    r.from,
		To:      []string{to},
		Subject: verificationSubject,
		Html:    fmt.Sprintf(verificationHTML, code),
		Text:    fmt.Sprintf(verificationText, code),
	})
	if err != nil {
		r.log.Error("Failed to send verification email", zap.String("to", to), zap.Error(err))
		return fmt.Errorf("send verification email: %w", err)
	}
	r.log.Info("Verification email sent", zap.String("to", to), zap.String("id", sent.Id))
	return nil
}

// Log only records the code. Used when no Resend key is configured.
type Log struct {
	log *zap.Logger
}

func NewLog(log *zap.Logger) *Log {
	return &Log{log: log}
}

func (l *Log) SendVerification(_ context.Context, to, code string) error {
	l.log.Warn("Email delivery disabled, verification code logged", zap.String("to", to), zap.String("code", code))
	return nil
}

// New returns a Resend mailer when apiKey is set and a Log mailer otherwise.
func New(apiKey, from string, log *zap.Logger) Mailer {
	m, err := NewResend(apiKey, from, log)
	if err != nil {
		return NewLog(log)
	}
	return m
}
