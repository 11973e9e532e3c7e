package email

import (
	"context"
	"errors"
)

// Sender define la interfaz para envio de correos de verificacion.
type Sender interface {
	SendVerification(ctx context.Context, toEmail string, verifyURL string) error
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendVerification(_ context.Context, _ string, _ string) error {
	if s.reason == "" {
		return errors.New("email sender disabled")
	}
	return errors.New(s.reason)
}
