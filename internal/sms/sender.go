package sms

import (
	"context"
	"errors"
	"time"
)

// Sender define la interfaz para entregar codigos OTP por SMS.
type Sender interface {
	SendOTP(ctx context.Context, toPhone, code string, ttl time.Duration) error
}

type disabledSender struct {
	reason string
}

// NewDisabledSender devuelve un Sender que siempre falla con la razon
// dada; se usa cuando el transporte no esta configurado.
func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendOTP(_ context.Context, _, _ string, _ time.Duration) error {
	if s.reason == "" {
		return errors.New("sms sender disabled")
	}
	return errors.New(s.reason)
}
