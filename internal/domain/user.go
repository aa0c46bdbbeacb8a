package domain

import (
	"crypto/subtle"
	"time"
)

// User representa el registro de identidad almacenado en el document store.
// El servicio solo lee el registro y escribe los dos campos de OTP;
// nunca crea ni elimina el documento.
type User struct {
	ID            string     `json:"id"`
	Phone         string     `json:"phone,omitempty"`
	PhoneVerified bool       `json:"is_phone_verified"`
	TwoFAEnabled  bool       `json:"is_2fa_enabled"`
	OTPCode       string     `json:"-"`
	OTPExpiresAt  *time.Time `json:"otp_expires_at,omitempty"`
}

// OTPChallenge es un desafio OTP pendiente: codigo y vencimiento.
type OTPChallenge struct {
	Code      string
	ExpiresAt time.Time
}

// ActiveChallenge devuelve el desafio pendiente de verificacion.
// Solo existe cuando codigo y vencimiento estan presentes a la vez:
// un codigo sin vencimiento (o al reves) se trata como estado idle.
func (u User) ActiveChallenge() (OTPChallenge, bool) {
	if u.OTPCode == "" || u.OTPExpiresAt == nil {
		return OTPChallenge{}, false
	}
	return OTPChallenge{Code: u.OTPCode, ExpiresAt: *u.OTPExpiresAt}, true
}

// Eligible indica si la identidad puede recibir un segundo factor por SMS.
func (u User) Eligible() bool {
	return u.PhoneVerified && u.TwoFAEnabled
}

// Accepts acepta el codigo candidato si coincide y el desafio no vencio.
// La comparacion es en tiempo constante y el vencimiento es estricto:
// con now == ExpiresAt el codigo ya no vale.
func (c OTPChallenge) Accepts(code string, now time.Time) bool {
	if code == "" {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(c.Code), []byte(code)) != 1 {
		return false
	}
	return now.Before(c.ExpiresAt)
}
