package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"phone-otp/internal/repository"
	"phone-otp/internal/sms"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrNotEligible         = errors.New("user not eligible for sms 2fa")
	ErrMissingPhone        = errors.New("phone number missing")
	ErrMissingCode         = errors.New("otp code missing")
	ErrOTPInvalidOrExpired = errors.New("otp invalid or expired")
	ErrSMSSendFailure      = errors.New("sms send failed")
	ErrRateLimited         = errors.New("rate limited")
)

// OTPTTL es la vigencia de cada codigo desde su generacion.
const OTPTTL = 5 * time.Minute

// OTPService coordina el ciclo de vida del OTP sobre el registro de
// identidad remoto: generacion, persistencia, entrega y verificacion de
// un solo uso.
type OTPService struct {
	logger  *zap.Logger
	users   repository.UserRepository
	sender  sms.Sender
	limiter OTPRateLimiter
	now     func() time.Time
}

func NewOTPService(logger *zap.Logger, users repository.UserRepository, sender sms.Sender, limiter OTPRateLimiter) *OTPService {
	if limiter == nil {
		limiter = NewOTPRateLimiter(OTPTTL, 3)
	}
	return &OTPService{
		logger:  logger,
		users:   users,
		sender:  sender,
		limiter: limiter,
		now:     time.Now,
	}
}

// SendOTP genera un codigo nuevo para la identidad, lo persiste con su
// vencimiento (escritura enmascarada a los dos campos de OTP) y lo
// entrega por SMS. Si la entrega falla despues del patch, el codigo
// almacenado queda vigente hasta su vencimiento natural: no hay rollback.
func (s *OTPService) SendOTP(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrUserNotFound
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if !user.Eligible() {
		return ErrNotEligible
	}
	if strings.TrimSpace(user.Phone) == "" {
		return ErrMissingPhone
	}

	if s.limiter != nil && !s.limiter.Allow(userID) {
		return ErrRateLimited
	}

	code, err := generateOTPCode()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	expiresAt := s.now().UTC().Add(OTPTTL)

	if err := s.users.UpdateOTP(ctx, userID, code, expiresAt); err != nil {
		return err
	}

	if err := s.sender.SendOTP(ctx, user.Phone, code, OTPTTL); err != nil {
		if s.logger != nil {
			s.logger.Warn("otp delivery failed after patch",
				zap.String("user_id", userID), zap.Error(err))
		}
		return ErrSMSSendFailure
	}
	return nil
}

// VerifyOTP compara el codigo candidato contra el desafio almacenado.
// Acepta solo si coincide y el vencimiento esta estrictamente en el
// futuro; en ese caso limpia ambos campos por el mismo patch enmascarado
// (un solo uso). En cualquier falla el registro no se toca.
func (s *OTPService) VerifyOTP(ctx context.Context, userID, code string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrUserNotFound
	}

	// La identidad se resuelve antes de mirar el codigo: un usuario
	// inexistente es not-found aunque el request venga sin codigo.
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return ErrMissingCode
	}
	if !isValidOTPCode(code) {
		return ErrOTPInvalidOrExpired
	}

	challenge, ok := user.ActiveChallenge()
	if !ok || !challenge.Accepts(code, s.now().UTC()) {
		return ErrOTPInvalidOrExpired
	}

	return s.users.ClearOTP(ctx, userID)
}

// generateOTPCode devuelve un codigo de 6 digitos uniforme en
// [100000, 999999].
func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func isValidOTPCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
