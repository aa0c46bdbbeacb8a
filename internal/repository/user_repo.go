package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"phone-otp/internal/domain"
	"phone-otp/internal/firestore"
)

// ErrNotFound indica que el documento de la identidad no existe.
var ErrNotFound = errors.New("user document not found")

// Nombres de atributo del documento de identidad.
const (
	fieldPhone         = "phone"
	fieldPhoneVerified = "isPhoneVerified"
	fieldTwoFAEnabled  = "is2FAEnabled"
	fieldOTPCode       = "currentOtpCode"
	fieldOTPExpiresAt  = "otpExpiresAt"
)

// otpMask limita cada escritura a los dos campos de OTP. El resto del
// documento pertenece a otros sistemas y nunca se toca desde aqui.
var otpMask = []string{fieldOTPCode, fieldOTPExpiresAt}

// UserRepository define el contrato de acceso al registro de identidad.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (domain.User, error)
	UpdateOTP(ctx context.Context, id, code string, expiresAt time.Time) error
	ClearOTP(ctx context.Context, id string) error
}

// FirestoreUserRepository implementa UserRepository sobre la coleccion
// "users" del document store.
type FirestoreUserRepository struct {
	client *firestore.Client
}

func NewFirestoreUserRepository(client *firestore.Client) *FirestoreUserRepository {
	return &FirestoreUserRepository{client: client}
}

func (r *FirestoreUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	fields, err := r.client.GetDocument(ctx, "users/"+id)
	if err != nil {
		var statusErr *firestore.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, fmt.Errorf("get user %s: %w", id, err)
	}

	user := domain.User{ID: id}
	if phone, ok := fields[fieldPhone].StringValue(); ok {
		user.Phone = phone
	}
	if verified, ok := fields[fieldPhoneVerified].BooleanValue(); ok {
		user.PhoneVerified = verified
	}
	if enabled, ok := fields[fieldTwoFAEnabled].BooleanValue(); ok {
		user.TwoFAEnabled = enabled
	}
	if code, ok := fields[fieldOTPCode].StringValue(); ok {
		user.OTPCode = code
	}
	if expiresAt, ok := fields[fieldOTPExpiresAt].TimestampValue(); ok {
		user.OTPExpiresAt = &expiresAt
	}
	return user, nil
}

func (r *FirestoreUserRepository) UpdateOTP(ctx context.Context, id, code string, expiresAt time.Time) error {
	fields := map[string]firestore.Value{
		fieldOTPCode:      firestore.String(code),
		fieldOTPExpiresAt: firestore.Timestamp(expiresAt),
	}
	if err := r.client.PatchDocument(ctx, "users/"+id, fields, otpMask); err != nil {
		return fmt.Errorf("update otp for %s: %w", id, err)
	}
	return nil
}

func (r *FirestoreUserRepository) ClearOTP(ctx context.Context, id string) error {
	fields := map[string]firestore.Value{
		fieldOTPCode:      firestore.Null(),
		fieldOTPExpiresAt: firestore.Null(),
	}
	if err := r.client.PatchDocument(ctx, "users/"+id, fields, otpMask); err != nil {
		return fmt.Errorf("clear otp for %s: %w", id, err)
	}
	return nil
}
