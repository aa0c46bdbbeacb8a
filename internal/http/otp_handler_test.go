package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"phone-otp/internal/domain"
	"phone-otp/internal/repository"
	"phone-otp/internal/service"
)

type mockUserRepo struct {
	users map[string]domain.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]domain.User)}
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	user, ok := m.users[id]
	if !ok {
		return domain.User{}, repository.ErrNotFound
	}
	return user, nil
}

func (m *mockUserRepo) UpdateOTP(_ context.Context, id, code string, expiresAt time.Time) error {
	user := m.users[id]
	user.OTPCode = code
	user.OTPExpiresAt = &expiresAt
	m.users[id] = user
	return nil
}

func (m *mockUserRepo) ClearOTP(_ context.Context, id string) error {
	user := m.users[id]
	user.OTPCode = ""
	user.OTPExpiresAt = nil
	m.users[id] = user
	return nil
}

type mockSender struct {
	codes  []string
	phones []string
}

func (m *mockSender) SendOTP(_ context.Context, toPhone, code string, _ time.Duration) error {
	m.phones = append(m.phones, toPhone)
	m.codes = append(m.codes, code)
	return nil
}

func newTestRouter(repo *mockUserRepo, sender *mockSender) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	svc := service.NewOTPService(logger, repo, sender, service.NewOTPRateLimiter(time.Hour, 100))
	return NewRouter(logger, NewOTPHandler(logger, svc))
}

func doRequest(t *testing.T, router *gin.Engine, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/auth/otp", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestOTPHandler_SendEndToEnd(t *testing.T) {
	repo := newMockUserRepo()
	repo.users["u1"] = domain.User{
		ID:            "u1",
		Phone:         "+1555",
		PhoneVerified: true,
		TwoFAEnabled:  true,
	}
	sender := &mockSender{}
	router := newTestRouter(repo, sender)

	rec := doRequest(t, router, map[string]string{
		"userId": "u1",
		"phone":  "+1555",
		"action": "send",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Success   bool   `json:"success"`
		Message   string `json:"message"`
		ExpiresIn string `json:"expiresIn"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !resp.Success || resp.Message != "OTP sent via SMS" || resp.ExpiresIn != "5 minutes" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	if len(sender.codes) != 1 {
		t.Fatalf("expected exactly one delivery, got %d", len(sender.codes))
	}
	code := sender.codes[0]
	if len(code) != 6 {
		t.Fatalf("expected 6-digit code, got %q", code)
	}
	for _, r := range code {
		if !unicode.IsDigit(r) {
			t.Fatalf("non-digit in delivered code %q", code)
		}
	}
	if sender.phones[0] != "+1555" {
		t.Fatalf("unexpected destination: %q", sender.phones[0])
	}
}

func TestOTPHandler_VerifyFlow(t *testing.T) {
	repo := newMockUserRepo()
	expiresAt := time.Now().UTC().Add(time.Minute)
	repo.users["u1"] = domain.User{
		ID:            "u1",
		Phone:         "+1555",
		PhoneVerified: true,
		TwoFAEnabled:  true,
		OTPCode:       "123456",
		OTPExpiresAt:  &expiresAt,
	}
	router := newTestRouter(repo, &mockSender{})

	rec := doRequest(t, router, map[string]string{
		"userId": "u1",
		"otp":    "123456",
		"action": "verify",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// Un solo uso: repetir el mismo codigo devuelve 400.
	rec = doRequest(t, router, map[string]string{
		"userId": "u1",
		"otp":    "123456",
		"action": "verify",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on reuse, got %d", rec.Code)
	}
	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Success || resp.Message != "Invalid or expired OTP" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestOTPHandler_ErrorMapping(t *testing.T) {
	repo := newMockUserRepo()
	repo.users["locked"] = domain.User{ID: "locked", Phone: "+1555"}
	router := newTestRouter(repo, &mockSender{})

	cases := []struct {
		name    string
		payload map[string]string
		status  int
	}{
		{"unknown user", map[string]string{"userId": "ghost", "action": "send"}, http.StatusNotFound},
		{"not eligible", map[string]string{"userId": "locked", "action": "send"}, http.StatusForbidden},
		{"missing code", map[string]string{"userId": "locked", "action": "verify"}, http.StatusBadRequest},
		{"bad action", map[string]string{"userId": "u1", "action": "resend"}, http.StatusBadRequest},
		{"missing user id", map[string]string{"action": "send"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, router, tc.payload)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
		})
	}
}
