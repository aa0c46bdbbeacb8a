package domain

import (
	"testing"
	"time"
)

func TestActiveChallenge(t *testing.T) {
	now := time.Now().UTC()
	later := now.Add(time.Minute)

	cases := []struct {
		name string
		user User
		want bool
	}{
		{"idle", User{}, false},
		{"code without expiry", User{OTPCode: "123456"}, false},
		{"expiry without code", User{OTPExpiresAt: &later}, false},
		{"pending", User{OTPCode: "123456", OTPExpiresAt: &later}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, ok := tc.user.ActiveChallenge(); ok != tc.want {
				t.Fatalf("expected ok=%v", tc.want)
			}
		})
	}
}

func TestOTPChallengeAccepts(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	challenge := OTPChallenge{Code: "123456", ExpiresAt: now.Add(time.Minute)}

	if !challenge.Accepts("123456", now) {
		t.Fatalf("matching code before expiry must be accepted")
	}
	if challenge.Accepts("654321", now) {
		t.Fatalf("mismatched code must be rejected")
	}
	if challenge.Accepts("", now) {
		t.Fatalf("empty code must be rejected")
	}
	// El vencimiento es estricto: en el instante exacto ya no vale.
	if challenge.Accepts("123456", challenge.ExpiresAt) {
		t.Fatalf("code at the exact expiry instant must be rejected")
	}
	if challenge.Accepts("123456", challenge.ExpiresAt.Add(time.Second)) {
		t.Fatalf("expired code must be rejected")
	}
}
