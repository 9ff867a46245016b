package auth

import (
	"errors"
	"testing"
	"time"
)

func TestJWTManager(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)

	token, err := m.Generate(1234)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if claims.FID != 1234 {
		t.Errorf("Expected fid 1234, got %d", claims.FID)
	}
	if claims.Subject != "1234" {
		t.Errorf("Expected subject '1234', got %q", claims.Subject)
	}
}

func TestJWTManager_Rejects(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	other := NewJWTManager("other-secret", time.Hour)
	expired := NewJWTManager("test-secret", -time.Minute)

	foreign, _ := other.Generate(1)
	stale, _ := expired.Generate(1)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong secret", foreign},
		{"expired", stale},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Validate(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Expected ErrInvalidToken, got %v", err)
			}
		})
	}

	if _, err := m.Generate(0); err == nil {
		t.Error("Expected error generating token for fid 0")
	}
}
