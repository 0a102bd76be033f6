package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestGenerateAndValidateToken(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	userID := uuid.New()

	token, expiresAt, err := m.GenerateAccessToken(userID, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if token == "" {
		t.Fatal("empty token")
	}
	if !expiresAt.After(time.Now()) {
		t.Error("token expires in the past")
	}

	claims, err := m.ValidateAccessToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != userID {
		t.Errorf("user id = %s, want %s", claims.UserID, userID)
	}
	if claims.Nik != "alice" {
		t.Errorf("nik = %q, want alice", claims.Nik)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	m := NewJWTManager("secret-a", time.Hour)
	other := NewJWTManager("secret-b", time.Hour)

	token, _, err := m.GenerateAccessToken(uuid.New(), "alice")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := other.ValidateAccessToken(token); err != ErrInvalidToken {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestValidateTokenExpired(t *testing.T) {
	m := NewJWTManager("test-secret", -time.Minute)

	token, _, err := m.GenerateAccessToken(uuid.New(), "alice")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := m.ValidateAccessToken(token); err != ErrExpiredToken {
		t.Errorf("err = %v, want ErrExpiredToken", err)
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	if _, err := m.ValidateAccessToken("not.a.token"); err != ErrInvalidToken {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}
