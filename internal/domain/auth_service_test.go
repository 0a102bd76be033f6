package domain

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/chatline/backend/internal/auth"
)

type authEnv struct {
	users  *memUsers
	codes  *memCodes
	mailer *memMailer
	svc    *AuthService
}

func newAuthEnv(t *testing.T) *authEnv {
	t.Helper()
	users := newMemUsers()
	codes := newMemCodes()
	mailer := &memMailer{}
	jwt := auth.NewJWTManager("test-secret", time.Hour)
	return &authEnv{
		users:  users,
		codes:  codes,
		mailer: mailer,
		svc:    NewAuthService(users, codes, jwt, mailer, zap.NewNop()),
	}
}

func (e *authEnv) storedCode(t *testing.T, email string) string {
	t.Helper()
	code, err := e.codes.GetCode(context.Background(), email)
	if err != nil {
		t.Fatal(err)
	}
	return code.Code
}

func TestSendSignupCode(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()

	if err := env.svc.SendSignupCode(ctx, ""); !IsKind(err, KindValidation) {
		t.Errorf("empty email err = %v, want validation", err)
	}

	if err := env.svc.SendSignupCode(ctx, "a@example.com"); err != nil {
		t.Fatal(err)
	}
	code := env.storedCode(t, "a@example.com")
	if len(code) != 6 {
		t.Errorf("code length = %d, want 6", len(code))
	}
	if len(env.mailer.sent) != 1 || !strings.Contains(env.mailer.sent[0], code) {
		t.Errorf("mail = %v, want one message carrying the code", env.mailer.sent)
	}

	// Resending replaces the stored code.
	if err := env.svc.SendSignupCode(ctx, "a@example.com"); err != nil {
		t.Fatal(err)
	}
	if len(env.mailer.sent) != 2 {
		t.Errorf("sent = %d, want 2", len(env.mailer.sent))
	}
}

func TestRegister(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()

	if err := env.svc.SendSignupCode(ctx, "a@example.com"); err != nil {
		t.Fatal(err)
	}
	code := env.storedCode(t, "a@example.com")

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	_, err := env.svc.Register(ctx, RegisterParams{
		Name: "Alice", Nik: "alice", Email: "a@example.com",
		Password: "password1", Code: wrong,
	})
	if !IsKind(err, KindConflict) {
		t.Errorf("wrong code err = %v, want conflict", err)
	}

	user, err := env.svc.Register(ctx, RegisterParams{
		Name: "Alice", Nik: "alice", Email: "a@example.com",
		Password: "password1", Code: code,
	})
	if err != nil {
		t.Fatal(err)
	}
	if user.Nik != "alice" || user.Email != "a@example.com" {
		t.Errorf("user = %+v", user)
	}

	// The code is spent: replaying the signup fails.
	_, err = env.svc.Register(ctx, RegisterParams{
		Name: "Alice2", Nik: "alice2", Email: "a@example.com",
		Password: "password1", Code: code,
	})
	if !IsKind(err, KindConflict) {
		t.Errorf("replayed code err = %v, want conflict", err)
	}
}

func TestRegisterUniqueness(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()
	env.users.add("Alice", "alice")

	if err := env.svc.SendSignupCode(ctx, "b@example.com"); err != nil {
		t.Fatal(err)
	}
	code := env.storedCode(t, "b@example.com")

	_, err := env.svc.Register(ctx, RegisterParams{
		Name: "Alice", Nik: "other", Email: "b@example.com",
		Password: "password1", Code: code,
	})
	if !IsKind(err, KindConflict) {
		t.Errorf("duplicate name err = %v, want conflict", err)
	}

	_, err = env.svc.Register(ctx, RegisterParams{
		Name: "Other", Nik: "alice", Email: "b@example.com",
		Password: "password1", Code: code,
	})
	if !IsKind(err, KindConflict) {
		t.Errorf("duplicate nik err = %v, want conflict", err)
	}
}

func TestRegisterExpiredCode(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()

	if err := env.codes.UpsertCode(ctx, VerificationCode{
		Email:     "a@example.com",
		Code:      "123456",
		ExpiresAt: time.Now().Add(-time.Minute),
	}); err != nil {
		t.Fatal(err)
	}

	_, err := env.svc.Register(ctx, RegisterParams{
		Name: "Alice", Nik: "alice", Email: "a@example.com",
		Password: "password1", Code: "123456",
	})
	if !IsKind(err, KindConflict) {
		t.Errorf("expired code err = %v, want conflict", err)
	}
}

func TestLogin(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()

	hash, err := auth.HashPassword("password1")
	if err != nil {
		t.Fatal(err)
	}
	email := "a@example.com"
	if _, err := env.users.CreateUser(ctx, CreateUserParams{
		Name: "Alice", Nik: "alice", Email: &email,
		PasswordHash: hash, Theme: ThemeLight,
	}); err != nil {
		t.Fatal(err)
	}

	result, err := env.svc.Login(ctx, "alice", "password1")
	if err != nil {
		t.Fatal(err)
	}
	if result.AccessToken == "" {
		t.Error("empty access token")
	}
	if !result.ExpiresAt.After(time.Now()) {
		t.Error("token already expired")
	}

	if _, err := env.svc.Login(ctx, "alice", "wrong-pass"); !IsKind(err, KindConflict) {
		t.Errorf("wrong password err = %v, want conflict", err)
	}
	// Unknown nik is indistinguishable from a wrong password.
	if _, err := env.svc.Login(ctx, "nobody", "password1"); !IsKind(err, KindConflict) {
		t.Errorf("unknown nik err = %v, want conflict", err)
	}
}
