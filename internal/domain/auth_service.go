package domain

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/chatline/backend/internal/auth"
)

const (
	codeLength = 6
	codeTTL    = 10 * time.Minute
)

// Mailer delivers outbound email. Implemented by internal/mail.
type Mailer interface {
	Send(to, subject, body string) error
}

// AuthService handles signup and login: emailed verification codes,
// account creation with uniqueness checks, and token issuance.
type AuthService struct {
	users  UserRepository
	codes  CodeRepository
	jwt    *auth.JWTManager
	mailer Mailer
	logger *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(users UserRepository, codes CodeRepository, jwt *auth.JWTManager, mailer Mailer, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:  users,
		codes:  codes,
		jwt:    jwt,
		mailer: mailer,
		logger: logger,
	}
}

// SendSignupCode generates a verification code for the email, stores it
// with a TTL and delivers it. Codes are keyed by email; a resend replaces
// the previous code.
func (s *AuthService) SendSignupCode(ctx context.Context, email string) error {
	if email == "" {
		return Validationf("email is required")
	}

	code, err := generateCode(codeLength)
	if err != nil {
		return Internal("failed to generate verification code", err)
	}

	if err := s.codes.UpsertCode(ctx, VerificationCode{
		Email:     email,
		Code:      code,
		ExpiresAt: time.Now().Add(codeTTL),
	}); err != nil {
		return err
	}

	if err := s.mailer.Send(email, "Your verification code", "Verification code: "+code); err != nil {
		s.logger.Error("failed to send verification code", zap.String("email", email), zap.Error(err))
		return Internal("failed to send verification code", err)
	}
	return nil
}

// RegisterParams holds signup input.
type RegisterParams struct {
	Name     string
	Nik      string
	Email    string
	Password string
	Code     string
}

// Register verifies the emailed code and creates the account. Name and nik
// must be unique.
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (*UserResponse, error) {
	stored, err := s.codes.GetCode(ctx, params.Email)
	if err != nil {
		if IsKind(err, KindNotFound) {
			return nil, Conflictf("verification code is invalid or expired")
		}
		return nil, err
	}
	if stored.Code != params.Code || time.Now().After(stored.ExpiresAt) {
		return nil, Conflictf("verification code is invalid or expired")
	}

	if _, err := s.users.GetUserByName(ctx, params.Name); err == nil {
		return nil, Conflictf("a user with this name already exists")
	} else if !IsKind(err, KindNotFound) {
		return nil, err
	}
	if _, err := s.users.GetUserByNik(ctx, params.Nik); err == nil {
		return nil, Conflictf("a user with this nik already exists")
	} else if !IsKind(err, KindNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return nil, Validationf("%s", err.Error())
	}

	email := params.Email
	user, err := s.users.CreateUser(ctx, CreateUserParams{
		Name:         params.Name,
		Nik:          params.Nik,
		Email:        &email,
		PasswordHash: hash,
		Theme:        ThemeLight,
	})
	if err != nil {
		return nil, err
	}

	// A used code is spent regardless of what happens next.
	if err := s.codes.DeleteCode(ctx, params.Email); err != nil {
		s.logger.Warn("failed to delete verification code", zap.String("email", params.Email), zap.Error(err))
	}

	return user.ToResponse(), nil
}

// LoginResult is the login response payload.
type LoginResult struct {
	AccessToken string    `json:"access_token"`
	UserID      string    `json:"id"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Login authenticates by nik and password and issues an access token.
func (s *AuthService) Login(ctx context.Context, nik, password string) (*LoginResult, error) {
	user, hash, err := s.users.GetUserWithPassword(ctx, nik)
	if err != nil {
		if IsKind(err, KindNotFound) {
			return nil, Conflictf("invalid nik or password")
		}
		return nil, err
	}

	if err := auth.VerifyPassword(password, hash); err != nil {
		return nil, Conflictf("invalid nik or password")
	}

	token, expiresAt, err := s.jwt.GenerateAccessToken(user.ID, user.Nik)
	if err != nil {
		return nil, Internal("failed to issue token", err)
	}

	return &LoginResult{
		AccessToken: token,
		UserID:      user.ID.String(),
		ExpiresAt:   expiresAt,
	}, nil
}

func generateCode(length int) (string, error) {
	max := big.NewInt(10)
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = byte('0' + n.Int64())
	}
	return string(code), nil
}

// StartCodeCleanupWorker reclaims expired verification codes on an
// interval until ctx is cancelled.
func (s *AuthService) StartCodeCleanupWorker(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.codes.DeleteExpiredCodes(ctx); err != nil {
					s.logger.Error("failed to clean up verification codes", zap.Error(err))
				}
			}
		}
	}()
}
