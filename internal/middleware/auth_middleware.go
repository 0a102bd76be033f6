package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/chatline/backend/internal/auth"
	"github.com/chatline/backend/pkg/response"
)

type contextKey string

const (
	UserIDKey contextKey = "user_id"
	NikKey    contextKey = "nik"
)

// AuthMiddleware creates JWT authentication middleware. On success the
// request context carries the {userId, nik} principal.
func AuthMiddleware(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				response.Unauthorized(w, "invalid authorization header format")
				return
			}

			claims, err := jwtManager.ValidateAccessToken(parts[1])
			if err != nil {
				if err == auth.ErrExpiredToken {
					response.Unauthorized(w, "token has expired")
					return
				}
				response.Unauthorized(w, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, NikKey, claims.Nik)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// GetNik extracts the caller's nik from context
func GetNik(ctx context.Context) (string, bool) {
	nik, ok := ctx.Value(NikKey).(string)
	return nik, ok
}
