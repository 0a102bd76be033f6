package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/chatline/backend/internal/domain"
	"github.com/chatline/backend/pkg/response"
	"github.com/chatline/backend/pkg/validator"
)

// AuthHandler covers signup and login.
type AuthHandler struct {
	authService *domain.AuthService
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *domain.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// SendCode emails a signup verification code.
func (h *AuthHandler) SendCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request")
		return
	}

	email := validator.SanitizeEmail(req.Email)
	if !validator.ValidateEmail(email) {
		response.BadRequest(w, "invalid email address")
		return
	}

	if err := h.authService.SendSignupCode(r.Context(), email); err != nil {
		if domain.ErrKind(err) == domain.KindInternal {
			h.logger.Error("failed to send signup code", zap.Error(err))
		}
		response.DomainError(w, err)
		return
	}

	response.NoContent(w)
}

// Register creates an account after code verification.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Nik      string `json:"nik"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Code     string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request")
		return
	}

	if !validator.ValidateName(req.Name) {
		response.BadRequest(w, "name must be 2-100 characters")
		return
	}
	if !validator.ValidateNik(req.Nik) {
		response.BadRequest(w, "nik must be 3-32 characters: letters, digits, dot, underscore or dash")
		return
	}

	user, err := h.authService.Register(r.Context(), domain.RegisterParams{
		Name:     validator.SanitizeString(req.Name, 100),
		Nik:      req.Nik,
		Email:    validator.SanitizeEmail(req.Email),
		Password: req.Password,
		Code:     req.Code,
	})
	if err != nil {
		if domain.ErrKind(err) == domain.KindInternal {
			h.logger.Error("failed to register user", zap.Error(err))
		}
		response.DomainError(w, err)
		return
	}

	response.Created(w, user)
}

// Login authenticates by nik and password.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Nik      string `json:"nik"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request")
		return
	}

	result, err := h.authService.Login(r.Context(), req.Nik, req.Password)
	if err != nil {
		if domain.ErrKind(err) == domain.KindInternal {
			h.logger.Error("failed to log in user", zap.Error(err))
		}
		response.DomainError(w, err)
		return
	}

	response.OK(w, result)
}
