package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chatline/backend/internal/domain"
	"github.com/chatline/backend/internal/middleware"
	"github.com/chatline/backend/internal/storage"
	"github.com/chatline/backend/pkg/response"
	"github.com/chatline/backend/pkg/validator"
)

// UserHandler covers profile reads and updates.
type UserHandler struct {
	userService *domain.UserService
	fileStorage storage.FileStorage
	logger      *zap.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *domain.UserService, fileStorage storage.FileStorage, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		fileStorage: fileStorage,
		logger:      logger,
	}
}

// Me returns the caller's profile.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.OK(w, user)
}

// GetAll returns every user account.
func (h *UserHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.GetAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list users", zap.Error(err))
		response.DomainError(w, err)
		return
	}

	response.OK(w, users)
}

// GetByNik returns one user by handle.
func (h *UserHandler) GetByNik(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetByNik(r.Context(), chi.URLParam(r, "nik"))
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.OK(w, user)
}

// Search returns users whose nik matches the query.
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	nik := r.URL.Query().Get("nik")
	if nik == "" {
		response.BadRequest(w, "nik query parameter is required")
		return
	}

	users, err := h.userService.SearchByNik(r.Context(), nik)
	if err != nil {
		h.logger.Error("failed to search users", zap.Error(err))
		response.DomainError(w, err)
		return
	}

	response.OK(w, users)
}

// UpdateName changes the caller's display name.
func (h *UserHandler) UpdateName(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request")
		return
	}
	if !validator.ValidateName(req.Name) {
		response.BadRequest(w, "name must be 2-100 characters")
		return
	}

	user, err := h.userService.UpdateName(r.Context(), userID, validator.SanitizeString(req.Name, 100))
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.OK(w, user)
}

// UpdateNik changes the caller's handle.
func (h *UserHandler) UpdateNik(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	var req struct {
		Nik string `json:"nik"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request")
		return
	}
	if !validator.ValidateNik(req.Nik) {
		response.BadRequest(w, "nik must be 3-32 characters: letters, digits, dot, underscore or dash")
		return
	}

	user, err := h.userService.UpdateNik(r.Context(), userID, req.Nik)
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.OK(w, user)
}

// UpdatePassword rehashes and stores the caller's password.
func (h *UserHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request")
		return
	}

	user, err := h.userService.UpdatePassword(r.Context(), userID, req.Password)
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.OK(w, user)
}

// UpdateTheme switches the caller's profile theme.
func (h *UserHandler) UpdateTheme(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	var req struct {
		Theme string `json:"theme"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request")
		return
	}

	user, err := h.userService.UpdateTheme(r.Context(), userID, req.Theme)
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.OK(w, user)
}

// UpdateAvatar stores an uploaded profile image.
func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		response.BadRequest(w, "invalid form data")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "file is required")
		return
	}
	defer file.Close()

	url, err := h.fileStorage.SaveFile(r.Context(), file, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		h.logger.Error("failed to store avatar", zap.Error(err))
		response.InternalError(w, "failed to store file")
		return
	}

	user, err := h.userService.UpdateAvatar(r.Context(), userID, url)
	if err != nil {
		response.DomainError(w, err)
		return
	}

	response.OK(w, user)
}

// Delete removes a user account.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid user id")
		return
	}

	if err := h.userService.Delete(r.Context(), id); err != nil {
		if domain.ErrKind(err) == domain.KindInternal {
			h.logger.Error("failed to delete user", zap.Error(err))
		}
		response.DomainError(w, err)
		return
	}

	response.NoContent(w)
}
