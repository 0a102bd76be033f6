package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chatline/backend/internal/domain"
	"github.com/chatline/backend/internal/middleware"
	"github.com/chatline/backend/pkg/response"
)

// MessageHandler exposes standalone message operations: listing, author
// edit and author delete.
type MessageHandler struct {
	messageService *domain.MessageService
	logger         *zap.Logger
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messageService *domain.MessageService, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		logger:         logger,
	}
}

// GetUserMessages returns every message the caller sent or received.
func (h *MessageHandler) GetUserMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	messages, err := h.messageService.GetUserMessages(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to get user messages", zap.Error(err))
		response.DomainError(w, err)
		return
	}

	response.OK(w, messages)
}

// EditMessage updates a message's content; only the author may edit.
func (h *MessageHandler) EditMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	messageID, err := uuid.Parse(chi.URLParam(r, "messageId"))
	if err != nil {
		response.BadRequest(w, "invalid message id")
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request")
		return
	}

	msg, err := h.messageService.EditMessage(r.Context(), messageID, userID, req.Content)
	if err != nil {
		if domain.ErrKind(err) == domain.KindInternal {
			h.logger.Error("failed to edit message", zap.Error(err))
		}
		response.DomainError(w, err)
		return
	}

	response.OK(w, msg)
}

// DeleteMessage removes a message; only the author may delete.
func (h *MessageHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	messageID, err := uuid.Parse(chi.URLParam(r, "messageId"))
	if err != nil {
		response.BadRequest(w, "invalid message id")
		return
	}

	if err := h.messageService.DeleteMessage(r.Context(), messageID, userID); err != nil {
		if domain.ErrKind(err) == domain.KindInternal {
			h.logger.Error("failed to delete message", zap.Error(err))
		}
		response.DomainError(w, err)
		return
	}

	response.NoContent(w)
}
