package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chatline/backend/internal/domain"
	"github.com/chatline/backend/internal/middleware"
	"github.com/chatline/backend/internal/storage"
	"github.com/chatline/backend/pkg/response"
)

const maxUploadSize = 10 << 20 // 10 MiB

// ChatHandler exposes the chat engine over HTTP.
type ChatHandler struct {
	chatService *domain.ChatService
	fileStorage storage.FileStorage
	logger      *zap.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *domain.ChatService, fileStorage storage.FileStorage, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		fileStorage: fileStorage,
		logger:      logger,
	}
}

// CreateChat creates a private or group chat. Accepts multipart form data
// so an avatar can ride along with the creation request.
func (h *ChatHandler) CreateChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		response.BadRequest(w, "invalid form data")
		return
	}

	participantIDs := formValues(r, "participantIds")
	isGroup := r.FormValue("isGroup") == "true"

	var groupName *string
	if v := r.FormValue("groupName"); v != "" {
		groupName = &v
	}

	avatarURL, err := h.saveUploadedFile(r)
	if err != nil {
		h.logger.Error("failed to store chat avatar", zap.Error(err))
		response.InternalError(w, "failed to store file")
		return
	}

	// The caller is always a participant.
	ids := append([]string{userID.String()}, participantIDs...)

	chat, err := h.chatService.CreateChat(r.Context(), ids, isGroup, groupName, avatarURL)
	if err != nil {
		if domain.ErrKind(err) == domain.KindInternal {
			h.logger.Error("failed to create chat", zap.Error(err))
		}
		response.DomainError(w, err)
		return
	}

	response.Created(w, chat)
}

// SendMessage appends a message, optionally with an attachment.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	chatID, err := uuid.Parse(chi.URLParam(r, "chatId"))
	if err != nil {
		response.BadRequest(w, "invalid chat id")
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		response.BadRequest(w, "invalid form data")
		return
	}

	content := r.FormValue("content")

	fileURL, err := h.saveUploadedFile(r)
	if err != nil {
		h.logger.Error("failed to store attachment", zap.Error(err))
		response.InternalError(w, "failed to store file")
		return
	}

	msg, err := h.chatService.SendMessage(r.Context(), chatID, userID, content, fileURL)
	if err != nil {
		if domain.ErrKind(err) == domain.KindInternal {
			h.logger.Error("failed to send message", zap.Error(err))
		}
		response.DomainError(w, err)
		return
	}

	response.Created(w, msg)
}

// GetChatByID returns the display projection of one chat.
func (h *ChatHandler) GetChatByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	chatID, err := uuid.Parse(chi.URLParam(r, "chatId"))
	if err != nil {
		response.BadRequest(w, "invalid chat id")
		return
	}

	info, err := h.chatService.GetChatByID(r.Context(), userID, chatID)
	if err != nil {
		if domain.ErrKind(err) == domain.KindInternal {
			h.logger.Error("failed to get chat", zap.Error(err))
		}
		response.DomainError(w, err)
		return
	}

	response.OK(w, info)
}

// ChangeChatByID partially updates a chat's name, avatar or participants.
func (h *ChatHandler) ChangeChatByID(w http.ResponseWriter, r *http.Request) {
	chatID, err := uuid.Parse(chi.URLParam(r, "chatId"))
	if err != nil {
		response.BadRequest(w, "invalid chat id")
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		response.BadRequest(w, "invalid form data")
		return
	}

	params := domain.ChangeChatParams{}
	if v := r.FormValue("title"); v != "" {
		params.Title = &v
	}
	if raw := formValues(r, "participantIds"); len(raw) > 0 {
		ids := make([]uuid.UUID, 0, len(raw))
		for _, s := range raw {
			id, err := uuid.Parse(s)
			if err != nil {
				response.BadRequest(w, "invalid participant id: "+s)
				return
			}
			ids = append(ids, id)
		}
		params.ParticipantIDs = ids
	}

	avatarURL, err := h.saveUploadedFile(r)
	if err != nil {
		h.logger.Error("failed to store chat avatar", zap.Error(err))
		response.InternalError(w, "failed to store file")
		return
	}
	if avatarURL != nil {
		params.AvatarURL = avatarURL
	}

	if err := h.chatService.ChangeChatByID(r.Context(), chatID, params); err != nil {
		if domain.ErrKind(err) == domain.KindInternal {
			h.logger.Error("failed to update chat", zap.Error(err))
		}
		response.DomainError(w, err)
		return
	}

	response.NoContent(w)
}

// GetUserChats returns the caller's chat list with unread counts.
func (h *ChatHandler) GetUserChats(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	chats, err := h.chatService.GetUserChats(r.Context(), userID)
	if err != nil {
		if domain.ErrKind(err) == domain.KindInternal {
			h.logger.Error("failed to get chats", zap.Error(err))
		}
		response.DomainError(w, err)
		return
	}

	response.OK(w, chats)
}

// GetChatMessages returns a message page; the fetch marks the chat read.
func (h *ChatHandler) GetChatMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	chatID, err := uuid.Parse(chi.URLParam(r, "chatId"))
	if err != nil {
		response.BadRequest(w, "invalid chat id")
		return
	}

	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	messages, err := h.chatService.GetChatMessages(r.Context(), chatID, userID, skip, limit)
	if err != nil {
		if domain.ErrKind(err) == domain.KindInternal {
			h.logger.Error("failed to get messages", zap.Error(err))
		}
		response.DomainError(w, err)
		return
	}

	response.OK(w, messages)
}

// GetUnreadCount returns the coarse unread flag for one chat.
func (h *ChatHandler) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	chatID, err := uuid.Parse(chi.URLParam(r, "chatId"))
	if err != nil {
		response.BadRequest(w, "invalid chat id")
		return
	}

	count, err := h.chatService.GetUnreadCount(r.Context(), userID, chatID)
	if err != nil {
		h.logger.Error("failed to get unread count", zap.Error(err))
		response.DomainError(w, err)
		return
	}

	response.OK(w, count)
}

// GetUnreadChatsCount returns how many chats hold unread messages for the
// caller.
func (h *ChatHandler) GetUnreadChatsCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	count, err := h.chatService.GetUnreadChatsCount(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to get unread chats count", zap.Error(err))
		response.DomainError(w, err)
		return
	}

	response.OK(w, count)
}

// DeleteChat removes a chat and all of its messages.
func (h *ChatHandler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	chatID, err := uuid.Parse(chi.URLParam(r, "chatId"))
	if err != nil {
		response.BadRequest(w, "invalid chat id")
		return
	}

	if err := h.chatService.DeleteChat(r.Context(), chatID, userID); err != nil {
		if domain.ErrKind(err) == domain.KindInternal {
			h.logger.Error("failed to delete chat", zap.Error(err))
		}
		response.DomainError(w, err)
		return
	}

	response.NoContent(w)
}

// saveUploadedFile stores the optional "file" form part and returns its
// URL, or nil when the request carries no file.
func (h *ChatHandler) saveUploadedFile(r *http.Request) (*string, error) {
	file, header, err := r.FormFile("file")
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	url, err := h.fileStorage.SaveFile(r.Context(), file, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}
	return &url, nil
}

// formValues reads a multi-valued form field, also accepting a single
// comma-separated value.
func formValues(r *http.Request, key string) []string {
	values := r.Form[key]
	if len(values) == 1 && strings.Contains(values[0], ",") {
		values = strings.Split(values[0], ",")
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
