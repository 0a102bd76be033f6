package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Chat represents a conversation. Participants is the full member set
// including the viewer; projections narrow it for display.
type Chat struct {
	ID            uuid.UUID   `json:"id"`
	Participants  []uuid.UUID `json:"participants"`
	IsGroup       bool        `json:"is_group"`
	GroupName     *string     `json:"group_name,omitempty"`
	AvatarURL     *string     `json:"avatar_url,omitempty"`
	LastMessageID *uuid.UUID  `json:"last_message_id,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Message represents one chat entry. ReceiverID is a denormalized
// convenience field for private chats and is nil for group chats. ReadBy
// grows monotonically; the sender is a member from creation.
type Message struct {
	ID         uuid.UUID   `json:"id"`
	ChatID     uuid.UUID   `json:"chat_id"`
	SenderID   uuid.UUID   `json:"sender_id"`
	ReceiverID *uuid.UUID  `json:"receiver_id,omitempty"`
	Content    string      `json:"content"`
	FileURL    *string     `json:"file_url,omitempty"`
	ReadBy     []uuid.UUID `json:"read_by"`
	CreatedAt  time.Time   `json:"created_at"`

	// Resolved sender identity, populated on listing.
	SenderName string `json:"sender_name,omitempty"`
	SenderNik  string `json:"sender_nik,omitempty"`
}

// LastMessagePreview is the denormalized last-message view on a chat summary.
type LastMessagePreview struct {
	ID        uuid.UUID `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatSummary is one entry of the user's chat list.
type ChatSummary struct {
	ID           uuid.UUID           `json:"id"`
	IsGroup      bool                `json:"is_group"`
	GroupName    *string             `json:"group_name,omitempty"`
	AvatarURL    *string             `json:"avatar_url,omitempty"`
	Participants []*UserResponse     `json:"participants"`
	Interlocutor *UserResponse       `json:"interlocutor,omitempty"`
	LastMessage  *LastMessagePreview `json:"last_message,omitempty"`
	UnreadCount  int                 `json:"unread_count"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// ChatInfo is the display-oriented detail projection of a single chat.
type ChatInfo struct {
	ID           uuid.UUID       `json:"id"`
	Title        string          `json:"title"`
	Logo         string          `json:"logo,omitempty"`
	IsGroup      bool            `json:"is_group"`
	Participants []*UserResponse `json:"participants"`
}

// ChangeChatParams carries a partial chat update; nil fields keep their
// current value. ParticipantIDs, when set, fully replaces the member set.
type ChangeChatParams struct {
	Title          *string
	AvatarURL      *string
	ParticipantIDs []uuid.UUID
}

// CreateChatParams holds parameters for persisting a new chat record.
type CreateChatParams struct {
	Participants []uuid.UUID
	IsGroup      bool
	GroupName    *string
	AvatarURL    *string
}

// CreateMessageParams holds parameters for persisting a new message. The
// store must record the sender in the message's read set atomically with
// the insert.
type CreateMessageParams struct {
	ChatID     uuid.UUID
	SenderID   uuid.UUID
	ReceiverID *uuid.UUID
	Content    string
	FileURL    *string
}

// UpdateChatParams is the store-level form of a chat update; nil fields are
// left untouched.
type UpdateChatParams struct {
	GroupName    *string
	AvatarURL    *string
	Participants []uuid.UUID
}

// ChatRepository defines the interface for chat store access.
type ChatRepository interface {
	CreateChat(ctx context.Context, params CreateChatParams) (*Chat, error)
	GetChatByID(ctx context.Context, chatID uuid.UUID) (*Chat, error)
	// FindChatByParticipants returns the chat whose participant set exactly
	// equals ids (order-independent), or nil when no such chat exists.
	FindChatByParticipants(ctx context.Context, ids []uuid.UUID, isGroup bool) (*Chat, error)
	GetChatsByUserID(ctx context.Context, userID uuid.UUID) ([]*Chat, error)
	UpdateChat(ctx context.Context, chatID uuid.UUID, params UpdateChatParams) error
	// SetLastMessage updates the denormalized last-message pointer and bumps
	// updated_at. Last write wins under concurrent sends.
	SetLastMessage(ctx context.Context, chatID, messageID uuid.UUID) error
	DeleteChat(ctx context.Context, chatID uuid.UUID) error
}

// MessageRepository defines the interface for message store access.
type MessageRepository interface {
	CreateMessage(ctx context.Context, params CreateMessageParams) (*Message, error)
	GetMessageByID(ctx context.Context, messageID uuid.UUID) (*Message, error)
	// ListChatMessages returns the chat's messages in creation order with
	// sender identity resolved, paginated by skip/limit.
	ListChatMessages(ctx context.Context, chatID uuid.UUID, skip, limit int) ([]*Message, error)
	ListUserMessages(ctx context.Context, userID uuid.UUID) ([]*Message, error)
	// MarkChatRead adds userID to the read set of every message in the chat.
	// The operation is idempotent and never removes entries.
	MarkChatRead(ctx context.Context, chatID, userID uuid.UUID) error
	// CountUnread counts messages in the chat not yet read by userID.
	CountUnread(ctx context.Context, chatID, userID uuid.UUID) (int, error)
	// HasUnread reports whether the chat holds a message from another sender
	// not yet read by userID.
	HasUnread(ctx context.Context, chatID, userID uuid.UUID) (bool, error)
	// CountUnreadChats counts distinct chats with an unread message whose
	// receiver is userID.
	CountUnreadChats(ctx context.Context, userID uuid.UUID) (int, error)
	UpdateMessageContent(ctx context.Context, messageID uuid.UUID, content string) (*Message, error)
	DeleteMessage(ctx context.Context, messageID uuid.UUID) error
	DeleteChatMessages(ctx context.Context, chatID uuid.UUID) error
}
