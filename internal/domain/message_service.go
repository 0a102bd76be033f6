package domain

import (
	"context"

	"github.com/google/uuid"
)

// MessageService covers the standalone message operations outside the chat
// engine: author-only edit and delete, and a flat per-user message listing.
type MessageService struct {
	messages MessageRepository
}

// NewMessageService creates a new message service
func NewMessageService(messages MessageRepository) *MessageService {
	return &MessageService{messages: messages}
}

// GetUserMessages returns all messages sent or received by the user.
func (s *MessageService) GetUserMessages(ctx context.Context, userID uuid.UUID) ([]*Message, error) {
	return s.messages.ListUserMessages(ctx, userID)
}

// EditMessage updates a message's content. Only the author may edit.
func (s *MessageService) EditMessage(ctx context.Context, messageID, userID uuid.UUID, content string) (*Message, error) {
	msg, err := s.messages.GetMessageByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != userID {
		return nil, Forbiddenf("you can only edit your own messages")
	}
	return s.messages.UpdateMessageContent(ctx, messageID, content)
}

// DeleteMessage removes a single message. Only the author may delete.
func (s *MessageService) DeleteMessage(ctx context.Context, messageID, userID uuid.UUID) error {
	msg, err := s.messages.GetMessageByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != userID {
		return Forbiddenf("you can only delete your own messages")
	}
	return s.messages.DeleteMessage(ctx, messageID)
}
