package domain

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultMessagePageSize = 50

// ChatService coordinates the chat and message stores so the two never
// diverge: participant-set rules on creation, message append plus
// last-message pointer on send, read-receipt propagation on listing, and
// cascade order on delete. Unread counts are recomputed from the read sets
// on demand; nothing is cached.
type ChatService struct {
	chats    ChatRepository
	messages MessageRepository
	users    UserRepository
	logger   *zap.Logger
}

// NewChatService creates a new chat service
func NewChatService(chats ChatRepository, messages MessageRepository, users UserRepository, logger *zap.Logger) *ChatService {
	return &ChatService{
		chats:    chats,
		messages: messages,
		users:    users,
		logger:   logger,
	}
}

// CreateChat validates and persists a new chat, or returns the existing one
// when a private chat with the same participant set already exists.
// Participant ids arrive as strings so a malformed id can be reported by
// value; the caller's id is expected to already be in the list.
func (s *ChatService) CreateChat(ctx context.Context, participantIDs []string, isGroup bool, groupName, avatarURL *string) (*Chat, error) {
	if len(participantIDs) < 2 {
		return nil, Conflictf("chat must have at least 2 participants")
	}
	if isGroup && (groupName == nil || *groupName == "") {
		return nil, Conflictf("group chat requires a name")
	}

	seen := make(map[uuid.UUID]struct{}, len(participantIDs))
	participants := make([]uuid.UUID, 0, len(participantIDs))
	for _, raw := range participantIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, Conflictf("invalid user id: %s", raw)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		participants = append(participants, id)
	}

	if len(participants) < 2 {
		return nil, Conflictf("chat must have at least 2 participants")
	}
	if !isGroup && len(participants) != 2 {
		return nil, Conflictf("private chat requires exactly 2 participants")
	}

	// Dedup-on-create applies to private chats only: two groups may share
	// the same membership under different names.
	if !isGroup {
		existing, err := s.chats.FindChatByParticipants(ctx, participants, false)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	return s.chats.CreateChat(ctx, CreateChatParams{
		Participants: participants,
		IsGroup:      isGroup,
		GroupName:    groupName,
		AvatarURL:    avatarURL,
	})
}

// SendMessage appends a message to a chat. The message and the sender's
// read receipt are committed first; the chat's last-message pointer is
// updated after, so a reader never sees a pointer to a message that does
// not exist. A concurrent listing may briefly see a stale pointer.
func (s *ChatService) SendMessage(ctx context.Context, chatID, senderID uuid.UUID, content string, fileURL *string) (*Message, error) {
	chat, err := s.chats.GetChatByID(ctx, chatID)
	if err != nil {
		return nil, err
	}

	var receiverID *uuid.UUID
	if !chat.IsGroup {
		for _, p := range chat.Participants {
			if p != senderID {
				other := p
				receiverID = &other
				break
			}
		}
	}

	msg, err := s.messages.CreateMessage(ctx, CreateMessageParams{
		ChatID:     chatID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		FileURL:    fileURL,
	})
	if err != nil {
		return nil, err
	}

	if err := s.chats.SetLastMessage(ctx, chatID, msg.ID); err != nil {
		// The message is durably stored but not yet linked; the pointer
		// converges on the next successful send.
		s.logger.Error("failed to update last-message pointer",
			zap.String("chat_id", chatID.String()),
			zap.String("message_id", msg.ID.String()),
			zap.Error(err),
		)
		return nil, Internal("failed to link message to chat", err)
	}

	return msg, nil
}

// GetChatByID returns the display projection of a chat: group name and
// avatar for groups, the interlocutor's nik and avatar otherwise.
func (s *ChatService) GetChatByID(ctx context.Context, userID, chatID uuid.UUID) (*ChatInfo, error) {
	chat, err := s.chats.GetChatByID(ctx, chatID)
	if err != nil {
		return nil, err
	}

	members := s.resolveParticipants(ctx, chat.Participants)

	interlocutors := make([]*UserResponse, 0, len(members))
	for _, m := range members {
		if m.ID != userID {
			interlocutors = append(interlocutors, m)
		}
	}

	info := &ChatInfo{
		ID:      chat.ID,
		IsGroup: chat.IsGroup,
	}

	if chat.IsGroup {
		if chat.GroupName != nil {
			info.Title = *chat.GroupName
		}
		if chat.AvatarURL != nil {
			info.Logo = *chat.AvatarURL
		}
		info.Participants = members
	} else {
		if len(interlocutors) > 0 {
			info.Title = interlocutors[0].Nik
			info.Logo = interlocutors[0].AvatarURL
		}
		info.Participants = interlocutors
	}

	return info, nil
}

// ChangeChatByID applies a partial update to a chat: omitted fields keep
// their current value, a supplied participant list fully replaces the set.
func (s *ChatService) ChangeChatByID(ctx context.Context, chatID uuid.UUID, params ChangeChatParams) error {
	chat, err := s.chats.GetChatByID(ctx, chatID)
	if err != nil {
		if IsKind(err, KindNotFound) {
			return Conflictf("chat not found")
		}
		return err
	}

	update := UpdateChatParams{
		GroupName: chat.GroupName,
		AvatarURL: chat.AvatarURL,
	}
	if params.Title != nil && *params.Title != "" {
		update.GroupName = params.Title
	}
	if params.AvatarURL != nil {
		update.AvatarURL = params.AvatarURL
	}
	if params.ParticipantIDs != nil {
		// Private membership is fixed at creation; only groups may be
		// re-membered, and never below two distinct participants.
		if !chat.IsGroup {
			return Conflictf("cannot change participants of a private chat")
		}
		seen := make(map[uuid.UUID]struct{}, len(params.ParticipantIDs))
		distinct := make([]uuid.UUID, 0, len(params.ParticipantIDs))
		for _, id := range params.ParticipantIDs {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			distinct = append(distinct, id)
		}
		if len(distinct) < 2 {
			return Conflictf("chat must have at least 2 participants")
		}
		update.Participants = distinct
	}

	if err := s.chats.UpdateChat(ctx, chatID, update); err != nil {
		return err
	}

	// Defensive read-back: the update must be observable.
	if _, err := s.chats.GetChatByID(ctx, chatID); err != nil {
		return Conflictf("failed to update chat")
	}
	return nil
}

// GetUserChats returns the caller's chats newest-updated first, each with
// resolved participants (excluding the caller), the chosen interlocutor,
// the last-message preview and the exact unread count.
func (s *ChatService) GetUserChats(ctx context.Context, userID uuid.UUID) ([]*ChatSummary, error) {
	chats, err := s.chats.GetChatsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]*ChatSummary, 0, len(chats))
	for _, chat := range chats {
		others := make([]uuid.UUID, 0, len(chat.Participants))
		for _, p := range chat.Participants {
			if p != userID {
				others = append(others, p)
			}
		}
		participants := s.resolveParticipants(ctx, others)

		var interlocutor *UserResponse
		if len(participants) > 0 {
			interlocutor = participants[0]
		}

		var preview *LastMessagePreview
		if chat.LastMessageID != nil {
			// A dangling pointer (send raced with this listing, or the
			// linked message was edited away) must not fail the listing.
			last, err := s.messages.GetMessageByID(ctx, *chat.LastMessageID)
			if err == nil {
				preview = &LastMessagePreview{
					ID:        last.ID,
					Content:   last.Content,
					CreatedAt: last.CreatedAt,
				}
			} else if !IsKind(err, KindNotFound) {
				return nil, err
			}
		}

		unread, err := s.messages.CountUnread(ctx, chat.ID, userID)
		if err != nil {
			return nil, err
		}

		summaries = append(summaries, &ChatSummary{
			ID:           chat.ID,
			IsGroup:      chat.IsGroup,
			GroupName:    chat.GroupName,
			AvatarURL:    chat.AvatarURL,
			Participants: participants,
			Interlocutor: interlocutor,
			LastMessage:  preview,
			UnreadCount:  unread,
			UpdatedAt:    chat.UpdatedAt,
		})
	}

	return summaries, nil
}

// GetChatMessages returns a page of the chat's messages in creation order.
// Fetching marks every message in the chat as read by the caller; this is
// the sole mechanism that clears unread state.
func (s *ChatService) GetChatMessages(ctx context.Context, chatID, userID uuid.UUID, skip, limit int) ([]*Message, error) {
	if _, err := s.chats.GetChatByID(ctx, chatID); err != nil {
		return nil, err
	}

	if err := s.messages.MarkChatRead(ctx, chatID, userID); err != nil {
		return nil, err
	}

	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultMessagePageSize
	}

	return s.messages.ListChatMessages(ctx, chatID, skip, limit)
}

// GetUnreadCount is the coarse unread signal for one chat: 1 when at least
// one message from another sender is unread by the user, else 0. The exact
// per-chat count lives on the chat summaries.
func (s *ChatService) GetUnreadCount(ctx context.Context, userID, chatID uuid.UUID) (int, error) {
	if _, err := s.chats.GetChatByID(ctx, chatID); err != nil {
		if IsKind(err, KindNotFound) {
			return 0, nil
		}
		return 0, err
	}

	has, err := s.messages.HasUnread(ctx, chatID, userID)
	if err != nil {
		return 0, err
	}
	if has {
		return 1, nil
	}
	return 0, nil
}

// GetUnreadChatsCount counts distinct chats holding an unread message
// addressed to the user.
func (s *ChatService) GetUnreadChatsCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.messages.CountUnreadChats(ctx, userID)
}

// DeleteChat removes a chat and all of its messages. Non-participants get
// the same not-found as a missing chat, so existence is not leaked.
// Messages are deleted before the chat record: a failure in between leaves
// orphaned messages, never a chat pointing at missing ones.
func (s *ChatService) DeleteChat(ctx context.Context, chatID, userID uuid.UUID) error {
	chat, err := s.chats.GetChatByID(ctx, chatID)
	if err != nil {
		return err
	}

	isParticipant := false
	for _, p := range chat.Participants {
		if p == userID {
			isParticipant = true
			break
		}
	}
	if !isParticipant {
		return NotFoundf("chat not found")
	}

	if err := s.messages.DeleteChatMessages(ctx, chatID); err != nil {
		return err
	}
	return s.chats.DeleteChat(ctx, chatID)
}

// resolveParticipants looks up users by id, silently dropping ids that no
// longer resolve (deleted accounts).
func (s *ChatService) resolveParticipants(ctx context.Context, ids []uuid.UUID) []*UserResponse {
	resolved := make([]*UserResponse, 0, len(ids))
	for _, id := range ids {
		user, err := s.users.GetUserByID(ctx, id)
		if err != nil {
			if !IsKind(err, KindNotFound) {
				s.logger.Warn("failed to resolve participant",
					zap.String("user_id", id.String()),
					zap.Error(err),
				)
			}
			continue
		}
		resolved = append(resolved, user.ToResponse())
	}
	return resolved
}
