package domain

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// In-memory stores backing the service tests. They mirror the Postgres
// layer's contracts: creation order on messages, monotonic read sets,
// not-found mapped to domain errors.

type memChats struct {
	chats map[uuid.UUID]*Chat

	failSetLastMessage bool
}

func newMemChats() *memChats {
	return &memChats{chats: make(map[uuid.UUID]*Chat)}
}

func (m *memChats) CreateChat(_ context.Context, params CreateChatParams) (*Chat, error) {
	now := time.Now()
	chat := &Chat{
		ID:           uuid.New(),
		Participants: append([]uuid.UUID(nil), params.Participants...),
		IsGroup:      params.IsGroup,
		GroupName:    params.GroupName,
		AvatarURL:    params.AvatarURL,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.chats[chat.ID] = chat
	return chat, nil
}

func (m *memChats) GetChatByID(_ context.Context, chatID uuid.UUID) (*Chat, error) {
	chat, ok := m.chats[chatID]
	if !ok {
		return nil, NotFoundf("chat not found")
	}
	return chat, nil
}

func (m *memChats) FindChatByParticipants(_ context.Context, ids []uuid.UUID, isGroup bool) (*Chat, error) {
	want := sortedIDs(ids)
	for _, chat := range m.chats {
		if chat.IsGroup != isGroup {
			continue
		}
		if equalIDs(sortedIDs(chat.Participants), want) {
			return chat, nil
		}
	}
	return nil, nil
}

func (m *memChats) GetChatsByUserID(_ context.Context, userID uuid.UUID) ([]*Chat, error) {
	var out []*Chat
	for _, chat := range m.chats {
		for _, p := range chat.Participants {
			if p == userID {
				out = append(out, chat)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *memChats) UpdateChat(_ context.Context, chatID uuid.UUID, params UpdateChatParams) error {
	chat, ok := m.chats[chatID]
	if !ok {
		return NotFoundf("chat not found")
	}
	chat.GroupName = params.GroupName
	chat.AvatarURL = params.AvatarURL
	if params.Participants != nil {
		chat.Participants = append([]uuid.UUID(nil), params.Participants...)
	}
	chat.UpdatedAt = time.Now()
	return nil
}

func (m *memChats) SetLastMessage(_ context.Context, chatID, messageID uuid.UUID) error {
	if m.failSetLastMessage {
		return errors.New("store unavailable")
	}
	chat, ok := m.chats[chatID]
	if !ok {
		return NotFoundf("chat not found")
	}
	id := messageID
	chat.LastMessageID = &id
	chat.UpdatedAt = time.Now()
	return nil
}

func (m *memChats) DeleteChat(_ context.Context, chatID uuid.UUID) error {
	if _, ok := m.chats[chatID]; !ok {
		return NotFoundf("chat not found")
	}
	delete(m.chats, chatID)
	return nil
}

type memMessages struct {
	msgs []*Message
}

func newMemMessages() *memMessages {
	return &memMessages{}
}

func (m *memMessages) CreateMessage(_ context.Context, params CreateMessageParams) (*Message, error) {
	msg := &Message{
		ID:         uuid.New(),
		ChatID:     params.ChatID,
		SenderID:   params.SenderID,
		ReceiverID: params.ReceiverID,
		Content:    params.Content,
		FileURL:    params.FileURL,
		ReadBy:     []uuid.UUID{params.SenderID},
		CreatedAt:  time.Now(),
	}
	m.msgs = append(m.msgs, msg)
	return msg, nil
}

func (m *memMessages) GetMessageByID(_ context.Context, messageID uuid.UUID) (*Message, error) {
	for _, msg := range m.msgs {
		if msg.ID == messageID {
			return msg, nil
		}
	}
	return nil, NotFoundf("message not found")
}

func (m *memMessages) ListChatMessages(_ context.Context, chatID uuid.UUID, skip, limit int) ([]*Message, error) {
	var all []*Message
	for _, msg := range m.msgs {
		if msg.ChatID == chatID {
			all = append(all, msg)
		}
	}
	if skip >= len(all) {
		return nil, nil
	}
	all = all[skip:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (m *memMessages) ListUserMessages(_ context.Context, userID uuid.UUID) ([]*Message, error) {
	var out []*Message
	for _, msg := range m.msgs {
		if msg.SenderID == userID || (msg.ReceiverID != nil && *msg.ReceiverID == userID) {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *memMessages) MarkChatRead(_ context.Context, chatID, userID uuid.UUID) error {
	for _, msg := range m.msgs {
		if msg.ChatID != chatID {
			continue
		}
		if !containsID(msg.ReadBy, userID) {
			msg.ReadBy = append(msg.ReadBy, userID)
		}
	}
	return nil
}

func (m *memMessages) CountUnread(_ context.Context, chatID, userID uuid.UUID) (int, error) {
	count := 0
	for _, msg := range m.msgs {
		if msg.ChatID == chatID && !containsID(msg.ReadBy, userID) {
			count++
		}
	}
	return count, nil
}

func (m *memMessages) HasUnread(_ context.Context, chatID, userID uuid.UUID) (bool, error) {
	for _, msg := range m.msgs {
		if msg.ChatID == chatID && msg.SenderID != userID && !containsID(msg.ReadBy, userID) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memMessages) CountUnreadChats(_ context.Context, userID uuid.UUID) (int, error) {
	chats := make(map[uuid.UUID]struct{})
	for _, msg := range m.msgs {
		if msg.ReceiverID != nil && *msg.ReceiverID == userID && !containsID(msg.ReadBy, userID) {
			chats[msg.ChatID] = struct{}{}
		}
	}
	return len(chats), nil
}

func (m *memMessages) UpdateMessageContent(_ context.Context, messageID uuid.UUID, content string) (*Message, error) {
	for _, msg := range m.msgs {
		if msg.ID == messageID {
			msg.Content = content
			return msg, nil
		}
	}
	return nil, NotFoundf("message not found")
}

func (m *memMessages) DeleteMessage(_ context.Context, messageID uuid.UUID) error {
	for i, msg := range m.msgs {
		if msg.ID == messageID {
			m.msgs = append(m.msgs[:i], m.msgs[i+1:]...)
			return nil
		}
	}
	return NotFoundf("message not found")
}

func (m *memMessages) DeleteChatMessages(_ context.Context, chatID uuid.UUID) error {
	kept := m.msgs[:0]
	for _, msg := range m.msgs {
		if msg.ChatID != chatID {
			kept = append(kept, msg)
		}
	}
	m.msgs = kept
	return nil
}

type memUsers struct {
	users map[uuid.UUID]*User
	hash  map[uuid.UUID]string
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[uuid.UUID]*User), hash: make(map[uuid.UUID]string)}
}

func (m *memUsers) add(name, nik string) *User {
	user := &User{
		ID:        uuid.New(),
		Name:      name,
		Nik:       nik,
		Theme:     ThemeLight,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.users[user.ID] = user
	return user
}

func (m *memUsers) CreateUser(_ context.Context, params CreateUserParams) (*User, error) {
	user := &User{
		ID:        uuid.New(),
		Name:      params.Name,
		Nik:       params.Nik,
		Email:     params.Email,
		Theme:     params.Theme,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.users[user.ID] = user
	m.hash[user.ID] = params.PasswordHash
	return user, nil
}

func (m *memUsers) GetUserByID(_ context.Context, id uuid.UUID) (*User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, NotFoundf("user not found")
	}
	return user, nil
}

func (m *memUsers) GetUserByNik(_ context.Context, nik string) (*User, error) {
	for _, user := range m.users {
		if user.Nik == nik {
			return user, nil
		}
	}
	return nil, NotFoundf("user not found")
}

func (m *memUsers) GetUserByName(_ context.Context, name string) (*User, error) {
	for _, user := range m.users {
		if user.Name == name {
			return user, nil
		}
	}
	return nil, NotFoundf("user not found")
}

func (m *memUsers) GetUserWithPassword(_ context.Context, nik string) (*User, string, error) {
	for _, user := range m.users {
		if user.Nik == nik {
			return user, m.hash[user.ID], nil
		}
	}
	return nil, "", NotFoundf("user not found")
}

func (m *memUsers) UpdateUser(_ context.Context, id uuid.UUID, params UpdateUserParams) (*User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, NotFoundf("user not found")
	}
	if params.Name != nil {
		user.Name = *params.Name
	}
	if params.Nik != nil {
		user.Nik = *params.Nik
	}
	if params.PasswordHash != nil {
		m.hash[id] = *params.PasswordHash
	}
	if params.AvatarURL != nil {
		user.AvatarURL = params.AvatarURL
	}
	if params.Theme != nil {
		user.Theme = *params.Theme
	}
	user.UpdatedAt = time.Now()
	return user, nil
}

func (m *memUsers) DeleteUser(_ context.Context, id uuid.UUID) error {
	if _, ok := m.users[id]; !ok {
		return NotFoundf("user not found")
	}
	delete(m.users, id)
	delete(m.hash, id)
	return nil
}

func (m *memUsers) ListUsers(_ context.Context) ([]*User, error) {
	out := make([]*User, 0, len(m.users))
	for _, user := range m.users {
		out = append(out, user)
	}
	return out, nil
}

func (m *memUsers) SearchUsersByNik(_ context.Context, nik string, limit int) ([]*User, error) {
	var out []*User
	for _, user := range m.users {
		if len(out) >= limit {
			break
		}
		if strings.Contains(strings.ToLower(user.Nik), strings.ToLower(nik)) {
			out = append(out, user)
		}
	}
	return out, nil
}

type memCodes struct {
	codes map[string]VerificationCode
}

func newMemCodes() *memCodes {
	return &memCodes{codes: make(map[string]VerificationCode)}
}

func (m *memCodes) UpsertCode(_ context.Context, code VerificationCode) error {
	m.codes[code.Email] = code
	return nil
}

func (m *memCodes) GetCode(_ context.Context, email string) (*VerificationCode, error) {
	code, ok := m.codes[email]
	if !ok || time.Now().After(code.ExpiresAt) {
		return nil, NotFoundf("verification code not found")
	}
	return &code, nil
}

func (m *memCodes) DeleteCode(_ context.Context, email string) error {
	delete(m.codes, email)
	return nil
}

func (m *memCodes) DeleteExpiredCodes(_ context.Context) error {
	for email, code := range m.codes {
		if time.Now().After(code.ExpiresAt) {
			delete(m.codes, email)
		}
	}
	return nil
}

type memMailer struct {
	sent []string
	err  error
}

func (m *memMailer) Send(to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to+": "+body)
	return nil
}

func sortedIDs(ids []uuid.UUID) []uuid.UUID {
	out := append([]uuid.UUID(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func equalIDs(a, b []uuid.UUID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
