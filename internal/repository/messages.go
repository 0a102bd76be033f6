package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/chatline/backend/internal/domain"
)

const messageColumns = `
	m.id, m.chat_id, m.sender_id, m.receiver_id, m.content, m.file_url, m.created_at,
	ARRAY(SELECT r.user_id FROM message_reads r WHERE r.message_id = m.id) AS read_by
`

// CreateMessage inserts a message and the sender's read receipt in one
// transaction, so a stored message always carries its sender in the read
// set. The insert is the atomic append primitive: concurrent sends to the
// same chat both land, ordered by (created_at, seq).
func (r *PostgresRepository) CreateMessage(ctx context.Context, params domain.CreateMessageParams) (*domain.Message, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, domain.Internal("failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	msg := &domain.Message{
		ChatID:     params.ChatID,
		SenderID:   params.SenderID,
		ReceiverID: params.ReceiverID,
		Content:    params.Content,
		FileURL:    params.FileURL,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO messages (chat_id, sender_id, receiver_id, content, file_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, params.ChatID, params.SenderID, params.ReceiverID, params.Content, params.FileURL).
		Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return nil, domain.Internal("failed to insert message", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO message_reads (message_id, user_id) VALUES ($1, $2)
	`, msg.ID, params.SenderID); err != nil {
		return nil, domain.Internal("failed to record sender read receipt", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.Internal("failed to commit message", err)
	}

	msg.ReadBy = []uuid.UUID{params.SenderID}
	return msg, nil
}

// GetMessageByID retrieves a single message with its read set.
func (r *PostgresRepository) GetMessageByID(ctx context.Context, messageID uuid.UUID) (*domain.Message, error) {
	row := r.db.QueryRow(ctx, `SELECT `+messageColumns+` FROM messages m WHERE m.id = $1`, messageID)
	return scanMessage(row)
}

// ListChatMessages returns a page of the chat's messages in append order
// with sender identity resolved. Senders that no longer resolve leave the
// identity fields empty rather than dropping the message.
func (r *PostgresRepository) ListChatMessages(ctx context.Context, chatID uuid.UUID, skip, limit int) ([]*domain.Message, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+messageColumns+`,
			COALESCE(u.name, '') AS sender_name,
			COALESCE(u.nik, '') AS sender_nik
		FROM messages m
		LEFT JOIN users u ON u.id = m.sender_id
		WHERE m.chat_id = $1
		ORDER BY m.created_at, m.seq
		OFFSET $2 LIMIT $3
	`, chatID, skip, limit)
	if err != nil {
		return nil, domain.Internal("failed to query messages", err)
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		var msg domain.Message
		err := rows.Scan(
			&msg.ID, &msg.ChatID, &msg.SenderID, &msg.ReceiverID,
			&msg.Content, &msg.FileURL, &msg.CreatedAt, &msg.ReadBy,
			&msg.SenderName, &msg.SenderNik,
		)
		if err != nil {
			return nil, domain.Internal("failed to scan message", err)
		}
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal("failed to read messages", err)
	}
	return messages, nil
}

// ListUserMessages returns every message the user sent or received.
func (r *PostgresRepository) ListUserMessages(ctx context.Context, userID uuid.UUID) ([]*domain.Message, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+messageColumns+`
		FROM messages m
		WHERE m.sender_id = $1 OR m.receiver_id = $1
		ORDER BY m.created_at, m.seq
	`, userID)
	if err != nil {
		return nil, domain.Internal("failed to query messages", err)
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal("failed to read messages", err)
	}
	return messages, nil
}

// MarkChatRead adds the user to the read set of every message in the chat.
// ON CONFLICT DO NOTHING makes the write idempotent and monotonic.
func (r *PostgresRepository) MarkChatRead(ctx context.Context, chatID, userID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO message_reads (message_id, user_id)
		SELECT m.id, $2 FROM messages m WHERE m.chat_id = $1
		ON CONFLICT DO NOTHING
	`, chatID, userID)
	if err != nil {
		return domain.Internal("failed to mark chat read", err)
	}
	return nil
}

// CountUnread counts the chat's messages whose read set excludes the user.
func (r *PostgresRepository) CountUnread(ctx context.Context, chatID, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT count(*)
		FROM messages m
		WHERE m.chat_id = $1
		  AND NOT EXISTS (
			SELECT 1 FROM message_reads r
			WHERE r.message_id = m.id AND r.user_id = $2
		  )
	`, chatID, userID).Scan(&count)
	if err != nil {
		return 0, domain.Internal("failed to count unread messages", err)
	}
	return count, nil
}

// HasUnread reports whether another sender's message in the chat is unread
// by the user.
func (r *PostgresRepository) HasUnread(ctx context.Context, chatID, userID uuid.UUID) (bool, error) {
	var has bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM messages m
			WHERE m.chat_id = $1
			  AND m.sender_id <> $2
			  AND NOT EXISTS (
				SELECT 1 FROM message_reads r
				WHERE r.message_id = m.id AND r.user_id = $2
			  )
		)
	`, chatID, userID).Scan(&has)
	if err != nil {
		return false, domain.Internal("failed to check unread messages", err)
	}
	return has, nil
}

// CountUnreadChats counts distinct chats with an unread message addressed
// to the user.
func (r *PostgresRepository) CountUnreadChats(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT count(DISTINCT m.chat_id)
		FROM messages m
		WHERE m.receiver_id = $1
		  AND NOT EXISTS (
			SELECT 1 FROM message_reads r
			WHERE r.message_id = m.id AND r.user_id = $1
		  )
	`, userID).Scan(&count)
	if err != nil {
		return 0, domain.Internal("failed to count unread chats", err)
	}
	return count, nil
}

// UpdateMessageContent replaces a message's text body.
func (r *PostgresRepository) UpdateMessageContent(ctx context.Context, messageID uuid.UUID, content string) (*domain.Message, error) {
	tag, err := r.db.Exec(ctx, `UPDATE messages SET content = $2 WHERE id = $1`, messageID, content)
	if err != nil {
		return nil, domain.Internal("failed to update message", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.NotFoundf("message not found")
	}
	return r.GetMessageByID(ctx, messageID)
}

// DeleteMessage removes a single message; read receipts cascade.
func (r *PostgresRepository) DeleteMessage(ctx context.Context, messageID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM messages WHERE id = $1`, messageID)
	if err != nil {
		return domain.Internal("failed to delete message", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("message not found")
	}
	return nil
}

// DeleteChatMessages removes every message of a chat; read receipts
// cascade with the messages.
func (r *PostgresRepository) DeleteChatMessages(ctx context.Context, chatID uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM messages WHERE chat_id = $1`, chatID); err != nil {
		return domain.Internal("failed to delete chat messages", err)
	}
	return nil
}

func scanMessage(row pgx.Row) (*domain.Message, error) {
	var msg domain.Message
	err := row.Scan(
		&msg.ID, &msg.ChatID, &msg.SenderID, &msg.ReceiverID,
		&msg.Content, &msg.FileURL, &msg.CreatedAt, &msg.ReadBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFoundf("message not found")
		}
		return nil, domain.Internal("failed to scan message", err)
	}
	return &msg, nil
}
