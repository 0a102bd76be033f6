package repository

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/chatline/backend/internal/domain"
)

const chatColumns = `
	c.id, c.is_group, c.group_name, c.avatar_url, c.last_message_id,
	c.created_at, c.updated_at,
	ARRAY(SELECT p.user_id FROM chat_participants p WHERE p.chat_id = c.id) AS participants
`

// CreateChat persists a new chat together with its participant set.
func (r *PostgresRepository) CreateChat(ctx context.Context, params domain.CreateChatParams) (*domain.Chat, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, domain.Internal("failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	var chatID uuid.UUID
	err = tx.QueryRow(ctx, `
		INSERT INTO chats (is_group, group_name, avatar_url)
		VALUES ($1, $2, $3)
		RETURNING id
	`, params.IsGroup, params.GroupName, params.AvatarURL).Scan(&chatID)
	if err != nil {
		return nil, domain.Internal("failed to insert chat", err)
	}

	rows := make([][]any, 0, len(params.Participants))
	for _, userID := range params.Participants {
		rows = append(rows, []any{chatID, userID})
	}
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"chat_participants"},
		[]string{"chat_id", "user_id"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return nil, domain.Internal("failed to insert participants", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.Internal("failed to commit chat", err)
	}

	return r.GetChatByID(ctx, chatID)
}

// GetChatByID retrieves a chat with its participant set.
func (r *PostgresRepository) GetChatByID(ctx context.Context, chatID uuid.UUID) (*domain.Chat, error) {
	row := r.db.QueryRow(ctx, `SELECT `+chatColumns+` FROM chats c WHERE c.id = $1`, chatID)
	return scanChat(row)
}

// FindChatByParticipants returns the chat whose participant set exactly
// equals ids, or nil when none exists.
func (r *PostgresRepository) FindChatByParticipants(ctx context.Context, ids []uuid.UUID, isGroup bool) (*domain.Chat, error) {
	sorted := make([]uuid.UUID, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].String() < sorted[j].String() })

	var chatID uuid.UUID
	err := r.db.QueryRow(ctx, `
		SELECT c.id
		FROM chats c
		WHERE c.is_group = $2
		  AND (SELECT array_agg(p.user_id ORDER BY p.user_id::text)
		       FROM chat_participants p WHERE p.chat_id = c.id) = $1::uuid[]
		LIMIT 1
	`, sorted, isGroup).Scan(&chatID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.Internal("failed to search chats", err)
	}

	return r.GetChatByID(ctx, chatID)
}

// GetChatsByUserID returns the user's chats, newest-updated first.
func (r *PostgresRepository) GetChatsByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Chat, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+chatColumns+`
		FROM chats c
		JOIN chat_participants me ON me.chat_id = c.id AND me.user_id = $1
		ORDER BY c.updated_at DESC
	`, userID)
	if err != nil {
		return nil, domain.Internal("failed to query chats", err)
	}
	defer rows.Close()

	var chats []*domain.Chat
	for rows.Next() {
		chat, err := scanChat(rows)
		if err != nil {
			return nil, err
		}
		chats = append(chats, chat)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal("failed to read chats", err)
	}
	return chats, nil
}

// UpdateChat writes group name, avatar and, when supplied, a full
// replacement of the participant set.
func (r *PostgresRepository) UpdateChat(ctx context.Context, chatID uuid.UUID, params domain.UpdateChatParams) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Internal("failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE chats
		SET group_name = $2, avatar_url = $3, updated_at = now()
		WHERE id = $1
	`, chatID, params.GroupName, params.AvatarURL)
	if err != nil {
		return domain.Internal("failed to update chat", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("chat not found")
	}

	if params.Participants != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM chat_participants WHERE chat_id = $1`, chatID); err != nil {
			return domain.Internal("failed to replace participants", err)
		}
		for _, userID := range params.Participants {
			if _, err := tx.Exec(ctx, `
				INSERT INTO chat_participants (chat_id, user_id) VALUES ($1, $2)
				ON CONFLICT DO NOTHING
			`, chatID, userID); err != nil {
				return domain.Internal("failed to replace participants", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Internal("failed to commit chat update", err)
	}
	return nil
}

// SetLastMessage points the chat at its newest message. Concurrent sends
// race on this update; last write wins, the message table stays
// authoritative.
func (r *PostgresRepository) SetLastMessage(ctx context.Context, chatID, messageID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE chats SET last_message_id = $2, updated_at = now() WHERE id = $1
	`, chatID, messageID)
	if err != nil {
		return domain.Internal("failed to set last message", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("chat not found")
	}
	return nil
}

// DeleteChat removes the chat record and its participant rows. Messages
// are expected to have been deleted already.
func (r *PostgresRepository) DeleteChat(ctx context.Context, chatID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM chats WHERE id = $1`, chatID)
	if err != nil {
		return domain.Internal("failed to delete chat", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("chat not found")
	}
	return nil
}

func scanChat(row pgx.Row) (*domain.Chat, error) {
	var chat domain.Chat
	err := row.Scan(
		&chat.ID,
		&chat.IsGroup,
		&chat.GroupName,
		&chat.AvatarURL,
		&chat.LastMessageID,
		&chat.CreatedAt,
		&chat.UpdatedAt,
		&chat.Participants,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFoundf("chat not found")
		}
		return nil, domain.Internal("failed to scan chat", err)
	}
	return &chat, nil
}
