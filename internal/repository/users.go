package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/chatline/backend/internal/domain"
)

const userColumns = `id, name, nik, email, avatar_url, theme, created_at, updated_at`

// CreateUser creates a new user
func (r *PostgresRepository) CreateUser(ctx context.Context, params domain.CreateUserParams) (*domain.User, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (name, nik, email, password_hash, theme)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns+`
	`, params.Name, params.Nik, params.Email, params.PasswordHash, params.Theme)
	return scanUser(row)
}

// GetUserByID retrieves a user by ID
func (r *PostgresRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetUserByNik retrieves a user by handle
func (r *PostgresRepository) GetUserByNik(ctx context.Context, nik string) (*domain.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE nik = $1`, nik)
	return scanUser(row)
}

// GetUserByName retrieves a user by display name
func (r *PostgresRepository) GetUserByName(ctx context.Context, name string) (*domain.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE name = $1`, name)
	return scanUser(row)
}

// GetUserWithPassword retrieves a user with password hash for verification
func (r *PostgresRepository) GetUserWithPassword(ctx context.Context, nik string) (*domain.User, string, error) {
	var user domain.User
	var passwordHash string
	err := r.db.QueryRow(ctx, `
		SELECT `+userColumns+`, password_hash FROM users WHERE nik = $1
	`, nik).Scan(
		&user.ID, &user.Name, &user.Nik, &user.Email, &user.AvatarURL,
		&user.Theme, &user.CreatedAt, &user.UpdatedAt, &passwordHash,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", domain.NotFoundf("user not found")
		}
		return nil, "", domain.Internal("failed to scan user", err)
	}
	return &user, passwordHash, nil
}

// UpdateUser applies a partial profile update; nil fields keep their value.
func (r *PostgresRepository) UpdateUser(ctx context.Context, id uuid.UUID, params domain.UpdateUserParams) (*domain.User, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE users
		SET name          = COALESCE($2, name),
		    nik           = COALESCE($3, nik),
		    password_hash = COALESCE($4, password_hash),
		    avatar_url    = COALESCE($5, avatar_url),
		    theme         = COALESCE($6, theme),
		    updated_at    = now()
		WHERE id = $1
		RETURNING `+userColumns+`
	`, id, params.Name, params.Nik, params.PasswordHash, params.AvatarURL, params.Theme)
	return scanUser(row)
}

// DeleteUser removes a user account
func (r *PostgresRepository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return domain.Internal("failed to delete user", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("user not found")
	}
	return nil
}

// ListUsers returns all user accounts
func (r *PostgresRepository) ListUsers(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, domain.Internal("failed to query users", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal("failed to read users", err)
	}
	return users, nil
}

// SearchUsersByNik returns users whose nik contains the query,
// case-insensitively.
func (r *PostgresRepository) SearchUsersByNik(ctx context.Context, nik string, limit int) ([]*domain.User, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE nik ILIKE '%' || $1 || '%'
		ORDER BY nik
		LIMIT $2
	`, nik, limit)
	if err != nil {
		return nil, domain.Internal("failed to search users", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal("failed to read users", err)
	}
	return users, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Nik,
		&user.Email,
		&user.AvatarURL,
		&user.Theme,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFoundf("user not found")
		}
		return nil, domain.Internal("failed to scan user", err)
	}
	return &user, nil
}
