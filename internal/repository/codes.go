package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/chatline/backend/internal/domain"
)

// UpsertCode stores a verification code for an email, replacing any
// previous one.
func (r *PostgresRepository) UpsertCode(ctx context.Context, code domain.VerificationCode) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO verification_codes (email, code, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET code = excluded.code, expires_at = excluded.expires_at
	`, code.Email, code.Code, code.ExpiresAt)
	if err != nil {
		return domain.Internal("failed to store verification code", err)
	}
	return nil
}

// GetCode returns the unexpired code for an email.
func (r *PostgresRepository) GetCode(ctx context.Context, email string) (*domain.VerificationCode, error) {
	var code domain.VerificationCode
	err := r.db.QueryRow(ctx, `
		SELECT email, code, expires_at FROM verification_codes
		WHERE email = $1 AND expires_at > now()
	`, email).Scan(&code.Email, &code.Code, &code.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFoundf("verification code not found")
		}
		return nil, domain.Internal("failed to read verification code", err)
	}
	return &code, nil
}

// DeleteCode removes a spent code.
func (r *PostgresRepository) DeleteCode(ctx context.Context, email string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM verification_codes WHERE email = $1`, email); err != nil {
		return domain.Internal("failed to delete verification code", err)
	}
	return nil
}

// DeleteExpiredCodes reclaims expired rows; called by the cleanup worker.
func (r *PostgresRepository) DeleteExpiredCodes(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM verification_codes WHERE expires_at <= now()`); err != nil {
		return domain.Internal("failed to delete expired codes", err)
	}
	return nil
}
