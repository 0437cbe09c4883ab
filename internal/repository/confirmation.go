package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ConfirmationRepository stores single-use email confirmation tokens. Only a
// sha256 of the token is kept at rest.
type ConfirmationRepository struct {
	pool *pgxpool.Pool
}

func NewConfirmationRepository(pool *pgxpool.Pool) *ConfirmationRepository {
	return &ConfirmationRepository{pool: pool}
}

func (r *ConfirmationRepository) Store(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO confirmation_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
	`, userID, tokenHash, expiresAt)
	return err
}

// Consume validates an unexpired, unused token for the user and marks it
// used in the same statement. Returns pgx.ErrNoRows when no such token exists.
func (r *ConfirmationRepository) Consume(ctx context.Context, userID, tokenHash string) error {
	var id int64
	return r.pool.QueryRow(ctx, `
		UPDATE confirmation_tokens SET used = TRUE
		WHERE user_id = $1 AND token_hash = $2 AND used = FALSE AND expires_at > NOW()
		RETURNING id
	`, userID, tokenHash).Scan(&id)
}

func (r *ConfirmationRepository) CleanupExpired(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM confirmation_tokens WHERE expires_at < NOW() OR used = TRUE`)
	return err
}
