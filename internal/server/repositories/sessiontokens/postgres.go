package sessiontokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avasilkov/walletapp/internal/common"
	"github.com/avasilkov/walletapp/internal/dbx"
	"github.com/avasilkov/walletapp/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a session row for userID with an expiry of now+validity.
func (r *PostgresRepository) Create(ctx context.Context, userID, jti string, validity time.Duration) error {
	query := `
		INSERT INTO session_tokens (id, user_id, expires_at)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.ExecContext(ctx, query, jti, userID, time.Now().Add(validity)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Find returns the session row for the given jti, or common.ErrorNotFound.
func (r *PostgresRepository) Find(ctx context.Context, jti string) (*models.SessionToken, error) {
	query := `
		SELECT id, user_id, expires_at
		FROM session_tokens
		WHERE id = $1
	`
	token := &models.SessionToken{}
	if err := r.db.QueryRowContext(ctx, query, jti).Scan(&token.ID, &token.UserID, &token.Expires); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return token, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, jti string) error {
	query := `
		DELETE FROM session_tokens
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, jti); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteForUser revokes every session of a user, e.g. after a password reset.
func (r *PostgresRepository) DeleteForUser(ctx context.Context, userID string) error {
	query := `
		DELETE FROM session_tokens
		WHERE user_id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteExpired removes sessions past their expiry and reports how many.
func (r *PostgresRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `
		DELETE FROM session_tokens
		WHERE expires_at < now()
	`
	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
