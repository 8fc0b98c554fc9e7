// Package sessiontokens provides the PostgreSQL-backed repository for issued
// access-token sessions, keyed by jti.
package sessiontokens

import (
	"context"
	"time"

	"github.com/avasilkov/walletapp/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, userID, jti string, validity time.Duration) error
	Find(ctx context.Context, jti string) (*models.SessionToken, error)
	Delete(ctx context.Context, jti string) error
	DeleteForUser(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context) (int64, error)
}
