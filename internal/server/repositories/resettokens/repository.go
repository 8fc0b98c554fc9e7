// Package resettokens provides the PostgreSQL-backed repository for
// single-use password reset tokens.
package resettokens

import (
	"context"
	"time"

	"github.com/avasilkov/walletapp/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, userID, token string, validity time.Duration) error
	Find(ctx context.Context, token string) (*models.ResetToken, error)
	Delete(ctx context.Context, token string) error
}
