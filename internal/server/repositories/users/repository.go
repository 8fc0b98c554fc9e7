// Package users provides the PostgreSQL-backed repository for account
// holders.
package users

import (
	"context"

	"github.com/avasilkov/walletapp/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, userID string, passwordHash []byte) error
}
