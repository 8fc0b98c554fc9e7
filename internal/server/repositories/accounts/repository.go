// Package accounts provides the PostgreSQL-backed repository for wallet
// accounts. All reads and writes are scoped to the owning user.
package accounts

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/avasilkov/walletapp/internal/server/models"
)

type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]models.Account, error)
	Get(ctx context.Context, userID, id string) (*models.Account, error)
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	Update(ctx context.Context, account *models.Account) error
	Delete(ctx context.Context, userID, id string) error
	UpdateBalance(ctx context.Context, userID, id string, balance decimal.Decimal) error
}
