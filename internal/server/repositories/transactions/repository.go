// Package transactions provides the PostgreSQL-backed repository for ledger
// entries. Rows are immutable once inserted.
package transactions

import (
	"context"

	"github.com/avasilkov/walletapp/internal/server/models"
)

type Repository interface {
	// ListByUser returns the user's transactions most recent first,
	// optionally filtered to one account (accountID == "" means all).
	ListByUser(ctx context.Context, userID, accountID string) ([]models.Transaction, error)
	Create(ctx context.Context, tx *models.Transaction) (*models.Transaction, error)
}
