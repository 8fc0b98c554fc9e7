package transactions

import (
	"context"
	"fmt"

	"github.com/avasilkov/walletapp/internal/dbx"
	"github.com/avasilkov/walletapp/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID, accountID string) ([]models.Transaction, error) {
	query := `
		SELECT id, account_id, user_id, type, amount, description, category, date, balance_after
		FROM transactions
		WHERE user_id = $1 AND ($2 = '' OR account_id = $2::uuid)
		ORDER BY date DESC, id
	`
	rows, err := r.db.QueryContext(ctx, query, userID, accountID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		if err := rows.Scan(&tx.ID, &tx.AccountID, &tx.UserID, &tx.Type, &tx.Amount,
			&tx.Description, &tx.Category, &tx.Date, &tx.BalanceAfter); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return txs, nil
}

func (r *PostgresRepository) Create(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	query := `
		INSERT INTO transactions (id, account_id, user_id, type, amount, description, category, date, balance_after)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if _, err := r.db.ExecContext(ctx, query,
		tx.ID, tx.AccountID, tx.UserID, tx.Type, tx.Amount,
		tx.Description, tx.Category, tx.Date, tx.BalanceAfter); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return tx, nil
}
