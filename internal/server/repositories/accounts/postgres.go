package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

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

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]models.Account, error) {
	query := `
		SELECT id, user_id, name, type, balance, currency, account_number, is_active, created_at, updated_at
		FROM accounts
		WHERE user_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var acc models.Account
		if err := rows.Scan(&acc.ID, &acc.UserID, &acc.Name, &acc.Type, &acc.Balance,
			&acc.Currency, &acc.AccountNumber, &acc.IsActive, &acc.CreatedAt, &acc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return accounts, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id string) (*models.Account, error) {
	query := `
		SELECT id, user_id, name, type, balance, currency, account_number, is_active, created_at, updated_at
		FROM accounts
		WHERE user_id = $1 AND id = $2
	`
	acc := &models.Account{}
	err := r.db.QueryRowContext(ctx, query, userID, id).Scan(
		&acc.ID, &acc.UserID, &acc.Name, &acc.Type, &acc.Balance,
		&acc.Currency, &acc.AccountNumber, &acc.IsActive, &acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return acc, nil
}

func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	query := `
		INSERT INTO accounts (id, user_id, name, type, balance, currency, account_number, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		account.ID, account.UserID, account.Name, account.Type, account.Balance,
		account.Currency, account.AccountNumber, account.IsActive).
		Scan(&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return account, nil
}

func (r *PostgresRepository) Update(ctx context.Context, account *models.Account) error {
	query := `
		UPDATE accounts
		SET name = $3, type = $4, balance = $5, currency = $6, account_number = $7, is_active = $8, updated_at = now()
		WHERE user_id = $1 AND id = $2
	`
	res, err := r.db.ExecContext(ctx, query,
		account.UserID, account.ID, account.Name, account.Type, account.Balance,
		account.Currency, account.AccountNumber, account.IsActive)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// Delete removes an account; its transactions go with it via the schema's
// cascade rule.
func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	query := `
		DELETE FROM accounts
		WHERE user_id = $1 AND id = $2
	`
	res, err := r.db.ExecContext(ctx, query, userID, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) UpdateBalance(ctx context.Context, userID, id string, balance decimal.Decimal) error {
	query := `
		UPDATE accounts
		SET balance = $3, updated_at = now()
		WHERE user_id = $1 AND id = $2
	`
	res, err := r.db.ExecContext(ctx, query, userID, id, balance)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
