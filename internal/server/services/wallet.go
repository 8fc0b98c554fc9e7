package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/avasilkov/walletapp/internal/common"
	"github.com/avasilkov/walletapp/internal/dbx"
	"github.com/avasilkov/walletapp/internal/logging"
	"github.com/avasilkov/walletapp/internal/server/models"
	"github.com/avasilkov/walletapp/internal/server/repositories/repomanager"
)

// NewAccount carries the caller-supplied fields of an account to create.
type NewAccount struct {
	Name          string
	Type          string
	Balance       decimal.Decimal
	Currency      string
	AccountNumber string
	IsActive      bool
}

// AccountPatch is a partial account update. Nil fields are left unchanged.
type AccountPatch struct {
	Name          *string
	Type          *string
	Balance       *decimal.Decimal
	Currency      *string
	AccountNumber *string
	IsActive      *bool
}

// NewTransaction carries the caller-supplied fields of a ledger posting.
type NewTransaction struct {
	AccountID   string
	Type        string
	Amount      decimal.Decimal
	Description string
	Category    string
	Date        time.Time
}

func validAccountType(t string) bool {
	switch t {
	case "checking", "savings", "credit", "investment":
		return true
	}
	return false
}

func validTransactionType(t string) bool {
	switch t {
	case "income", "expense", "transfer":
		return true
	}
	return false
}

// WalletService owns accounts and the ledger. Every operation is scoped to
// the authenticated user; a posting commits the ledger row and the balance
// change atomically.
type WalletService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	logger logging.Logger
}

func NewWalletService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *WalletService {
	return &WalletService{db: db, repos: m, logger: logger.With("component", "wallet")}
}

func (s *WalletService) Accounts(ctx context.Context, userID string) ([]models.Account, error) {
	return s.repos.Accounts(s.db).ListByUser(ctx, userID)
}

func (s *WalletService) Account(ctx context.Context, userID, id string) (*models.Account, error) {
	return s.repos.Accounts(s.db).Get(ctx, userID, id)
}

func (s *WalletService) CreateAccount(ctx context.Context, userID string, draft NewAccount) (*models.Account, error) {
	if draft.Name == "" {
		return nil, fmt.Errorf("%w: name is required", common.ErrorValidation)
	}
	if !validAccountType(draft.Type) {
		return nil, fmt.Errorf("%w: unknown account type %q", common.ErrorValidation, draft.Type)
	}
	if draft.Currency == "" {
		return nil, fmt.Errorf("%w: currency is required", common.ErrorValidation)
	}

	account := &models.Account{
		ID:            uuid.NewString(),
		UserID:        userID,
		Name:          draft.Name,
		Type:          draft.Type,
		Balance:       draft.Balance,
		Currency:      draft.Currency,
		AccountNumber: draft.AccountNumber,
		IsActive:      draft.IsActive,
	}
	account, err := s.repos.Accounts(s.db).Create(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("creating account: %w", err)
	}
	s.logger.Info(ctx, "account created", "user_id", userID, "account_id", account.ID)
	return account, nil
}

func (s *WalletService) UpdateAccount(ctx context.Context, userID, id string, patch AccountPatch) (*models.Account, error) {
	repo := s.repos.Accounts(s.db)
	account, err := repo.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, fmt.Errorf("%w: name is required", common.ErrorValidation)
		}
		account.Name = *patch.Name
	}
	if patch.Type != nil {
		if !validAccountType(*patch.Type) {
			return nil, fmt.Errorf("%w: unknown account type %q", common.ErrorValidation, *patch.Type)
		}
		account.Type = *patch.Type
	}
	if patch.Balance != nil {
		account.Balance = *patch.Balance
	}
	if patch.Currency != nil {
		account.Currency = *patch.Currency
	}
	if patch.AccountNumber != nil {
		account.AccountNumber = *patch.AccountNumber
	}
	if patch.IsActive != nil {
		account.IsActive = *patch.IsActive
	}

	if err := repo.Update(ctx, account); err != nil {
		return nil, fmt.Errorf("updating account: %w", err)
	}
	account.UpdatedAt = time.Now().UTC()
	return account, nil
}

// DeleteAccount removes the account; the schema cascades the delete to its
// transactions.
func (s *WalletService) DeleteAccount(ctx context.Context, userID, id string) error {
	if err := s.repos.Accounts(s.db).Delete(ctx, userID, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "account deleted", "user_id", userID, "account_id", id)
	return nil
}

func (s *WalletService) Transactions(ctx context.Context, userID, accountID string) ([]models.Transaction, error) {
	return s.repos.Transactions(s.db).ListByUser(ctx, userID, accountID)
}

// AddTransaction validates and posts a ledger entry. The referenced account
// must exist and belong to the user. The balance update (income adds,
// expense subtracts, transfer leaves it) and the ledger insert commit in one
// transaction, with BalanceAfter snapshotting the updated balance.
func (s *WalletService) AddTransaction(ctx context.Context, userID string, draft NewTransaction) (*models.Transaction, error) {
	if !validTransactionType(draft.Type) {
		return nil, fmt.Errorf("%w: unknown transaction type %q", common.ErrorValidation, draft.Type)
	}
	if draft.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: amount must not be negative", common.ErrorValidation)
	}

	date := draft.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	var posted *models.Transaction
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		account, err := s.repos.Accounts(tx).Get(ctx, userID, draft.AccountID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return fmt.Errorf("%w: unknown account %q", common.ErrorValidation, draft.AccountID)
			}
			return err
		}

		balance := account.Balance
		switch draft.Type {
		case "income":
			balance = balance.Add(draft.Amount)
		case "expense":
			balance = balance.Sub(draft.Amount)
		}

		if err := s.repos.Accounts(tx).UpdateBalance(ctx, userID, account.ID, balance); err != nil {
			return err
		}

		posted, err = s.repos.Transactions(tx).Create(ctx, &models.Transaction{
			ID:           uuid.NewString(),
			AccountID:    account.ID,
			UserID:       userID,
			Type:         draft.Type,
			Amount:       draft.Amount,
			Description:  draft.Description,
			Category:     draft.Category,
			Date:         date,
			BalanceAfter: balance,
		})
		return err
	}); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "transaction posted",
		"user_id", userID, "account_id", posted.AccountID, "type", posted.Type)
	return posted, nil
}
