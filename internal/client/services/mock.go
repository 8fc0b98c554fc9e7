package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/avasilkov/walletapp/internal/client/api"
	"github.com/avasilkov/walletapp/internal/client/models"
	"github.com/avasilkov/walletapp/internal/common"
)

// MockWalletService is the offline/demo variant of the ledger engine. It
// honors the same Wallet contract but resolves everything from an in-memory
// seeded dataset with simulated latency, and can be reset to the original
// seed for repeatable fixtures.
type MockWalletService struct {
	latency time.Duration

	mu           sync.Mutex
	accounts     []models.Account
	transactions []models.Transaction
}

var _ Wallet = (*MockWalletService)(nil)

// MockOption customizes a MockWalletService.
type MockOption func(*MockWalletService)

// WithLatency sets the simulated per-operation latency. Zero disables it.
func WithLatency(d time.Duration) MockOption {
	return func(m *MockWalletService) { m.latency = d }
}

// NewMockWalletService returns an engine seeded with the demo dataset.
func NewMockWalletService(opts ...MockOption) *MockWalletService {
	m := &MockWalletService{latency: 400 * time.Millisecond}
	for _, opt := range opts {
		opt(m)
	}
	m.ResetMockData()
	return m
}

// ResetMockData restores the original seed set, discarding every mutation
// made since construction or the previous reset.
func (m *MockWalletService) ResetMockData() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts = seedAccounts()
	m.transactions = seedTransactions()
}

func (m *MockWalletService) sleep(ctx context.Context) error {
	if m.latency <= 0 {
		return nil
	}
	select {
	case <-time.After(m.latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *MockWalletService) Accounts(ctx context.Context) ([]models.Account, error) {
	if err := m.sleep(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneAccounts(m.accounts), nil
}

func (m *MockWalletService) AccountByID(ctx context.Context, id string) (*models.Account, error) {
	if err := m.sleep(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.accounts {
		if m.accounts[i].ID == id {
			acc := m.accounts[i]
			return &acc, nil
		}
	}
	return nil, nil
}

func (m *MockWalletService) CreateAccount(ctx context.Context, draft api.NewAccount) (*models.Account, error) {
	if err := m.sleep(ctx); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	account := models.Account{
		ID:            uuid.NewString(),
		Name:          draft.Name,
		Type:          draft.Type,
		Balance:       draft.Balance,
		Currency:      draft.Currency,
		AccountNumber: draft.AccountNumber,
		IsActive:      draft.IsActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts = append(m.accounts, account)
	return &account, nil
}

func (m *MockWalletService) UpdateAccount(ctx context.Context, id string, patch api.AccountPatch) (*models.Account, error) {
	if err := m.sleep(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.accounts {
		if m.accounts[i].ID != id {
			continue
		}
		acc := m.accounts[i]
		if patch.Name != nil {
			acc.Name = *patch.Name
		}
		if patch.Type != nil {
			acc.Type = *patch.Type
		}
		if patch.Balance != nil {
			acc.Balance = *patch.Balance
		}
		if patch.Currency != nil {
			acc.Currency = *patch.Currency
		}
		if patch.AccountNumber != nil {
			acc.AccountNumber = *patch.AccountNumber
		}
		if patch.IsActive != nil {
			acc.IsActive = *patch.IsActive
		}
		acc.UpdatedAt = time.Now().UTC()
		m.accounts[i] = acc
		return &acc, nil
	}
	return nil, common.ErrorNotFound
}

func (m *MockWalletService) DeleteAccount(ctx context.Context, id string) error {
	if err := m.sleep(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	next := make([]models.Account, 0, len(m.accounts))
	for _, acc := range m.accounts {
		if acc.ID != id {
			next = append(next, acc)
		}
	}
	m.accounts = next
	return nil
}

func (m *MockWalletService) Transactions(ctx context.Context, accountID string) ([]models.Transaction, error) {
	if err := m.sleep(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return filterTransactions(cloneTransactions(m.transactions), accountID), nil
}

// AddTransaction posts against the seeded dataset with the same balance
// semantics as the real backend: income adds, expense subtracts, transfer
// leaves the balance unchanged, and BalanceAfter snapshots the result.
func (m *MockWalletService) AddTransaction(ctx context.Context, draft api.NewTransaction) (*models.Transaction, error) {
	if err := m.sleep(ctx); err != nil {
		return nil, err
	}
	if !draft.Type.Valid() {
		return nil, common.ErrorValidation
	}
	if draft.Amount.IsNegative() {
		return nil, common.ErrorValidation
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	idx := -1
	for i := range m.accounts {
		if m.accounts[i].ID == draft.AccountID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, common.ErrorValidation
	}

	balance := m.accounts[idx].Balance
	switch draft.Type {
	case models.TransactionTypeIncome:
		balance = balance.Add(draft.Amount)
	case models.TransactionTypeExpense:
		balance = balance.Sub(draft.Amount)
	}

	date := draft.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	tx := models.Transaction{
		ID:           uuid.NewString(),
		AccountID:    draft.AccountID,
		Type:         draft.Type,
		Amount:       draft.Amount,
		Description:  draft.Description,
		Category:     draft.Category,
		Date:         date,
		BalanceAfter: balance,
	}

	m.accounts[idx].Balance = balance
	m.accounts[idx].UpdatedAt = time.Now().UTC()
	m.transactions = append([]models.Transaction{tx}, m.transactions...)
	return &tx, nil
}

func (m *MockWalletService) Summary(ctx context.Context) (models.Summary, error) {
	if err := m.sleep(ctx); err != nil {
		return models.Summary{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	totalBalance := decimal.Zero
	for _, acc := range m.accounts {
		totalBalance = totalBalance.Add(acc.Balance)
	}
	totalIncome := decimal.Zero
	totalExpenses := decimal.Zero
	for _, tx := range m.transactions {
		switch tx.Type {
		case models.TransactionTypeIncome:
			totalIncome = totalIncome.Add(tx.Amount)
		case models.TransactionTypeExpense:
			totalExpenses = totalExpenses.Add(tx.Amount)
		}
	}
	currency := defaultCurrency
	if len(m.accounts) > 0 {
		currency = m.accounts[0].Currency
	}

	return models.Summary{
		TotalBalance:  totalBalance,
		TotalIncome:   totalIncome,
		TotalExpenses: totalExpenses,
		AccountCount:  len(m.accounts),
		Currency:      currency,
	}, nil
}

func seedAccounts() []models.Account {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	updated := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	return []models.Account{
		{
			ID: "1", Name: "Main Checking", Type: models.AccountTypeChecking,
			Balance: decimal.RequireFromString("2450.75"), Currency: "USD",
			AccountNumber: "****1234", IsActive: true, CreatedAt: created, UpdatedAt: updated,
		},
		{
			ID: "2", Name: "Savings Account", Type: models.AccountTypeSavings,
			Balance: decimal.RequireFromString("12500.00"), Currency: "USD",
			AccountNumber: "****5678", IsActive: true, CreatedAt: created, UpdatedAt: updated,
		},
		{
			ID: "3", Name: "Credit Card", Type: models.AccountTypeCredit,
			Balance: decimal.RequireFromString("-1250.50"), Currency: "USD",
			AccountNumber: "****9012", IsActive: true, CreatedAt: created, UpdatedAt: updated,
		},
		{
			ID: "4", Name: "Investment Portfolio", Type: models.AccountTypeInvestment,
			Balance: decimal.RequireFromString("45000.00"), Currency: "USD",
			AccountNumber: "****3456", IsActive: true, CreatedAt: created, UpdatedAt: updated,
		},
	}
}

func seedTransactions() []models.Transaction {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	return []models.Transaction{
		{
			ID: "1", AccountID: "1", Type: models.TransactionTypeExpense,
			Amount: decimal.RequireFromString("125.50"), Description: "Grocery shopping",
			Category: "Food & Dining", Date: day(15),
			BalanceAfter: decimal.RequireFromString("2325.25"),
		},
		{
			ID: "2", AccountID: "1", Type: models.TransactionTypeIncome,
			Amount: decimal.RequireFromString("2500.00"), Description: "Salary deposit",
			Category: "Income", Date: day(14),
			BalanceAfter: decimal.RequireFromString("2450.75"),
		},
		{
			ID: "3", AccountID: "2", Type: models.TransactionTypeIncome,
			Amount: decimal.RequireFromString("500.00"), Description: "Interest earned",
			Category: "Interest", Date: day(13),
			BalanceAfter: decimal.RequireFromString("12500.00"),
		},
		{
			ID: "4", AccountID: "3", Type: models.TransactionTypeExpense,
			Amount: decimal.RequireFromString("89.99"), Description: "Online purchase",
			Category: "Shopping", Date: day(12),
			BalanceAfter: decimal.RequireFromString("-1250.50"),
		},
		{
			ID: "5", AccountID: "1", Type: models.TransactionTypeExpense,
			Amount: decimal.RequireFromString("45.00"), Description: "Gas station",
			Category: "Transportation", Date: day(11),
			BalanceAfter: decimal.RequireFromString("-54.25"),
		},
		{
			ID: "6", AccountID: "4", Type: models.TransactionTypeIncome,
			Amount: decimal.RequireFromString("1500.00"), Description: "Dividend payment",
			Category: "Investment", Date: day(10),
			BalanceAfter: decimal.RequireFromString("45000.00"),
		},
	}
}
