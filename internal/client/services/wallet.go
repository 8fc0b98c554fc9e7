package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/avasilkov/walletapp/internal/client/api"
	"github.com/avasilkov/walletapp/internal/client/models"
	"github.com/avasilkov/walletapp/internal/client/repositories/kvstore"
	"github.com/avasilkov/walletapp/internal/common"
	"github.com/avasilkov/walletapp/internal/logging"
	"github.com/avasilkov/walletapp/internal/observe"
)

// Persisted cache keys owned by the wallet engine.
const (
	keyAccounts     = "wallet_accounts"
	keyTransactions = "wallet_transactions"
)

// defaultCurrency is used by the derived summary when no accounts exist.
const defaultCurrency = "USD"

// Wallet is the ledger engine contract. Two implementations exist: the
// backend-backed WalletService and the seeded offline MockWalletService;
// configuration selects between them.
type Wallet interface {
	Accounts(ctx context.Context) ([]models.Account, error)
	AccountByID(ctx context.Context, id string) (*models.Account, error)
	CreateAccount(ctx context.Context, draft api.NewAccount) (*models.Account, error)
	UpdateAccount(ctx context.Context, id string, patch api.AccountPatch) (*models.Account, error)
	DeleteAccount(ctx context.Context, id string) error
	Transactions(ctx context.Context, accountID string) ([]models.Transaction, error)
	AddTransaction(ctx context.Context, draft api.NewTransaction) (*models.Transaction, error)
	Summary(ctx context.Context) (models.Summary, error)
}

// WalletService is the backend-backed ledger engine. It is the single writer
// of the in-memory account/transaction collections, mirrors them to the
// persistent cache, and recomputes the derived summary synchronously after
// every mutation. Reads degrade to the cached mirror when the backend is
// unreachable; writes never commit locally unless the backend call succeeded.
type WalletService struct {
	client api.Client
	kv     kvstore.Repository
	logger logging.Logger

	mu           sync.Mutex
	accounts     []models.Account
	transactions []models.Transaction
	summary      models.Summary

	accountsObs     *observe.Value[[]models.Account]
	transactionsObs *observe.Value[[]models.Transaction]
	summaryObs      *observe.Value[models.Summary]
}

var _ Wallet = (*WalletService)(nil)

// NewWalletService builds the engine and warms it from the persisted mirror;
// no network call is made until the first operation.
func NewWalletService(ctx context.Context, client api.Client, kv kvstore.Repository, logger logging.Logger) *WalletService {
	s := &WalletService{
		client:          client,
		kv:              kv,
		logger:          logger.With("component", "wallet"),
		accountsObs:     observe.NewValue[[]models.Account](nil),
		transactionsObs: observe.NewValue[[]models.Transaction](nil),
		summaryObs:      observe.NewValue(models.Summary{Currency: defaultCurrency}),
	}
	s.loadInitialData(ctx)
	return s
}

// loadInitialData restores the cached collections. A value that fails to
// parse is purged and treated as absent; this never fails construction.
func (s *WalletService) loadInitialData(ctx context.Context) {
	accounts := s.cachedAccounts(ctx)
	transactions := s.cachedTransactions(ctx)

	s.mu.Lock()
	s.accounts = accounts
	s.transactions = transactions
	s.updateSummaryLocked()
	s.mu.Unlock()

	if len(accounts) > 0 || len(transactions) > 0 {
		s.logger.Info(ctx, "wallet cache restored",
			"accounts", len(accounts), "transactions", len(transactions))
	}
}

// Accounts fetches the account collection from the backend, replacing the
// in-memory copy and the persisted mirror. On transport failure it serves
// the cached copy instead of failing the caller.
func (s *WalletService) Accounts(ctx context.Context) ([]models.Account, error) {
	accounts, err := s.client.Accounts(ctx)
	if err != nil {
		s.logger.Warn(ctx, "fetching accounts failed, serving cached copy", "error", err)
		s.mu.Lock()
		defer s.mu.Unlock()
		return cloneAccounts(s.accounts), nil
	}

	s.mu.Lock()
	s.accounts = cloneAccounts(accounts)
	s.persistAccountsLocked(ctx)
	s.updateSummaryLocked()
	s.mu.Unlock()

	return accounts, nil
}

// AccountByID serves from the in-memory collection when possible and fetches
// individually otherwise. A missing account yields (nil, nil), not an error.
func (s *WalletService) AccountByID(ctx context.Context, id string) (*models.Account, error) {
	s.mu.Lock()
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			acc := s.accounts[i]
			s.mu.Unlock()
			return &acc, nil
		}
	}
	s.mu.Unlock()

	account, err := s.client.Account(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching account %s: %w", id, err)
	}
	return account, nil
}

// CreateAccount creates the account on the backend, then appends it locally,
// re-persists the mirror and recomputes the summary.
func (s *WalletService) CreateAccount(ctx context.Context, draft api.NewAccount) (*models.Account, error) {
	account, err := s.client.CreateAccount(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("creating account: %w", err)
	}

	s.mu.Lock()
	s.accounts = append(cloneAccounts(s.accounts), *account)
	s.persistAccountsLocked(ctx)
	s.updateSummaryLocked()
	s.mu.Unlock()

	return account, nil
}

// UpdateAccount merges the backend's updated record over the existing one and
// stamps a fresh update timestamp.
func (s *WalletService) UpdateAccount(ctx context.Context, id string, patch api.AccountPatch) (*models.Account, error) {
	updated, err := s.client.UpdateAccount(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("updating account %s: %w", id, err)
	}
	updated.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	next := cloneAccounts(s.accounts)
	for i := range next {
		if next[i].ID == id {
			next[i] = *updated
			break
		}
	}
	s.accounts = next
	s.persistAccountsLocked(ctx)
	s.updateSummaryLocked()
	s.mu.Unlock()

	return updated, nil
}

// DeleteAccount removes the account on the backend and locally.
func (s *WalletService) DeleteAccount(ctx context.Context, id string) error {
	if err := s.client.DeleteAccount(ctx, id); err != nil {
		return fmt.Errorf("deleting account %s: %w", id, err)
	}

	s.mu.Lock()
	next := make([]models.Account, 0, len(s.accounts))
	for _, acc := range s.accounts {
		if acc.ID != id {
			next = append(next, acc)
		}
	}
	s.accounts = next
	s.persistAccountsLocked(ctx)
	s.updateSummaryLocked()
	s.mu.Unlock()

	return nil
}

// Transactions fetches the transaction collection, optionally filtered by
// account. Only unfiltered fetches replace the persisted mirror, so a
// filtered view can never poison the full cache. On transport failure the
// cached data is served, filtered the same way.
func (s *WalletService) Transactions(ctx context.Context, accountID string) ([]models.Transaction, error) {
	transactions, err := s.client.Transactions(ctx, accountID)
	if err != nil {
		s.logger.Warn(ctx, "fetching transactions failed, serving cached copy", "error", err)
		s.mu.Lock()
		cached := cloneTransactions(s.transactions)
		s.mu.Unlock()
		return filterTransactions(cached, accountID), nil
	}

	if accountID == "" {
		s.mu.Lock()
		s.transactions = cloneTransactions(transactions)
		s.persistTransactionsLocked(ctx)
		s.updateSummaryLocked()
		s.mu.Unlock()
	}
	return transactions, nil
}

// AddTransaction posts the transaction, prepends the backend's record to the
// local collection (most recent first), applies the balance change to the
// referenced account and recomputes the summary in one local commit.
func (s *WalletService) AddTransaction(ctx context.Context, draft api.NewTransaction) (*models.Transaction, error) {
	tx, err := s.client.AddTransaction(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("adding transaction: %w", err)
	}

	s.mu.Lock()
	s.transactions = append([]models.Transaction{*tx}, cloneTransactions(s.transactions)...)
	s.persistTransactionsLocked(ctx)
	s.updateAccountBalanceLocked(ctx, tx.AccountID, tx.Amount, tx.Type)
	s.persistAccountsLocked(ctx)
	s.updateSummaryLocked()
	s.mu.Unlock()

	return tx, nil
}

// Summary returns the current derived summary. It is always consistent with
// the collections because every mutation recomputes it synchronously.
func (s *WalletService) Summary(ctx context.Context) (models.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary, nil
}

// AccountChanges exposes the observable account collection.
func (s *WalletService) AccountChanges() *observe.Value[[]models.Account] {
	return s.accountsObs
}

// TransactionChanges exposes the observable transaction collection.
func (s *WalletService) TransactionChanges() *observe.Value[[]models.Transaction] {
	return s.transactionsObs
}

// SummaryChanges exposes the observable derived summary.
func (s *WalletService) SummaryChanges() *observe.Value[models.Summary] {
	return s.summaryObs
}

// updateAccountBalanceLocked applies a posted transaction to the referenced
// account: income adds, expense subtracts, transfer leaves the balance
// unchanged. An unknown account id is logged and ignored.
func (s *WalletService) updateAccountBalanceLocked(ctx context.Context, accountID string, amount decimal.Decimal, txType models.TransactionType) {
	idx := -1
	for i := range s.accounts {
		if s.accounts[i].ID == accountID {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.logger.Warn(ctx, "transaction references unknown account", "account_id", accountID)
		return
	}

	next := cloneAccounts(s.accounts)
	switch txType {
	case models.TransactionTypeIncome:
		next[idx].Balance = next[idx].Balance.Add(amount)
	case models.TransactionTypeExpense:
		next[idx].Balance = next[idx].Balance.Sub(amount)
	case models.TransactionTypeTransfer:
		// Single-entry model: transfers do not move the balance.
	}
	next[idx].UpdatedAt = time.Now().UTC()
	s.accounts = next
}

// updateSummaryLocked recomputes the derived summary from the current
// collections. It is the mandatory last step of every mutation.
func (s *WalletService) updateSummaryLocked() {
	totalBalance := decimal.Zero
	for _, acc := range s.accounts {
		totalBalance = totalBalance.Add(acc.Balance)
	}

	totalIncome := decimal.Zero
	totalExpenses := decimal.Zero
	for _, tx := range s.transactions {
		switch tx.Type {
		case models.TransactionTypeIncome:
			totalIncome = totalIncome.Add(tx.Amount)
		case models.TransactionTypeExpense:
			totalExpenses = totalExpenses.Add(tx.Amount)
		}
	}

	currency := defaultCurrency
	if len(s.accounts) > 0 {
		currency = s.accounts[0].Currency
	}

	s.summary = models.Summary{
		TotalBalance:  totalBalance,
		TotalIncome:   totalIncome,
		TotalExpenses: totalExpenses,
		AccountCount:  len(s.accounts),
		Currency:      currency,
	}

	s.accountsObs.Set(cloneAccounts(s.accounts))
	s.transactionsObs.Set(cloneTransactions(s.transactions))
	s.summaryObs.Set(s.summary)
}

// persistAccountsLocked mirrors the account collection to the cache. Mirror
// failures are logged, not fatal: the cache is not the source of truth.
func (s *WalletService) persistAccountsLocked(ctx context.Context) {
	data, err := json.Marshal(s.accounts)
	if err != nil {
		s.logger.Warn(ctx, "encoding accounts failed", "error", err)
		return
	}
	if err := s.kv.Set(ctx, keyAccounts, string(data)); err != nil {
		s.logger.Warn(ctx, "persisting accounts failed", "error", err)
	}
}

func (s *WalletService) persistTransactionsLocked(ctx context.Context) {
	data, err := json.Marshal(s.transactions)
	if err != nil {
		s.logger.Warn(ctx, "encoding transactions failed", "error", err)
		return
	}
	if err := s.kv.Set(ctx, keyTransactions, string(data)); err != nil {
		s.logger.Warn(ctx, "persisting transactions failed", "error", err)
	}
}

// cachedAccounts reads the persisted account mirror; a corrupt value is
// purged and an empty collection returned.
func (s *WalletService) cachedAccounts(ctx context.Context) []models.Account {
	raw, ok, err := s.kv.Get(ctx, keyAccounts)
	if err != nil || !ok {
		return nil
	}
	if isCorruptValue(raw) {
		_ = s.kv.Delete(ctx, keyAccounts)
		return nil
	}
	var accounts []models.Account
	if err := json.Unmarshal([]byte(raw), &accounts); err != nil {
		s.logger.Warn(ctx, "purging corrupt cached accounts", "error", err)
		_ = s.kv.Delete(ctx, keyAccounts)
		return nil
	}
	return accounts
}

func (s *WalletService) cachedTransactions(ctx context.Context) []models.Transaction {
	raw, ok, err := s.kv.Get(ctx, keyTransactions)
	if err != nil || !ok {
		return nil
	}
	if isCorruptValue(raw) {
		_ = s.kv.Delete(ctx, keyTransactions)
		return nil
	}
	var transactions []models.Transaction
	if err := json.Unmarshal([]byte(raw), &transactions); err != nil {
		s.logger.Warn(ctx, "purging corrupt cached transactions", "error", err)
		_ = s.kv.Delete(ctx, keyTransactions)
		return nil
	}
	return transactions
}

func filterTransactions(txs []models.Transaction, accountID string) []models.Transaction {
	if accountID == "" {
		return txs
	}
	filtered := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.AccountID == accountID {
			filtered = append(filtered, tx)
		}
	}
	return filtered
}

func cloneAccounts(accounts []models.Account) []models.Account {
	if accounts == nil {
		return nil
	}
	return append([]models.Account(nil), accounts...)
}

func cloneTransactions(txs []models.Transaction) []models.Transaction {
	if txs == nil {
		return nil
	}
	return append([]models.Transaction(nil), txs...)
}
