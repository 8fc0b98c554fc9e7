package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"

	"github.com/avasilkov/walletapp/internal/common"
	"github.com/avasilkov/walletapp/internal/dbx"
	"github.com/avasilkov/walletapp/internal/logging"
	"github.com/avasilkov/walletapp/internal/server/config"
	"github.com/avasilkov/walletapp/internal/server/models"
	accountsrepo "github.com/avasilkov/walletapp/internal/server/repositories/accounts"
	resettokensrepo "github.com/avasilkov/walletapp/internal/server/repositories/resettokens"
	sessiontokensrepo "github.com/avasilkov/walletapp/internal/server/repositories/sessiontokens"
	transactionsrepo "github.com/avasilkov/walletapp/internal/server/repositories/transactions"
	usersrepo "github.com/avasilkov/walletapp/internal/server/repositories/users"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

// --- stateful in-memory fakes ---

type fakeUsersRepo struct {
	users map[string]*models.User // by id
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{users: make(map[string]*models.User)}
}

func (f *fakeUsersRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == user.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	user.CreatedAt = time.Now()
	copied := *user
	f.users[user.ID] = &copied
	return user, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUsersRepo) Update(ctx context.Context, user *models.User) error {
	stored, ok := f.users[user.ID]
	if !ok {
		return common.ErrorNotFound
	}
	for id, u := range f.users {
		if id != user.ID && u.Email == user.Email {
			return common.ErrorAlreadyExists
		}
	}
	stored.Email = user.Email
	stored.Name = user.Name
	return nil
}

func (f *fakeUsersRepo) UpdatePassword(ctx context.Context, userID string, passwordHash []byte) error {
	u, ok := f.users[userID]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

type fakeSessionsRepo struct {
	sessions map[string]*models.SessionToken // by jti
}

func newFakeSessionsRepo() *fakeSessionsRepo {
	return &fakeSessionsRepo{sessions: make(map[string]*models.SessionToken)}
}

func (f *fakeSessionsRepo) Create(ctx context.Context, userID, jti string, validity time.Duration) error {
	f.sessions[jti] = &models.SessionToken{ID: jti, UserID: userID, Expires: time.Now().Add(validity)}
	return nil
}

func (f *fakeSessionsRepo) Find(ctx context.Context, jti string) (*models.SessionToken, error) {
	s, ok := f.sessions[jti]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSessionsRepo) Delete(ctx context.Context, jti string) error {
	delete(f.sessions, jti)
	return nil
}

func (f *fakeSessionsRepo) DeleteForUser(ctx context.Context, userID string) error {
	for jti, s := range f.sessions {
		if s.UserID == userID {
			delete(f.sessions, jti)
		}
	}
	return nil
}

func (f *fakeSessionsRepo) DeleteExpired(ctx context.Context) (int64, error) {
	var n int64
	for jti, s := range f.sessions {
		if s.Expires.Before(time.Now()) {
			delete(f.sessions, jti)
			n++
		}
	}
	return n, nil
}

type fakeResetRepo struct {
	tokens map[string]*models.ResetToken
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{tokens: make(map[string]*models.ResetToken)}
}

func (f *fakeResetRepo) Create(ctx context.Context, userID, token string, validity time.Duration) error {
	f.tokens[token] = &models.ResetToken{Token: token, UserID: userID, Expires: time.Now().Add(validity)}
	return nil
}

func (f *fakeResetRepo) Find(ctx context.Context, token string) (*models.ResetToken, error) {
	t, ok := f.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copied := *t
	return &copied, nil
}

func (f *fakeResetRepo) Delete(ctx context.Context, token string) error {
	delete(f.tokens, token)
	return nil
}

type fakeAccountsRepo struct {
	accounts map[string]*models.Account // by id
}

func newFakeAccountsRepo() *fakeAccountsRepo {
	return &fakeAccountsRepo{accounts: make(map[string]*models.Account)}
}

func (f *fakeAccountsRepo) ListByUser(ctx context.Context, userID string) ([]models.Account, error) {
	var out []models.Account
	for _, acc := range f.accounts {
		if acc.UserID == userID {
			out = append(out, *acc)
		}
	}
	return out, nil
}

func (f *fakeAccountsRepo) Get(ctx context.Context, userID, id string) (*models.Account, error) {
	acc, ok := f.accounts[id]
	if !ok || acc.UserID != userID {
		return nil, common.ErrorNotFound
	}
	copied := *acc
	return &copied, nil
}

func (f *fakeAccountsRepo) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now
	copied := *account
	f.accounts[account.ID] = &copied
	return account, nil
}

func (f *fakeAccountsRepo) Update(ctx context.Context, account *models.Account) error {
	stored, ok := f.accounts[account.ID]
	if !ok || stored.UserID != account.UserID {
		return common.ErrorNotFound
	}
	copied := *account
	copied.UpdatedAt = time.Now()
	f.accounts[account.ID] = &copied
	return nil
}

func (f *fakeAccountsRepo) Delete(ctx context.Context, userID, id string) error {
	acc, ok := f.accounts[id]
	if !ok || acc.UserID != userID {
		return common.ErrorNotFound
	}
	delete(f.accounts, id)
	return nil
}

func (f *fakeAccountsRepo) UpdateBalance(ctx context.Context, userID, id string, balance decimal.Decimal) error {
	acc, ok := f.accounts[id]
	if !ok || acc.UserID != userID {
		return common.ErrorNotFound
	}
	acc.Balance = balance
	acc.UpdatedAt = time.Now()
	return nil
}

type fakeTransactionsRepo struct {
	txs []models.Transaction // newest first
}

func (f *fakeTransactionsRepo) ListByUser(ctx context.Context, userID, accountID string) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, tx := range f.txs {
		if tx.UserID != userID {
			continue
		}
		if accountID != "" && tx.AccountID != accountID {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

func (f *fakeTransactionsRepo) Create(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	f.txs = append([]models.Transaction{*tx}, f.txs...)
	return tx, nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	s *fakeSessionsRepo
	r *fakeResetRepo
	a *fakeAccountsRepo
	t *fakeTransactionsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		u: newFakeUsersRepo(),
		s: newFakeSessionsRepo(),
		r: newFakeResetRepo(),
		a: newFakeAccountsRepo(),
		t: &fakeTransactionsRepo{},
	}
}

func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository                 { return m.u }
func (m *fakeRepoManager) SessionTokens(db dbx.DBTX) sessiontokensrepo.Repository { return m.s }
func (m *fakeRepoManager) ResetTokens(db dbx.DBTX) resettokensrepo.Repository     { return m.r }
func (m *fakeRepoManager) Accounts(db dbx.DBTX) accountsrepo.Repository           { return m.a }
func (m *fakeRepoManager) Transactions(db dbx.DBTX) transactionsrepo.Repository   { return m.t }
func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error           { return nil }

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:             "test-secret",
		TokenValidityDuration: time.Hour,
		ResetTokenValidity:    30 * time.Minute,
	}
}
