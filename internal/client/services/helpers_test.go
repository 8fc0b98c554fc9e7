package services

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/avasilkov/walletapp/internal/client/api"
	"github.com/avasilkov/walletapp/internal/client/models"
	"github.com/avasilkov/walletapp/internal/logging"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// memKV is an in-memory kvstore.Repository for tests.
type memKV struct {
	mu     sync.Mutex
	data   map[string]string
	setErr error
}

func newMemKV() *memKV {
	return &memKV{data: make(map[string]string)}
}

func (m *memKV) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func (m *memKV) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memKV) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]string)
	return nil
}

func (m *memKV) get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *memKV) put(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

// fakeClient implements api.Client with per-method stubs. Unset methods
// return zero values.
type fakeClient struct {
	loginFn          func(ctx context.Context, email, password string) (*api.AuthResponse, error)
	registerFn       func(ctx context.Context, email, password string) (*api.AuthResponse, error)
	refreshFn        func(ctx context.Context) (*api.AuthResponse, error)
	updateProfileFn  func(ctx context.Context, patch api.UserPatch) (*models.User, error)
	changePasswordFn func(ctx context.Context, currentPassword, newPassword string) error
	forgotPasswordFn func(ctx context.Context, email string) error
	resetPasswordFn  func(ctx context.Context, token, newPassword string) error

	accountsFn       func(ctx context.Context) ([]models.Account, error)
	accountFn        func(ctx context.Context, id string) (*models.Account, error)
	createAccountFn  func(ctx context.Context, draft api.NewAccount) (*models.Account, error)
	updateAccountFn  func(ctx context.Context, id string, patch api.AccountPatch) (*models.Account, error)
	deleteAccountFn  func(ctx context.Context, id string) error
	transactionsFn   func(ctx context.Context, accountID string) ([]models.Transaction, error)
	addTransactionFn func(ctx context.Context, draft api.NewTransaction) (*models.Transaction, error)
}

var _ api.Client = (*fakeClient)(nil)

func (f *fakeClient) Login(ctx context.Context, email, password string) (*api.AuthResponse, error) {
	return f.loginFn(ctx, email, password)
}

func (f *fakeClient) Register(ctx context.Context, email, password string) (*api.AuthResponse, error) {
	return f.registerFn(ctx, email, password)
}

func (f *fakeClient) Refresh(ctx context.Context) (*api.AuthResponse, error) {
	return f.refreshFn(ctx)
}

func (f *fakeClient) UpdateProfile(ctx context.Context, patch api.UserPatch) (*models.User, error) {
	return f.updateProfileFn(ctx, patch)
}

func (f *fakeClient) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	return f.changePasswordFn(ctx, currentPassword, newPassword)
}

func (f *fakeClient) ForgotPassword(ctx context.Context, email string) error {
	return f.forgotPasswordFn(ctx, email)
}

func (f *fakeClient) ResetPassword(ctx context.Context, token, newPassword string) error {
	return f.resetPasswordFn(ctx, token, newPassword)
}

func (f *fakeClient) Accounts(ctx context.Context) ([]models.Account, error) {
	return f.accountsFn(ctx)
}

func (f *fakeClient) Account(ctx context.Context, id string) (*models.Account, error) {
	return f.accountFn(ctx, id)
}

func (f *fakeClient) CreateAccount(ctx context.Context, draft api.NewAccount) (*models.Account, error) {
	return f.createAccountFn(ctx, draft)
}

func (f *fakeClient) UpdateAccount(ctx context.Context, id string, patch api.AccountPatch) (*models.Account, error) {
	return f.updateAccountFn(ctx, id, patch)
}

func (f *fakeClient) DeleteAccount(ctx context.Context, id string) error {
	return f.deleteAccountFn(ctx, id)
}

func (f *fakeClient) Transactions(ctx context.Context, accountID string) ([]models.Transaction, error) {
	return f.transactionsFn(ctx, accountID)
}

func (f *fakeClient) AddTransaction(ctx context.Context, draft api.NewTransaction) (*models.Transaction, error) {
	return f.addTransactionFn(ctx, draft)
}

func (f *fakeClient) Close() error { return nil }
