package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/avasilkov/walletapp/internal/logging"
	"github.com/avasilkov/walletapp/internal/server/models"
	"github.com/avasilkov/walletapp/internal/server/services"
)

// Users is the slice of the users service the API depends on.
type Users interface {
	Register(ctx context.Context, email, password string) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	Refresh(ctx context.Context, tokenString string) (*models.User, string, error)
	Authenticate(ctx context.Context, tokenString string) (string, error)
	UpdateProfile(ctx context.Context, userID string, patch services.UserPatch) (*models.User, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// Wallet is the slice of the wallet service the API depends on.
type Wallet interface {
	Accounts(ctx context.Context, userID string) ([]models.Account, error)
	Account(ctx context.Context, userID, id string) (*models.Account, error)
	CreateAccount(ctx context.Context, userID string, draft services.NewAccount) (*models.Account, error)
	UpdateAccount(ctx context.Context, userID, id string, patch services.AccountPatch) (*models.Account, error)
	DeleteAccount(ctx context.Context, userID, id string) error
	Transactions(ctx context.Context, userID, accountID string) ([]models.Transaction, error)
	AddTransaction(ctx context.Context, userID string, draft services.NewTransaction) (*models.Transaction, error)
}

var _ Users = (*services.UserService)(nil)
var _ Wallet = (*services.WalletService)(nil)

// Server is the HTTP front of the wallet backend.
type Server struct {
	users  Users
	wallet Wallet
	logger logging.Logger
	http   *http.Server
}

func NewServer(addr string, users Users, wallet Wallet, logger logging.Logger) *Server {
	s := &Server{
		users:  users,
		wallet: wallet,
		logger: logger.With("component", "httpapi"),
	}
	s.http = &http.Server{
		Addr:           addr,
		Handler:        s.routes(),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}
	return s
}

// routes builds the API multiplexer. Everything under /api/wallet and the
// profile/password endpoints require a bearer token; /auth/refresh carries
// its own (possibly expired) token and is validated by the handler itself.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/refresh", s.handleRefresh)
	mux.HandleFunc("POST /api/auth/forgot-password", s.handleForgotPassword)
	mux.HandleFunc("POST /api/auth/reset-password", s.handleResetPassword)

	mux.Handle("PUT /api/auth/profile", s.authorized(s.handleUpdateProfile))
	mux.Handle("POST /api/auth/change-password", s.authorized(s.handleChangePassword))

	mux.Handle("GET /api/wallet/accounts", s.authorized(s.handleListAccounts))
	mux.Handle("POST /api/wallet/accounts", s.authorized(s.handleCreateAccount))
	mux.Handle("GET /api/wallet/accounts/{id}", s.authorized(s.handleGetAccount))
	mux.Handle("PUT /api/wallet/accounts/{id}", s.authorized(s.handleUpdateAccount))
	mux.Handle("DELETE /api/wallet/accounts/{id}", s.authorized(s.handleDeleteAccount))

	mux.Handle("GET /api/wallet/transactions", s.authorized(s.handleListTransactions))
	mux.Handle("POST /api/wallet/transactions", s.authorized(s.handleAddTransaction))

	return mux
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.ListenAndServe()
	}()

	s.logger.Info(ctx, "http server listening", "addr", s.http.Addr)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}
