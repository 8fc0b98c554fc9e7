// Package cli implements the interactive wallet REPL: auth commands backed
// by the session service and ledger commands backed by the wallet engine.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	_ "modernc.org/sqlite"

	"github.com/avasilkov/walletapp/internal/client/api"
	"github.com/avasilkov/walletapp/internal/client/config"
	"github.com/avasilkov/walletapp/internal/client/repositories/kvstore"
	"github.com/avasilkov/walletapp/internal/client/services"
	"github.com/avasilkov/walletapp/internal/logging"
)

// Mode describes which wallet backend the app talks to.
type Mode string

const (
	ModeLive Mode = "live"
	ModeDemo Mode = "demo"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	apiClient api.Client
	session   *services.SessionService
	wallet    services.Wallet
	mock      *services.MockWalletService // non-nil in demo mode
	Mode      Mode

	reader *bufio.Reader
	out    io.Writer
}

// NewApp wires the client stack: cache database, API client, session manager
// (installed as the request authorizer) and the wallet engine selected by
// configuration.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	a := &App{
		config: c,
		logger: logger,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}

	if c.DemoMode {
		a.Mode = ModeDemo
		a.mock = services.NewMockWalletService()
		a.wallet = a.mock
		return a, nil
	}

	db, err := kvstore.Open(ctx, c.CacheDBPath)
	if err != nil {
		return nil, fmt.Errorf("initializing cache: %w", err)
	}
	kv := kvstore.NewSQLiteRepository(db)

	httpClient := api.NewHTTPClient(c.ServerBaseURL, c.RequestTimeout)
	session := services.NewSessionService(ctx, httpClient, kv, logger)
	httpClient.SetAuthority(session)

	a.Mode = ModeLive
	a.apiClient = httpClient
	a.session = session
	a.wallet = services.NewWalletService(ctx, httpClient, kv, logger)
	return a, nil
}

func (a *App) Run(ctx context.Context) {
	defer a.close()
	a.Root(ctx)
}

func (a *App) close() {
	if a.apiClient != nil {
		_ = a.apiClient.Close()
	}
}

func (a *App) isLoggedIn() bool {
	return a.Mode == ModeDemo || (a.session != nil && a.session.IsAuthenticated())
}
