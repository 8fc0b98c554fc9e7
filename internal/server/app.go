// Package server wires the wallet backend together: database, repositories,
// services and the HTTP API, with graceful shutdown and a background sweeper
// for expired sessions.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/avasilkov/walletapp/internal/logging"
	"github.com/avasilkov/walletapp/internal/server/config"
	"github.com/avasilkov/walletapp/internal/server/httpapi"
	"github.com/avasilkov/walletapp/internal/server/repositories/repomanager"
	"github.com/avasilkov/walletapp/internal/server/services"
)

type App struct {
	config        *config.Config
	logger        logging.Logger
	db            *sql.DB
	userService   *services.UserService
	walletService *services.WalletService
}

func NewApp(c *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return &App{
		config:        c,
		logger:        logger,
		db:            db,
		userService:   services.NewUserService(db, repos, c, logger),
		walletService: services.NewWalletService(db, repos, logger),
	}, nil
}

// Run serves until a shutdown signal arrives, then stops the HTTP server and
// the sweeper and closes the database.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app.logger.Info(ctx, "starting server", "addr", app.config.EndpointAddr)

	srv := httpapi.NewServer(app.config.EndpointAddr, app.userService, app.walletService, app.logger)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Run(ctx)
	})

	g.Go(func() error {
		return app.sweepExpiredSessions(ctx)
	})

	err := g.Wait()

	if closeErr := app.db.Close(); closeErr != nil {
		app.logger.Error(ctx, "closing database", "error", closeErr)
	}

	app.logger.Info(ctx, "server stopped")
	return err
}

// sweepExpiredSessions periodically removes session rows past their expiry,
// so abandoned sessions cannot be refreshed forever.
func (app *App) sweepExpiredSessions(ctx context.Context) error {
	interval := app.config.SessionSweepInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := app.userService.SweepExpiredSessions(ctx); err != nil {
				app.logger.Warn(ctx, "session sweep failed", "error", err)
			}
		}
	}
}
