// Package server wires the planner's sync service: it opens the database,
// applies migrations, builds the services and serves the HTTP API until the
// context is cancelled.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/weekplanner/internal/logging"
	"github.com/dmitrijs2005/weekplanner/internal/server/config"
	"github.com/dmitrijs2005/weekplanner/internal/server/httpapi"
	"github.com/dmitrijs2005/weekplanner/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/weekplanner/internal/server/services"
	"github.com/gofiber/fiber/v2"
)

const (
	sessionPurgeInterval = time.Hour
	shutdownTimeout      = 10 * time.Second
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	users  *services.UserService
	http   *fiber.App
}

func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	return newApp(cfg, logger, db, rm), nil
}

func newApp(cfg *config.Config, logger logging.Logger, db *sql.DB, rm repomanager.RepositoryManager) *App {
	us := services.NewUserService(db, rm, cfg)

	h := httpapi.New(httpapi.Deps{
		Accounts:    us,
		Collections: services.NewCollectionService(db, rm),
		Backups:     services.NewBackupService(cfg),
		DB:          db,
		Logger:      logger,
		AccessLog:   os.Stdout,
		Metrics:     true,
	})

	return &App{config: cfg, logger: logger, db: db, users: us, http: h}
}

// purgeSessions drops expired sessions until ctx is done.
func (app *App) purgeSessions(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := app.users.PurgeExpiredSessions(ctx)
			if err != nil {
				app.logger.Warn(ctx, "session purge failed", "error", err)
				continue
			}
			if n > 0 {
				app.logger.Debug(ctx, "expired sessions purged", "count", n)
			}
		}
	}
}

func (app *App) serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		app.logger.Info(context.Background(), "Stopping HTTP server...")
		if err := app.http.ShutdownWithTimeout(shutdownTimeout); err != nil {
			app.logger.Error(context.Background(), "shutdown failed", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.ListenAddr)
	return app.http.Listen(app.config.ListenAddr)
}

// Run blocks until ctx is cancelled or the listener fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer app.db.Close()

	app.logger.Info(ctx, "Starting app...")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		app.purgeSessions(ctx, sessionPurgeInterval)
	}()

	err := app.serve(ctx)
	cancel()
	wg.Wait()
	return err
}
