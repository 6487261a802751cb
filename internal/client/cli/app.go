package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/weekplanner/internal/client/batch"
	"github.com/dmitrijs2005/weekplanner/internal/client/client"
	"github.com/dmitrijs2005/weekplanner/internal/client/config"
	"github.com/dmitrijs2005/weekplanner/internal/client/identity"
	"github.com/dmitrijs2005/weekplanner/internal/client/planner"
	"github.com/dmitrijs2005/weekplanner/internal/client/store"
	"github.com/dmitrijs2005/weekplanner/internal/client/syncer"
	"github.com/dmitrijs2005/weekplanner/internal/common"
	"github.com/dmitrijs2005/weekplanner/internal/filex"
	"github.com/dmitrijs2005/weekplanner/internal/logging"
)

// App carries the client stack a command runs against.
type App struct {
	Config   *config.Config
	Identity *identity.Service
	Store    *store.Store
	API      client.Client
	Logger   logging.Logger

	in  *bufio.Reader
	out io.Writer
	now func() time.Time

	model *planner.Model
}

// NewApp opens the local store under cfg.DataDir and wires the identity
// service to the remote API and the OS keyring.
func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	dir, err := filex.EnsureDir(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	cfg.DataDir = dir

	st, err := store.Open(ctx, cfg.DBPath(), logger)
	if err != nil {
		return nil, err
	}

	api, err := client.NewHTTPClient(cfg.ServerURL, cfg.RequestTimeout)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	slot := identity.NewTokenSlot(cfg.KeyringService, cfg.ServerURL)
	return newApp(cfg, st, api, slot, logger, os.Stdin, os.Stdout), nil
}

func newApp(cfg *config.Config, st *store.Store, api client.Client, slot identity.TokenSlot, logger logging.Logger, in io.Reader, out io.Writer) *App {
	ids := identity.NewService(
		api,
		identity.NewRemoteProvider(api, slot, st, logger),
		identity.NewLocalProvider(st, logger),
		logger,
	)
	return &App{
		Config:   cfg,
		Identity: ids,
		Store:    st,
		API:      api,
		Logger:   logger.With("module", "cli"),
		in:       bufio.NewReader(in),
		out:      out,
		now:      time.Now,
	}
}

// Start selects the connection mode and restores the saved session.
func (a *App) Start(ctx context.Context) error {
	restored, err := a.Identity.Start(ctx)
	if err != nil {
		return err
	}
	a.Logger.Debug(ctx, "started", "mode", a.Identity.Mode().String(), "restored", restored)
	return nil
}

func (a *App) Close() error {
	return errors.Join(a.API.Close(), a.Store.Close())
}

func (a *App) session() (identity.Session, error) {
	sess, ok := a.Identity.Session()
	if !ok {
		return identity.Session{}, fmt.Errorf("%w: not signed in, run `weekplanner login` first", common.ErrorUnauthorized)
	}
	return sess, nil
}

// Model returns the planner of the signed-in user, loading it on first use.
func (a *App) Model(ctx context.Context) (*planner.Model, error) {
	sess, err := a.session()
	if err != nil {
		return nil, err
	}
	if a.model == nil || a.model.UserID() != sess.User.ID {
		a.model = planner.Load(ctx, a.Store.Scope(sess.User.ID), a.Logger)
	}
	return a.model, nil
}

func (a *App) engine(ctx context.Context) (*syncer.Engine, error) {
	if a.Identity.Mode() != identity.Online {
		return nil, fmt.Errorf("%w: sync needs the remote service", client.ErrUnavailable)
	}
	m, err := a.Model(ctx)
	if err != nil {
		return nil, err
	}
	return syncer.NewEngine(a.API, m, a.Logger), nil
}

func (a *App) gateway(ctx context.Context) (*batch.Gateway, error) {
	m, err := a.Model(ctx)
	if err != nil {
		return nil, err
	}
	return batch.NewGateway(m, a.Logger), nil
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}
