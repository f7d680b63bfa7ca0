package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/huddle-app/backend/config"
	"github.com/huddle-app/backend/internal/apperr"
	"github.com/huddle-app/backend/internal/models"
	"github.com/huddle-app/backend/internal/session"
	"github.com/huddle-app/backend/internal/state"
	"github.com/huddle-app/backend/pkg/kv"
)

// app is the per-invocation wiring shared by all commands.
type app struct {
	cfg     *config.Config
	backend kv.Store
	store   *state.Store
	session *session.Manager
	logger  *zap.Logger
	out     io.Writer
}

func openApp(ctx context.Context, driver, path string, verbose bool, out io.Writer) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if driver != "" {
		cfg.Store.Driver = driver
	}
	if path != "" {
		cfg.Store.SQLitePath = path
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Store.Driver == kv.DriverRedis {
		return nil, fmt.Errorf("huddlectl: use the sqlite, memory or postgres driver")
	}

	logger := zap.NewNop()
	if verbose {
		logger, _ = zap.NewDevelopment()
	}
	backend, err := kv.Open(ctx, kv.Config{
		Driver:      cfg.Store.Driver,
		SQLitePath:  cfg.Store.SQLitePath,
		PostgresDSN: cfg.Database.DSN(),
		PostgresMax: cfg.Database.MaxConns,
	}, kv.Deps{Logger: logger})
	if err != nil {
		return nil, err
	}
	store := state.New(backend, state.Options{
		Logger:       logger,
		DocumentKey:  cfg.Store.DocumentKey,
		PasswordCost: cfg.Store.PasswordCost,
	})
	mgr := session.NewManager(store, backend, cfg.Store.SessionKey, logger)
	if _, err := mgr.Restore(ctx); err != nil {
		_ = backend.Close()
		return nil, err
	}
	return &app{cfg: cfg, backend: backend, store: store, session: mgr, logger: logger, out: out}, nil
}

func (a *app) close() error {
	_ = a.logger.Sync()
	return a.backend.Close()
}

// user returns the signed-in user or a hint to log in.
func (a *app) user() (models.UserPublic, error) {
	u, err := a.session.RequireUser()
	if err != nil {
		return u, fmt.Errorf("not logged in: run huddlectl login")
	}
	return u, nil
}

func (a *app) print(v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, string(b))
	return err
}

// cliError prefixes store errors with their kind.
func cliError(err error) error {
	if err == nil {
		return nil
	}
	if apperr.KindOf(err) == apperr.KindInternal {
		return err
	}
	return fmt.Errorf("%s: %s", apperr.KindOf(err), apperr.Message(err))
}
