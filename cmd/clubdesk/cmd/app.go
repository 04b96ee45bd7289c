package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/jmcleod/clubdesk/api"
	"github.com/jmcleod/clubdesk/internal/config"
	"github.com/jmcleod/clubdesk/internal/telemetry"
	"github.com/jmcleod/clubdesk/page"
	"github.com/jmcleod/clubdesk/roster"
	"github.com/jmcleod/clubdesk/session"
	"github.com/jmcleod/clubdesk/storage"
	bboltstorage "github.com/jmcleod/clubdesk/storage/bbolt"
	"github.com/jmcleod/clubdesk/storage/memory"
	sqlitestorage "github.com/jmcleod/clubdesk/storage/sqlite"
)

// boltLockTimeout bounds how long a run waits for another clubdesk process
// holding the state file.
const boltLockTimeout = 5 * time.Second

// app is one page lifetime wired to its collaborators.
type app struct {
	logger  *slog.Logger
	client  *api.Client
	page    *page.Page
	closers []func(context.Context) error
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	a := &app{logger: slog.Default()}
	ready := false
	defer func() {
		if !ready {
			a.Close()
		}
	}()

	shutdown, err := telemetry.Setup(ctx, "clubdesk", Version, cfg.OTelEndpoint)
	if err != nil {
		return nil, fmt.Errorf("setting up tracing: %w", err)
	}
	a.closers = append(a.closers, shutdown)

	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	if c, ok := store.(interface{ Close() error }); ok {
		a.closers = append(a.closers, func(context.Context) error { return c.Close() })
	}

	client, err := api.New(cfg.ServerURL,
		api.WithTimeout(cfg.HTTPTimeout),
		api.WithLogger(a.logger),
	)
	if err != nil {
		return nil, err
	}
	a.client = client

	sess := session.New(a.client, store, session.WithLogger(a.logger))
	rs := roster.New(a.client, sess, roster.WithLogger(a.logger))
	a.page = page.New(sess, rs, page.WithLogger(a.logger))
	a.closers = append(a.closers, func(context.Context) error {
		a.page.Close()
		return nil
	})
	ready = true
	return a, nil
}

// Close releases everything in reverse order of acquisition.
func (a *app) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	a.closers = nil
	return errors.Join(errs...)
}

func openStore(cfg config.Config) (storage.Store, error) {
	if cfg.StateBackend == config.BackendMemory {
		return memory.NewStore(), nil
	}

	path, err := cfg.ResolvedStatePath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	switch cfg.StateBackend {
	case config.BackendSQLite:
		store, err := sqlitestorage.NewStoreFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("opening state %s: %w", path, err)
		}
		return store, nil
	default:
		store, err := bboltstorage.NewStoreFromFile(path, &bolt.Options{Timeout: boltLockTimeout})
		if err != nil {
			return nil, fmt.Errorf("opening state %s: %w", path, err)
		}
		return store, nil
	}
}
