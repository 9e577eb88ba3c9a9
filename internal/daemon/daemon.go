package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"

	"melodex/internal/catalog"
	"melodex/internal/config"
	"melodex/internal/deps"
	"melodex/internal/engine"
	"melodex/internal/identity"
	"melodex/internal/logging"
	"melodex/internal/recognition"
	"melodex/internal/uploads"
)

// Daemon wires the pipelines to the HTTP surface and enforces single-instance
// execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger

	bridge      *engine.Bridge
	recognition *recognition.Pipeline
	catalog     *catalog.Pipeline

	// identity is nil when no token secret is configured; auth routes and
	// catalog writes are disabled in that case.
	identity *identity.Service
	users    *identity.Store

	api *apiServer

	lockPath string
	lock     *flock.Flock
	running  atomic.Bool
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	LockFilePath string
	UsersDBPath  string
	AuthEnabled  bool
	Dependencies []deps.Status
}

// New constructs a daemon with initialized pipelines.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires configuration")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	store, err := uploads.NewStore(cfg.Paths.UploadDir, uploads.DefaultConstraints(cfg.MaxUploadBytes()))
	if err != nil {
		return nil, err
	}

	bridge := engine.New(
		engine.WithMaxConcurrent(cfg.Engine.MaxConcurrent),
		engine.WithTimeout(cfg.EngineTimeout()),
		engine.WithLogger(logger),
	)

	lockPath := filepath.Join(cfg.Paths.LogDir, "melodexd.lock")
	d := &Daemon{
		cfg:         cfg,
		logger:      logger,
		bridge:      bridge,
		recognition: recognition.New(cfg, bridge, store, logger),
		catalog:     catalog.New(cfg, bridge, logger),
		lockPath:    lockPath,
		lock:        flock.New(lockPath),
	}

	if strings.TrimSpace(cfg.Auth.TokenSecret) != "" {
		users, err := identity.OpenStore(cfg.Paths.UsersDB)
		if err != nil {
			return nil, err
		}
		svc, err := identity.NewService(users, cfg.Auth.TokenSecret, cfg.TokenTTL(), logger)
		if err != nil {
			_ = users.Close()
			return nil, err
		}
		d.users = users
		d.identity = svc
	} else {
		logger.Warn("auth.token_secret not set; registration and catalog writes are disabled")
	}

	server, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = server
	return d, nil
}

// Start acquires the daemon lock and brings up the HTTP listener.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another melodex daemon instance is already running")
	}

	if err := d.api.start(ctx); err != nil {
		_ = d.lock.Unlock()
		return err
	}

	d.running.Store(true)
	d.logger.Info("melodex daemon started",
		logging.String("lock", d.lockPath),
		logging.String("bind", d.cfg.Paths.APIBind))
	return nil
}

// Stop shuts down the HTTP listener and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("melodex daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.users != nil {
		return d.users.Close()
	}
	return nil
}

// Status returns the current daemon status including dependency preflight
// results.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		LockFilePath: d.lockPath,
		UsersDBPath:  d.cfg.Paths.UsersDB,
		AuthEnabled:  d.identity != nil,
		Dependencies: deps.Check(deps.Requirements(d.cfg)),
	}
}
