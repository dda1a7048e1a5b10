// Package runtime wires configuration, storage, the user service and the
// listeners into a runnable application.
package runtime

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"github.com/R3E-Network/user_service/internal/app/admin"
	"github.com/R3E-Network/user_service/internal/app/httpapi"
	"github.com/R3E-Network/user_service/internal/app/services/users"
	"github.com/R3E-Network/user_service/internal/app/storage"
	"github.com/R3E-Network/user_service/internal/app/storage/memory"
	"github.com/R3E-Network/user_service/internal/app/storage/postgres"
	"github.com/R3E-Network/user_service/internal/config"
	"github.com/R3E-Network/user_service/internal/platform/migrations"
	"github.com/R3E-Network/user_service/internal/server"
	"github.com/R3E-Network/user_service/pkg/logger"
)

// userStore is what the application needs from a backing store.
type userStore interface {
	storage.UserStore
	storage.Pinger
}

// Application wires core dependencies and manages the listener lifecycle.
type Application struct {
	cfg    *config.Config
	log    *logger.Logger
	server *server.Server
	admin  *admin.Server
	db     *sql.DB
}

// NewApplication opens the store, applies the schema and builds the
// listeners. Nothing is bound until Run.
func NewApplication(cfg *config.Config, log *logger.Logger) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if log == nil {
		log = logger.New(cfg.Logging)
	}

	store, db, err := buildStore(cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("configure store: %w", err)
	}

	handle := users.NewHandle(users.New(store, log), log)
	router := httpapi.NewRouter(handle, log,
		httpapi.WithValidationAsBadRequest(cfg.Server.ValidationStatusBadRequest))

	srv := server.New(server.Config{
		Addr:            cfg.Server.Addr,
		MaxRequestBytes: cfg.Server.MaxRequestBytes,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		MaxConnections:  cfg.Server.MaxConnections,
		AcceptRate:      cfg.Server.ConnRateLimit,
		AcceptBurst:     cfg.Server.ConnBurst,
	}, router, log)

	app := &Application{cfg: cfg, log: log, server: srv, db: db}
	if cfg.Admin.Addr != "" {
		app.admin = admin.New(cfg.Admin.Addr, store, log)
	}
	return app, nil
}

// Addr returns the bound request listener address once Run has started.
func (a *Application) Addr() net.Addr {
	return a.server.Addr()
}

// Run binds the listeners and serves until ctx is cancelled or a listener
// fails.
func (a *Application) Run(ctx context.Context) error {
	if err := a.server.Listen(); err != nil {
		return err
	}

	var adminLn net.Listener
	if a.admin != nil {
		ln, err := net.Listen("tcp", a.cfg.Admin.Addr)
		if err != nil {
			return fmt.Errorf("admin listen on %s: %w", a.cfg.Admin.Addr, err)
		}
		adminLn = ln
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.server.Serve(gctx) })
	if adminLn != nil {
		g.Go(func() error { return a.admin.ServeListener(adminLn) })
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return a.admin.Shutdown(shutdownCtx)
		})
	}
	return g.Wait()
}

// Shutdown waits for in-flight requests, then releases the database.
func (a *Application) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err := a.server.Shutdown(shutdownCtx)
	if a.admin != nil {
		if adminErr := a.admin.Shutdown(shutdownCtx); adminErr != nil {
			a.log.WithError(adminErr).Warn("error stopping admin server")
		}
	}

	if a.db != nil {
		if closeErr := a.db.Close(); closeErr != nil {
			a.log.WithError(closeErr).Warn("error closing database connection")
		}
	}
	return err
}

func buildStore(cfg config.DatabaseConfig, log *logger.Logger) (userStore, *sql.DB, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		log.Warn("using in-memory user store; data is lost on exit")
		return memory.New(), nil, nil
	case config.DriverPostgres:
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout(cfg))
	defer cancel()
	if err := migrations.Apply(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}
	return postgres.New(db), db, nil
}

func openDatabase(cfg config.DatabaseConfig) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database dsn not configured")
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 1
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout(cfg))
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	return db, nil
}

func connectTimeout(cfg config.DatabaseConfig) time.Duration {
	if cfg.ConnectTimeout > 0 {
		return cfg.ConnectTimeout
	}
	return 5 * time.Second
}
