// Command usersvc serves the user CRUD API over raw TCP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/R3E-Network/user_service/internal/app/runtime"
	"github.com/R3E-Network/user_service/internal/config"
	"github.com/R3E-Network/user_service/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func newApp() *cli.App {
	return &cli.App{
		Name:  "usersvc",
		Usage: "User CRUD service over a raw socket listener",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML config file path",
			},
			&cli.StringFlag{
				Name:  "listen",
				Usage: "Request listener address (overrides config and LISTEN_ADDR)",
			},
			&cli.StringFlag{
				Name:  "admin",
				Usage: "Admin listener address for /metrics and /healthz",
			},
			&cli.StringFlag{
				Name:  "dsn",
				Usage: "PostgreSQL connection string (overrides DATABASE_URL)",
			},
			&cli.StringFlag{
				Name:  "driver",
				Usage: "Database driver: postgres or memory",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
		},
		Action: run,
	}
}

// flagOverrides maps set flags onto the loaded configuration.
func flagOverrides(c *cli.Context) config.Override {
	return func(cfg *config.Config) {
		if c.IsSet("listen") {
			cfg.Server.Addr = c.String("listen")
		}
		if c.IsSet("admin") {
			cfg.Admin.Addr = c.String("admin")
		}
		if c.IsSet("dsn") {
			cfg.Database.DSN = c.String("dsn")
		}
		if c.IsSet("driver") {
			cfg.Database.Driver = c.String("driver")
		}
		if c.IsSet("log-level") {
			cfg.Logging.Level = c.String("log-level")
		}
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"), flagOverrides(c))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Logging)

	app, err := runtime.NewApplication(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := app.Run(ctx)
	if runErr != nil {
		log.WithError(runErr).Error("listener stopped")
	} else {
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("shutdown incomplete")
	}
	return runErr
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "usersvc:", err)
		os.Exit(1)
	}
}
