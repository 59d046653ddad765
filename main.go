// Package main provides the entry point of the media catalog: the HTTP API
// server and the terminal client.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mediacatalog/client"
	"mediacatalog/config"
	"mediacatalog/database"
	"mediacatalog/jobs"
	"mediacatalog/logging"
	"mediacatalog/metrics"
	"mediacatalog/ui"

	"github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:  "mediacatalog",
		Usage: "Manage a catalog of media titles",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a TOML configuration file",
				Sources: cli.EnvVars("MEDIA_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API server",
				Action: serveAction,
			},
			{
				Name:  "tui",
				Usage: "Open the terminal client",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "api-url",
						Usage: "Base URL of the API server",
					},
				},
				Action: tuiAction,
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logging.Fatal().Err(err).Msg("Application error")
	}
}

func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	logging.Init(logging.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	return cfg, nil
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg)
}

// serve runs the API until ctx is cancelled, then drains in-flight requests
// and closes the pool.
func serve(ctx context.Context, cfg *config.Config) error {
	db, err := database.NewDB(cfg.Database.Driver, cfg.Database.DSN, database.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime.Duration,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close database")
		}
	}()

	if err := db.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := metrics.RegisterDBStats(db.DB, "media"); err != nil {
		logging.Warn().Err(err).Msg("Failed to register database pool metrics")
	}

	jobManager := jobs.NewJobManager(jobs.NewDBProbe(db, 5*time.Second), cfg.Database.ProbeInterval.Duration)
	jobManager.Start()
	defer jobManager.Stop()

	app := NewApp(db)
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      app.routes(),
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
		IdleTimeout:  cfg.Server.IdleTimeout.Duration,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", cfg.Server.Addr).Str("driver", cfg.Database.Driver).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logging.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	logging.Info().Msg("Server stopped")
	return nil
}

func tuiAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// The terminal owns stdout/stderr while the TUI runs.
	if cfg.Log.File == "" {
		logging.Init(logging.Config{Level: "disabled"})
	}

	apiURL := cfg.Client.APIURL
	if v := cmd.String("api-url"); v != "" {
		apiURL = v
	}

	api := client.New(apiURL, client.WithTimeout(cfg.Client.Timeout.Duration))
	return ui.Run(ctx, api)
}
