package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"example.com/notifprefs/internal/config"
	"example.com/notifprefs/internal/logging"
	"example.com/notifprefs/internal/preferences"
	"example.com/notifprefs/internal/seed"
	"example.com/notifprefs/internal/storage"
	spg "example.com/notifprefs/internal/storage/postgres"
	"example.com/notifprefs/internal/storage/sqlite"
	transport "example.com/notifprefs/internal/transport/http"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "prefs-api: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Parse(args)
	if err != nil {
		return err
	}
	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if cfg.SeedPath != "" {
		f, err := seed.LoadFile(cfg.SeedPath)
		if err != nil {
			return err
		}
		counts, err := seed.Apply(ctx, store, f)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		logger.Info("reference data seeded",
			"path", cfg.SeedPath,
			"tenants", counts.Tenants,
			"categories", counts.Categories,
			"events", counts.Events,
			"channels", counts.Channels,
		)
	}

	deps := &transport.ServerDeps{
		Cfg:    cfg,
		Prefs:  preferences.NewService(store, logger),
		Store:  store,
		Logger: logger,
		Now:    func() time.Time { return time.Now().UTC() },
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           deps.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr, "store", cfg.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errc:
		return fmt.Errorf("http server: %w", err)
	}

	logger.Info("shutting down")
	shutdownCtx, cancel2 := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel2()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (storage.Store, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		// the embedded schema is always applied; there is no external
		// process creating sqlite files
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migration: %w", err)
		}
		logger.Info("db: sqlite ready", "path", cfg.SQLitePath)
		return db, nil
	default:
		db, err := spg.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		if err := db.Ready(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("db ping: %w", err)
		}
		logger.Info("db: connected")
		if cfg.Migrate {
			if err := db.RunMigration(ctx, cfg.MigrationPath); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("migration: %w", err)
			}
			logger.Info("db: migration applied", "path", cfg.MigrationPath)
		}
		return db, nil
	}
}
