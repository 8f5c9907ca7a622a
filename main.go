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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/suporte/usuarios-api/admin"
	"github.com/suporte/usuarios-api/auth"
	"github.com/suporte/usuarios-api/config"
	"github.com/suporte/usuarios-api/db"
	"github.com/suporte/usuarios-api/logging"
	"github.com/suporte/usuarios-api/metrics"
	"github.com/suporte/usuarios-api/password"
	"github.com/suporte/usuarios-api/server"
	"github.com/suporte/usuarios-api/users"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(err).Warn("could not load .env file")
	}

	app := &cli.App{
		Name:   "usuarios-api",
		Usage:  "user CRUD service with JWT bearer authentication",
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "start the HTTP server (default)",
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "manage the PostgreSQL schema",
				Subcommands: []*cli.Command{
					{Name: "up", Usage: "apply pending migrations", Action: migrateUp},
					{Name: "down", Usage: "roll back the last migration", Action: migrateDown},
					{Name: "version", Usage: "print the applied schema version", Action: migrateVersion},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("usuarios-api failed")
	}
}

// bootstrap loads configuration and builds the logger shared by every command.
func bootstrap() (*config.AppConfig, *logrus.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func serve(c *cli.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, health, closeStore, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	key := []byte(cfg.Auth.JWTSecret)
	if len(key) == 0 {
		logger.Warn("JWT_SECRET not set; using a random signing key, tokens will not survive a restart")
		if key, err = auth.NewRandomKey(); err != nil {
			return err
		}
	}
	codec, err := auth.NewTokenCodec(key, cfg.Auth.TokenValidity)
	if err != nil {
		return err
	}

	encoder := password.NewBcryptEncoder(cfg.Auth.BcryptCost)
	accounts, err := auth.NewAccountStore(encoder, cfg.Auth.SeedAccounts)
	if err != nil {
		return err
	}
	logger.WithField("accounts", accounts.Len()).Info("seed accounts loaded")

	m := metrics.New()
	userService := users.NewUserService(repo, encoder, logger)
	authService := auth.NewAuthService(accounts, encoder, userService, codec, m, logger)

	handler := server.NewRouter(server.Deps{
		Logger:         logger,
		Metrics:        m,
		Tokens:         codec,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Auth:           auth.NewHandlers(authService),
		Users:          users.NewUserHandlers(userService),
		Admin:          admin.NewHandlers(),
		Health:         health,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: server.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", srv.Addr).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info("server stopped gracefully")
	return nil
}

// openStore builds the configured user repository. The returned cleanup must
// always be called.
func openStore(ctx context.Context, cfg *config.StoreConfig, logger *logrus.Logger) (users.Repository, server.HealthCheck, func(), error) {
	if cfg.Driver != config.StorePostgres {
		logger.Info("using in-memory user store")
		return users.NewMemoryRepository(), nil, func() {}, nil
	}

	if cfg.RunMigrations {
		if err := db.RunMigrations(cfg.DB.DSN(), logger); err != nil {
			return nil, nil, nil, err
		}
		logger.Info("database migrations applied")
	}

	pool, err := db.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, nil, nil, err
	}
	logger.WithField("database", cfg.DB.DBName).Info("using postgres user store")
	return users.NewPostgresRepository(pool), pingCheck(pool), pool.Close, nil
}

func pingCheck(pool *pgxpool.Pool) server.HealthCheck {
	return func(ctx context.Context) error {
		return pool.Ping(ctx)
	}
}

// migrationDSN resolves the database for the migrate commands, which only
// make sense for the postgres store.
func migrationDSN() (string, *logrus.Logger, error) {
	cfg, logger, err := bootstrap()
	if err != nil {
		return "", nil, err
	}
	if cfg.Store.Driver != config.StorePostgres {
		return "", nil, fmt.Errorf("migrations need STORE_DRIVER=%s, got %q", config.StorePostgres, cfg.Store.Driver)
	}
	return cfg.Store.DB.DSN(), logger, nil
}

func migrateUp(*cli.Context) error {
	dsn, logger, err := migrationDSN()
	if err != nil {
		return err
	}
	if err := db.RunMigrations(dsn, logger); err != nil {
		return err
	}
	logger.Info("migrations applied")
	return nil
}

func migrateDown(*cli.Context) error {
	dsn, logger, err := migrationDSN()
	if err != nil {
		return err
	}
	if err := db.RollbackMigration(dsn, logger); err != nil {
		return err
	}
	logger.Info("last migration rolled back")
	return nil
}

func migrateVersion(*cli.Context) error {
	dsn, logger, err := migrationDSN()
	if err != nil {
		return err
	}
	version, dirty, err := db.MigrationVersion(dsn, logger)
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("schema version")
	return nil
}
