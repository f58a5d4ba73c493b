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

	"github.com/mkravchenko/cardvault/internal/api"
	"github.com/mkravchenko/cardvault/internal/config"
	"github.com/mkravchenko/cardvault/internal/infra/logging"
	"github.com/mkravchenko/cardvault/internal/infra/pgutils"
	"github.com/mkravchenko/cardvault/internal/services/auth"
	"github.com/mkravchenko/cardvault/internal/services/lifecycle"
	"github.com/mkravchenko/cardvault/internal/services/transfer"
	"github.com/mkravchenko/cardvault/pkg/envconf"
	"github.com/mkravchenko/cardvault/pkg/shutdownqueue"
)

type apiConfig struct {
	Port            uint16        `env:"APP_PORT" envDefault:"8080"`
	LogLevel        slog.Level    `env:"APP_LOG_LEVEL" envDefault:"INFO"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	JWTSecret       string        `env:"APP_JWT_SECRET"`
	TokenTTL        time.Duration `env:"APP_TOKEN_TTL" envDefault:"1h"`
	AdminUsername   string        `env:"APP_ADMIN_USERNAME"`
	AdminPassword   string        `env:"APP_ADMIN_PASSWORD"`
	Postgres        config.PostgresConfig
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running api: %v", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	cfg := new(apiConfig)

	err := envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	logging.SetupJSON(cfg.LogLevel)

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := shutdownqueue.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	// --- Infra ---
	db, err := pgutils.OpenDB(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}

	shutdownqueue.Add(func(context.Context) error {
		return db.Close()
	})

	// --- Services ---
	authSrv := auth.New(db, cfg.JWTSecret, cfg.TokenTTL)
	cardSrv := lifecycle.New(db)
	transferSrv := transfer.New(db)

	err = authSrv.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}

	// --- HTTP server ---
	srv := api.NewServer(cfg.Port, api.Deps{
		Auth:      authSrv,
		Cards:     cardSrv,
		Transfers: transferSrv,
	})

	// Register HTTP server graceful shutdown
	shutdownqueue.Add(func(c context.Context) error {
		slog.Info("Shut down server")

		err := srv.Shutdown(c)
		if err != nil {
			return fmt.Errorf("shutdown srv: %w", err)
		}

		return nil
	})

	// Run server
	errCh := make(chan error, 1)

	go func() {
		serr := srv.ListenAndServe()
		// http.ErrServerClosed is the normal path during Shutdown
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr
			return
		}

		errCh <- nil
	}()

	slog.Info("API started", "port", cfg.Port)

	// --- Wait until either context cancels or server errors out ---
	select {
	case <-ctx.Done():
		// graceful path; deferred shutdownqueue.Shutdown will run
		return nil
	case serr := <-errCh:
		if serr != nil {
			return fmt.Errorf("server error: %w", serr)
		}

		return nil
	}
}
