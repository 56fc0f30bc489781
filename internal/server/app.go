// Package server runs a local development backend for the chat CLI. It
// serves the in-memory fake from backendtest over real HTTP, with short token
// lifetimes so the client's refresh path can be exercised by hand.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Grupo-Cloud/frontend/internal/backendtest"
	"github.com/Grupo-Cloud/frontend/internal/logging"
	"github.com/Grupo-Cloud/frontend/internal/server/config"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	backend *backendtest.Server
}

func NewApp(c *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	return newApp(c, logger)
}

func newApp(c *config.Config, logger logging.Logger) (*App, error) {
	backend := backendtest.NewUnstarted(backendtest.Options{
		Secret:     []byte(c.SecretKey),
		AccessTTL:  c.AccessTokenValidityDuration,
		RefreshTTL: c.RefreshTokenValidityDuration,
	})

	if c.SeedUser != "" {
		name, password, ok := strings.Cut(c.SeedUser, ":")
		if !ok || name == "" || password == "" {
			return nil, fmt.Errorf("seed user %q: want username:password", c.SeedUser)
		}
		if _, err := backend.AddUser(name, name+"@example.org", password); err != nil {
			return nil, fmt.Errorf("seed user: %w", err)
		}
	}

	return &App{config: c, logger: logger, backend: backend}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// serve answers on ln until ctx ends, then shuts down gracefully.
func (app *App) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           app.backend.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	app.logger.Info(ctx, "listening", "addr", ln.Addr().String(),
		"access_ttl", app.config.AccessTokenValidityDuration.String(),
		"refresh_ttl", app.config.RefreshTokenValidityDuration.String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Run listens on the configured address and serves until SIGINT or SIGTERM.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting dev backend...", "addr", app.config.EndpointAddr)
	app.initSignalHandler(cancelFunc)

	ln, err := net.Listen("tcp", app.config.EndpointAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", app.config.EndpointAddr, err)
	}

	if err := app.serve(ctx, ln); err != nil {
		return err
	}
	app.logger.Info(ctx, "Stopped")
	return nil
}
