package run

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/mockbroker/src/mockbroker/router"
	"github.com/jiaming2012/mockbroker/src/telemetry"
)

const shutdownTimeout = 10 * time.Second

// Serve exposes the registry over HTTP until SIGINT or SIGTERM. Open accounts
// are disconnected, and so persisted, on the way out.
func Serve(ctx context.Context, app *App) (err error) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if app.Config.Telemetry.Enabled {
		otelShutdown, setupErr := telemetry.SetupOTelSDK(ctx, app.Config.Telemetry.ServiceName)
		if setupErr != nil {
			return fmt.Errorf("Serve: failed to setup otel sdk: %w", setupErr)
		}

		defer func() {
			err = errors.Join(err, otelShutdown(context.Background()))
		}()
	}

	handler, err := router.NewHandler(app.Registry, app.Bus)
	if err != nil {
		return fmt.Errorf("Serve: %w", err)
	}

	srv := &http.Server{
		Addr:    app.Config.Server.Addr,
		Handler: router.NewRouter(handler),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Serve: listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("Serve: %w", err)
		}
	case <-ctx.Done():
		log.Info("Serve: shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Serve: failed to shutdown server: %v", err)
	}

	app.Registry.CloseAll(shutdownCtx)
	app.Bus.WaitAsync()

	return nil
}
