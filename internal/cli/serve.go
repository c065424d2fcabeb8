package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	refithttp "github.com/refitlabs/refit/internal/adapters/http"
)

// Serve runs the read-only inspection API until the context is canceled.
func (a *App) Serve(ctx context.Context, addr string) error {
	if addr == "" {
		addr = a.cfg.Serve.Addr
	}

	handler := refithttp.NewHandler(&refithttp.Server{
		Runs:      a.runs,
		States:    a.states,
		Artifacts: a.artifacts,
		Version:   a.version,
		Logger:    a.logger,
	})
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	a.logger.Info("inspection API listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
