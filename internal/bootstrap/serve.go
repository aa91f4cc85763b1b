package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"printshop/internal/adapters/web"
	"printshop/internal/jobs"

	"go.uber.org/zap"
)

// Serve runs the HTTP server and the job scheduler until ctx is cancelled, then
// drains in-flight requests for up to 15 seconds.
func Serve(ctx context.Context, rt *Runtime) error {
	cfg, log := rt.Config, rt.Log

	scheduler, err := jobs.Start(rt.Sweep, cfg.TimeZone, log.Named("jobs"))
	if err != nil {
		return err
	}
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			log.Warn("scheduler shutdown", zap.Error(err))
		}
	}()

	handler := web.NewHandler(ctx, rt.Service, web.Options{
		AllowedOrigins:    cfg.AllowedOrigins,
		JWTSecret:         cfg.JWTSecret,
		APIKey:            cfg.APIKey,
		ChatRatePerMinute: cfg.ChatRatePerMinute,
		Logger:            log.Named("http"),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		// The chat endpoint can make five model calls; the notification stream is long-lived.
		WriteTimeout: 0,
		IdleTimeout:  2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
