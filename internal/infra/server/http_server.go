package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/Miraines/MoonyAndStarry/taskchat-service/internal/infra/config"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// StartHTTPServer serves handler until ctx is cancelled, then shuts down
// gracefully. TLS is used when both certificate files are configured.
func StartHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler, logger *zap.Logger) error {
	lis, err := net.Listen("tcp", cfg.HTTPAddress)
	if err != nil {
		return err
	}
	return Serve(ctx, lis, cfg, handler, logger)
}

func Serve(ctx context.Context, lis net.Listener, cfg *config.Config, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", lis.Addr().String()), zap.Bool("tls", cfg.TLS()))
		var err error
		if cfg.TLS() {
			err = srv.ServeTLS(lis, cfg.HTTPSCertFile, cfg.HTTPSKeyFile)
		} else {
			err = srv.Serve(lis)
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("ctx cancelled, stopping HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// hijacked websockets are not tracked by Shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown timed out", zap.Error(err))
		_ = srv.Close()
	}
	if err := <-errCh; err != nil {
		return err
	}
	logger.Info("HTTP server stopped")
	return nil
}
