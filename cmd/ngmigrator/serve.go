package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rflorenc/ng-migrator/internal/api"
	"github.com/rflorenc/ng-migrator/internal/models"
	"github.com/rflorenc/ng-migrator/internal/platform"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	server := api.NewServer(a.connections, a.mappings, a.metrics, a.logger)
	server.Defaults = a.cfg.Input()
	server.DefaultMode = models.Mode(a.cfg.Migration.Mode)

	// Verify connectivity and auth early
	for _, conn := range a.connections.List() {
		h := platform.CheckHealth(ctx, conn, a.connections)
		fields := []zap.Field{
			zap.String("name", conn.Name),
			zap.String("ping", h.PingStatus),
			zap.String("auth", h.AuthStatus),
		}
		if h.Version != "" {
			fields = append(fields, zap.String("version", h.Version))
		}
		if h.PingError != "" || h.AuthError != "" {
			a.logger.Warn("connection check failed", append(fields,
				zap.String("ping_error", h.PingError),
				zap.String("auth_error", h.AuthError))...)
			continue
		}
		a.logger.Info("connection ok", fields...)
	}

	srv := &http.Server{
		Addr:              a.cfg.Listen,
		Handler:           api.NewRouter(server),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		a.logger.Info("ngmigrator starting", zap.String("version", version), zap.String("listen", a.cfg.Listen))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
