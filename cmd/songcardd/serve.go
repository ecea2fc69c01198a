package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-songcard-backend/docs"
	"github.com/tbourn/go-songcard-backend/internal/app"
	httpapi "github.com/tbourn/go-songcard-backend/internal/http"
	"github.com/tbourn/go-songcard-backend/internal/observability"
)

const (
	shutdownTimeout = 15 * time.Second
	janitorInterval = 10 * time.Minute
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), ctx)
		},
	}
}

func runServer(parent context.Context, ctx *commandContext) error {
	if parent == nil {
		parent = context.Background()
	}
	sigCtx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := ctx.config

	shutdownOTel, err := observability.SetupOTel(sigCtx, cfg.OTEL, version)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("tracer shutdown")
		}
	}()

	return ctx.withApp(sigCtx, func(a *app.App) error {
		gin.SetMode(cfg.GinMode)
		r := gin.New()
		if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
			return fmt.Errorf("trusted proxies: %w", err)
		}
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		docs.SwaggerInfo.Version = version
		httpapi.RegisterRoutes(r, a)

		go a.RunJanitor(sigCtx, janitorInterval)

		srv := &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           r,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
			MaxHeaderBytes:    cfg.MaxHeaderBytes,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info().
				Str("addr", srv.Addr).
				Str("api_base", cfg.APIBasePath).
				Str("db_driver", cfg.DB.Driver).
				Str("version", version).
				Msg("server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err, ok := <-errCh:
			if ok {
				return fmt.Errorf("listen: %w", err)
			}
			return nil
		case <-sigCtx.Done():
		}

		log.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		log.Info().Msg("server stopped")
		return nil
	})
}
