package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jcmexdev/pos-reconciler/internal/api-gateway/infra/adapters/service"
	"github.com/jcmexdev/pos-reconciler/internal/api-gateway/infra/httpx"
	"github.com/jcmexdev/pos-reconciler/internal/pkg/config"
	"github.com/jcmexdev/pos-reconciler/internal/pkg/telemetry"
	"github.com/jcmexdev/pos-reconciler/internal/transport/grpcapi"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	telemetry.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdown, err := telemetry.SetupTracer(ctx, "api-gateway", cfg.OTLPEndpoint)
		if err != nil {
			slog.Error("failed to initialise tracer", "error", err)
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				slog.Error("tracer shutdown error", "error", err)
			}
		}()
	}

	client, conn, err := grpcapi.Dial(cfg.ReconcilerAddr)
	if err != nil {
		slog.Error("could not connect to reconciler", "addr", cfg.ReconcilerAddr, "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	handler := httpx.NewHandler(service.NewGRPCReconcilerService(client))
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpx.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("api gateway running", "addr", cfg.HTTPAddr, "reconciler", cfg.ReconcilerAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("http server failed", "error", err)
		os.Exit(1)
	}
}
