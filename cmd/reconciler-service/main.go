package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/jcmexdev/pos-reconciler/internal/pkg/cache"
	"github.com/jcmexdev/pos-reconciler/internal/pkg/config"
	"github.com/jcmexdev/pos-reconciler/internal/pkg/interceptors"
	"github.com/jcmexdev/pos-reconciler/internal/pkg/telemetry"
	"github.com/jcmexdev/pos-reconciler/internal/reconciler"
	logsqlite "github.com/jcmexdev/pos-reconciler/internal/reconciler/reconlog/sqlite"
	"github.com/jcmexdev/pos-reconciler/internal/store/redisstore"
	"github.com/jcmexdev/pos-reconciler/internal/store/sqlite"
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

	if err := run(ctx, cfg); err != nil {
		slog.Error("reconciler service stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	shutdown := telemetry.ShutdownFunc(telemetry.NoopShutdown)
	if cfg.TracingEnabled {
		var err error
		if shutdown, err = telemetry.SetupTracer(ctx, cfg.ServiceName, cfg.OTLPEndpoint); err != nil {
			return err
		}
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	store, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		return err
	}
	defer store.Close()

	logRepo, err := logsqlite.New(store.DB())
	if err != nil {
		return err
	}

	opts := []reconciler.Option{reconciler.WithLog(logRepo)}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()

		fingerprints := redisstore.NewFingerprintStore(cache.NewRedisCache(client, cfg.ServiceName), cfg.FingerprintTTL)
		locker := redisstore.NewOrderLocker(redislock.New(client), cfg.ServiceName, 30*time.Second, 100*time.Millisecond, 50)
		opts = append(opts, reconciler.WithFingerprintStore(fingerprints), reconciler.WithLocker(locker))
		slog.Info("redis enabled for fingerprints and order locks", "addr", cfg.RedisAddr)
	}

	engine := reconciler.NewEngine(store, store, store, opts...)
	queue := reconciler.NewQueue(engine.Handle, reconciler.QueueConfig{
		Size:        cfg.QueueSize,
		SettleDelay: cfg.SettleDelay,
		MaxAttempts: cfg.QueueMaxAttempts,
		Backoff:     200 * time.Millisecond,
	})
	lifecycle := reconciler.NewLifecycle(store, queue)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return err
	}
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			interceptors.UnaryServerInterceptor(),
			interceptors.LoggingServerInterceptor(),
		),
	)
	grpcapi.RegisterReconcilerServer(grpcServer, grpcapi.NewServer(lifecycle, store, store, store, logRepo))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("reconciler gRPC running", "addr", cfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		// Closed queues drain before Run returns, so queued saves and cancels
		// are not lost on shutdown.
		return queue.Run(context.WithoutCancel(gctx))
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		grpcServer.GracefulStop()
		queue.Close()
		return nil
	})
	return g.Wait()
}
