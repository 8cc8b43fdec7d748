package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/signalmesh/alertgate/internal/cache"
	"github.com/signalmesh/alertgate/internal/config"
	"github.com/signalmesh/alertgate/internal/dispatch"
	"github.com/signalmesh/alertgate/internal/handler"
	"github.com/signalmesh/alertgate/internal/logger"
	"github.com/signalmesh/alertgate/internal/metrics"
	"github.com/signalmesh/alertgate/internal/router"
	"github.com/signalmesh/alertgate/internal/service"
	"github.com/signalmesh/alertgate/internal/storage"
	"github.com/signalmesh/alertgate/pkg/tracing"
)

const serviceName = "alertgate"

func main() {
	dotenvErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	l := logger.NewLogger(cfg.Debug)
	slog.SetDefault(l)
	if dotenvErr != nil {
		l.Debug("No .env file loaded", slog.Any("error", dotenvErr))
	}

	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- OpenTelemetry Tracing Setup ----
	tracerShutdown, err := tracing.SetupTracing(ctx)
	if err != nil {
		l.Error("Failed to initialize OpenTelemetry TracerProvider", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerShutdown(flushCtx); err != nil {
			l.Error("Tracer shutdown failed", slog.Any("error", err))
		}
	}()

	dbPool, err := storage.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		l.Error("Failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbPool.Close()

	channelStore := storage.NewPostgresStorage(dbPool)

	var cacheOpts []cache.Option
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
		cacheOpts = append(cacheOpts, cache.WithSnapshotStore(
			cache.NewRedisSnapshotStore(redisClient, cfg.SnapshotKey)))
	}
	routing := cache.New(channelStore, l, cacheOpts...)

	// The gateway starts even when the store is down; with a persisted
	// snapshot available it comes up serving, otherwise it reports not
	// ready until the first successful refresh.
	if err := routing.Refresh(ctx); err != nil {
		l.Warn("Initial routing refresh failed",
			slog.Int("channels", routing.Len()),
			slog.Any("error", err))
	}

	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll // Acks from all replicas
	saramaConfig.Producer.Retry.Max = 5
	saramaConfig.Producer.Return.Successes = true
	// Key-hashed partitioning keeps each channel's tasks in order
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner
	saramaConfig.ClientID = "alertgate-producer"

	asyncProducer, err := sarama.NewAsyncProducer(cfg.KafkaBrokers, saramaConfig)
	if err != nil {
		l.Error("Failed to create sarama producer", slog.Any("error", err))
		os.Exit(1)
	}

	var wg sync.WaitGroup
	tracer := tracing.NewTracer(tracing.GetTracer(serviceName))
	dispatcher := dispatch.NewKafkaDispatcher(asyncProducer, cfg.TaskTopic, l, &wg, tracer)
	dispatcher.Start(ctx)

	ingestSvc := service.NewIngestService(routing, dispatcher, cfg.RatePerMinute, l)
	healthSvc := service.NewHealthService(routing, channelStore, l)

	guard := service.NewPayloadGuard(cfg.MaxBodyBytes)
	ingestHandler := handler.NewIngestHandler(ingestSvc, guard, l, cfg.Debug)
	healthHandler := handler.NewHealthHandler(healthSvc, l)

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: router.NewRouter(ingestHandler, healthHandler),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		routing.Run(gctx, cfg.CacheRefreshInterval)
		return nil
	})

	g.Go(func() error {
		l.Info("Server started", slog.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		l.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		l.Error("Gateway terminated with error", slog.Any("error", err))
	}

	// Drain in-flight task messages before exiting
	dispatcher.Close(context.Background())
	l.Info("Server exited cleanly")
}
