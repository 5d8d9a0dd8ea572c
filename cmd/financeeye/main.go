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

	"github.com/trogers1052/finance-eye/internal/api"
	"github.com/trogers1052/finance-eye/internal/cache"
	"github.com/trogers1052/finance-eye/internal/config"
	"github.com/trogers1052/finance-eye/internal/dataaccess"
	"github.com/trogers1052/finance-eye/internal/kafka"
	"github.com/trogers1052/finance-eye/internal/logging"
	"github.com/trogers1052/finance-eye/internal/provider"
)

func main() {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("config validation", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)
	logger.Info("FinanceEye starting...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	yahoo := provider.NewYahoo()
	logger.Info("data source", "provider", yahoo.Name())

	// Series cache: Redis when configured, in-process otherwise
	var (
		store   cache.SeriesStore
		purgers []cache.Purger
	)
	if cfg.RedisEnabled() {
		client, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Error("connect redis", "addr", cfg.Redis.Addr, "error", err)
			os.Exit(1)
		}
		defer client.Close()
		store = cache.NewRedisSeriesStore(client, cfg.Cache.TTL)
		logger.Info("using redis series cache", "addr", cfg.Redis.Addr)
	} else {
		mem := cache.NewMemorySeriesStore(cfg.Cache.TTL, cache.SystemClock{})
		store = mem
		purgers = append(purgers, mem)
		logger.Info("using in-memory series cache")
	}

	opts := []dataaccess.Option{
		dataaccess.WithRetryPolicy(cfg.RetryPolicy()),
		dataaccess.WithInfoTTL(cfg.Cache.InfoTTL),
		dataaccess.WithLogger(logger),
	}

	var producer *kafka.Producer
	if cfg.KafkaEnabled() {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.InvalidationTopic)
		defer producer.Close()
		opts = append(opts, dataaccess.WithEventPublisher(producer))
		logger.Info("kafka events enabled", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}

	svc := dataaccess.NewService(yahoo, store, opts...)
	purgers = append(purgers, svc.InfoCache())

	janitor, err := cache.NewJanitor(cfg.Cache.PurgeSchedule, logger, purgers...)
	if err != nil {
		logger.Error("init cache janitor", "error", err)
		os.Exit(1)
	}
	janitor.Start()
	defer janitor.Stop()

	var publisher api.InvalidationPublisher
	if producer != nil {
		publisher = producer

		consumer := kafka.NewInvalidationConsumer(cfg.Kafka.Brokers, cfg.Kafka.InvalidationTopic, cfg.Kafka.GroupID, svc, logger)
		go func() {
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("invalidation consumer stopped", "error", err)
			}
		}()
	}

	handler := api.NewHandler(svc, publisher, logger)
	srv := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           api.SetupRoutes(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			cancel()
		}
	}()

	logger.Info("FinanceEye is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		logger.Info("shutdown signal received, stopping...")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown", "error", err)
	}
	cancel()
	logger.Info("FinanceEye stopped")
}
