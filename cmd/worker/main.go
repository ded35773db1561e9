package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/flightsearch/config"
	"github.com/Domenick1991/flightsearch/internal/cache"
	"github.com/Domenick1991/flightsearch/internal/kafka"
	"github.com/Domenick1991/flightsearch/internal/logging"
	"github.com/Domenick1991/flightsearch/internal/worker"
	"go.uber.org/zap"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Search.CacheTTLSeconds)*time.Second)
	defer redisCache.Close()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.FlightEventsTopic)
	defer consumer.Close()

	invalidator := worker.NewCacheInvalidator(redisCache, logger)

	logger.Info("worker started", zap.String("topic", cfg.Kafka.FlightEventsTopic))
	if err := consumer.Consume(ctx, invalidator.Handle); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("consumer stopped", zap.Error(err))
		return
	}
	logger.Info("worker stopped")
}
