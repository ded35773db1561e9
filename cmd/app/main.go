package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/flightsearch/config"
	"github.com/Domenick1991/flightsearch/internal/bootstrap"
	"github.com/Domenick1991/flightsearch/internal/cache"
	"github.com/Domenick1991/flightsearch/internal/db"
	"github.com/Domenick1991/flightsearch/internal/kafka"
	"github.com/Domenick1991/flightsearch/internal/logging"
	"github.com/Domenick1991/flightsearch/internal/metrics"
	"github.com/Domenick1991/flightsearch/internal/repository"
	"github.com/Domenick1991/flightsearch/internal/service/flights"
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

	if err := db.RunMigrations(cfg.Database); err != nil {
		logger.Fatal("migrate database", zap.Error(err))
	}

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Search.CacheTTLSeconds)*time.Second)
	defer redisCache.Close()
	if err := redisCache.Ping(ctx); err != nil {
		logger.Warn("redis unavailable, searches will bypass the cache", zap.Error(err))
	}

	producer := kafka.NewProducer(cfg.Kafka.Brokers, logger)
	defer producer.Close()
	if err := producer.CheckConnection(ctx); err != nil {
		logger.Warn("kafka unavailable, flight events will be dropped", zap.Error(err))
	}

	reg := metrics.NewRegistry()
	flightRepo := repository.NewFlightRepository(pool)
	flightService := flights.NewFlightService(flightRepo, redisCache,
		flights.WithEvents(producer, cfg.Kafka.FlightEventsTopic),
		flights.WithMetrics(reg),
		flights.WithLogger(logger),
	)

	deps := bootstrap.Deps{
		Flights: flightService,
		Metrics: reg,
		Logger:  logger,
		Checks: map[string]bootstrap.HealthCheck{
			"postgres": pool.Ping,
			"redis":    redisCache.Ping,
		},
	}
	if err := bootstrap.Run(ctx, cfg, deps); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
