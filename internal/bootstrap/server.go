package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Domenick1991/flightsearch/api"
	"github.com/Domenick1991/flightsearch/config"
	"github.com/Domenick1991/flightsearch/internal/metrics"
	"github.com/Domenick1991/flightsearch/internal/service/flights"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const serviceName = "flightsearch.Flights"

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Deps struct {
	Flights flights.FlightUseCase
	Metrics *metrics.Registry
	Logger  *zap.Logger
	Checks  map[string]HealthCheck
}

type Servers struct {
	grpcServer *grpc.Server
	health     *health.Server
	httpServer *http.Server
}

// Run starts the gRPC health server and the HTTP API and blocks until ctx is
// canceled or a server fails.
func Run(ctx context.Context, cfg *config.Config, deps Deps) error {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	logger := deps.Logger
	s := newServers(cfg, deps)

	errCh := make(chan error, 2)

	lis, err := net.Listen("tcp", cfg.GRPC.Address)
	if err != nil {
		return fmt.Errorf("listen gRPC %s: %w", cfg.GRPC.Address, err)
	}
	go func() { errCh <- s.grpcServer.Serve(lis) }()

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	logger.Info("servers started",
		zap.String("http", cfg.HTTP.Address),
		zap.String("grpc", cfg.GRPC.Address))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func newServers(cfg *config.Config, deps Deps) *Servers {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	grpcSrv := grpc.NewServer()
	healthSrv := health.NewServer()
	healthSrv.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)
	reflection.Register(grpcSrv)

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           newRouter(cfg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Servers{
		grpcServer: grpcSrv,
		health:     healthSrv,
		httpServer: httpSrv,
	}
}

func newRouter(cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger(deps.Logger), api.Metrics(deps.Metrics))

	api.NewFlightHandler(deps.Flights, deps.Logger).Register(router.Group("/flights"))

	router.GET("/healthz", healthz(deps.Checks))
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Metrics.Gatherer, promhttp.HandlerOpts{})))
	}

	if cfg.HTTP.SwaggerDir != "" {
		router.Static("/swagger", cfg.HTTP.SwaggerDir)
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(
			httpSwagger.URL("/swagger/flights.swagger.json"),
		)))
	}
	return router
}

func healthz(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		report := gin.H{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				report[name] = err.Error()
				continue
			}
			report[name] = "ok"
		}
		c.JSON(status, report)
	}
}
