package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/sweetshop-backend/api/controllers"
	"github.com/angelmondragon/sweetshop-backend/api/routes"
	"github.com/angelmondragon/sweetshop-backend/internal/sweets"
	"github.com/angelmondragon/sweetshop-backend/pkg/config"
	"github.com/angelmondragon/sweetshop-backend/pkg/db"
	"github.com/angelmondragon/sweetshop-backend/pkg/instance"
	"github.com/angelmondragon/sweetshop-backend/pkg/logger"
	"github.com/angelmondragon/sweetshop-backend/pkg/metrics"
	"github.com/angelmondragon/sweetshop-backend/pkg/migrate"
	"github.com/angelmondragon/sweetshop-backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

// closer releases one dependency during shutdown.
type closer struct {
	name  string
	close func() error
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	if err := run(); err != nil {
		logg.Error(context.Background(), "api server exited with errors", err)
		os.Exit(1)
	}
}

// run owns every dependency it opens; all close errors are folded into the
// returned error together with any server failure.
func run() (err error) {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logg := logger.New(logger.Options{
		ServiceName: "api",
		Env:         cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []closer
	defer func() {
		err = multierr.Append(err, closeAll(closers))
	}()

	store, closeStore, err := buildStore(ctx, cfg, logg)
	if err != nil {
		return fmt.Errorf("bootstrap inventory store: %w", err)
	}
	closers = append(closers, closer{name: "store", close: closeStore})

	readiness := []controllers.ReadinessCheck{{Name: "store", Pinger: store}}

	// left as a nil interface when redis is not configured
	var idempotencyStore redis.IdempotencyStore
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return fmt.Errorf("bootstrap redis: %w", err)
		}
		closers = append(closers, closer{name: "redis", close: redisClient.Close})
		idempotencyStore = redisClient
		readiness = append(readiness, controllers.ReadinessCheck{Name: "redis", Pinger: redisClient})
	} else {
		logg.Warn(ctx, "redis not configured, idempotency keys disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	sweetService, err := sweets.NewService(store, logg, sweets.ServiceOptions{
		Metrics:           metrics.NewInventoryMetrics(registry),
		LowStockThreshold: cfg.Inventory.LowStockThreshold,
	})
	if err != nil {
		return fmt.Errorf("create sweet service: %w", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	serverCtx := logg.WithFields(ctx, map[string]any{
		"addr":     addr,
		"store":    cfg.Store.Driver,
		"instance": instance.GetID(),
	})
	logg.Info(serverCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, sweetService, idempotencyStore, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), readiness...),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case serveErr := <-errCh:
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return fmt.Errorf("api server stopped unexpectedly: %w", serveErr)
		}
	case <-ctx.Done():
		logg.Info(serverCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			return fmt.Errorf("graceful shutdown: %w", shutdownErr)
		}
	}
	return nil
}

// closeAll runs closers in reverse order and keeps every failure.
func closeAll(closers []closer) error {
	var errs error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].close(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("close %s: %w", closers[i].name, err))
		}
	}
	return errs
}

// buildStore selects the inventory backend. The returned close func is always
// safe to call.
func buildStore(ctx context.Context, cfg *config.Config, logg *logger.Logger) (sweets.Store, func() error, error) {
	if cfg.Store.IsMemory() {
		logg.Info(ctx, "using in-memory inventory store")
		return sweets.NewMemoryStore(), func() error { return nil }, nil
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return nil, nil, err
	}

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return nil, nil, multierr.Append(err, dbClient.Close())
	}

	return sweets.NewRepository(dbClient), dbClient.Close, nil
}
