package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gpuindex/gpu-price-index/api"
	"github.com/gpuindex/gpu-price-index/api/handlers"
	"github.com/gpuindex/gpu-price-index/internal/auth"
	"github.com/gpuindex/gpu-price-index/internal/cache"
	"github.com/gpuindex/gpu-price-index/internal/events"
	"github.com/gpuindex/gpu-price-index/internal/index"
	"github.com/gpuindex/gpu-price-index/internal/logger"
	"github.com/gpuindex/gpu-price-index/internal/merge"
	"github.com/gpuindex/gpu-price-index/internal/metrics"
	"github.com/gpuindex/gpu-price-index/internal/pipeline"
	"github.com/gpuindex/gpu-price-index/internal/pricesync"
	"github.com/gpuindex/gpu-price-index/pkg/config"
	"github.com/gpuindex/gpu-price-index/pkg/database"
	"github.com/gpuindex/gpu-price-index/pkg/database/queries"
)

// @title GPU Price Index API
// @version 1.0
// @description Cloud GPU rental prices aggregated across providers, with composite price indices.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file")
	migrate := flag.Bool("migrate", false, "run database migrations and exit")
	syncOnce := flag.Bool("sync-once", false, "run one price sync, print the report and exit")
	mintToken := flag.Duration("mint-token", 0, "print a sync token valid for the given duration and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger.Setup(cfg.App.LogLevel, cfg.App.Mode)

	if *mintToken > 0 {
		return printToken(cfg.Sync.Secret, *mintToken)
	}

	logger.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Mode)

	db, err := database.New(cfg.Database.ToDBConfig())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	logger.Info("Database connection established")

	if *migrate {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.MigrationTimeout)
		defer cancel()

		logger.Info("Running database migrations")
		if err := database.NewMigrator(db).Run(ctx); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		logger.Info("Migrations completed successfully")
		return nil
	}

	a, err := newApp(cfg, db)
	if err != nil {
		return err
	}
	defer a.close()

	if *syncOnce {
		return a.syncOnce(cfg.Sync.Timeout)
	}

	return a.serve(cfg)
}

func printToken(secret string, ttl time.Duration) error {
	token, expiresAt, err := auth.NewService(secret).GenerateToken(ttl)
	if err != nil {
		return fmt.Errorf("failed to mint token: %w", err)
	}
	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires at %s\n", expiresAt.Format(time.RFC3339))
	return nil
}

type app struct {
	db          *database.DB
	gpus        *queries.GPURepository
	history     *queries.PriceHistoryRepository
	syncRuns    *queries.SyncRunRepository
	store       cache.Store
	counter     cache.Counter
	redis       *cache.RedisStore
	metrics     *metrics.Metrics
	bus         *events.EventBus
	eventLogger *events.EventLogger
	index       *index.Service
	pipeline    *pipeline.Pipeline
	auth        *auth.Service
}

func newApp(cfg *config.Config, db *database.DB) (*app, error) {
	a := &app{
		db:       db,
		gpus:     queries.NewGPURepository(db.DB),
		history:  queries.NewPriceHistoryRepository(db.DB),
		syncRuns: queries.NewSyncRunRepository(db.DB),
		metrics:  metrics.New(),
		bus:      events.NewEventBus(cfg.Events.BufferSize),
		auth:     auth.NewService(cfg.Sync.Secret),
	}

	if cfg.Redis.Addr != "" {
		a.redis = cache.NewRedisStore(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.Redis.Prefix)
		a.store = a.redis
		a.counter = cache.NewRedisCounter(a.redis.Client, cfg.Redis.Prefix)
		logger.Infof("Using Redis at %s for cache and rate limits", cfg.Redis.Addr)
	} else {
		mem := cache.NewMemoryStore()
		a.store = mem
		a.counter = cache.NewMemoryCounter(mem)
	}

	a.eventLogger = events.NewEventLogger(a.syncRuns, a.bus.SubscribeAll())
	a.eventLogger.Start()

	a.index = index.NewService(index.ServiceConfig{
		Engine:   index.NewEngine(cfg.Index.ToEngineConfig()),
		GPUs:     a.gpus,
		History:  a.history,
		Cache:    a.store,
		CacheTTL: cfg.Index.CacheTTL,
	})

	p, err := pipeline.New(pipeline.Config{
		Providers: buildProviders(cfg.Providers, a.metrics),
		Priority:  merge.Priority(cfg.Merge.Priority),
		GPUs:      a.gpus,
		Syncer: pricesync.New(queries.NewPriceStore(db.DB), pricesync.Config{
			Workers:     cfg.Sync.Workers,
			SampleLimit: cfg.Sync.SampleLimit,
		}),
		Index:     a.index,
		Publisher: events.NewPublisher(a.bus),
		Metrics:   a.metrics,
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to build sync pipeline: %w", err)
	}
	a.pipeline = p

	return a, nil
}

func (a *app) close() {
	a.eventLogger.Stop()
	a.bus.Close()
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			logger.Warnf("Failed to close Redis client: %v", err)
		}
	}
}

func (a *app) syncOnce(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	ctx = logger.WithTraceID(ctx, "cli-"+time.Now().UTC().Format("20060102T150405"))

	report, err := a.pipeline.Run(ctx, pipeline.TriggerCLI)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func (a *app) serve(cfg *config.Config) error {
	baseCtx, stopBase := context.WithCancel(context.Background())
	defer stopBase()

	var scheduler *pipeline.Scheduler
	if cfg.Sync.Schedule != "" {
		s, err := pipeline.NewScheduler(baseCtx, a.pipeline, cfg.Sync.Schedule, cfg.Sync.Timeout)
		if err != nil {
			return err
		}
		scheduler = s
		scheduler.Start()
	}

	health := map[string]handlers.HealthChecker{"database": a.db}
	if a.redis != nil {
		health["redis"] = a.redis
	}

	server := api.NewServer(cfg, api.Dependencies{
		GPUs:     a.gpus,
		History:  a.history,
		Index:    a.index,
		Sync:     a.pipeline,
		SyncRuns: a.syncRuns,
		Auth:     a.auth,
		Counter:  a.counter,
		Health:   health,
		Metrics:  a.metrics.Handler(),
		Events:   a.bus.SubscribeAll(),
	})

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		logger.Infof("API server listening on port %d", cfg.API.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	var serveErr error
	select {
	case err := <-errChan:
		serveErr = fmt.Errorf("server error: %w", err)
	case sig := <-shutdownChan:
		logger.Infof("Received signal %v, shutting down", sig)
	}

	// Cancel an in-flight scheduled cycle before waiting on it.
	stopBase()
	if scheduler != nil {
		scheduler.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil && serveErr == nil {
		serveErr = fmt.Errorf("shutdown error: %w", err)
	}

	if serveErr == nil {
		logger.Info("Server stopped gracefully")
	}
	return serveErr
}
