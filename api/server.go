package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gpuindex/gpu-price-index/api/handlers"
	"github.com/gpuindex/gpu-price-index/api/middleware"
	"github.com/gpuindex/gpu-price-index/api/websocket"
	"github.com/gpuindex/gpu-price-index/internal/cache"
	"github.com/gpuindex/gpu-price-index/pkg/config"
	"github.com/gpuindex/gpu-price-index/pkg/models"

	_ "github.com/gpuindex/gpu-price-index/docs"
)

// syncEndpointLimit caps manual sync triggers per client on top of the
// global rate limit.
const syncEndpointLimit = 6

// Dependencies are the collaborators the HTTP surface reads from.
type Dependencies struct {
	GPUs     handlers.GPUReader
	History  handlers.PriceHistoryReader
	Index    handlers.IndexReader
	Sync     handlers.SyncRunner
	SyncRuns handlers.SyncRunLister
	Auth     middleware.BearerAuthorizer
	// Counter backs rate limiting. Nil keeps counters in process memory.
	Counter cache.Counter
	Health  map[string]handlers.HealthChecker
	Metrics http.Handler
	// Events feeds the WebSocket bridge. Nil disables the live feed bridge.
	Events <-chan *models.Event
}

type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	config     config.APIConfig
	syncCfg    config.SyncConfig
	indexCfg   config.IndexConfig
	deps       Dependencies
	wsHub      *websocket.Hub
	wsBridge   *websocket.EventBridge
}

func NewServer(cfg *config.Config, deps Dependencies) *Server {
	if cfg.App.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.App.Mode == "test" {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	if deps.Counter == nil {
		deps.Counter = cache.NewMemoryCounter(nil)
	}

	s := &Server{
		router:   gin.New(),
		config:   cfg.API,
		syncCfg:  cfg.Sync,
		indexCfg: cfg.Index,
		deps:     deps,
		wsHub:    websocket.NewHub(websocket.SettingsFromConfig(cfg.WebSocket)),
	}

	s.setupMiddleware(cfg.App.Mode == "production")
	s.setupRoutes()

	go s.wsHub.Run()

	if deps.Events != nil {
		s.wsBridge = websocket.NewEventBridge(s.wsHub, deps.Events)
		s.wsBridge.Start()
	}

	return s
}

func (s *Server) setupMiddleware(production bool) {
	cors := middleware.CORSConfig{
		AllowOrigins:     s.config.CORS.AllowedOrigins,
		AllowMethods:     s.config.CORS.AllowedMethods,
		AllowHeaders:     s.config.CORS.AllowedHeaders,
		ExposeHeaders:    s.config.CORS.ExposedHeaders,
		AllowCredentials: s.config.CORS.AllowCredentials,
	}.Merge(middleware.DefaultCORSConfig())

	s.router.Use(gin.Recovery())
	s.router.Use(middleware.TraceID())
	s.router.Use(middleware.RequestLogger())
	s.router.Use(middleware.SecurityHeaders(production))
	s.router.Use(middleware.CORS(cors))
	s.router.Use(middleware.RequestSizeLimit(1 << 20))

	rateLimiter := middleware.NewRateLimiter(s.deps.Counter, "api", s.config.RateLimit, s.config.RateLimitWindow)
	s.router.Use(middleware.RateLimit(rateLimiter))

	endpointLimiter := middleware.NewEndpointRateLimiter(s.deps.Counter)
	endpointLimiter.AddEndpoint("/api/sync", syncEndpointLimit, time.Minute)
	s.router.Use(endpointLimiter.Middleware())
}

func (s *Server) setupRoutes() {
	limits := handlers.Limits{Default: s.config.DefaultLimit, Max: s.config.MaxLimit}

	healthHandler := handlers.NewHealthHandler(s.deps.Health)
	gpuHandler := handlers.NewGPUHandler(s.deps.GPUs, s.deps.History, limits)
	indexHandler := handlers.NewIndexHandler(s.deps.Index, s.indexCfg.CacheTTL)
	syncHandler := handlers.NewSyncHandler(s.deps.Sync, s.deps.SyncRuns, s.syncCfg.Timeout, limits)

	s.router.GET("/health", healthHandler.Health)
	s.router.GET("/health/ready", healthHandler.Ready)
	s.router.GET("/health/live", healthHandler.Live)

	if s.deps.Metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.deps.Metrics))
	}

	s.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	s.router.GET("/ws", websocket.ServeWebSocket(s.wsHub))

	api := s.router.Group("/api")
	{
		api.GET("/gpus", gpuHandler.List)
		api.GET("/gpus/:id", gpuHandler.Get)
		api.GET("/gpus/:id/history", gpuHandler.History)
		api.GET("/gpus/:id/average", gpuHandler.Average)

		api.GET("/index", indexHandler.Get)

		api.GET("/sync/runs", syncHandler.Runs)
		api.POST("/sync", middleware.SyncAuth(s.deps.Auth), syncHandler.Trigger)
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	idle := s.config.IdleTimeout
	if idle <= 0 {
		idle = 60 * time.Second
	}

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  idle,
	}

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.wsBridge != nil {
		s.wsBridge.Stop()
	}
	s.wsHub.Stop()

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) WebSocketHub() *websocket.Hub {
	return s.wsHub
}
