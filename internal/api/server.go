// Package api assembles the HTTP server and wires every service into it.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/baing/baing/internal/api/envelope"
	"github.com/baing/baing/internal/api/handlers"
	apimw "github.com/baing/baing/internal/api/middleware"
	"github.com/baing/baing/internal/api/ratelimit"
	"github.com/baing/baing/internal/auth"
	"github.com/baing/baing/internal/collections"
	"github.com/baing/baing/internal/config"
	"github.com/baing/baing/internal/crypto"
	"github.com/baing/baing/internal/database"
	"github.com/baing/baing/internal/database/sqlc"
	"github.com/baing/baing/internal/discovery"
	"github.com/baing/baing/internal/enrichment"
	"github.com/baing/baing/internal/enrichment/page"
	"github.com/baing/baing/internal/enrichment/tmdb"
	"github.com/baing/baing/internal/llm/gateway"
	"github.com/baing/baing/internal/scheduler"
	"github.com/baing/baing/internal/scheduler/tasks"
	"github.com/baing/baing/internal/users"
	"github.com/baing/baing/internal/websocket"
)

// Server handles HTTP requests for the bAIng API.
type Server struct {
	echo   *echo.Echo
	db     *database.DB
	hub    *websocket.Hub
	logger zerolog.Logger
	cfg    *config.Config

	authService       *auth.Service
	collectionService *collections.Service
	userService       *users.Service
	gateway           *gateway.Gateway
	discoveryService  *discovery.Service
	enrichmentService *enrichment.Service
	memoryCache       *enrichment.MemoryCache
	redisCache        *enrichment.RedisCache
	userLimiter       *ratelimit.UserLimiter
	authLimiter       *ratelimit.AuthLimiter
	scheduler         *scheduler.Scheduler
}

// NewServer builds every service from cfg. It fails on misconfiguration,
// such as an unknown provider or a provider without credentials.
func NewServer(ctx context.Context, db *database.DB, hub *websocket.Hub, cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:   e,
		db:     db,
		hub:    hub,
		logger: logger,
		cfg:    cfg,
	}

	queries := sqlc.New(db.Conn())

	authService, err := auth.NewService(ctx, queries, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	if err != nil {
		return nil, fmt.Errorf("init auth: %w", err)
	}
	s.authService = authService

	passphrase := cfg.Auth.SecretKey
	if passphrase == "" {
		passphrase = authService.KeyMaterial()
	}
	secrets, err := crypto.OpenSecretStore(ctx, queries, passphrase)
	if err != nil {
		return nil, fmt.Errorf("init secret store: %w", err)
	}

	s.collectionService = collections.NewService(queries, logger)
	s.collectionService.SetBroadcaster(hub)
	s.userService = users.NewService(queries, secrets, s.collectionService, logger)

	provider, err := gateway.NewProvider(cfg.Discovery, nil, logger)
	if err != nil {
		return nil, err
	}
	s.gateway = gateway.New(provider, cfg.Discovery.Breaker, logger)
	s.discoveryService = discovery.NewService(s.collectionService, s.gateway, cfg.Discovery, logger)
	s.discoveryService.SetBroadcaster(hub)

	cache, err := s.openCache(ctx)
	if err != nil {
		return nil, err
	}
	s.enrichmentService = enrichment.NewService(
		tmdb.NewClient(cfg.Metadata.TMDB, logger),
		page.NewScraper(cfg.Metadata.Scraper, logger),
		cache,
		cfg.Metadata.Concurrency,
		logger,
	)
	s.enrichmentService.SetKeyResolver(s.userService)

	s.userLimiter = ratelimit.NewUserLimiter(cfg.Discovery.RateLimit.PerMinute, cfg.Discovery.RateLimit.Burst)
	s.authLimiter = ratelimit.NewAuthLimiter()

	s.scheduler, err = scheduler.New(nil, logger)
	if err != nil {
		return nil, err
	}
	if err := s.registerTasks(); err != nil {
		return nil, err
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

// openCache selects Redis when configured and reachable, falling back to
// the in-process cache otherwise.
func (s *Server) openCache(ctx context.Context) (enrichment.Cache, error) {
	cc := s.cfg.Cache
	if cc.RedisURL != "" {
		rc, err := enrichment.NewRedisCache(ctx, cc.RedisURL, cc.TTL(), s.logger)
		if err == nil {
			s.redisCache = rc
			return rc, nil
		}
		s.logger.Warn().Err(err).Msg("Redis unavailable, using in-memory enrichment cache")
	}
	s.memoryCache = enrichment.NewMemoryCache(cc.TTL(), cc.MaxItems)
	return s.memoryCache, nil
}

func (s *Server) registerTasks() error {
	sc := s.cfg.Scheduler
	if err := tasks.RegisterProviderHealthTask(s.scheduler, sc.ProviderHealthCron, s.gateway, s.logger); err != nil {
		return err
	}

	var sweeper tasks.Sweeper
	if s.memoryCache != nil {
		sweeper = s.memoryCache
	}
	return tasks.NewHousekeeping(sweeper, s.userLimiter, s.authLimiter, s.logger).Register(s.scheduler, sc.HousekeepingCron)
}

func (s *Server) setupMiddleware() {
	s.echo.HTTPErrorHandler = envelope.ErrorHandler(s.logger)

	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())
	s.echo.Use(apimw.SecurityHeaders())

	bodyLimit := s.cfg.Server.BodyLimit
	if bodyLimit == "" {
		bodyLimit = "2M"
	}
	s.echo.Use(middleware.BodyLimit(bodyLimit))

	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     s.cfg.Server.AllowOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	s.echo.Use(apimw.RequestLogger(s.logger))

	s.echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return c.Request().Header.Get("Upgrade") == "websocket"
		},
	}))
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api")

	userHandlers := users.NewHandlers(s.userService, s.authService, s.authLimiter, s.cfg.Auth.SecureCookie)
	userHandlers.RegisterPublicRoutes(api, s.authLimiter.Middleware())

	protected := api.Group("", auth.Middleware(s.authService))
	userHandlers.RegisterRoutes(protected)
	collections.NewHandlers(s.collectionService).RegisterRoutes(protected)
	discovery.NewHandlers(s.discoveryService).RegisterRoutes(protected, s.userLimiter.Middleware())
	enrichment.NewHandlers(s.enrichmentService).RegisterRoutes(protected)
	protected.GET("/ws", s.hub.HandleWebSocket)

	handlers.NewSchedulerHandler(s.scheduler).RegisterRoutes(protected.Group("/system"))
}

// HealthResponse is the data payload of GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Provider string `json:"provider"`
	Mode     string `json:"mode"`
	Database string `json:"database"`
}

func (s *Server) healthCheck(c echo.Context) error {
	resp := HealthResponse{
		Status:   "ok",
		Provider: s.gateway.ProviderName(),
		Mode:     string(s.gateway.Mode()),
		Database: "ok",
	}
	code := http.StatusOK
	if err := s.db.Conn().PingContext(c.Request().Context()); err != nil {
		resp.Status = "degraded"
		resp.Database = err.Error()
		code = http.StatusServiceUnavailable
	}
	return envelope.Success(c, code, resp)
}

// Gateway returns the recommendation gateway for startup probes.
func (s *Server) Gateway() *gateway.Gateway {
	return s.gateway
}

// Echo returns the underlying router.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start starts background tasks and listens for HTTP requests. It returns
// nil after a graceful Shutdown.
func (s *Server) Start(address string) error {
	s.scheduler.Start()

	s.logger.Info().
		Str("address", address).
		Str("provider", s.gateway.ProviderName()).
		Msg("Starting HTTP server")

	if err := s.echo.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones and stops
// background tasks.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down HTTP server")

	err := s.echo.Shutdown(ctx)
	if stopErr := s.scheduler.Stop(); stopErr != nil && err == nil {
		err = stopErr
	}
	if s.redisCache != nil {
		if closeErr := s.redisCache.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}

// ShutdownGrace returns how long Shutdown may wait for in-flight requests.
func (s *Server) ShutdownGrace() time.Duration {
	if s.cfg.Server.ShutdownGrace <= 0 {
		return 10 * time.Second
	}
	return time.Duration(s.cfg.Server.ShutdownGrace) * time.Second
}
