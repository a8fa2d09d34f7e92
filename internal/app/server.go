// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"agentlist-service/internal/config"
	"agentlist-service/internal/db"
	agentHandler "agentlist-service/internal/handlers/agent"
	authHandler "agentlist-service/internal/handlers/auth"
	listHandler "agentlist-service/internal/handlers/list"
	wsHandler "agentlist-service/internal/handlers/websocket"
	"agentlist-service/internal/middleware"
	"agentlist-service/internal/pkg/jwt"
	"agentlist-service/internal/pkg/session"
	"agentlist-service/internal/repository/postgres"
	agentUsecase "agentlist-service/internal/service/agent"
	authUsecase "agentlist-service/internal/service/auth"
	"agentlist-service/internal/service/lists"
	"agentlist-service/internal/websocket"
	wsHandlers "agentlist-service/internal/websocket/handler"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
	http   *http.Server

	pool      *pgxpool.Pool
	redis     *redis.Client
	stopHub   context.CancelFunc
	hubClosed chan struct{}
}

func NewServer(cfg config.AppConfig, logger *zap.Logger) *Server {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	return &Server{cfg: cfg, engine: gin.New(), logger: logger}
}

// Init connects storage and wires every component. It must succeed before Start.
func (s *Server) Init(ctx context.Context) error {
	// ----- PostgreSQL -----
	pool, err := db.ConnectDB(ctx, db.PostgresConfig{
		URL:      s.cfg.DatabaseURL,
		MaxConns: s.cfg.DBMaxConns,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	s.pool = pool
	s.logger.Info("connected to PostgreSQL")

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(ctx, db.RedisConfig{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		DB:       s.cfg.RedisDB,
		PoolSize: 10,
	})
	if err != nil {
		pool.Close()
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	s.redis = redisClient
	s.logger.Info("connected to Redis", zap.String("addr", s.cfg.RedisAddr))

	// ----- JWT Manager -----
	jwtManager, err := jwt.LoadAndBuild(s.cfg.JWT)
	if err != nil {
		s.closeStores()
		return fmt.Errorf("failed to load JWT manager: %w", err)
	}

	// ----- Session Manager & Rate Limiter -----
	sessionManager := session.NewManager(redisClient, s.logger)
	rateLimiter := session.NewRateLimiter(redisClient)

	// ----- Repositories -----
	adminRepo := postgres.NewAdminRepository(pool)
	agentRepo := postgres.NewAgentRepository(pool)
	listRepo := postgres.NewListRecordRepository(pool)

	// ----- Services (Usecases) -----
	authService := authUsecase.NewAuthService(adminRepo, jwtManager, sessionManager, rateLimiter, s.logger)

	// ----- WebSocket Hub -----
	hub := websocket.NewHub(authService, s.logger)

	agentService := agentUsecase.NewAgentService(agentRepo, hub, s.logger)
	listService := lists.NewListService(agentRepo, listRepo, lists.NewDistributor(), hub, s.logger)

	if err := hub.RegisterHandler(wsHandlers.NewUploadHandler(listService)); err != nil {
		s.closeStores()
		return fmt.Errorf("failed to register websocket handlers: %w", err)
	}

	hubCtx, stopHub := context.WithCancel(context.Background())
	s.stopHub = stopHub
	s.hubClosed = make(chan struct{})
	go func() {
		defer close(s.hubClosed)
		hub.Run(hubCtx)
	}()

	// ----- Bootstrap admin -----
	bootCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := authService.EnsureAdminExists(bootCtx, s.cfg.AdminEmail, s.cfg.AdminPassword, s.cfg.AdminName); err != nil {
		// Startup continues; an existing admin can still sign in.
		s.logger.Error("failed to bootstrap admin", zap.Error(err))
	}

	// ----- Handlers -----
	handlers := &Handlers{
		AuthHandler:    authHandler.NewAuthHandler(authService, hub, s.logger),
		AgentHandler:   agentHandler.NewAgentHandler(agentService, listService, s.logger),
		ListHandler:    listHandler.NewListHandler(listService, s.cfg.UploadDir, s.cfg.MaxUploadSize, s.logger),
		WSHandler:      wsHandler.NewWebSocketHandler(hub, s.cfg.CORSOrigins, s.logger),
		AuthMiddleware: middleware.NewAuthMiddleware(authService),
		Health:         s.health,
	}

	// ----- Middlewares -----
	s.engine.Use(
		middleware.RecoveryMiddleware(s.logger),
		middleware.LoggingMiddleware(s.logger),
		middleware.MetricsMiddleware(),
		middleware.CORSMiddleware(s.cfg.CORSOrigins),
	)

	SetupRouter(s.engine, handlers)

	s.http = &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

// Start serves HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("server running", zap.String("addr", s.cfg.HTTPAddr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown drains HTTP, stops the hub, then closes storage.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.http != nil {
		if err := s.http.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	if s.stopHub != nil {
		s.stopHub()
		select {
		case <-s.hubClosed:
		case <-ctx.Done():
		}
	}
	s.closeStores()
	return errors.Join(errs...)
}

func (s *Server) closeStores() {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Warn("failed to close redis client", zap.Error(err))
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Server) health(ctx context.Context) map[string]string {
	status := map[string]string{"postgres": "ok", "redis": "ok"}
	if err := s.pool.Ping(ctx); err != nil {
		status["postgres"] = err.Error()
	}
	if err := s.redis.Ping(ctx).Err(); err != nil {
		status["redis"] = err.Error()
	}
	return status
}
