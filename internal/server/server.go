package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"tutor-service/internal/config"
	"tutor-service/internal/database"
	"tutor-service/internal/events"
	"tutor-service/internal/repository"
	"tutor-service/internal/server/handlers"
	"tutor-service/internal/server/middleware"
	"tutor-service/internal/service"
	"tutor-service/internal/tutor"
	"tutor-service/internal/ws"
)

// App owns the wired application: router, hub and the shared clients.
type App struct {
	cfg      *config.Config
	engine   *gin.Engine
	hub      *ws.Hub
	producer *events.Producer
}

// NewApp assembles repositories, services, handlers and the connection hub.
// producer may be nil when Kafka is disabled.
func NewApp(
	cfg *config.Config,
	db *gorm.DB,
	redisClient *redis.Client,
	minioClient *database.MinIOClient,
	producer *events.Producer,
	responder tutor.Responder,
) *App {
	// Repositories
	userRepo := repository.NewUserRepository(db)
	convRepo := repository.NewConversationRepository(db)
	msgRepo := repository.NewMessageRepository(db)
	presenceRepo := repository.NewPresenceRepository(redisClient)

	// The hub observes its own lifecycle into presence and analytics.
	presenceService := service.NewPresenceService(presenceRepo)
	sinks := ws.MultiSink{presenceService}
	if producer != nil {
		sinks = append(sinks, producer)
	}

	hub := ws.NewHub(ws.Config{
		HeartbeatInterval: cfg.WS.HeartbeatInterval,
		MaxMissedBeats:    cfg.WS.MaxMissedBeats,
	}, nil, sinks)

	// Services
	userService := service.NewUserService(userRepo, cfg.JWT.Secret, cfg.JWT.ExpirationTime)
	convService := service.NewConversationService(convRepo, userRepo)

	var analytics service.Analytics
	if producer != nil {
		analytics = producer
	}
	chatService := service.NewChatService(
		msgRepo, convRepo, userRepo, responder, hub.Router(), minioClient, analytics)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	userHandler := handlers.NewUserHandler(userService)
	convHandler := handlers.NewConversationHandler(convService)
	chatHandler := handlers.NewChatHandler(chatService)
	wsHandler := handlers.NewWSHandler(hub, presenceService)

	engine := gin.New()
	engine.Use(middleware.LogAPI(), gin.Recovery(), middleware.CORS(cfg.Server.AllowedOrigins))

	limiter := middleware.NewRateLimiter(redisClient)
	SetupRoutes(engine, cfg.JWT.Secret, limiter,
		authHandler, userHandler, convHandler, chatHandler, wsHandler)

	return &App{
		cfg:      cfg,
		engine:   engine,
		hub:      hub,
		producer: producer,
	}
}

// Engine exposes the gin engine for the HTTP server and tests.
func (a *App) Engine() *gin.Engine { return a.engine }

// Hub exposes the connection hub for lifecycle control.
func (a *App) Hub() *ws.Hub { return a.hub }

// HTTPServer builds the http.Server with the configured timeouts.
func (a *App) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%s", a.cfg.Server.Host, a.cfg.Server.Port),
		Handler:      a.engine,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  a.cfg.Server.IdleTimeout,
	}
}

// Start launches the hub supervisor.
func (a *App) Start() {
	a.hub.Run()
}

// Stop tears down every live session and the producer.
func (a *App) Stop() {
	a.hub.Stop()
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			slog.Warn("producer close failed", "error", err)
		}
	}
}
