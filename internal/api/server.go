package api

import (
	"log/slog"
	"net/http"

	"kassa/internal/booking"
	"kassa/internal/cache"
	"kassa/internal/config"
	"kassa/internal/database"
	"kassa/internal/external"
	"kassa/internal/handlers"
	"kassa/internal/logger"
	"kassa/internal/messaging"
	"kassa/internal/middleware"
	"kassa/internal/repository"
	"kassa/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server представляет HTTP сервер API
type Server struct {
	router   *gin.Engine
	config   *config.Config
	db       *database.DB
	nats     *messaging.NATSClient
	idem     *cache.IdempotencyStore
	services *service.Services
	repos    *repository.Repositories
}

// NewServer создает новый экземпляр сервера
func NewServer(cfg *config.Config) *Server {
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	if err := db.RunMigrations(); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	// Без NATS и Redis сервис работает, но без событий и без
	// идемпотентных ключей для шлюза
	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		slog.Warn("NATS unavailable, lifecycle events disabled", "error", err)
		natsClient = nil
	}

	var idem service.IdempotencyKeys
	idemStore, err := cache.NewIdempotencyStore(cfg.Redis)
	if err != nil {
		slog.Warn("Redis unavailable, idempotency keys disabled", "error", err)
		idemStore = nil
	} else {
		idem = idemStore
	}

	paymentClient := external.NewPaymentClient(cfg.Payment)

	repos := repository.NewRepositories(db)

	holds := config.EnvHoldDuration{DefaultMinutes: cfg.Purchase.DefaultHoldMinutes}
	engine := booking.NewEngine(holds, repos.Tickets)

	services := service.NewServices(repos, engine, natsClient, paymentClient, idem, cfg.Purchase)

	router := gin.New()
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())

	server := &Server{
		router:   router,
		config:   cfg,
		db:       db,
		nats:     natsClient,
		idem:     idemStore,
		services: services,
		repos:    repos,
	}

	server.setupRoutes()

	return server
}

// setupRoutes настраивает все API роуты
func (s *Server) setupRoutes() {
	h := handlers.NewHandlers(s.services)

	s.router.GET("/health", func(c *gin.Context) {
		check := s.db.HealthCheck(c.Request.Context())
		status := http.StatusOK
		if check.Status != "healthy" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, check)
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.router.Group("/api")
	// Обязательная Basic Auth для всех API роутов
	api.Use(middleware.BasicAuth(s.repos.Users))
	{
		purchases := api.Group("/purchases")
		{
			purchases.POST("", h.ProcessPurchase)
			purchases.POST("/confirm", h.ConfirmPurchase)
			purchases.POST("/cancel", h.CancelPurchase)
			purchases.POST("/return", h.ReturnPurchase)
		}

		tickets := api.Group("/tickets")
		{
			tickets.GET("/:id/price", h.GetTicketPrice)
			tickets.GET("/:id/availability", h.GetTicketAvailability)
		}
	}
}

// GetRouter возвращает роутер
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Cleanup закрывает соединения
func (s *Server) Cleanup() error {
	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			slog.Error("Failed to close NATS connection", "error", err)
		}
	}
	if s.idem != nil {
		if err := s.idem.Close(); err != nil {
			slog.Error("Failed to close redis connection", "error", err)
		}
	}
	return s.db.Close()
}
