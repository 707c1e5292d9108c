package server

import (
	"github.com/NikBulygin/Indrive-hackation-backend/internal/auth"
	"github.com/NikBulygin/Indrive-hackation-backend/internal/config"
	"github.com/NikBulygin/Indrive-hackation-backend/internal/realtime"
	"github.com/NikBulygin/Indrive-hackation-backend/internal/route"
	"github.com/NikBulygin/Indrive-hackation-backend/internal/stream"
	"github.com/NikBulygin/Indrive-hackation-backend/internal/track"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App      *fiber.App
	Cfg      config.Config
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Stream   *stream.Hub
	Registry *realtime.Registry
	Monitor  *realtime.Monitor
	Routes   *route.Coordinator
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	provider := route.NewOSRMProvider(cfg.OSRMBaseURL, cfg.RouteTimeout())
	coordinator := route.NewCoordinator(provider, cfg.DeviationThresholdM, cfg.MaxRouteAge())
	registry := realtime.NewRegistry()

	s := &Server{
		App:      app,
		Cfg:      cfg,
		DB:       db,
		Redis:    redisClient,
		Stream:   stream.NewHub(redisClient),
		Registry: registry,
		Monitor:  realtime.NewMonitor(registry, cfg.HeartbeatInterval(), cfg.PongTimeout()),
		Routes:   coordinator,
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.DB))
	track.RegisterRoutes(s.App.Group("/geo-tracks"), track.NewService(s.DB), jwtMiddleware)
	route.RegisterRoutes(s.App, s.Routes)
	realtime.RegisterRoutes(s.App.Group("/realtime"), s.Registry, realtime.NewRouter(s.Registry, s.Routes, s.Stream))
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
