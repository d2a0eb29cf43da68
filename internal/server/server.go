package server

import (
	"context"

	"backend-trailrecorder/internal/auth"
	"backend-trailrecorder/internal/config"
	"backend-trailrecorder/internal/storage"
	"backend-trailrecorder/internal/stream"
	"backend-trailrecorder/internal/tracking"

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
	Recorder *tracking.Recorder
	Sink     *tracking.LocationSampleSink
	Exporter *tracking.Exporter
	Exports  *storage.Service
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	hub := stream.NewHub(redisClient)
	recorder := tracking.NewRecorder(hub)

	var exports *storage.Service
	if db != nil {
		exports = storage.NewService(db)
	}

	s := &Server{
		App:      app,
		Cfg:      cfg,
		DB:       db,
		Redis:    redisClient,
		Stream:   hub,
		Recorder: recorder,
		Sink:     tracking.NewLocationSampleSink(recorder, cfg.FixBuffer),
		Exporter: tracking.NewExporter(recorder, fileSink(cfg, exports), cfg.ExportName),
		Exports:  exports,
	}

	registerRoutes(s)
	return s
}

// fileSink stores exports in Postgres when connected and on disk otherwise.
func fileSink(cfg config.Config, exports *storage.Service) tracking.FileSink {
	if exports != nil {
		return exports
	}
	return storage.NewDirSink(cfg.ExportDir)
}

// RunSink feeds queued location fixes to the recorder until ctx ends.
func (s *Server) RunSink(ctx context.Context) error {
	return s.Sink.Run(ctx)
}

func (s *Server) Close() error {
	return s.Stream.Close()
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	authService := auth.NewService(s.Cfg.JWTSecret, s.Cfg.DeviceKeyHash)
	jwtMiddleware := auth.JWTMiddleware(authService)

	auth.RegisterRoutes(s.App.Group("/auth"), authService)
	tracking.RegisterRoutes(s.App.Group("/recording"), s.Recorder, s.Sink, s.Exporter, jwtMiddleware)
	if s.Exports != nil {
		storage.RegisterRoutes(s.App.Group("/exports"), s.Exports)
	}
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
