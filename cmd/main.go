package main

import (
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"movie-trivia-service/internal/cache"
	"movie-trivia-service/internal/config"
	"movie-trivia-service/internal/database"
	"movie-trivia-service/internal/handler"
	"movie-trivia-service/internal/quiz"
	"movie-trivia-service/internal/repository"
	"movie-trivia-service/internal/service"
	"movie-trivia-service/internal/tmdb"
)

func main() {
	// Structured logging
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Connect to PostgreSQL
	db, err := database.NewPostgres(cfg.DB)
	if err != nil {
		slog.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Connect to Redis. Falls back to the in-memory store so the bank
	// cache keeps working, just without persistence across restarts.
	var store cache.Store
	if rdb, err := database.NewRedis(cfg.Redis); err != nil {
		slog.Warn("Redis unavailable, caching question bank in memory", "error", err)
		store = cache.NewMemoryStore()
	} else {
		store = cache.NewRedisStore(rdb)
	}

	// Initialize TMDB client
	tmdbClient := tmdb.NewClient(cfg.TMDB.APIKey, cfg.TMDB.BaseURL)

	// Initialize layers. Separate rand sources: *rand.Rand is not safe
	// for concurrent use and builder and cache run on different requests.
	builder := quiz.NewBuilder(tmdbClient, rand.New(rand.NewSource(time.Now().UnixNano())), time.Now)
	questionCache := cache.NewQuestionCache(store, time.Now, rand.New(rand.NewSource(time.Now().UnixNano())))
	statsRepo := repository.NewStatsRepository(db)
	svc := service.NewGameService(builder, questionCache, statsRepo,
		rand.New(rand.NewSource(time.Now().UnixNano())))
	h := handler.NewQuizHandler(svc)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Movie Trivia Service",
		ServerHeader: "Movie-Trivia-Service",
		ErrorHandler: func(c fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			slog.Error("unhandled error", "error", err, "status", code)
			return c.Status(code).JSON(handler.ErrorResponse{Error: err.Error()})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	// Swagger docs
	swaggerYAML, err := os.ReadFile("docs/swagger.yaml")
	if err != nil {
		slog.Warn("swagger.yaml not found, swagger UI will be unavailable", "error", err)
	} else {
		handler.RegisterSwagger(app, swaggerYAML)
	}

	// API routes
	api := app.Group("/api/v1")
	api.Get("/health", h.Health)
	api.Post("/quiz/bank", h.BuildBank)
	api.Get("/quiz/bank/info", h.BankInfo)
	api.Delete("/quiz/bank", h.ClearBank)
	api.Post("/quiz/sessions", h.StartSession)
	api.Get("/quiz/sessions/:id", h.GetSession)
	api.Post("/quiz/sessions/:id/answer", h.Answer)
	api.Post("/quiz/sessions/:id/advance", h.Advance)
	api.Post("/quiz/sessions/:id/reset", h.ResetSession)
	api.Get("/quiz/stats", h.Stats)
	api.Delete("/quiz/stats", h.ResetStats)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		slog.Info("shutting down trivia service...")
		_ = app.Shutdown()
	}()

	// Start server
	addr := ":" + cfg.Port
	slog.Info("starting movie trivia service", "addr", addr)
	if err := app.Listen(addr); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
