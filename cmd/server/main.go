package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/config"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/database"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/routes"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/scheduler"
	"github.com/victor-vianna/fit-consult-hub-sub000/internal/services"
	sessionws "github.com/victor-vianna/fit-consult-hub-sub000/internal/websocket"
)

func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	level := slog.LevelInfo
	if cfg.AppEnv == "development" {
		level = slog.LevelDebug
	}
	appLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(appLogger)

	// 2. Connect to Database
	if cfg.DBUrl == "" {
		log.Fatal("DB_URL is required")
	}
	if cfg.AutoMigrate {
		if err := database.RunMigrations(cfg.DBUrl); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}
	if err := database.ConnectDB(cfg.DBUrl, database.PoolOptions{
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	}); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Live feed and background sweep
	hub := sessionws.NewHub()
	go hub.Run(ctx)

	sessionService := services.NewWorkoutSessionService(database.DB, hub, appLogger, services.SessionPolicy{
		MaxAge:               cfg.SessionMaxAge,
		DiscrepancyTolerance: cfg.SessionDiscrepancyTolerance,
	})
	sweeper := scheduler.NewSessionSweeper(sessionService, appLogger)
	if err := sweeper.Start(cfg.SessionSweepSchedule, cfg.Timezone); err != nil {
		log.Fatalf("Failed to start session sweeper: %v", err)
	}
	defer sweeper.Stop()

	// 4. Setup Fiber
	app := fiber.New()

	// Middleware
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.AllowedOrigins}))
	app.Use(logger.New())
	app.Use(recover.New())

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		if err := database.DB.Ping(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "degraded",
			})
		}
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})
	if err := routes.RegisterRoutes(app, cfg, routes.Dependencies{
		DB:       database.DB,
		Hub:      hub,
		Sessions: sessionService,
		Logger:   appLogger,
	}); err != nil {
		log.Fatalf("Failed to register routes: %v", err)
	}

	go func() {
		<-ctx.Done()
		log.Println("Shutting down server")
		if err := app.Shutdown(); err != nil {
			log.Printf("Server shutdown failed: %v", err)
		}
	}()

	// 5. Start Server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
