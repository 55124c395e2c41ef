package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/config"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/database"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/logger"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/queue"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/routes"
)

func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLog, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLog.Sync()

	// 2. Connect to Database
	if cfg.DBUrl == "" {
		log.Fatal("DB_URL is required")
	}
	db, err := database.Connect(context.Background(), cfg, appLog)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// 3. Recompute queue, Redis when configured
	var recomputeQueue queue.RecomputeQueue = queue.NoopQueue{}
	if cfg.RedisAddr != "" {
		redisQueue, err := queue.NewRedisQueue(cfg.RedisAddr)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer redisQueue.Close()
		recomputeQueue = redisQueue
	} else {
		appLog.Warn("REDIS_ADDR not set, skipped recomputes are not queued")
	}

	// 4. Setup Fiber
	app := fiber.New()

	// Middleware
	app.Use(cors.New())
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})
	routes.RegisterRoutes(app, cfg, db, recomputeQueue, appLog)

	// 5. Start Server
	appLog.Info("server starting", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
