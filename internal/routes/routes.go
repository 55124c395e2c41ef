package routes

import (
	"context"
	"time"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/config"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/handlers"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/logger"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/middleware"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/queue"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/repository"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/services"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/ws"
)

func RegisterRoutes(
	app *fiber.App,
	cfg *config.Config,
	db *pgxpool.Pool,
	recomputeQueue queue.RecomputeQueue,
	log *logger.Logger,
) {
	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	contractRepo := repository.NewContractRepository(db)
	variantRepo := repository.NewVariantRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	operationLogRepo := repository.NewOperationLogRepository(db)

	hub := ws.NewHub()
	go hub.Run()

	notifier := services.NewCompletionNotifier(
		notificationRepo,
		studentRepo,
		userRepo,
		variantRepo,
		hub,
		log,
	)
	attendanceService := services.NewAttendanceService(db, recomputeQueue, notifier, log)
	contractService := services.NewContractService(db, operationLogRepo, attendanceService, notifier, log)
	lessonService := services.NewLessonService(db, attendanceService, notifier, log)
	trialService := services.NewTrialService(db, userRepo, hub, log)
	pricingService := services.NewPricingService(
		variantRepo,
		studentRepo,
		contractRepo,
		cfg.CurrentPriceVersion,
		log,
	)

	recomputeWorker := services.NewRecomputeWorker(
		recomputeQueue,
		attendanceService,
		time.Duration(cfg.RecomputeInterval)*time.Second,
		log,
	)
	go recomputeWorker.Run(context.Background())

	authHandler := handlers.NewAuthHandler(userRepo, cfg.JWTSecret)
	contractHandler := handlers.NewContractHandler(contractService, attendanceService, operationLogRepo)
	lessonHandler := handlers.NewLessonHandler(lessonService)
	trialHandler := handlers.NewTrialHandler(trialService)
	pricingHandler := handlers.NewPricingHandler(pricingService)
	notificationHandler := handlers.NewNotificationHandler(notificationRepo)
	streamHandler := handlers.NewStreamHandler(hub, cfg.JWTSecret)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/register", middleware.AuthRequired(cfg.JWTSecret), authHandler.Register)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	protected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	contracts := protected.Group("/contracts")
	contracts.Post("/save", contractHandler.SaveContract)
	contracts.Post("/:id/fix-attendance", contractHandler.FixAttendance)
	contracts.Get("/:id/operations", contractHandler.ListOperations)

	lessons := protected.Group("/lessons")
	lessons.Post("", lessonHandler.CreateLesson)
	lessons.Get("", lessonHandler.ListLessons)
	lessons.Get("/:id", lessonHandler.GetLesson)
	lessons.Patch("/:id", lessonHandler.UpdateLesson)
	lessons.Delete("/:id", lessonHandler.DeleteLesson)

	trials := protected.Group("/trials")
	trials.Post("", trialHandler.CreateTrial)
	trials.Get("/:id", trialHandler.GetTrial)
	trials.Post("/:id/assign", trialHandler.Assign)
	trials.Post("/:id/decline", trialHandler.Decline)
	trials.Post("/:id/accept", trialHandler.Accept)

	pricing := protected.Group("/pricing")
	pricing.Get("/variants", pricingHandler.GetVariants)
	pricing.Post("/recompute-versions", pricingHandler.RecomputePriceVersions)

	students := protected.Group("/students")
	students.Post("", pricingHandler.CreateStudent)

	notifications := protected.Group("/notifications")
	notifications.Get("", notificationHandler.ListNotifications)
	notifications.Post("/:id/read", notificationHandler.MarkRead)

	api.Use("/v1/ws", streamHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(streamHandler.HandleWebSocket))
}
