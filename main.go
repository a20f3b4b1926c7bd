package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"erp-matcher/handlers"
	"erp-matcher/middleware"
	"erp-matcher/models"
	"erp-matcher/services"
	"erp-matcher/utils"
	"erp-matcher/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 25 * 1024 * 1024, // 25MB for logo uploads
	})

	// 🔐 GLOBAL: only Gateway requests allowed
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-User-ID, X-User-Role, X-Service-Token",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}
	if !utils.R2Enabled() {
		log.Println("⚠️  R2 not configured - logos will be stored in ./uploads")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Brief{},
		&models.Partner{},
		&models.Match{},
		&models.MatchEvent{},
		&models.Project{},
		&models.Message{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if err := utils.EnsureUploadDir(); err != nil {
		log.Fatal("failed to ensure upload dir:", err)
	}

	// Gamification snapshots live in Redis; an in-memory store keeps local
	// runs working without one
	var snapshotStore services.SnapshotStore
	redisStore, err := services.NewRedisSnapshotStore()
	if err != nil {
		log.Printf("⚠️  Redis unavailable (%v) - gamification snapshots are in-memory only", err)
		snapshotStore = services.NewMemorySnapshotStore()
	} else {
		snapshotStore = redisStore
	}

	scoringService := services.NewScoringService()
	matchService := services.NewMatchService(db, scoringService)
	briefService := services.NewBriefService(db)
	partnerService := services.NewPartnerService(db)
	gamificationService := services.NewGamificationService(snapshotStore)
	notificationService := services.NewNotificationService()

	// Lifecycle events fan out to feeds and SSE
	matchService.Notifier = notificationService

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Mirror vetting decisions into the local partner directory
	if os.Getenv("VETTING_SERVICE_URL") != "" {
		syncClient := workers.NewPartnerSyncClient(db)
		go workers.PollPartners(ctx, syncClient, 60*time.Second)
		log.Println("✅ Partner vetting sync running (every 60s)")
	} else {
		log.Println("⚠️  VETTING_SERVICE_URL not set - partner vetting sync disabled")
	}

	matchService.StartDispatchScheduler()

	handlers.SetupBriefRoutes(app, briefService, matchService)
	handlers.SetupMatchRoutes(app, matchService, gamificationService, notificationService)
	handlers.SetupGamificationRoutes(app, gamificationService, notificationService)
	handlers.SetupPartnerRoutes(app, partnerService)
	handlers.SetupNotificationRoutes(app, notificationService)

	app.Static("/uploads", "./uploads")

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Match dispatch scheduler running")
	log.Println("✅ GatewayAuthMiddleware enforced globally - all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
