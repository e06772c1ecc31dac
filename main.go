package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"rithm-backend/handlers"
	"rithm-backend/models"
	"rithm-backend/services"
	"rithm-backend/utils"
	"rithm-backend/workers"

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
		AppName: "rithm-backend",
	})

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
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.EmailVerificationToken{},
		&models.GameStat{},
		&models.GamePage{},
		&models.Score{},
		&models.WeeklyScore{},
		&models.WeeklyArchive{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if err := models.SeedGamePages(db); err != nil {
		log.Fatal("failed to seed game catalog:", err)
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	mailer := services.NewMailerFromEnv()
	authService := services.NewAuthService(db, mailer)
	statsService := services.NewStatsService(db)
	leaderboardService := services.NewLeaderboardService(db)
	catalogService := services.NewCatalogService(db)
	adminService := services.NewAdminService(db)
	archiveService := services.NewArchiveService(db, leaderboardService)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cleanupClient := workers.NewTokenCleanupClient(db)
	go workers.PollExpiredTokens(ctx, cleanupClient, 1*time.Hour)

	archiveService.StartArchiveScheduler()

	handlers.SetupAccountRoutes(app, authService, statsService)
	handlers.SetupLeaderboardRoutes(app, leaderboardService)
	handlers.SetupGameRoutes(app, catalogService)
	handlers.SetupAdminRoutes(app, adminService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Println("✅ Token cleanup worker running (every 1h)")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
