package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/movescrow/movescrow-backend/database"
	"github.com/movescrow/movescrow-backend/internal/config"
	"github.com/movescrow/movescrow-backend/internal/handlers"
	"github.com/movescrow/movescrow-backend/internal/jobs"
	"github.com/movescrow/movescrow-backend/internal/models"
	"github.com/movescrow/movescrow-backend/internal/routes"
	"github.com/movescrow/movescrow-backend/internal/services"
	"github.com/movescrow/movescrow-backend/internal/storage"
	"github.com/movescrow/movescrow-backend/internal/token"
)

func main() {
	// Load .env file for local development
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found - checking environment variables")
	}

	cfg := config.Load()

	// Initialize storage
	var store storage.Store
	if cfg.UseMemoryStore {
		log.Println("⚠️  Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
	} else {
		log.Println("📦 Connecting to PostgreSQL database...")
		if err := database.Connect(cfg.DatabaseURL); err != nil {
			log.Fatal(err)
		}

		log.Println("🔄 Running database migrations...")
		err := database.DB.AutoMigrate(
			&models.Restaurant{},
			&models.Order{},
			&models.OTPChallenge{},
			&models.RestaurantSession{},
			&models.PickupOTP{},
			&models.ChatMessage{},
		)
		if err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		log.Println("✅ Database migrations completed!")

		store = storage.NewDatabaseStore(database.DB)
	}

	// Provider clients are constructed once here and injected everywhere.
	smsSender := services.NewSMSSender(cfg)
	whatsappClient := services.NewWhatsAppClient(cfg.WhatsApp)
	codec := token.New(cfg.TokenSecret)
	if cfg.TokenStrict {
		codec = token.NewStrict(cfg.TokenSecret)
	}

	if cfg.OTPSentinelMode() {
		log.Println("⚠️  No SMS provider configured - OTP test mode active (code " + services.SentinelOTP + ")")
	}

	otpService := services.NewOTPService(store, smsSender, cfg.OTPSentinelMode())
	sessionService := services.NewSessionService(store, codec)
	orderService := services.NewOrderService(store, codec)
	pickupService := services.NewPickupService(store, smsSender)
	notifier := services.NewNotifier(store, smsSender, whatsappClient, sessionService, cfg.AppURL)

	cleanupJob := jobs.NewCleanupJob(store)
	cleanupJob.Start()

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "Movescrow Backend v1.0.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// Health check endpoint for monitoring
	app.Get("/health", func(c *fiber.Ctx) error {
		status := "healthy"
		statusCode := 200

		if !cfg.UseMemoryStore && database.DB != nil {
			sqlDB, err := database.DB.DB()
			if err != nil || sqlDB.Ping() != nil {
				status = "unhealthy"
				statusCode = 503
			}
		}

		return c.Status(statusCode).JSON(fiber.Map{
			"status": status,
			"services": fiber.Map{
				"database": status == "healthy",
				"sms":      smsSender.Configured(),
				"whatsapp": whatsappClient != nil,
				"otp_test": cfg.OTPSentinelMode(),
			},
		})
	})

	appSecret := ""
	if cfg.WhatsApp != nil {
		appSecret = cfg.WhatsApp.AppSecret
	}

	routes.SetupRoutes(app, routes.Handlers{
		Auth:              handlers.NewAuthHandler(store, otpService, sessionService, notifier, cfg.AppURL),
		Orders:            handlers.NewOrderHandler(orderService),
		Notifications:     handlers.NewNotificationHandler(notifier),
		WhatsApp:          handlers.NewWhatsAppHandler(store, whatsappClient, cfg.VerifyToken),
		Pickups:           handlers.NewPickupHandler(pickupService),
		WhatsAppAppSecret: appSecret,
	})

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("\n🛑 Gracefully shutting down...")
		cleanupJob.Stop()
		_ = app.Shutdown()
	}()

	log.Println("========================================")
	log.Printf("🚀 Movescrow Backend starting on port %s", cfg.Port)
	log.Printf("📊 Storage: %s", storageType(cfg))
	log.Printf("📱 SMS providers: %s", smsStatus(cfg))
	log.Printf("💬 WhatsApp: %s", whatsappStatus(cfg))
	log.Println("========================================")

	log.Fatal(app.Listen(":" + cfg.Port))
}

func storageType(cfg config.Config) string {
	if cfg.UseMemoryStore {
		return "In-Memory (Testing)"
	}
	return "PostgreSQL Database"
}

func smsStatus(cfg config.Config) string {
	switch {
	case cfg.Termii != nil && cfg.Twilio != nil:
		return "Termii + Twilio fallback"
	case cfg.Termii != nil:
		return "Termii"
	case cfg.Twilio != nil:
		return "Twilio"
	}
	return "Not configured (OTP test mode)"
}

func whatsappStatus(cfg config.Config) string {
	if cfg.WhatsApp == nil {
		return "Not configured"
	}
	return "Configured"
}
