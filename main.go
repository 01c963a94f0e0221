package main

import (
	"fmt"
	"log"
	"os"

	"salonbook-backend/config"
	"salonbook-backend/routes"
	"salonbook-backend/services"
	"salonbook-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.JWTSecret == "" {
		if gin.Mode() == gin.ReleaseMode {
			logger.Fatal("JWT_SECRET not set")
		}
		// sessions will not survive a restart
		cfg.JWTSecret = utils.GenerateJWTSecret()
		logger.Warn("JWT_SECRET not set, using an ephemeral secret")
	}

	db, err := config.ConnectDB(cfg, logger)
	if err != nil {
		logger.Fatal("failed to connect database", zap.Error(err))
	}
	if err := config.Migrate(db); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	params := services.Params{DB: db, Log: logger, TxMaxAttempts: cfg.TxMaxAttempts}
	clients := services.NewClientService(params)
	visits := services.NewVisitMutator(params)
	insights := services.NewInsightService(params, clients)
	premium := services.NewPremiumService(params)

	if cfg.Twilio.Enabled() {
		reminders := services.NewReminderService(params, clients, services.NewTwilioSender(cfg.Twilio), cfg.Twilio)
		scheduler, err := reminders.StartScheduler(cfg.ReminderCron)
		if err != nil {
			logger.Fatal("failed to start reminders", zap.Error(err))
		}
		defer scheduler.Stop()
	} else {
		logger.Info("twilio not configured, appointment reminders disabled")
	}

	r := routes.SetupRouter(routes.Options{
		DB:              db,
		Log:             logger,
		Tokens:          utils.TokenIssuer{Secret: []byte(cfg.JWTSecret), Expiry: cfg.JWTExpiry},
		CORSOrigins:     cfg.CORSOrigins,
		DefaultOwnerPin: cfg.OwnerPin,
		SecureCookies:   gin.Mode() == gin.ReleaseMode,
		Clients:         clients,
		Visits:          visits,
		Insights:        insights,
		Premium:         premium,
	})
	printRoutes(r)

	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func printRoutes(r *gin.Engine) {
	routes := r.Routes()
	for _, route := range routes {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
