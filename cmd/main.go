package main

import (
	"context"
	"fmt"
	"os"

	"github.com/shamss11/pychiatrist-backend/internal/config"
	"github.com/shamss11/pychiatrist-backend/internal/db"
	"github.com/shamss11/pychiatrist-backend/internal/handlers"
	"github.com/shamss11/pychiatrist-backend/internal/pkg/logger"
	"github.com/shamss11/pychiatrist-backend/internal/platform/chroma"
	"github.com/shamss11/pychiatrist-backend/internal/platform/gemini"
	"github.com/shamss11/pychiatrist-backend/internal/repos"
	"github.com/shamss11/pychiatrist-backend/internal/server"
	"github.com/shamss11/pychiatrist-backend/internal/services"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Config
	cfg, err := config.Load(log)
	if err != nil {
		log.Fatal("Could not load config", "error", err)
	}

	// Database
	databaseService, err := db.NewDatabaseService(cfg, log)
	if err != nil {
		log.Fatal("Database init failed", "error", err)
	}
	if err := databaseService.AutoMigrateAll(); err != nil {
		log.Fatal("Auto migration failed", "error", err)
	}
	theDB := databaseService.DB()

	// Redis (optional analytics cache)
	redisService, err := db.NewRedisService(cfg, log)
	if err != nil {
		log.Warn("Redis init failed, continuing without cache", "error", err)
		redisService = nil
	}

	// Platform clients
	knowledgeStore, err := chroma.NewClient(log, chroma.Config{
		URL:        cfg.Knowledge.URL,
		Collection: cfg.Knowledge.Collection,
	})
	if err != nil {
		log.Fatal("Could not init knowledge store client", "error", err)
	}
	generator, err := gemini.NewClient(log, gemini.Config{
		BaseURL: cfg.Generation.BaseURL,
		Model:   cfg.Generation.Model,
	})
	if err != nil {
		log.Fatal("Could not init generation client", "error", err)
	}

	// Repos
	log.Info("Setting up repos...")
	userRepo := repos.NewUserRepo(theDB, log)
	entryRepo := repos.NewEntryRepo(theDB, log)

	// Services
	log.Info("Setting up services...")
	userService := services.NewUserService(theDB, log, userRepo)
	retriever := services.NewContextRetriever(log, knowledgeStore)
	journalService := services.NewJournalService(theDB, log, entryRepo, retriever, generator)
	analyticsService := services.NewAnalyticsService(log, entryRepo, generator, redisService)

	bootstrapUser, err := userService.EnsureBootstrapUser(context.Background())
	if err != nil {
		log.Fatal("Could not ensure bootstrap user", "error", err)
	}
	log.Info("Bootstrap user ready", "user_id", bootstrapUser.ID)

	// Handlers
	log.Info("Setting up handlers...")
	journalHandler := handlers.NewJournalHandler(journalService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)

	// Router
	router := server.NewRouter(server.RouterConfig{
		Log:              log,
		JournalHandler:   journalHandler,
		AnalyticsHandler: analyticsHandler,
	})

	port := cfg.Server.Port
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}
