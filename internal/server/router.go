package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/shamss11/pychiatrist-backend/internal/handlers"
	"github.com/shamss11/pychiatrist-backend/internal/middleware"
	"github.com/shamss11/pychiatrist-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log              *logger.Logger
	JournalHandler   *handlers.JournalHandler
	AnalyticsHandler *handlers.AnalyticsHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))
	router.Use(middleware.RequestLogger(cfg.Log))

	router.GET("/healthcheck", handlers.HealthCheck)

	router.POST("/journal/submit", cfg.JournalHandler.Submit)
	router.GET("/clinical/deep-dive", cfg.JournalHandler.DeepDive)

	user := router.Group("/user/:user_id")
	{
		user.GET("/history", cfg.JournalHandler.History)
		user.GET("/mood-stats", cfg.AnalyticsHandler.MoodStats)
		user.GET("/mood-trend", cfg.AnalyticsHandler.MoodTrend)
		user.GET("/insights", cfg.AnalyticsHandler.Insights)
		user.GET("/trigger-distribution", cfg.AnalyticsHandler.TriggerDistribution)
		user.GET("/mood-prediction", cfg.AnalyticsHandler.MoodPrediction)
		user.GET("/suggested-prompts", cfg.AnalyticsHandler.SuggestedPrompts)
		user.GET("/overview", cfg.AnalyticsHandler.Overview)
	}

	return router
}
