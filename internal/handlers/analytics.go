package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/shamss11/pychiatrist-backend/internal/services"
)

type AnalyticsHandler struct {
	analyticsService services.AnalyticsService
}

func NewAnalyticsHandler(analyticsService services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

func (ah *AnalyticsHandler) MoodStats(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}
	stats, err := ah.analyticsService.RollingAverage(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, stats)
}

func (ah *AnalyticsHandler) MoodTrend(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}
	trend, err := ah.analyticsService.DailyTrend(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, trend)
}

func (ah *AnalyticsHandler) Insights(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}
	insights, err := ah.analyticsService.Insights(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, insights)
}

func (ah *AnalyticsHandler) TriggerDistribution(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}
	dist, err := ah.analyticsService.TriggerDistribution(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, dist)
}

func (ah *AnalyticsHandler) MoodPrediction(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}
	prediction, err := ah.analyticsService.Prediction(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, prediction)
}

func (ah *AnalyticsHandler) SuggestedPrompts(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}
	prompts, err := ah.analyticsService.SuggestedPrompts(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, prompts)
}

func (ah *AnalyticsHandler) Overview(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}
	overview, err := ah.analyticsService.Overview(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, overview)
}
