package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/shamss11/pychiatrist-backend/internal/db"
	"github.com/shamss11/pychiatrist-backend/internal/domain"
	"github.com/shamss11/pychiatrist-backend/internal/pkg/apierr"
	"github.com/shamss11/pychiatrist-backend/internal/pkg/dbctx"
	"github.com/shamss11/pychiatrist-backend/internal/pkg/logger"
	"github.com/shamss11/pychiatrist-backend/internal/platform/gemini"
	"github.com/shamss11/pychiatrist-backend/internal/repos"
)

const (
	analyticsWindow    = 7 * 24 * time.Hour
	predictionMinRows  = 3
	predictionMaxRows  = 14
	promptsContextRows = 5
	triggerTopN        = 10
	triggerSummaryN    = 3
	triggerMaxLen      = 17
	triggerTruncLen    = 15
	cacheTTL           = 5 * time.Minute
)

type MoodStats struct {
	AverageMood7d float64 `json:"average_mood_7d"`
}

type TrendPoint struct {
	Day      string  `json:"day"`
	Score    float64 `json:"score"`
	Emotion  string  `json:"emotion"`
	FullDate string  `json:"full_date"`
}

type Insights struct {
	TopEmotion     string `json:"top_emotion"`
	Stability      string `json:"stability"`
	TriggerSummary string `json:"trigger_summary"`
	InsightMessage string `json:"insight_message"`
}

type TriggerCount struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type Prediction struct {
	Prediction string   `json:"prediction"`
	Advice     []string `json:"advice,omitempty"`
	Status     string   `json:"status"`
}

type SuggestedPrompt struct {
	Prompt  string `json:"prompt"`
	Starter string `json:"starter"`
}

type Overview struct {
	AverageMood         float64        `json:"average_mood_7d"`
	Trend               []TrendPoint   `json:"trend"`
	Insights            *Insights      `json:"insights"`
	TriggerDistribution []TriggerCount `json:"trigger_distribution"`
}

// AnalyticsService derives trend and stability insights from persisted
// history. Every operation reads a 7-day window relative to call time and
// reports missing data as a status payload, never as an error.
type AnalyticsService interface {
	RollingAverage(ctx context.Context, userID uuid.UUID) (*MoodStats, error)
	DailyTrend(ctx context.Context, userID uuid.UUID) ([]TrendPoint, error)
	Insights(ctx context.Context, userID uuid.UUID) (*Insights, error)
	TriggerDistribution(ctx context.Context, userID uuid.UUID) ([]TriggerCount, error)
	Prediction(ctx context.Context, userID uuid.UUID) (*Prediction, error)
	SuggestedPrompts(ctx context.Context, userID uuid.UUID) ([]SuggestedPrompt, error)
	Overview(ctx context.Context, userID uuid.UUID) (*Overview, error)
}

type analyticsService struct {
	log       *logger.Logger
	entryRepo repos.EntryRepo
	generator gemini.Generator
	cache     *db.RedisService
	now       func() time.Time
}

func NewAnalyticsService(log *logger.Logger, entryRepo repos.EntryRepo, generator gemini.Generator, cache *db.RedisService) AnalyticsService {
	return &analyticsService{
		log:       log.With("service", "AnalyticsService"),
		entryRepo: entryRepo,
		generator: generator,
		cache:     cache,
		now:       time.Now,
	}
}

func (as *analyticsService) windowStart() time.Time {
	return as.now().UTC().Add(-analyticsWindow)
}

func (as *analyticsService) windowEntries(ctx context.Context, userID uuid.UUID) ([]*domain.Entry, error) {
	entries, err := as.entryRepo.ListByUserSince(dbctx.Context{Ctx: ctx}, userID, as.windowStart())
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodePersistenceFailure, err)
	}
	return entries, nil
}

func (as *analyticsService) RollingAverage(ctx context.Context, userID uuid.UUID) (*MoodStats, error) {
	entries, err := as.windowEntries(ctx, userID)
	if err != nil {
		return nil, err
	}

	var sum float64
	var n int
	for _, e := range entries {
		if e.Sentiment == nil {
			continue
		}
		sum += e.Sentiment.Intensity
		n++
	}
	if n == 0 {
		return &MoodStats{AverageMood7d: 0.0}, nil
	}
	return &MoodStats{AverageMood7d: round2(sum / float64(n))}, nil
}

func (as *analyticsService) DailyTrend(ctx context.Context, userID uuid.UUID) ([]TrendPoint, error) {
	entries, err := as.windowEntries(ctx, userID)
	if err != nil {
		return nil, err
	}

	type dayAgg struct {
		date    string
		sum     float64
		n       int
		emotion string
	}
	byDay := map[string]*dayAgg{}
	var order []string

	// Entries arrive chronologically ascending, so the representative
	// emotion for a day is the first one recorded that day.
	for _, e := range entries {
		if e.Sentiment == nil {
			continue
		}
		date := e.CreatedAt.UTC().Format("2006-01-02")
		agg, ok := byDay[date]
		if !ok {
			agg = &dayAgg{date: date, emotion: e.Sentiment.Emotion}
			byDay[date] = agg
			order = append(order, date)
		}
		agg.sum += e.Sentiment.Intensity
		agg.n++
	}
	sort.Strings(order)

	out := make([]TrendPoint, 0, len(order))
	for _, date := range order {
		agg := byDay[date]
		day, _ := time.Parse("2006-01-02", date)
		out = append(out, TrendPoint{
			Day:      day.Format("Mon"),
			Score:    round1(agg.sum / float64(agg.n)),
			Emotion:  agg.emotion,
			FullDate: date,
		})
	}
	return out, nil
}

func (as *analyticsService) Insights(ctx context.Context, userID uuid.UUID) (*Insights, error) {
	cacheKey := "pychiatrist:insights:" + userID.String()
	if cached, ok := as.cache.Get(ctx, cacheKey); ok {
		var out Insights
		if err := json.Unmarshal([]byte(cached), &out); err == nil {
			return &out, nil
		}
	}

	entries, err := as.windowEntries(ctx, userID)
	if err != nil {
		return nil, err
	}

	var sentiments []*domain.Sentiment
	for _, e := range entries {
		if e.Sentiment != nil {
			sentiments = append(sentiments, e.Sentiment)
		}
	}
	if len(sentiments) == 0 {
		return &Insights{
			TopEmotion:     "Neutral",
			Stability:      "Pending",
			TriggerSummary: "Not enough data yet.",
			InsightMessage: "Document your first few days to see behavioral patterns.",
		}, nil
	}

	// Top emotion by count; ties resolve to the emotion seen earliest in the
	// window so repeated calls over the same data agree.
	counts := map[string]int{}
	var seen []string
	for _, s := range sentiments {
		if _, ok := counts[s.Emotion]; !ok {
			seen = append(seen, s.Emotion)
		}
		counts[s.Emotion]++
	}
	topEmotion := seen[0]
	for _, emotion := range seen {
		if counts[emotion] > counts[topEmotion] {
			topEmotion = emotion
		}
	}

	intensities := make([]float64, 0, len(sentiments))
	for _, s := range sentiments {
		intensities = append(intensities, s.Intensity)
	}
	stability := classifyStability(populationVariance(intensities))

	triggers := collectTriggers(sentiments)
	summary := "None identified"
	if len(triggers) > 0 {
		limited := triggers
		if len(limited) > triggerSummaryN {
			limited = limited[:triggerSummaryN]
		}
		parts := make([]string, 0, len(limited))
		for _, t := range limited {
			parts = append(parts, truncateTrigger(t))
		}
		summary = strings.Join(parts, ", ")
	}

	out := &Insights{
		TopEmotion:     topEmotion,
		Stability:      stability,
		TriggerSummary: summary,
		InsightMessage: fmt.Sprintf(
			"Your emotional landscape is currently dominated by %s states with %s stability.",
			strings.ToLower(topEmotion),
			strings.ToLower(stability),
		),
	}
	if raw, err := json.Marshal(out); err == nil {
		as.cache.Set(ctx, cacheKey, string(raw), cacheTTL)
	}
	return out, nil
}

func (as *analyticsService) TriggerDistribution(ctx context.Context, userID uuid.UUID) ([]TriggerCount, error) {
	cacheKey := "pychiatrist:triggers:" + userID.String()
	if cached, ok := as.cache.Get(ctx, cacheKey); ok {
		var out []TriggerCount
		if err := json.Unmarshal([]byte(cached), &out); err == nil {
			return out, nil
		}
	}

	entries, err := as.windowEntries(ctx, userID)
	if err != nil {
		return nil, err
	}

	counts := map[string]int{}
	var order []string
	for _, e := range entries {
		if e.Sentiment == nil {
			continue
		}
		for _, t := range splitTriggers(e.Sentiment.Triggers) {
			if _, ok := counts[t]; !ok {
				order = append(order, t)
			}
			counts[t]++
		}
	}

	out := make([]TriggerCount, 0, len(order))
	for _, name := range order {
		out = append(out, TriggerCount{Name: name, Value: counts[name]})
	}
	// Stable sort keeps first-encountered order between equal counts.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Value > out[j].Value
	})
	if len(out) > triggerTopN {
		out = out[:triggerTopN]
	}

	if raw, err := json.Marshal(out); err == nil {
		as.cache.Set(ctx, cacheKey, string(raw), cacheTTL)
	}
	return out, nil
}

var fallbackPrediction = Prediction{
	Prediction: "Predictive engine warming up. Check back soon.",
	Advice: []string{
		"Maintain consistent journaling",
		"Monitor sleep patterns",
		"Engage in light physical activity",
	},
	Status: "fallback",
}

func (as *analyticsService) Prediction(ctx context.Context, userID uuid.UUID) (*Prediction, error) {
	latest, err := as.entryRepo.ListLatestByUser(dbctx.Context{Ctx: ctx}, userID, predictionMaxRows)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodePersistenceFailure, err)
	}
	if len(latest) < predictionMinRows {
		return &Prediction{
			Prediction: "Insufficient data for clinical prediction. Keep journaling!",
			Status:     "accumulating",
		}, nil
	}

	// Latest-first from the repo, serialized oldest-first for the model.
	history := make([]string, 0, len(latest))
	for i := len(latest) - 1; i >= 0; i-- {
		e := latest[i]
		if e.Sentiment == nil {
			continue
		}
		history = append(history, fmt.Sprintf(
			"Date: %s, Emotion: %s, Intensity: %g",
			e.CreatedAt.UTC().Format("2006-01-02"),
			e.Sentiment.Emotion,
			e.Sentiment.Intensity,
		))
	}

	raw, err := as.generator.GenerateText(ctx, "", buildPredictionPrompt(history))
	if err != nil {
		as.log.Warn("Prediction generation failed, returning fallback", "user_id", userID, "error", err)
		out := fallbackPrediction
		return &out, nil
	}

	var decoded struct {
		Prediction string   `json:"prediction"`
		Advice     []string `json:"advice"`
	}
	if err := json.Unmarshal([]byte(stripMarkdownFences(raw)), &decoded); err != nil || strings.TrimSpace(decoded.Prediction) == "" {
		as.log.Warn("Prediction response unparseable, returning fallback", "user_id", userID, "error", err)
		out := fallbackPrediction
		return &out, nil
	}

	return &Prediction{
		Prediction: decoded.Prediction,
		Advice:     decoded.Advice,
		Status:     "ready",
	}, nil
}

var genericPrompts = []SuggestedPrompt{
	{Prompt: "What's on your mind today?", Starter: "Right now, I'm thinking about..."},
	{Prompt: "How are you feeling?", Starter: "Today has felt..."},
}

func (as *analyticsService) SuggestedPrompts(ctx context.Context, userID uuid.UUID) ([]SuggestedPrompt, error) {
	latest, err := as.entryRepo.ListLatestByUser(dbctx.Context{Ctx: ctx}, userID, promptsContextRows)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodePersistenceFailure, err)
	}
	if len(latest) == 0 {
		return append([]SuggestedPrompt(nil), genericPrompts...), nil
	}

	contents := make([]string, 0, len(latest))
	for _, e := range latest {
		contents = append(contents, e.Content)
	}

	raw, err := as.generator.GenerateText(ctx, "", buildSuggestedPromptsPrompt(contents))
	if err != nil {
		as.log.Warn("Suggested prompt generation failed, returning generic prompts", "user_id", userID, "error", err)
		return append([]SuggestedPrompt(nil), genericPrompts...), nil
	}

	var decoded []SuggestedPrompt
	if err := json.Unmarshal([]byte(stripMarkdownFences(raw)), &decoded); err != nil || len(decoded) == 0 {
		as.log.Warn("Suggested prompt response unparseable, returning generic prompts", "user_id", userID, "error", err)
		return append([]SuggestedPrompt(nil), genericPrompts...), nil
	}
	if len(decoded) > 3 {
		decoded = decoded[:3]
	}
	return decoded, nil
}

func (as *analyticsService) Overview(ctx context.Context, userID uuid.UUID) (*Overview, error) {
	out := &Overview{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		stats, err := as.RollingAverage(gctx, userID)
		if err != nil {
			return err
		}
		out.AverageMood = stats.AverageMood7d
		return nil
	})
	g.Go(func() error {
		trend, err := as.DailyTrend(gctx, userID)
		if err != nil {
			return err
		}
		out.Trend = trend
		return nil
	})
	g.Go(func() error {
		insights, err := as.Insights(gctx, userID)
		if err != nil {
			return err
		}
		out.Insights = insights
		return nil
	})
	g.Go(func() error {
		dist, err := as.TriggerDistribution(gctx, userID)
		if err != nil {
			return err
		}
		out.TriggerDistribution = dist
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func populationVariance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var acc float64
	for _, v := range values {
		d := v - mean
		acc += d * d
	}
	return acc / float64(len(values))
}

func classifyStability(variance float64) string {
	switch {
	case variance < 1:
		return "High"
	case variance < 4:
		return "Moderate"
	default:
		return "Low"
	}
}

// splitTriggers normalizes one comma-delimited trigger string: split, trim,
// title-case. The "Unknown" sentinel and empty strings produce nothing.
func splitTriggers(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == defaultTriggers {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = titleCase(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// collectTriggers returns the de-duplicated normalized triggers across a
// window, in first-seen order.
func collectTriggers(sentiments []*domain.Sentiment) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, s := range sentiments {
		for _, t := range splitTriggers(s.Triggers) {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

func truncateTrigger(t string) string {
	if len(t) > triggerMaxLen {
		return t[:triggerTruncLen] + ".."
	}
	return t
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
