package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shamss11/pychiatrist-backend/internal/domain"
)

var analyticsNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newAnalyticsForTest(t *testing.T, repo *fakeEntryRepo, gen *fakeGenerator) *analyticsService {
	t.Helper()
	return &analyticsService{
		log:       testLogger(t),
		entryRepo: repo,
		generator: gen,
		cache:     nil,
		now:       func() time.Time { return analyticsNow },
	}
}

func entryAt(at time.Time, emotion string, intensity float64, triggers string) *domain.Entry {
	return &domain.Entry{
		ID:        uuid.New(),
		Content:   "entry",
		CreatedAt: at,
		Sentiment: &domain.Sentiment{Emotion: emotion, Intensity: intensity, Triggers: triggers},
	}
}

func TestRollingAverage(t *testing.T) {
	tests := []struct {
		name        string
		intensities []float64
		want        float64
	}{
		{"three entries", []float64{3, 5, 7}, 5.0},
		{"single entry", []float64{6}, 6.0},
		{"rounds to two places", []float64{4, 4, 5}, 4.33},
		{"empty window", nil, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeEntryRepo{}
			for i, v := range tt.intensities {
				repo.entries = append(repo.entries, entryAt(analyticsNow.Add(-time.Duration(i+1)*time.Hour), "Calm", v, ""))
			}
			svc := newAnalyticsForTest(t, repo, &fakeGenerator{})

			stats, err := svc.RollingAverage(context.Background(), uuid.New())
			if err != nil {
				t.Fatalf("RollingAverage: %v", err)
			}
			if stats.AverageMood7d != tt.want {
				t.Fatalf("average: want=%v got=%v", tt.want, stats.AverageMood7d)
			}
		})
	}
}

func TestRollingAverageIgnoresEntriesOutsideWindow(t *testing.T) {
	repo := &fakeEntryRepo{entries: []*domain.Entry{
		entryAt(analyticsNow.Add(-8*24*time.Hour), "Angry", 10, ""),
		entryAt(analyticsNow.Add(-time.Hour), "Calm", 4, ""),
	}}
	svc := newAnalyticsForTest(t, repo, &fakeGenerator{})

	stats, err := svc.RollingAverage(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("RollingAverage: %v", err)
	}
	if stats.AverageMood7d != 4.0 {
		t.Fatalf("stale entry leaked into window: got=%v", stats.AverageMood7d)
	}
}

func TestDailyTrendGroupsByDay(t *testing.T) {
	day1 := time.Date(2025, 6, 13, 9, 0, 0, 0, time.UTC)  // Friday
	day2 := time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC) // Saturday
	repo := &fakeEntryRepo{entries: []*domain.Entry{
		entryAt(day1, "Anxious", 6, ""),
		entryAt(day1.Add(5*time.Hour), "Calm", 7, ""),
		entryAt(day2, "Hopeful", 8, ""),
	}}
	svc := newAnalyticsForTest(t, repo, &fakeGenerator{})

	trend, err := svc.DailyTrend(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("DailyTrend: %v", err)
	}
	if len(trend) != 2 {
		t.Fatalf("points: want=2 got=%d", len(trend))
	}
	first := trend[0]
	if first.FullDate != "2025-06-13" || first.Day != "Fri" {
		t.Fatalf("first point date: got=%+v", first)
	}
	if first.Score != 6.5 {
		t.Fatalf("day average: want=6.5 got=%v", first.Score)
	}
	// The day's emotion is the first one recorded that day.
	if first.Emotion != "Anxious" {
		t.Fatalf("day emotion: want=Anxious got=%q", first.Emotion)
	}
	if trend[1].FullDate != "2025-06-14" || trend[1].Score != 8.0 || trend[1].Emotion != "Hopeful" {
		t.Fatalf("second point: got=%+v", trend[1])
	}
}

func TestInsightsEmptyWindow(t *testing.T) {
	svc := newAnalyticsForTest(t, &fakeEntryRepo{}, &fakeGenerator{})

	got, err := svc.Insights(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Insights: %v", err)
	}
	want := Insights{
		TopEmotion:     "Neutral",
		Stability:      "Pending",
		TriggerSummary: "Not enough data yet.",
		InsightMessage: "Document your first few days to see behavioral patterns.",
	}
	if *got != want {
		t.Fatalf("empty insights: want=%+v got=%+v", want, *got)
	}
}

func TestInsightsStability(t *testing.T) {
	tests := []struct {
		name        string
		intensities []float64
		want        string
	}{
		{"flat", []float64{5, 5, 5}, "High"},
		{"small spread", []float64{4, 5, 6}, "High"},
		{"moderate spread", []float64{4, 6, 4, 6}, "Moderate"},
		{"oscillating", []float64{2, 8, 2, 8}, "Low"},
		{"wide spread", []float64{1, 5, 9}, "Low"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeEntryRepo{}
			for i, v := range tt.intensities {
				repo.entries = append(repo.entries, entryAt(analyticsNow.Add(-time.Duration(i+1)*time.Hour), "Calm", v, ""))
			}
			svc := newAnalyticsForTest(t, repo, &fakeGenerator{})

			got, err := svc.Insights(context.Background(), uuid.New())
			if err != nil {
				t.Fatalf("Insights: %v", err)
			}
			if got.Stability != tt.want {
				t.Fatalf("stability: want=%q got=%q", tt.want, got.Stability)
			}
		})
	}
}

func TestInsightsTopEmotionFirstSeenTieBreak(t *testing.T) {
	repo := &fakeEntryRepo{entries: []*domain.Entry{
		entryAt(analyticsNow.Add(-3*time.Hour), "Anxious", 5, ""),
		entryAt(analyticsNow.Add(-2*time.Hour), "Calm", 5, ""),
		entryAt(analyticsNow.Add(-1*time.Hour), "Calm", 5, ""),
		entryAt(analyticsNow.Add(-30*time.Minute), "Anxious", 5, ""),
	}}
	svc := newAnalyticsForTest(t, repo, &fakeGenerator{})

	got, err := svc.Insights(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Insights: %v", err)
	}
	if got.TopEmotion != "Anxious" {
		t.Fatalf("tie must resolve to the earliest-seen emotion: got=%q", got.TopEmotion)
	}
	if got.InsightMessage != "Your emotional landscape is currently dominated by anxious states with high stability." {
		t.Fatalf("insight message: got=%q", got.InsightMessage)
	}
}

func TestInsightsTriggerSummary(t *testing.T) {
	repo := &fakeEntryRepo{entries: []*domain.Entry{
		entryAt(analyticsNow.Add(-4*time.Hour), "Tense", 6, "work, family"),
		entryAt(analyticsNow.Add(-3*time.Hour), "Tense", 6, "Work"),
		entryAt(analyticsNow.Add(-2*time.Hour), "Tense", 6, "overwhelming deadlines at the office"),
		entryAt(analyticsNow.Add(-1*time.Hour), "Tense", 6, "sleep"),
	}}
	svc := newAnalyticsForTest(t, repo, &fakeGenerator{})

	got, err := svc.Insights(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Insights: %v", err)
	}
	// First three distinct triggers in first-seen order, long names truncated.
	want := "Work, Family, Overwhelming De.."
	if got.TriggerSummary != want {
		t.Fatalf("trigger summary: want=%q got=%q", want, got.TriggerSummary)
	}
}

func TestInsightsNoTriggers(t *testing.T) {
	repo := &fakeEntryRepo{entries: []*domain.Entry{
		entryAt(analyticsNow.Add(-2*time.Hour), "Calm", 5, "Unknown"),
		entryAt(analyticsNow.Add(-1*time.Hour), "Calm", 5, ""),
	}}
	svc := newAnalyticsForTest(t, repo, &fakeGenerator{})

	got, err := svc.Insights(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Insights: %v", err)
	}
	if got.TriggerSummary != "None identified" {
		t.Fatalf("trigger summary: got=%q", got.TriggerSummary)
	}
}

func TestTriggerDistribution(t *testing.T) {
	repo := &fakeEntryRepo{entries: []*domain.Entry{
		entryAt(analyticsNow.Add(-3*time.Hour), "Tense", 6, "Work, Family"),
		entryAt(analyticsNow.Add(-2*time.Hour), "Tense", 5, "work"),
		entryAt(analyticsNow.Add(-1*time.Hour), "Tired", 4, "Sleep"),
	}}
	svc := newAnalyticsForTest(t, repo, &fakeGenerator{})

	got, err := svc.TriggerDistribution(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("TriggerDistribution: %v", err)
	}
	want := []TriggerCount{{"Work", 2}, {"Family", 1}, {"Sleep", 1}}
	if len(got) != len(want) {
		t.Fatalf("distribution length: want=%d got=%d (%v)", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("distribution[%d]: want=%+v got=%+v", i, want[i], got[i])
		}
	}
}

func TestPredictionAccumulating(t *testing.T) {
	repo := &fakeEntryRepo{entries: []*domain.Entry{
		entryAt(analyticsNow.Add(-2*time.Hour), "Calm", 5, ""),
		entryAt(analyticsNow.Add(-1*time.Hour), "Calm", 5, ""),
	}}
	gen := &fakeGenerator{}
	svc := newAnalyticsForTest(t, repo, gen)

	got, err := svc.Prediction(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Prediction: %v", err)
	}
	if got.Status != "accumulating" {
		t.Fatalf("status: want=accumulating got=%q", got.Status)
	}
	if got.Prediction != "Insufficient data for clinical prediction. Keep journaling!" {
		t.Fatalf("prediction text: got=%q", got.Prediction)
	}
	if gen.calls != 0 {
		t.Fatalf("thin history must not reach the model, got %d calls", gen.calls)
	}
}

func TestPredictionReady(t *testing.T) {
	repo := &fakeEntryRepo{entries: []*domain.Entry{
		entryAt(analyticsNow.Add(-3*time.Hour), "Anxious", 7, ""),
		entryAt(analyticsNow.Add(-2*time.Hour), "Calm", 4, ""),
		entryAt(analyticsNow.Add(-1*time.Hour), "Hopeful", 6, ""),
	}}
	gen := &fakeGenerator{response: "```json\n{\"prediction\": \"Mood likely steady.\", \"advice\": [\"Keep current sleep schedule\"]}\n```"}
	svc := newAnalyticsForTest(t, repo, gen)

	got, err := svc.Prediction(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Prediction: %v", err)
	}
	if got.Status != "ready" || got.Prediction != "Mood likely steady." {
		t.Fatalf("prediction: got=%+v", got)
	}
	if len(got.Advice) != 1 || got.Advice[0] != "Keep current sleep schedule" {
		t.Fatalf("advice: got=%v", got.Advice)
	}
}

func TestPredictionFallsBackOnProviderFailure(t *testing.T) {
	repo := &fakeEntryRepo{entries: []*domain.Entry{
		entryAt(analyticsNow.Add(-3*time.Hour), "Calm", 5, ""),
		entryAt(analyticsNow.Add(-2*time.Hour), "Calm", 5, ""),
		entryAt(analyticsNow.Add(-1*time.Hour), "Calm", 5, ""),
	}}

	t.Run("provider error", func(t *testing.T) {
		svc := newAnalyticsForTest(t, repo, &fakeGenerator{err: errors.New("overloaded")})
		got, err := svc.Prediction(context.Background(), uuid.New())
		if err != nil {
			t.Fatalf("Prediction: %v", err)
		}
		if got.Status != "fallback" || len(got.Advice) != 3 {
			t.Fatalf("fallback payload: got=%+v", got)
		}
	})

	t.Run("unparseable response", func(t *testing.T) {
		svc := newAnalyticsForTest(t, repo, &fakeGenerator{response: "I cannot produce JSON today."})
		got, err := svc.Prediction(context.Background(), uuid.New())
		if err != nil {
			t.Fatalf("Prediction: %v", err)
		}
		if got.Status != "fallback" {
			t.Fatalf("status: want=fallback got=%q", got.Status)
		}
	})
}

func TestSuggestedPromptsNoHistory(t *testing.T) {
	gen := &fakeGenerator{}
	svc := newAnalyticsForTest(t, &fakeEntryRepo{}, gen)

	got, err := svc.SuggestedPrompts(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("SuggestedPrompts: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("generic prompts: want=2 got=%d", len(got))
	}
	if got[0].Prompt != "What's on your mind today?" {
		t.Fatalf("first generic prompt: got=%q", got[0].Prompt)
	}
	if gen.calls != 0 {
		t.Fatalf("empty history must not reach the model, got %d calls", gen.calls)
	}
}

func TestSuggestedPromptsTruncatesToThree(t *testing.T) {
	repo := &fakeEntryRepo{entries: []*domain.Entry{
		entryAt(analyticsNow.Add(-1*time.Hour), "Calm", 5, ""),
	}}
	gen := &fakeGenerator{response: `[
		{"prompt": "p1", "starter": "s1"},
		{"prompt": "p2", "starter": "s2"},
		{"prompt": "p3", "starter": "s3"},
		{"prompt": "p4", "starter": "s4"},
		{"prompt": "p5", "starter": "s5"}
	]`}
	svc := newAnalyticsForTest(t, repo, gen)

	got, err := svc.SuggestedPrompts(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("SuggestedPrompts: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("prompts: want=3 got=%d", len(got))
	}
	if got[2].Prompt != "p3" || got[2].Starter != "s3" {
		t.Fatalf("third prompt: got=%+v", got[2])
	}
}

func TestSuggestedPromptsFallsBackOnBadResponse(t *testing.T) {
	repo := &fakeEntryRepo{entries: []*domain.Entry{
		entryAt(analyticsNow.Add(-1*time.Hour), "Calm", 5, ""),
	}}
	svc := newAnalyticsForTest(t, repo, &fakeGenerator{response: "not json"})

	got, err := svc.SuggestedPrompts(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("SuggestedPrompts: %v", err)
	}
	if len(got) != 2 || got[1].Starter != "Today has felt..." {
		t.Fatalf("generic fallback: got=%+v", got)
	}
}

func TestOverviewAggregates(t *testing.T) {
	repo := &fakeEntryRepo{entries: []*domain.Entry{
		entryAt(analyticsNow.Add(-2*time.Hour), "Calm", 4, "Work"),
		entryAt(analyticsNow.Add(-1*time.Hour), "Calm", 6, "Work"),
	}}
	svc := newAnalyticsForTest(t, repo, &fakeGenerator{})

	got, err := svc.Overview(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if got.AverageMood != 5.0 {
		t.Fatalf("average: got=%v", got.AverageMood)
	}
	if len(got.Trend) != 1 {
		t.Fatalf("trend: got=%v", got.Trend)
	}
	if got.Insights == nil || got.Insights.TopEmotion != "Calm" {
		t.Fatalf("insights: got=%+v", got.Insights)
	}
	if len(got.TriggerDistribution) != 1 || got.TriggerDistribution[0] != (TriggerCount{"Work", 2}) {
		t.Fatalf("distribution: got=%v", got.TriggerDistribution)
	}
}
