package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/shamss11/pychiatrist-backend/internal/domain"
	"github.com/shamss11/pychiatrist-backend/internal/pkg/apierr"
	"github.com/shamss11/pychiatrist-backend/internal/pkg/dbctx"
	"github.com/shamss11/pychiatrist-backend/internal/pkg/logger"
	"github.com/shamss11/pychiatrist-backend/internal/platform/gemini"
	"github.com/shamss11/pychiatrist-backend/internal/repos"
)

type SentimentResult struct {
	Emotion   string  `json:"emotion"`
	Intensity float64 `json:"intensity"`
	Triggers  string  `json:"triggers"`
}

// SubmissionResult is the outward shape of one processed submission. A crisis
// result carries only the safety response; nothing is persisted for it.
type SubmissionResult struct {
	Reply      string           `json:"response"`
	IsCrisis   bool             `json:"is_crisis"`
	Sentiment  *SentimentResult `json:"sentiment,omitempty"`
	Sources    []string         `json:"sources,omitempty"`
	Disclaimer string           `json:"disclaimer,omitempty"`
}

type HistoryItem struct {
	ID        uuid.UUID       `json:"id"`
	Content   string          `json:"content"`
	Reply     string          `json:"ai_response"`
	CreatedAt string          `json:"created_at"`
	Sentiment SentimentResult `json:"sentiment"`
}

type DeepDiveResult struct {
	Analysis string   `json:"analysis"`
	Sources  []string `json:"sources"`
}

type JournalService interface {
	Submit(ctx context.Context, userID uuid.UUID, content string) (*SubmissionResult, error)
	History(ctx context.Context, userID uuid.UUID) ([]HistoryItem, error)
	DeepDive(ctx context.Context, topic string) (*DeepDiveResult, error)
}

type journalService struct {
	db        *gorm.DB
	log       *logger.Logger
	entryRepo repos.EntryRepo
	retriever ContextRetriever
	generator gemini.Generator
}

func NewJournalService(db *gorm.DB, log *logger.Logger, entryRepo repos.EntryRepo, retriever ContextRetriever, generator gemini.Generator) JournalService {
	return &journalService{
		db:        db,
		log:       log.With("service", "JournalService"),
		entryRepo: entryRepo,
		retriever: retriever,
		generator: generator,
	}
}

func (js *journalService) Submit(ctx context.Context, userID uuid.UUID, content string) (*SubmissionResult, error) {
	if userID == uuid.Nil {
		return nil, apierr.New(http.StatusBadRequest, apierr.CodeInvalidArgument, fmt.Errorf("user_id required"))
	}
	if strings.TrimSpace(content) == "" {
		return nil, apierr.New(http.StatusBadRequest, apierr.CodeInvalidArgument, fmt.Errorf("content required"))
	}

	verdict := SafetyScreen(content)
	if verdict.IsCrisis {
		js.log.Info("Crisis gate tripped, submission short-circuited", "user_id", userID)
		return &SubmissionResult{Reply: verdict.Response, IsCrisis: true}, nil
	}

	// A retrieval outage degrades to an ungrounded reply rather than failing
	// the submission.
	snippets, err := js.retriever.Retrieve(ctx, content, 0)
	if err != nil {
		js.log.Warn("Knowledge store unavailable, continuing without context", "user_id", userID, "error", err)
		snippets = nil
	}

	systemPrompt := buildJournalSystemPrompt(snippets)
	rawText, err := js.generator.GenerateText(ctx, systemPrompt, content)
	if err != nil {
		return nil, apierr.New(http.StatusBadGateway, apierr.CodeGenerationFailure, err)
	}

	extracted := ExtractSentiment(rawText)
	if extracted.Fallback {
		js.log.Debug("Sentiment block missing or malformed, stored defaults", "user_id", userID)
	}

	sources := make([]string, 0, len(snippets))
	for _, s := range snippets {
		sources = append(sources, s.Source)
	}

	entry := &domain.Entry{
		UserID:  userID,
		Content: content,
		Reply:   extracted.VisibleText,
	}
	if len(sources) > 0 {
		if raw, err := json.Marshal(sources); err == nil {
			entry.Sources = datatypes.JSON(raw)
		}
	}
	sentiment := &domain.Sentiment{
		Emotion:   extracted.Emotion,
		Intensity: extracted.Intensity,
		Triggers:  extracted.Triggers,
	}
	if err := js.entryRepo.CreateWithSentiment(dbctx.Context{Ctx: ctx}, entry, sentiment); err != nil {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodePersistenceFailure, err)
	}

	return &SubmissionResult{
		Reply:    extracted.VisibleText,
		IsCrisis: false,
		Sentiment: &SentimentResult{
			Emotion:   extracted.Emotion,
			Intensity: extracted.Intensity,
			Triggers:  extracted.Triggers,
		},
		Sources:    sources,
		Disclaimer: Disclaimer,
	}, nil
}

func (js *journalService) History(ctx context.Context, userID uuid.UUID) ([]HistoryItem, error) {
	entries, err := js.entryRepo.ListLatestByUser(dbctx.Context{Ctx: ctx}, userID, 0)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodePersistenceFailure, err)
	}

	out := make([]HistoryItem, 0, len(entries))
	for _, e := range entries {
		item := HistoryItem{
			ID:        e.ID,
			Content:   e.Content,
			Reply:     e.Reply,
			CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339),
			Sentiment: SentimentResult{Emotion: "Unknown"},
		}
		if e.Sentiment != nil {
			item.Sentiment = SentimentResult{
				Emotion:   e.Sentiment.Emotion,
				Intensity: e.Sentiment.Intensity,
				Triggers:  e.Sentiment.Triggers,
			}
		}
		out = append(out, item)
	}
	return out, nil
}

func (js *journalService) DeepDive(ctx context.Context, topic string) (*DeepDiveResult, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, apierr.New(http.StatusBadRequest, apierr.CodeInvalidArgument, fmt.Errorf("topic required"))
	}

	snippets, err := js.retriever.Retrieve(ctx, topic, 5)
	if err != nil {
		js.log.Warn("Knowledge store unavailable for deep dive", "error", err)
		snippets = nil
	}

	analysis, err := js.generator.GenerateText(ctx, "", buildDeepDivePrompt(topic, snippets))
	if err != nil {
		return nil, apierr.New(http.StatusBadGateway, apierr.CodeGenerationFailure, err)
	}

	sources := make([]string, 0, len(snippets))
	for _, s := range snippets {
		sources = append(sources, s.Source)
	}
	return &DeepDiveResult{
		Analysis: strings.TrimSpace(analysis),
		Sources:  sources,
	}, nil
}
