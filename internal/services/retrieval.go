package services

import (
	"context"
	"strings"

	"github.com/shamss11/pychiatrist-backend/internal/platform/chroma"
	"github.com/shamss11/pychiatrist-backend/internal/pkg/logger"
)

const (
	defaultRetrievalK = 3
	maxRetrievalK     = 10
	unknownSource     = "Unknown Source"
)

// Snippet is a retrieved reference passage with its provenance.
type Snippet struct {
	Content string `json:"content"`
	Source  string `json:"source"`
}

type ContextRetriever interface {
	// Retrieve returns up to k snippets in store-assigned relevance order.
	// Prompt assembly cites sources positionally, so order is preserved
	// exactly as returned by the store.
	Retrieve(ctx context.Context, query string, k int) ([]Snippet, error)
}

type contextRetriever struct {
	log   *logger.Logger
	store chroma.Store
}

func NewContextRetriever(log *logger.Logger, store chroma.Store) ContextRetriever {
	return &contextRetriever{
		log:   log.With("service", "ContextRetriever"),
		store: store,
	}
}

func (cr *contextRetriever) Retrieve(ctx context.Context, query string, k int) ([]Snippet, error) {
	if k <= 0 {
		k = defaultRetrievalK
	}
	if k > maxRetrievalK {
		k = maxRetrievalK
	}

	docs, err := cr.store.Query(ctx, query, k)
	if err != nil {
		return nil, err
	}

	out := make([]Snippet, 0, len(docs))
	for _, doc := range docs {
		if strings.TrimSpace(doc.Text) == "" {
			continue
		}
		source := unknownSource
		if doc.Metadata != nil {
			if s, ok := doc.Metadata["source"].(string); ok && strings.TrimSpace(s) != "" {
				source = s
			}
		}
		out = append(out, Snippet{Content: doc.Text, Source: source})
	}
	return out, nil
}
