package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shamss11/pychiatrist-backend/internal/pkg/logger"
)

const maxErrorBodyBytes = 1024

// Document is one ranked result from the knowledge store. Metadata keys are
// whatever the ingester attached; "source" is the only one this backend reads.
type Document struct {
	Text     string
	Metadata map[string]any
}

// Store is the knowledge-store boundary. Embedding model choice, indexing and
// chunk persistence all live behind it.
type Store interface {
	Query(ctx context.Context, text string, topK int) ([]Document, error)
}

type client struct {
	log     *logger.Logger
	cfg     Config
	baseURL string
	http    *http.Client
}

type queryRequest struct {
	QueryTexts []string `json:"query_texts"`
	NResults   int      `json:"n_results"`
	Include    []string `json:"include"`
}

type queryResponse struct {
	Documents [][]string         `json:"documents"`
	Metadatas [][]map[string]any `json:"metadatas"`
}

func NewClient(log *logger.Logger, cfg Config) (Store, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	c := &client{
		log:     log.With("service", "ChromaStore"),
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.URL, "/"),
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	log.Info(
		"Chroma knowledge store selected",
		"url", c.baseURL,
		"collection", cfg.Collection,
	)
	return c, nil
}

func (c *client) Query(ctx context.Context, text string, topK int) ([]Document, error) {
	if topK <= 0 {
		topK = 3
	}

	req := queryRequest{
		QueryTexts: []string{text},
		NResults:   topK,
		Include:    []string{"documents", "metadatas"},
	}

	var resp queryResponse
	path := fmt.Sprintf("/api/v1/collections/%s/query", c.cfg.Collection)
	if err := c.doJSON(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}

	// Results arrive nested per query text; this client always sends one.
	if len(resp.Documents) == 0 {
		return nil, nil
	}
	docs := resp.Documents[0]
	var metas []map[string]any
	if len(resp.Metadatas) > 0 {
		metas = resp.Metadatas[0]
	}

	out := make([]Document, 0, len(docs))
	for i, d := range docs {
		doc := Document{Text: d}
		if i < len(metas) {
			doc.Metadata = metas[i]
		}
		out = append(out, doc)
	}
	return out, nil
}

func (c *client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("chroma: encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("chroma: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("chroma: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return fmt.Errorf("chroma: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("chroma: decode response: %w", err)
	}
	return nil
}
