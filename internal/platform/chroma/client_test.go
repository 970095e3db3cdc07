package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/shamss11/pychiatrist-backend/internal/pkg/logger"
)

type fakeRoundTripper struct {
	lastReq  *http.Request
	lastBody []byte
	status   int
	body     string
}

func (f *fakeRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	f.lastReq = req
	if req.Body != nil {
		f.lastBody, _ = io.ReadAll(req.Body)
	}
	return &http.Response{
		StatusCode: f.status,
		Body:       io.NopCloser(strings.NewReader(f.body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}, nil
}

func testClient(t *testing.T, rt *fakeRoundTripper) *client {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	cfg := Config{URL: "http://chroma:8001", Collection: "clinical_knowledge"}
	return &client{
		log:     log,
		cfg:     cfg,
		baseURL: cfg.URL,
		http:    &http.Client{Transport: rt},
	}
}

func TestQueryRequestShape(t *testing.T) {
	rt := &fakeRoundTripper{status: 200, body: `{"documents": [[]], "metadatas": [[]]}`}
	c := testClient(t, rt)

	if _, err := c.Query(context.Background(), "stress management", 4); err != nil {
		t.Fatalf("Query: %v", err)
	}

	if rt.lastReq.Method != http.MethodPost {
		t.Fatalf("method: got=%s", rt.lastReq.Method)
	}
	wantPath := "/api/v1/collections/clinical_knowledge/query"
	if rt.lastReq.URL.Path != wantPath {
		t.Fatalf("path: want=%q got=%q", wantPath, rt.lastReq.URL.Path)
	}
	if ct := rt.lastReq.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type: got=%q", ct)
	}

	var sent struct {
		QueryTexts []string `json:"query_texts"`
		NResults   int      `json:"n_results"`
		Include    []string `json:"include"`
	}
	if err := json.NewDecoder(bytes.NewReader(rt.lastBody)).Decode(&sent); err != nil {
		t.Fatalf("decode sent body: %v", err)
	}
	if len(sent.QueryTexts) != 1 || sent.QueryTexts[0] != "stress management" {
		t.Fatalf("query_texts: got=%v", sent.QueryTexts)
	}
	if sent.NResults != 4 {
		t.Fatalf("n_results: want=4 got=%d", sent.NResults)
	}
	if len(sent.Include) != 2 || sent.Include[0] != "documents" || sent.Include[1] != "metadatas" {
		t.Fatalf("include: got=%v", sent.Include)
	}
}

func TestQueryDefaultsTopK(t *testing.T) {
	rt := &fakeRoundTripper{status: 200, body: `{"documents": [[]]}`}
	c := testClient(t, rt)

	if _, err := c.Query(context.Background(), "q", 0); err != nil {
		t.Fatalf("Query: %v", err)
	}
	var sent struct {
		NResults int `json:"n_results"`
	}
	if err := json.Unmarshal(rt.lastBody, &sent); err != nil {
		t.Fatalf("decode sent body: %v", err)
	}
	if sent.NResults != 3 {
		t.Fatalf("n_results default: want=3 got=%d", sent.NResults)
	}
}

func TestQueryMapsNestedResults(t *testing.T) {
	rt := &fakeRoundTripper{status: 200, body: `{
		"documents": [["first chunk", "second chunk"]],
		"metadatas": [[{"source": "Beck 1979"}, {"source": "Harvard Study"}]]
	}`}
	c := testClient(t, rt)

	docs, err := c.Query(context.Background(), "q", 2)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("documents: want=2 got=%d", len(docs))
	}
	if docs[0].Text != "first chunk" || docs[0].Metadata["source"] != "Beck 1979" {
		t.Fatalf("first doc: got=%+v", docs[0])
	}
	if docs[1].Text != "second chunk" || docs[1].Metadata["source"] != "Harvard Study" {
		t.Fatalf("second doc: got=%+v", docs[1])
	}
}

func TestQueryToleratesMissingMetadata(t *testing.T) {
	rt := &fakeRoundTripper{status: 200, body: `{"documents": [["only chunk"]]}`}
	c := testClient(t, rt)

	docs, err := c.Query(context.Background(), "q", 1)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(docs) != 1 || docs[0].Metadata != nil {
		t.Fatalf("docs: got=%+v", docs)
	}
}

func TestQueryEmptyResponse(t *testing.T) {
	rt := &fakeRoundTripper{status: 200, body: `{"documents": []}`}
	c := testClient(t, rt)

	docs, err := c.Query(context.Background(), "q", 3)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("docs: want=0 got=%d", len(docs))
	}
}

func TestQueryErrorStatus(t *testing.T) {
	rt := &fakeRoundTripper{status: 500, body: `{"error": "collection not found"}`}
	c := testClient(t, rt)

	_, err := c.Query(context.Background(), "q", 3)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "status=500") {
		t.Fatalf("error must carry the status: got=%v", err)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		wantCode ConfigErrorCode
	}{
		{"valid", Config{URL: "http://chroma:8001", Collection: "c"}, ""},
		{"missing url", Config{Collection: "c"}, ConfigErrorMissingURL},
		{"relative url", Config{URL: "not-a-url", Collection: "c"}, ConfigErrorInvalidURL},
		{"missing collection", Config{URL: "http://chroma:8001"}, ConfigErrorMissingCollection},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig(tt.cfg)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("ValidateConfig: %v", err)
				}
				return
			}
			cerr, ok := err.(*ConfigError)
			if !ok {
				t.Fatalf("error type: got=%T (%v)", err, err)
			}
			if cerr.Code != tt.wantCode {
				t.Fatalf("code: want=%q got=%q", tt.wantCode, cerr.Code)
			}
		})
	}
}
