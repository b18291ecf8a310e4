package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"StockNewsTracker/internal/config"
	"StockNewsTracker/internal/remote"
)

func newTestGemini(endpoint string) *GeminiClient {
	cfg := config.GeminiConfig{Endpoint: endpoint, Model: "gemini-1.5-flash", APIKey: "key"}
	exec := remote.New(remote.Config{DailyLimit: 100, BackoffBase: time.Millisecond}, nil, nil)
	return NewGeminiClient(cfg, exec)
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	var gotPath, gotKey string
	var gotBody generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"candidates": [{"content": {"parts": [{"text": "Tóm tắt "}, {"text": "bài viết."}]}}]}`))
	}))
	defer srv.Close()

	c := newTestGemini(srv.URL)
	out, err := c.Generate(context.Background(), "hãy tóm tắt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Tóm tắt bài viết." {
		t.Fatalf("output = %q", out)
	}
	if gotPath != "/models/gemini-1.5-flash:generateContent" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotKey != "key" {
		t.Fatalf("api key header = %q", gotKey)
	}
	if len(gotBody.Contents) != 1 || gotBody.Contents[0].Parts[0].Text != "hãy tóm tắt" {
		t.Fatalf("request body = %+v", gotBody)
	}
}

func TestGenerateNoCandidates(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": []}`))
	}))
	defer srv.Close()

	c := newTestGemini(srv.URL)
	if _, err := c.Generate(context.Background(), "p"); err == nil {
		t.Fatal("empty candidate list must be an error")
	}
}

func TestGenerateRequiresAPIKey(t *testing.T) {
	t.Parallel()

	c := newTestGemini("https://example.com")
	c.cfg.APIKey = ""
	if _, err := c.Generate(context.Background(), "p"); err == nil {
		t.Fatal("missing api key must be rejected before any call")
	}
}
