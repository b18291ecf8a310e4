package rss

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"StockNewsTracker/internal/scanner"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Kinh doanh</title>
  <item>
    <title>HPG báo lãi kỷ lục</title>
    <link>https://example.com/news/1</link>
    <description>Lợi nhuận quý 2 vượt dự báo.</description>
    <pubDate>Sun, 30 Aug 2026 09:00:00 +0700</pubDate>
  </item>
  <item>
    <title></title>
    <link>https://example.com/news/2</link>
  </item>
  <item>
    <title>VNM chia cổ tức</title>
    <link>https://example.com/news/3</link>
  </item>
</channel>
</rss>`

func TestScanParsesFeed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(feedXML))
	}))
	defer srv.Close()

	s := NewScanner(nil)
	articles, err := s.Scan(context.Background(), scanner.Request{SiteName: "vnexpress", URL: srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The item without a title is skipped.
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}
	first := articles[0]
	if first.Title != "HPG báo lãi kỷ lục" || first.URL != "https://example.com/news/1" {
		t.Fatalf("first item = %+v", first)
	}
	if first.Summary != "Lợi nhuận quý 2 vượt dự báo." {
		t.Fatalf("summary = %q", first.Summary)
	}
	if first.Source != "vnexpress" {
		t.Fatalf("source = %q", first.Source)
	}
	if first.PublishedAt == "" {
		t.Fatal("published date must be carried through as raw text")
	}
}

func TestScanHonorsMaxArticles(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feedXML))
	}))
	defer srv.Close()

	s := NewScanner(nil)
	articles, err := s.Scan(context.Background(), scanner.Request{
		SiteName: "vnexpress",
		URL:      srv.URL,
		Options:  map[string]string{"max_articles": "1"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
}

func TestScanPropagatesFeedErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	s := NewScanner(nil)
	if _, err := s.Scan(context.Background(), scanner.Request{SiteName: "t", URL: srv.URL}); err == nil {
		t.Fatal("feed errors must propagate")
	}
}
