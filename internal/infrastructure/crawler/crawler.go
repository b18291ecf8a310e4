package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"StockNewsTracker/internal/domain"
	"StockNewsTracker/internal/scanner"
)

const defaultMaxArticles = 10

// selectors are the CSS paths a site configuration supplies for one listing
// page. Container and title/link are mandatory; summary and date optional.
type selectors struct {
	Container string
	Title     string
	Link      string
	Summary   string
	Date      string
	Max       int
}

func selectorsFromOptions(opts map[string]string) (selectors, error) {
	sel := selectors{
		Container: opts["container"],
		Title:     opts["title"],
		Link:      opts["link"],
		Summary:   opts["summary"],
		Date:      opts["date"],
		Max:       defaultMaxArticles,
	}
	if sel.Container == "" || sel.Title == "" || sel.Link == "" {
		return sel, fmt.Errorf("container, title and link selectors are required")
	}
	if raw := opts["max_articles"]; raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			sel.Max = n
		}
	}
	return sel, nil
}

// Scanner extracts candidate articles from arbitrary listing pages using the
// CSS selectors supplied per site.
type Scanner struct {
	client *http.Client
	logger *slog.Logger
}

var _ scanner.Scanner = (*Scanner)(nil)

// NewScanner wires an HTTP client; a nil client gets a 30s-timeout default.
func NewScanner(client *http.Client, logger *slog.Logger) *Scanner {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{client: client, logger: logger}
}

// Name identifies the strategy inside the registry.
func (s *Scanner) Name() string {
	return "html"
}

// Scan fetches the listing page and extracts up to max_articles candidates.
// Containers without a title are skipped.
func (s *Scanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	sel, err := selectorsFromOptions(req.Options)
	if err != nil {
		return nil, fmt.Errorf("site %s: %w", req.SiteName, err)
	}

	doc, err := s.fetchDocument(ctx, req.URL)
	if err != nil {
		return nil, fmt.Errorf("site %s: %w", req.SiteName, err)
	}

	base, err := url.Parse(req.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url %s: %w", req.URL, err)
	}

	var results []domain.Article
	doc.Find(sel.Container).EachWithBreak(func(i int, container *goquery.Selection) bool {
		if len(results) >= sel.Max {
			return false
		}

		title := strings.TrimSpace(container.Find(sel.Title).First().Text())
		if title == "" {
			return true
		}

		href, _ := container.Find(sel.Link).First().Attr("href")
		href = resolveLink(base, href)
		if href == "" {
			return true
		}

		var summary string
		if sel.Summary != "" {
			summary = strings.TrimSpace(container.Find(sel.Summary).First().Text())
		}
		var published string
		if sel.Date != "" {
			published = strings.TrimSpace(container.Find(sel.Date).First().Text())
		}

		results = append(results, domain.Article{
			Title:       title,
			URL:         href,
			Summary:     summary,
			Source:      req.SiteName,
			PublishedAt: published,
		})
		return true
	})

	s.logger.Debug("page scanned", "site", req.SiteName, "articles", len(results))
	return results, nil
}

func (s *Scanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "StockNewsTracker/1.0")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
