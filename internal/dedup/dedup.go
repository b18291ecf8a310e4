package dedup

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"StockNewsTracker/internal/domain"
	"StockNewsTracker/internal/ports"
)

// Decision classifies an incoming article against already persisted ones.
type Decision int

const (
	New Decision = iota
	DuplicateByKey
	DuplicateByFingerprint
)

func (d Decision) String() string {
	switch d {
	case DuplicateByKey:
		return "duplicate_by_key"
	case DuplicateByFingerprint:
		return "duplicate_by_fingerprint"
	default:
		return "new"
	}
}

// Fingerprint returns the md5 hex digest over title+summary. It guards
// against the same story republished under a different URL; hash collisions
// are accepted as an over-deduplication trade-off.
func Fingerprint(title, summary string) string {
	sum := md5.Sum([]byte(title + summary))
	return hex.EncodeToString(sum[:])
}

// Engine decides whether an article has been seen before. The persistent
// store is the authority; the store-level uniqueness constraint closes the
// remaining check-then-insert race across processes.
type Engine struct {
	repo ports.ArticleRepository
}

// NewEngine wires the repository the lookups run against.
func NewEngine(repo ports.ArticleRepository) *Engine {
	return &Engine{repo: repo}
}

// Admit checks the natural key first (cheap, indexed), then the content
// fingerprint. Either match short-circuits to a duplicate decision and
// returns the already stored article.
func (e *Engine) Admit(ctx context.Context, article domain.Article) (Decision, *domain.Article, error) {
	existing, err := e.repo.FindByURL(ctx, article.URL)
	if err != nil {
		return New, nil, fmt.Errorf("lookup by url: %w", err)
	}
	if existing != nil {
		return DuplicateByKey, existing, nil
	}

	hash := article.ContentHash
	if hash == "" {
		hash = Fingerprint(article.Title, article.Summary)
	}
	existing, err = e.repo.FindByContentHash(ctx, hash)
	if err != nil {
		return New, nil, fmt.Errorf("lookup by fingerprint: %w", err)
	}
	if existing != nil {
		return DuplicateByFingerprint, existing, nil
	}

	return New, nil, nil
}
