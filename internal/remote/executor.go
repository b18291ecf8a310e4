package remote

import (
	"bytes"
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// ErrRateLimited is returned when the daily call budget is exhausted. No
// network call is attempted; callers can distinguish it from a transport
// failure.
var ErrRateLimited = errors.New("remote: daily call budget exhausted")

// CallError wraps the last transport error after all retry attempts failed.
type CallError struct {
	Attempts int
	Err      error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("remote: call failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// Request describes one outbound provider call. Requests with identical
// method, URL and body share a cache slot within the current hour bucket.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Config tunes one executor instance. Zero values fall back to the defaults
// the providers expect: 250 calls/day, 3 attempts, 1h cache TTL, 30s timeout.
type Config struct {
	DailyLimit  int
	Attempts    int
	CacheTTL    time.Duration
	Timeout     time.Duration
	BackoffBase time.Duration
}

type cacheEntry struct {
	fetchedAt time.Time
	payload   []byte
}

// Executor wraps outbound provider calls with a daily call budget, an
// hour-bucketed response cache and retries with exponential backoff. Each
// provider gets its own instance; cache and counter are never shared across
// call types. Safe for concurrent use.
type Executor struct {
	client      *http.Client
	logger      *slog.Logger
	limit       int
	attempts    int
	ttl         time.Duration
	backoffBase time.Duration

	now   func() time.Time
	sleep func(context.Context, time.Duration) error

	mu    sync.Mutex
	day   string
	calls int
	cache map[string]cacheEntry
}

// New builds an executor. A nil client gets a default with the configured
// timeout applied.
func New(cfg Config, client *http.Client, logger *slog.Logger) *Executor {
	if cfg.DailyLimit <= 0 {
		cfg.DailyLimit = 250
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		client:      client,
		logger:      logger,
		limit:       cfg.DailyLimit,
		attempts:    cfg.Attempts,
		ttl:         cfg.CacheTTL,
		backoffBase: cfg.BackoffBase,
		now:         time.Now,
		sleep:       sleepContext,
		cache:       map[string]cacheEntry{},
	}
}

// Calls reports how many budgeted calls succeeded today.
func (e *Executor) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rollDayLocked()
	return e.calls
}

// Remaining reports how many calls are left in today's budget.
func (e *Executor) Remaining() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rollDayLocked()
	if left := e.limit - e.calls; left > 0 {
		return left
	}
	return 0
}

// Execute runs the call through the budget, cache and retry layers. A cache
// hit does not consume budget. The budget is checked before anything else so
// an exhausted executor fails fast.
func (e *Executor) Execute(ctx context.Context, req Request) ([]byte, error) {
	if e.exhausted() {
		return nil, ErrRateLimited
	}

	key := e.cacheKey(req)
	if payload, ok := e.cached(key); ok {
		e.logger.Debug("cache hit", "url", req.URL)
		return payload, nil
	}

	if err := e.reserve(); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < e.attempts; attempt++ {
		payload, err := e.do(ctx, req)
		if err == nil {
			e.store(key, payload)
			return payload, nil
		}
		lastErr = err
		e.logger.Warn("remote call failed", "url", req.URL, "attempt", attempt+1, "error", err)
		if attempt < e.attempts-1 {
			if serr := e.sleep(ctx, e.backoffBase<<attempt); serr != nil {
				e.release()
				return nil, serr
			}
		}
	}
	e.release()
	return nil, &CallError{Attempts: e.attempts, Err: lastErr}
}

func (e *Executor) do(ctx context.Context, req Request) ([]byte, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("provider returned %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return payload, nil
}

// cacheKey buckets the request identity to the current hour so stale entries
// age out together with the TTL.
func (e *Executor) cacheKey(req Request) string {
	sum := md5.Sum(req.Body)
	return fmt.Sprintf("%s %s %x %s", req.Method, req.URL, sum, e.now().Format("2006010215"))
}

func (e *Executor) cached(key string) ([]byte, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, ok := e.cache[key]
	if !ok {
		return nil, false
	}
	if e.now().Sub(entry.fetchedAt) >= e.ttl {
		delete(e.cache, key)
		return nil, false
	}
	return entry.payload, true
}

func (e *Executor) store(key string, payload []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for k, entry := range e.cache {
		if e.now().Sub(entry.fetchedAt) >= e.ttl {
			delete(e.cache, k)
		}
	}
	e.cache[key] = cacheEntry{fetchedAt: e.now(), payload: payload}
}

func (e *Executor) exhausted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rollDayLocked()
	return e.calls >= e.limit
}

// reserve claims one budget slot before the network call so two concurrent
// flows can never push the counter past the ceiling.
func (e *Executor) reserve() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rollDayLocked()
	if e.calls >= e.limit {
		return ErrRateLimited
	}
	e.calls++
	return nil
}

// release returns a reserved slot after a failed call; only successful calls
// count against the budget.
func (e *Executor) release() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.calls > 0 {
		e.calls--
	}
}

func (e *Executor) rollDayLocked() {
	day := e.now().Format("20060102")
	if e.day != day {
		e.day = day
		e.calls = 0
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
