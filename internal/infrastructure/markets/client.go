package markets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"StockNewsTracker/internal/config"
	"StockNewsTracker/internal/domain"
	"StockNewsTracker/internal/ports"
	"StockNewsTracker/internal/remote"
)

// Client fetches company fundamentals from the Financial Modeling Prep API.
// Every endpoint call goes through the shared executor so the free-tier daily
// budget is enforced in one place.
type Client struct {
	cfg      config.MarketsConfig
	executor *remote.Executor
}

var _ ports.MetricsProvider = (*Client)(nil)

// NewClient wires the provider settings and its dedicated executor.
func NewClient(cfg config.MarketsConfig, executor *remote.Executor) *Client {
	return &Client{cfg: cfg, executor: executor}
}

// Remaining reports how many budgeted calls are left today.
func (c *Client) Remaining() int {
	return c.executor.Remaining()
}

type profileResponse struct {
	CompanyName string  `json:"companyName"`
	Sector      string  `json:"sector"`
	Industry    string  `json:"industry"`
	MktCap      float64 `json:"mktCap"`
}

type keyMetricsResponse struct {
	PERatio float64 `json:"peRatio"`
	PBRatio float64 `json:"pbRatio"`
	ROE     float64 `json:"roe"`
}

type ratiosResponse struct {
	DebtEquityRatio float64 `json:"debtEquityRatio"`
}

type incomeResponse struct {
	Revenue   float64 `json:"revenue"`
	NetIncome float64 `json:"netIncome"`
	EPS       float64 `json:"eps"`
}

// FetchCompanyMetrics assembles one snapshot from four endpoints. A single
// failing endpoint is recorded in the snapshot's Errors and the rest still
// contribute; an exhausted budget aborts the whole fetch.
func (c *Client) FetchCompanyMetrics(ctx context.Context, symbol string) (domain.CompanyMetrics, error) {
	if c.cfg.APIKey == "" {
		return domain.CompanyMetrics{}, fmt.Errorf("markets api key is not configured")
	}

	m := domain.CompanyMetrics{Symbol: symbol, FetchedAt: time.Now().UTC()}

	var profiles []profileResponse
	if err := c.get(ctx, "profile/"+symbol, nil, &profiles); err != nil {
		if errors.Is(err, remote.ErrRateLimited) {
			return m, err
		}
		m.Errors = append(m.Errors, fmt.Sprintf("profile: %v", err))
	} else if len(profiles) > 0 {
		m.CompanyName = profiles[0].CompanyName
		m.Sector = profiles[0].Sector
		m.Industry = profiles[0].Industry
		m.MarketCap = profiles[0].MktCap
	}

	var metrics []keyMetricsResponse
	if err := c.get(ctx, "key-metrics/"+symbol, url.Values{"limit": {"1"}}, &metrics); err != nil {
		if errors.Is(err, remote.ErrRateLimited) {
			return m, err
		}
		m.Errors = append(m.Errors, fmt.Sprintf("key-metrics: %v", err))
	} else if len(metrics) > 0 {
		m.PERatio = metrics[0].PERatio
		m.PBRatio = metrics[0].PBRatio
		m.ROE = metrics[0].ROE
	}

	var ratios []ratiosResponse
	if err := c.get(ctx, "ratios/"+symbol, url.Values{"limit": {"1"}}, &ratios); err != nil {
		if errors.Is(err, remote.ErrRateLimited) {
			return m, err
		}
		m.Errors = append(m.Errors, fmt.Sprintf("ratios: %v", err))
	} else if len(ratios) > 0 {
		m.DebtToEquity = ratios[0].DebtEquityRatio
	}

	var income []incomeResponse
	if err := c.get(ctx, "income-statement/"+symbol, url.Values{"limit": {"1"}}, &income); err != nil {
		if errors.Is(err, remote.ErrRateLimited) {
			return m, err
		}
		m.Errors = append(m.Errors, fmt.Sprintf("income-statement: %v", err))
	} else if len(income) > 0 {
		m.Revenue = income[0].Revenue
		m.NetIncome = income[0].NetIncome
		m.EPS = income[0].EPS
	}

	return m, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("apikey", c.cfg.APIKey)

	endpoint := fmt.Sprintf("%s/%s?%s", strings.TrimRight(c.cfg.BaseURL, "/"), path, query.Encode())
	payload, err := c.executor.Execute(ctx, remote.Request{
		Method: http.MethodGet,
		URL:    endpoint,
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
