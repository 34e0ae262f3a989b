package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"marketbridge/internal/config"
	"marketbridge/internal/logger"
	"marketbridge/internal/metrics"
)

// RateCache holds the last fetched rate. It is owned by a Converter and read
// without locking; concurrent refreshes may both fetch and the last write wins.
type RateCache struct {
	entry atomic.Pointer[rateEntry]
	ttl   time.Duration
}

type rateEntry struct {
	value     float64
	fetchedAt time.Time
}

func NewRateCache(ttl time.Duration) *RateCache {
	return &RateCache{ttl: ttl}
}

// Get returns the cached rate if it is still fresh at now.
func (c *RateCache) Get(now time.Time) (float64, bool) {
	e := c.entry.Load()
	if e == nil || now.Sub(e.fetchedAt) >= c.ttl {
		return 0, false
	}
	return e.value, true
}

func (c *RateCache) Set(value float64, now time.Time) {
	c.entry.Store(&rateEntry{value: value, fetchedAt: now})
}

type Converter struct {
	endpoint     string
	base         string
	target       string
	fallbackRate float64
	cache        *RateCache
	httpClient   *http.Client
	logger       *logger.Logger
	now          func() time.Time
}

func New(cfg *config.Config, logger *logger.Logger) *Converter {
	return &Converter{
		endpoint:     strings.TrimRight(cfg.FXEndpoint, "/"),
		base:         cfg.FXBaseCurrency,
		target:       cfg.FXTargetCurrency,
		fallbackRate: cfg.FXFallbackRate,
		cache:        NewRateCache(cfg.FXCacheTTL),
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		logger:       logger,
		now:          time.Now,
	}
}

// Rate returns the base->target exchange rate. Upstream failures never
// propagate: the configured fallback rate is returned instead.
func (c *Converter) Rate(ctx context.Context) float64 {
	if rate, ok := c.cache.Get(c.now()); ok {
		return rate
	}

	rate, err := c.fetch(ctx)
	if err != nil {
		c.logger.Warn("Exchange rate lookup failed, using fallback %.4f: %v", c.fallbackRate, err)
		metrics.ExchangeRateFallbacks.Inc()
		return c.fallbackRate
	}

	c.cache.Set(rate, c.now())
	c.logger.Debug("Exchange rate %s->%s refreshed: %.6f", c.base, c.target, rate)
	return rate
}

// Ping checks the rate endpoint without touching the cache.
func (c *Converter) Ping(ctx context.Context) error {
	_, err := c.fetch(ctx)
	return err
}

type ratesResponse struct {
	Result string             `json:"result"`
	Rates  map[string]float64 `json:"rates"`
}

func (c *Converter) fetch(ctx context.Context) (float64, error) {
	url := fmt.Sprintf("%s/%s", c.endpoint, c.base)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("API request failed: %d - %s", resp.StatusCode, string(body))
	}

	var rr ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}

	rate, ok := rr.Rates[c.target]
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("rate for %s missing from response", c.target)
	}
	return rate, nil
}

// ToTargetPrice converts a source amount into the target currency, applies
// the markup and rounds up to a whole unit. Decimal arithmetic keeps
// 100 * 0.14 * 2 at exactly 28.
func ToTargetPrice(amount, rate, markup float64) int64 {
	v := decimal.NewFromFloat(amount).
		Mul(decimal.NewFromFloat(rate)).
		Mul(decimal.NewFromFloat(markup)).
		Ceil()
	return v.IntPart()
}
