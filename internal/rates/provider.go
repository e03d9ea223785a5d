// Package rates supplies the USD to BRL conversion rate used when loading
// ad-serving revenue. The lookup is best-effort: any failure falls back to a
// fixed default so reports never block on the rate API.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/bcfdigital/mediareport/internal/utils"
)

// DefaultUSDBRL is used whenever the live lookup fails.
const DefaultUSDBRL = 5.00

// CacheTTL bounds the rate cache; intraday fluctuation is not meaningful
// for daily reporting.
const CacheTTL = 24 * time.Hour

const cacheKey = "usd_brl"

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

func NewHTTPClient(timeout time.Duration) HTTPClient {
	return &http.Client{Timeout: timeout}
}

type Provider struct {
	c     HTTPClient
	url   string
	log   *slog.Logger
	cache *cache.Cache
	retry utils.Backoff
}

func NewProvider(c HTTPClient, url string, log *slog.Logger) *Provider {
	return &Provider{
		c:     c,
		url:   url,
		log:   log,
		cache: cache.New(CacheTTL, 2*CacheTTL),
		retry: utils.NewBackoff(100*time.Millisecond, 150*time.Millisecond, 2),
	}
}

// Rate returns the current USD->BRL rate. Never fails: on any lookup error
// it logs a warning and returns DefaultUSDBRL. Always positive.
func (p *Provider) Rate(ctx context.Context) float64 {
	if v, ok := p.cache.Get(cacheKey); ok {
		return v.(float64)
	}
	rate, err := p.fetch(ctx)
	if err != nil {
		p.log.Warn("rate lookup failed, using default",
			slog.String("err", err.Error()),
			slog.Float64("default", DefaultUSDBRL))
		return DefaultUSDBRL
	}
	p.cache.Set(cacheKey, rate, cache.DefaultExpiration)
	return rate
}

func (p *Provider) fetch(ctx context.Context) (float64, error) {
	var body struct {
		Rates map[string]float64 `json:"rates"`
	}
	err := p.retry.Do(ctx, func(int) error {
		return getJSON(ctx, p.c, p.url, &body)
	})
	if err != nil {
		return 0, err
	}
	rate, ok := body.Rates["BRL"]
	if !ok || rate <= 0 {
		return 0, errors.New("rate response missing BRL")
	}
	return rate, nil
}

func getJSON(ctx context.Context, c HTTPClient, url string, v any) error {
	if url == "" {
		return errors.New("empty url")
	}
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("non-2xx: %d body=%s", resp.StatusCode, string(b))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
