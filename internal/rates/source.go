package rates

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// Source supplies exchange rates for a calendar day. Implementations are
// free to hit the network; the provider alone decides what gets persisted.
type Source interface {
	// FetchRate returns the rate for one pair, or ok=false when the source
	// has no quote for it.
	FetchRate(ctx context.Context, base, quote string, on time.Time) (decimal.Decimal, bool, error)
	// FetchRates returns the rates from base to every requested symbol in
	// one call. An empty symbols slice requests all known symbols.
	FetchRates(ctx context.Context, base string, symbols []string, on time.Time) (map[string]decimal.Decimal, error)
}

// ClientError marks a definitive 4xx response from a rate service. The
// provider negative-caches the date of such a response for the session, so
// a request the service already rejected is not repeated.
type ClientError struct {
	StatusCode int
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("rate service client error: status %d", e.StatusCode)
}

// HTTPSource fetches pivot-based daily rates from a Frankfurter-style
// service: GET {base_url}/{yyyy-mm-dd}?base=EUR&symbols=USD,GBP.
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) fetch(ctx context.Context, base string, symbols []string, on time.Time) ([]byte, error) {
	u := fmt.Sprintf("%s/%s?base=%s", s.baseURL, DayKey(on), url.QueryEscape(base))
	if len(symbols) > 0 {
		u += "&symbols=" + url.QueryEscape(strings.Join(symbols, ","))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rate service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, &ClientError{StatusCode: resp.StatusCode}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate service: status %d", resp.StatusCode)
	}
	return body, nil
}

func (s *HTTPSource) FetchRates(ctx context.Context, base string, symbols []string, on time.Time) (map[string]decimal.Decimal, error) {
	body, err := s.fetch(ctx, base, symbols, on)
	if err != nil {
		return nil, err
	}

	rates := gjson.GetBytes(body, "rates")
	if !rates.Exists() {
		return nil, fmt.Errorf("rate service: no rates in response")
	}

	out := make(map[string]decimal.Decimal)
	var parseErr error
	rates.ForEach(func(key, value gjson.Result) bool {
		d, err := decimal.NewFromString(value.Raw)
		if err != nil {
			parseErr = fmt.Errorf("parse rate %s: %w", key.String(), err)
			return false
		}
		out[key.String()] = d
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return out, nil
}

func (s *HTTPSource) FetchRate(ctx context.Context, base, quote string, on time.Time) (decimal.Decimal, bool, error) {
	fetched, err := s.FetchRates(ctx, base, []string{quote}, on)
	if err != nil {
		return decimal.Zero, false, err
	}
	rate, ok := fetched[quote]
	return rate, ok, nil
}

// IdentitySource answers only the trivial base==quote pair. It keeps the
// fallback chain total when no network source is reachable.
type IdentitySource struct{}

func (IdentitySource) FetchRate(ctx context.Context, base, quote string, on time.Time) (decimal.Decimal, bool, error) {
	if base == quote {
		return decimal.NewFromInt(1), true, nil
	}
	return decimal.Zero, false, nil
}

func (IdentitySource) FetchRates(ctx context.Context, base string, symbols []string, on time.Time) (map[string]decimal.Decimal, error) {
	for _, s := range symbols {
		if s == base {
			return map[string]decimal.Decimal{base: decimal.NewFromInt(1)}, nil
		}
	}
	return nil, nil
}

// Chain tries each source in priority order. The first source returning a
// result short-circuits the chain; a source failing or returning nothing
// means "try next". When every source fails, the only detail surfaced is a
// ClientError, so the provider can negative-cache the date.
type Chain struct {
	sources []Source
}

func NewChain(sources ...Source) *Chain {
	return &Chain{sources: sources}
}

func (c *Chain) FetchRate(ctx context.Context, base, quote string, on time.Time) (decimal.Decimal, bool, error) {
	var client *ClientError
	for _, src := range c.sources {
		rate, ok, err := src.FetchRate(ctx, base, quote, on)
		if err != nil {
			var ce *ClientError
			if errors.As(err, &ce) && client == nil {
				client = ce
			}
			continue
		}
		if ok {
			return rate, true, nil
		}
	}
	if client != nil {
		return decimal.Zero, false, client
	}
	return decimal.Zero, false, nil
}

func (c *Chain) FetchRates(ctx context.Context, base string, symbols []string, on time.Time) (map[string]decimal.Decimal, error) {
	var client *ClientError
	for _, src := range c.sources {
		fetched, err := src.FetchRates(ctx, base, symbols, on)
		if err != nil {
			var ce *ClientError
			if errors.As(err, &ce) && client == nil {
				client = ce
			}
			continue
		}
		if len(fetched) > 0 {
			return fetched, nil
		}
	}
	if client != nil {
		return nil, client
	}
	return nil, nil
}
