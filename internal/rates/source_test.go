package rates

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSourceFetchRates(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"base":"EUR","date":"2024-03-01","rates":{"USD":1.08,"GBP":0.8567}}`))
	}))
	defer srv.Close()

	source := NewHTTPSource(srv.URL, 5*time.Second)
	rates, err := source.FetchRates(context.Background(), Pivot, []string{"USD", "GBP"}, day("2024-03-01"))
	require.NoError(t, err)

	assert.Equal(t, "/2024-03-01", gotPath)
	assert.Contains(t, gotQuery, "base=EUR")
	assert.Contains(t, gotQuery, "symbols=USD%2CGBP")

	require.Len(t, rates, 2)
	assert.True(t, rates["USD"].Equal(decimal.RequireFromString("1.08")))
	assert.True(t, rates["GBP"].Equal(decimal.RequireFromString("0.8567")))
}

func TestHTTPSourceFetchRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rates":{"USD":1.08}}`))
	}))
	defer srv.Close()

	source := NewHTTPSource(srv.URL, 5*time.Second)
	rate, ok, err := source.FetchRate(context.Background(), Pivot, "USD", day("2024-03-01"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, rate.Equal(decimal.RequireFromString("1.08")))
}

func TestHTTPSourceClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	source := NewHTTPSource(srv.URL, 5*time.Second)
	_, err := source.FetchRates(context.Background(), Pivot, []string{"USD"}, day("2024-03-01"))

	var clientErr *ClientError
	require.True(t, errors.As(err, &clientErr))
	assert.Equal(t, http.StatusNotFound, clientErr.StatusCode)
}

func TestHTTPSourceServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	source := NewHTTPSource(srv.URL, 5*time.Second)
	_, err := source.FetchRates(context.Background(), Pivot, []string{"USD"}, day("2024-03-01"))

	require.Error(t, err)
	var clientErr *ClientError
	assert.False(t, errors.As(err, &clientErr))
}

func TestIdentitySource(t *testing.T) {
	source := IdentitySource{}
	ctx := context.Background()

	rate, ok, err := source.FetchRate(ctx, "USD", "USD", time.Now())
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, rate.Equal(decimal.NewFromInt(1)))

	_, ok, err = source.FetchRate(ctx, "USD", "EUR", time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}

type erroringSource struct{ err error }

func (s erroringSource) FetchRate(context.Context, string, string, time.Time) (decimal.Decimal, bool, error) {
	return decimal.Zero, false, s.err
}

func (s erroringSource) FetchRates(context.Context, string, []string, time.Time) (map[string]decimal.Decimal, error) {
	return nil, s.err
}

func TestChainFallsBackPastFailure(t *testing.T) {
	good := &fakeSource{
		pairs:    map[string]decimal.Decimal{"EUR/USD": decimal.RequireFromString("1.08")},
		pivotSet: map[string]decimal.Decimal{"USD": decimal.RequireFromString("1.08")},
	}
	chain := NewChain(erroringSource{err: errors.New("down")}, good)

	rate, ok, err := chain.FetchRate(context.Background(), "EUR", "USD", day("2024-03-01"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, rate.Equal(decimal.RequireFromString("1.08")))
}

func TestChainShortCircuitsOnFirstResult(t *testing.T) {
	first := &fakeSource{
		pivotSet: map[string]decimal.Decimal{"USD": decimal.RequireFromString("1.08")},
	}
	second := &fakeSource{
		pivotSet: map[string]decimal.Decimal{"USD": decimal.RequireFromString("9.99")},
	}
	chain := NewChain(first, second)

	rates, err := chain.FetchRates(context.Background(), Pivot, []string{"USD"}, day("2024-03-01"))
	require.NoError(t, err)
	require.Len(t, rates, 1)
	assert.True(t, rates["USD"].Equal(decimal.RequireFromString("1.08")))
	assert.Zero(t, second.calls())
}

func TestChainSurfacesClientError(t *testing.T) {
	chain := NewChain(
		erroringSource{err: &ClientError{StatusCode: 422}},
		erroringSource{err: errors.New("down")},
	)

	_, _, err := chain.FetchRate(context.Background(), "EUR", "USD", day("2024-03-01"))
	var clientErr *ClientError
	require.True(t, errors.As(err, &clientErr))
	assert.Equal(t, 422, clientErr.StatusCode)
}

func TestChainExhaustedWithoutClientError(t *testing.T) {
	chain := NewChain(erroringSource{err: errors.New("down")}, IdentitySource{})

	rate, ok, err := chain.FetchRate(context.Background(), "EUR", "USD", day("2024-03-01"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, rate.IsZero())

	// the identity source still answers the trivial pair
	rate, ok, err = chain.FetchRate(context.Background(), "EUR", "EUR", day("2024-03-01"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, rate.Equal(decimal.NewFromInt(1)))
}
