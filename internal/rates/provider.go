package rates

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Pivot is the reference currency every cross rate is derived through.
// Storing only pivot legs keeps the number of fetched rates linear in the
// number of currencies in use.
const Pivot = "EUR"

// rateScale is the fractional precision of derived rates.
const rateScale = 10

var one = decimal.NewFromInt(1)

// lookupFunc reads a stored pivot leg for one derivation tier (exact day,
// on-or-before, on-or-after).
type lookupFunc func(ctx context.Context, on time.Time, base, quote string) (decimal.Decimal, bool, error)

// Provider resolves exchange rates for arbitrary currency pairs on a given
// day, using the persistent rate table, pivot derivation and a prioritized
// source chain.
//
// Session state (pivot-rate cache, failed-date set, in-flight map) lives on
// the Provider value and dies with it. One mutex guards all three; the
// provider is safe to share across requests.
type Provider struct {
	store  *Store
	source Source

	mu           sync.Mutex
	sessionRates map[string]map[string]decimal.Decimal // day key -> currency -> pivot rate
	failedDates  map[string]struct{}                   // day keys rejected with 4xx this session
	inFlight     map[string]bool                       // day keys with a batch fetch in progress
}

func NewProvider(store *Store, source Source) *Provider {
	return &Provider{
		store:        store,
		source:       source,
		sessionRates: make(map[string]map[string]decimal.Decimal),
		failedDates:  make(map[string]struct{}),
		inFlight:     make(map[string]bool),
	}
}

// GetRate resolves the rate from base to quote on the given day. The second
// return is false when no rate could be resolved; that is an expected
// outcome callers must handle, never an error.
func (p *Provider) GetRate(ctx context.Context, base, quote string, on time.Time) (decimal.Decimal, bool) {
	if base == quote {
		return one, true
	}

	// direct hit for the exact day
	if rate, ok := p.storeLookup(ctx, on, base, quote, p.store.Get); ok {
		return rate, true
	}

	// derive through stored pivot legs for the same day
	if rate, ok := p.derive(ctx, base, quote, on, p.store.Get); ok {
		return rate, true
	}

	// ask the source chain for the pair and persist the answer
	if p.dateFailed(on) {
		return decimal.Zero, false
	}
	rate, ok, err := p.source.FetchRate(ctx, base, quote, on)
	if err != nil {
		p.noteFetchError(on, err)
		return decimal.Zero, false
	}
	if !ok {
		return decimal.Zero, false
	}
	if err := p.store.Upsert(ctx, on, base, quote, rate); err != nil {
		log.Printf("rates: persist %s/%s: %v", base, quote, err)
	}
	return rate, true
}

// GetRateAsOf resolves the rate effective on the given day for a historical
// transaction, falling back through: stored rates on or before the day,
// actively fetched pivot legs for the day, and finally stored rates on or
// after the day (a rate entered today for a back-dated transaction).
func (p *Provider) GetRateAsOf(ctx context.Context, base, quote string, on time.Time) (decimal.Decimal, bool) {
	if base == quote {
		return one, true
	}

	if rate, ok := p.storeLookup(ctx, on, base, quote, p.store.MostRecentOnOrBefore); ok {
		return rate, true
	}
	if rate, ok := p.derive(ctx, base, quote, on, p.store.MostRecentOnOrBefore); ok {
		return rate, true
	}

	// fetch whichever pivot legs are missing for the exact day, then retry
	if p.FetchPivotRates(ctx, on, pivotLegsFor(base, quote)) {
		if rate, ok := p.derive(ctx, base, quote, on, p.store.Get); ok {
			return rate, true
		}
	}

	if rate, ok := p.storeLookup(ctx, on, base, quote, p.store.EarliestOnOrAfter); ok {
		return rate, true
	}
	if rate, ok := p.derive(ctx, base, quote, on, p.store.EarliestOnOrAfter); ok {
		return rate, true
	}

	return decimal.Zero, false
}

// pivotLegsFor lists the non-pivot currencies of a pair, i.e. the pivot legs
// a derivation for it needs.
func pivotLegsFor(base, quote string) []string {
	legs := make([]string, 0, 2)
	if base != Pivot {
		legs = append(legs, base)
	}
	if quote != Pivot && quote != base {
		legs = append(legs, quote)
	}
	return legs
}

// storeLookup wraps a store read, degrading a store failure to "missing"
// for this tier so the next fallback tier still runs.
func (p *Provider) storeLookup(ctx context.Context, on time.Time, base, quote string, lookup lookupFunc) (decimal.Decimal, bool) {
	rate, ok, err := lookup(ctx, on, base, quote)
	if err != nil {
		log.Printf("rates: store lookup %s/%s on %s: %v", base, quote, DayKey(on), err)
		return decimal.Zero, false
	}
	return rate, ok
}

// pivotLeg resolves the pivot->currency rate for a day, from the session
// cache first, then through the tier's store lookup.
func (p *Provider) pivotLeg(ctx context.Context, on time.Time, currency string, lookup lookupFunc) (decimal.Decimal, bool) {
	if currency == Pivot {
		return one, true
	}
	p.mu.Lock()
	if day, ok := p.sessionRates[DayKey(on)]; ok {
		if rate, ok := day[currency]; ok {
			p.mu.Unlock()
			return rate, true
		}
	}
	p.mu.Unlock()
	return p.storeLookup(ctx, on, Pivot, currency, lookup)
}

// derive computes base->quote from pivot legs: pivot->quote / pivot->base,
// rounded half-up to the rate scale.
func (p *Provider) derive(ctx context.Context, base, quote string, on time.Time, lookup lookupFunc) (decimal.Decimal, bool) {
	switch {
	case base == Pivot:
		if rate, ok := p.pivotLeg(ctx, on, quote, lookup); ok {
			return rate, true
		}
	case quote == Pivot:
		if rate, ok := p.pivotLeg(ctx, on, base, lookup); ok && !rate.IsZero() {
			return one.DivRound(rate, rateScale), true
		}
	default:
		rateBase, okBase := p.pivotLeg(ctx, on, base, lookup)
		rateQuote, okQuote := p.pivotLeg(ctx, on, quote, lookup)
		if okBase && okQuote && !rateBase.IsZero() {
			return rateQuote.DivRound(rateBase, rateScale), true
		}
	}
	return decimal.Zero, false
}

// FetchPivotRates performs one deduplicated batch fetch of pivot legs for a
// day, persisting and session-caching every returned rate. It returns true
// when the requested currencies are cached afterwards. Concurrent calls for
// the same day skip the fetch and rely on the in-progress call's writes.
func (p *Provider) FetchPivotRates(ctx context.Context, on time.Time, currencies []string) bool {
	if len(currencies) == 0 {
		return false
	}
	key := DayKey(on)

	p.mu.Lock()
	if _, failed := p.failedDates[key]; failed {
		p.mu.Unlock()
		return false
	}
	if day, ok := p.sessionRates[key]; ok && covers(day, currencies) {
		p.mu.Unlock()
		return true
	}
	if p.inFlight[key] {
		p.mu.Unlock()
		return false
	}
	p.inFlight[key] = true
	p.mu.Unlock()

	// the flag must clear on every path, including cancellation
	defer func() {
		p.mu.Lock()
		delete(p.inFlight, key)
		p.mu.Unlock()
	}()

	fetched, err := p.source.FetchRates(ctx, Pivot, currencies, on)
	if err != nil {
		p.noteFetchError(on, err)
		return false
	}
	if len(fetched) == 0 {
		return false
	}

	p.mu.Lock()
	day := p.sessionRates[key]
	if day == nil {
		day = make(map[string]decimal.Decimal)
		p.sessionRates[key] = day
	}
	for currency, rate := range fetched {
		day[currency] = rate
	}
	p.mu.Unlock()

	for currency, rate := range fetched {
		if currency == Pivot {
			continue
		}
		if err := p.store.Upsert(ctx, on, Pivot, currency, rate); err != nil {
			log.Printf("rates: persist %s/%s: %v", Pivot, currency, err)
		}
	}
	return true
}

func covers(day map[string]decimal.Decimal, currencies []string) bool {
	for _, c := range currencies {
		if _, ok := day[c]; !ok {
			return false
		}
	}
	return true
}

func (p *Provider) dateFailed(on time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, failed := p.failedDates[DayKey(on)]
	return failed
}

// noteFetchError records a definitive 4xx rejection in the negative date
// cache; transient failures are only logged and retried on the next call.
func (p *Provider) noteFetchError(on time.Time, err error) {
	var ce *ClientError
	if errors.As(err, &ce) {
		p.mu.Lock()
		p.failedDates[DayKey(on)] = struct{}{}
		p.mu.Unlock()
		return
	}
	log.Printf("rates: fetch %s: %v", DayKey(on), err)
}

// ClearFailedDates drops the negative date cache so client-errored days can
// be retried, e.g. after the user switched rate services.
func (p *Provider) ClearFailedDates() {
	p.mu.Lock()
	p.failedDates = make(map[string]struct{})
	p.mu.Unlock()
}
