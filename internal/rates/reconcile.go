package rates

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/dmbar78/ExpenseTracker-sub000/internal/models"
)

// WriteEntry persists an entry whose conversion snapshot was filled.
type WriteEntry func(models.Entry) error

// WriteTransfer persists a transfer whose conversion snapshot was filled.
type WriteTransfer func(models.Transfer) error

// dateNeed collects the distinct pivot legs required for one day.
type dateNeed struct {
	on         time.Time
	currencies map[string]struct{}
}

// ReconcileRatesNeeded backfills the conversion snapshot on records created
// before a rate (or the default currency) was known. Records whose snapshot
// is already filled are skipped, which makes the routine idempotent: a
// second run over the same data performs no further fetches.
//
// The needed currencies are grouped by day first, so each day costs one
// batch fetch instead of one call per currency. Updated records are handed
// to the caller's write-back callbacks; the provider itself only writes
// exchange-rate rows. The return value is the number of records that could
// not be resolved.
func (p *Provider) ReconcileRatesNeeded(ctx context.Context, entries []models.Entry, transfers []models.Transfer, defaultCurrency string, writeEntry WriteEntry, writeTransfer WriteTransfer) int {
	needs := make(map[string]*dateNeed)
	note := func(on time.Time, currency string) {
		k := DayKey(on)
		n := needs[k]
		if n == nil {
			n = &dateNeed{on: Day(on), currencies: make(map[string]struct{})}
			needs[k] = n
		}
		if currency != Pivot {
			n.currencies[currency] = struct{}{}
		}
		if defaultCurrency != Pivot {
			n.currencies[defaultCurrency] = struct{}{}
		}
	}

	var pendingEntries []models.Entry
	for _, e := range entries {
		if e.Reconciled() {
			continue
		}
		note(e.Date, e.Currency)
		pendingEntries = append(pendingEntries, e)
	}
	var pendingTransfers []models.Transfer
	for _, t := range transfers {
		if t.Reconciled() {
			continue
		}
		note(t.Date, t.Currency)
		pendingTransfers = append(pendingTransfers, t)
	}

	for _, n := range needs {
		if len(n.currencies) == 0 {
			continue
		}
		currencies := make([]string, 0, len(n.currencies))
		for c := range n.currencies {
			currencies = append(currencies, c)
		}
		sort.Strings(currencies)
		p.FetchPivotRates(ctx, n.on, currencies)
	}

	failed := 0
	for _, e := range pendingEntries {
		rate, ok := p.GetRate(ctx, e.Currency, defaultCurrency, e.Date)
		if !ok {
			failed++
			continue
		}
		currency := defaultCurrency
		amount := e.Amount.Mul(rate).Round(2)
		e.OriginalCurrency = &currency
		e.OriginalRate = &rate
		e.OriginalAmount = &amount
		if err := writeEntry(e); err != nil {
			log.Printf("rates: write back entry %d: %v", e.ID, err)
			failed++
		}
	}
	for _, t := range pendingTransfers {
		rate, ok := p.GetRate(ctx, t.Currency, defaultCurrency, t.Date)
		if !ok {
			failed++
			continue
		}
		currency := defaultCurrency
		amount := t.Amount.Mul(rate).Round(2)
		t.OriginalCurrency = &currency
		t.OriginalRate = &rate
		t.OriginalAmount = &amount
		if err := writeTransfer(t); err != nil {
			log.Printf("rates: write back transfer %d: %v", t.ID, err)
			failed++
		}
	}
	return failed
}
