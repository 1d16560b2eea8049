package rates

import (
	"context"
	"errors"
	"time"

	"github.com/dmbar78/ExpenseTracker-sub000/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Day normalizes a timestamp to local midnight, the granularity rates are
// stored at.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayKey formats a normalized day for cache keys.
func DayKey(t time.Time) string {
	return Day(t).Format("2006-01-02")
}

// Store persists exchange rates keyed by (day, base, quote).
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Get returns the rate stored for exactly this day and pair.
func (s *Store) Get(ctx context.Context, on time.Time, base, quote string) (decimal.Decimal, bool, error) {
	var row models.ExchangeRate
	err := s.db.WithContext(ctx).
		Where("date = ? AND base = ? AND quote = ?", Day(on), base, quote).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}
	return row.Rate, true, nil
}

// MostRecentOnOrBefore returns the newest stored rate for the pair dated on
// or before the given day.
func (s *Store) MostRecentOnOrBefore(ctx context.Context, on time.Time, base, quote string) (decimal.Decimal, bool, error) {
	var row models.ExchangeRate
	err := s.db.WithContext(ctx).
		Where("date <= ? AND base = ? AND quote = ?", Day(on), base, quote).
		Order("date DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}
	return row.Rate, true, nil
}

// EarliestOnOrAfter returns the oldest stored rate for the pair dated on or
// after the given day. It covers rates entered "today" for a transaction
// dated in the past.
func (s *Store) EarliestOnOrAfter(ctx context.Context, on time.Time, base, quote string) (decimal.Decimal, bool, error) {
	var row models.ExchangeRate
	err := s.db.WithContext(ctx).
		Where("date >= ? AND base = ? AND quote = ?", Day(on), base, quote).
		Order("date ASC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}
	return row.Rate, true, nil
}

// Upsert inserts the rate row or replaces the rate of an existing one.
func (s *Store) Upsert(ctx context.Context, on time.Time, base, quote string, rate decimal.Decimal) error {
	row := models.ExchangeRate{
		Date:  Day(on),
		Base:  base,
		Quote: quote,
		Rate:  rate,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}, {Name: "base"}, {Name: "quote"}},
		DoUpdates: clause.AssignmentColumns([]string{"rate", "updated_at"}),
	}).Create(&row).Error
}

// Clear drops every stored rate. Used by restore.
func (s *Store) Clear(ctx context.Context) error {
	return s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.ExchangeRate{}).Error
}
