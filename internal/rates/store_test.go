package rates

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dmbar78/ExpenseTracker-sub000/internal/database"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func day(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		panic(err)
	}
	return t
}

func TestStoreUpsertReplaces(t *testing.T) {
	store := NewStore(testDB(t))
	ctx := context.Background()
	on := day("2024-03-01")

	require.NoError(t, store.Upsert(ctx, on, Pivot, "USD", decimal.RequireFromString("1.08")))
	require.NoError(t, store.Upsert(ctx, on, Pivot, "USD", decimal.RequireFromString("1.09")))

	rate, ok, err := store.Get(ctx, on, Pivot, "USD")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, rate.Equal(decimal.RequireFromString("1.09")))
}

func TestStoreNormalizesToMidnight(t *testing.T) {
	store := NewStore(testDB(t))
	ctx := context.Background()

	afternoon := day("2024-03-01").Add(15 * time.Hour)
	require.NoError(t, store.Upsert(ctx, afternoon, Pivot, "USD", decimal.RequireFromString("1.08")))

	rate, ok, err := store.Get(ctx, day("2024-03-01"), Pivot, "USD")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, rate.Equal(decimal.RequireFromString("1.08")))
}

func TestStoreGetMissing(t *testing.T) {
	store := NewStore(testDB(t))

	_, ok, err := store.Get(context.Background(), day("2024-03-01"), Pivot, "USD")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreMostRecentOnOrBefore(t *testing.T) {
	store := NewStore(testDB(t))
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, day("2024-03-01"), Pivot, "USD", decimal.RequireFromString("1.05")))
	require.NoError(t, store.Upsert(ctx, day("2024-03-05"), Pivot, "USD", decimal.RequireFromString("1.08")))
	require.NoError(t, store.Upsert(ctx, day("2024-03-10"), Pivot, "USD", decimal.RequireFromString("1.11")))

	rate, ok, err := store.MostRecentOnOrBefore(ctx, day("2024-03-07"), Pivot, "USD")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, rate.Equal(decimal.RequireFromString("1.08")))

	// exact day counts as "on or before"
	rate, ok, err = store.MostRecentOnOrBefore(ctx, day("2024-03-10"), Pivot, "USD")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, rate.Equal(decimal.RequireFromString("1.11")))

	_, ok, err = store.MostRecentOnOrBefore(ctx, day("2024-02-28"), Pivot, "USD")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreEarliestOnOrAfter(t *testing.T) {
	store := NewStore(testDB(t))
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, day("2024-03-05"), Pivot, "USD", decimal.RequireFromString("1.08")))
	require.NoError(t, store.Upsert(ctx, day("2024-03-10"), Pivot, "USD", decimal.RequireFromString("1.11")))

	rate, ok, err := store.EarliestOnOrAfter(ctx, day("2024-03-01"), Pivot, "USD")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, rate.Equal(decimal.RequireFromString("1.08")))

	_, ok, err = store.EarliestOnOrAfter(ctx, day("2024-03-11"), Pivot, "USD")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreClear(t *testing.T) {
	store := NewStore(testDB(t))
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, day("2024-03-01"), Pivot, "USD", decimal.RequireFromString("1.08")))
	require.NoError(t, store.Clear(ctx))

	_, ok, err := store.Get(ctx, day("2024-03-01"), Pivot, "USD")
	require.NoError(t, err)
	assert.False(t, ok)
}
