package portfolio

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emrek92/Portfoy-Takip/date"
)

func testService(t *testing.T) (*Service, *Store) {
	t.Helper()
	s := testStore(t)
	r := NewRefresher(s, newFakeProvider(100), zerolog.Nop())
	return NewService(s, r, zerolog.Nop()), s
}

func TestService_SummaryPersistsSnapshot(t *testing.T) {
	svc, store := testService(t)
	_, err := svc.AddTransaction(Transaction{
		Date: "2025-01-01", Type: Equity, Symbol: "AAA", Kind: Buy,
		Quantity: Q(10), Price: TRY(100),
	})
	require.NoError(t, err)
	require.NoError(t, store.UpsertQuote(Quote{Symbol: "AAA", LastPrice: 120, AsOf: time.Now()}, Equity))

	sum, err := svc.Summary()
	require.NoError(t, err)
	assert.True(t, sum.TotalValue.Equal(TRY(1200)))

	snap, err := store.LatestSnapshot()
	require.NoError(t, err)
	assert.Equal(t, date.Today(), snap.Date, "summary writes today's snapshot")
	assert.Equal(t, 1200.0, snap.TotalValue)
}

func TestService_SummaryUSDRateFromCache(t *testing.T) {
	svc, store := testService(t)
	_, err := svc.AddTransaction(Transaction{
		Date: "2025-01-01", Type: Equity, Symbol: "AAA", Kind: Buy,
		Quantity: Q(1), Price: TRY(410),
	})
	require.NoError(t, err)
	require.NoError(t, store.UpsertQuote(Quote{Symbol: "AAA", LastPrice: 410, AsOf: time.Now()}, Equity))
	require.NoError(t, store.UpsertQuote(Quote{Symbol: "USD", LastPrice: 41, AsOf: time.Now()}, FX))

	sum, err := svc.Summary()
	require.NoError(t, err)
	assert.InDelta(t, 10, sum.TotalValueUSD, 0.001)
}

func TestService_SummaryPeriodDeltas(t *testing.T) {
	svc, store := testService(t)
	_, err := svc.AddTransaction(Transaction{
		Date: "2025-01-01", Type: Equity, Symbol: "AAA", Kind: Buy,
		Quantity: Q(10), Price: TRY(100),
	})
	require.NoError(t, err)
	require.NoError(t, store.UpsertQuote(Quote{Symbol: "AAA", LastPrice: 110, AsOf: time.Now()}, Equity))

	today := date.Today()
	// Snapshot history: value was 1000 a day ago, 900 eight days ago.
	require.NoError(t, store.UpsertSnapshot(Snapshot{Date: today.Add(-1), TotalValue: 1000}))
	require.NoError(t, store.UpsertSnapshot(Snapshot{Date: today.Add(-8), TotalValue: 900}))

	sum, err := svc.Summary()
	require.NoError(t, err)

	assert.InDelta(t, 100, sum.Daily.Change, 0.001)
	assert.InDelta(t, 10, sum.Daily.ChangePct, 0.001)
	// Weekly looks 7 days back and lands on the closest earlier row (-8).
	assert.InDelta(t, 200, sum.Weekly.Change, 0.001)
	// No snapshot 30 days back or earlier besides those two; closest earlier
	// for -30 does not exist, so monthly stays zero.
	assert.Zero(t, sum.Monthly.Change)
}

func TestService_RangePerformance(t *testing.T) {
	svc, store := testService(t)
	require.NoError(t, store.UpsertSnapshot(Snapshot{Date: date.MustParse("2025-01-01"), TotalValue: 1000}))
	require.NoError(t, store.UpsertSnapshot(Snapshot{Date: date.MustParse("2025-02-01"), TotalValue: 1150}))

	perf, err := svc.RangePerformance(DateRange{
		From: date.MustParse("2025-01-01"),
		To:   date.MustParse("2025-02-10"),
	})
	require.NoError(t, err)
	assert.InDelta(t, 1000, perf.StartValue, 0.001)
	assert.InDelta(t, 1150, perf.EndValue, 0.001)
	assert.InDelta(t, 150, perf.Change, 0.001)
	assert.InDelta(t, 15, perf.ChangePct, 0.001)
}

func TestService_RangePerformanceNoHistory(t *testing.T) {
	svc, _ := testService(t)
	perf, err := svc.RangePerformance(DateRange{From: date.MustParse("2025-01-01")})
	require.NoError(t, err)
	assert.Zero(t, perf.Change)
	assert.Zero(t, perf.ChangePct)
}
