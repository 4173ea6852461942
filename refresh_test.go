package portfolio

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider counts calls per symbol and can fail selected symbols.
type fakeProvider struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]bool
	price float64
}

func newFakeProvider(price float64) *fakeProvider {
	return &fakeProvider{calls: make(map[string]int), fail: make(map[string]bool), price: price}
}

func (p *fakeProvider) Quote(_ context.Context, symbol string, _ AssetType) (Quote, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[symbol]++
	if p.fail[symbol] {
		return Quote{}, &ProviderError{Symbol: symbol, Provider: "fake", Err: errors.New("boom")}
	}
	return Quote{Symbol: symbol, LastPrice: p.price, AsOf: time.Now()}, nil
}

func (p *fakeProvider) callCount(symbol string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[symbol]
}

func seedHolding(t *testing.T, s *Store, symbol string, class AssetType) {
	t.Helper()
	_, err := s.InsertTransaction(Transaction{
		Date: "2025-01-01", Type: class, Symbol: symbol, Kind: Buy,
		Quantity: Q(1), Price: TRY(10),
	})
	require.NoError(t, err)
}

func outcomeFor(outcomes []Outcome, symbol string) (Outcome, bool) {
	for _, o := range outcomes {
		if o.Symbol == symbol {
			return o, true
		}
	}
	return Outcome{}, false
}

func TestRefresh_UpdatesStaleSymbols(t *testing.T) {
	s := testStore(t)
	seedHolding(t, s, "THYAO", Equity)
	provider := newFakeProvider(100)
	r := NewRefresher(s, provider, zerolog.Nop())

	outcomes, err := r.Refresh(context.Background(), ScopeAll, false)
	require.NoError(t, err)

	o, ok := outcomeFor(outcomes, "THYAO")
	require.True(t, ok)
	assert.Equal(t, StatusUpdated, o.Status)

	a, err := s.Asset("THYAO")
	require.NoError(t, err)
	assert.Equal(t, 100.0, a.CurrentPrice)
	assert.False(t, a.LastUpdated.IsZero())
}

func TestRefresh_SkipsFreshWithoutCalling(t *testing.T) {
	s := testStore(t)
	provider := newFakeProvider(100)
	r := NewRefresher(s, provider, zerolog.Nop())

	// First run populates the cache, second run must not hit the provider.
	_, err := r.Refresh(context.Background(), ScopeAll, false)
	require.NoError(t, err)
	first := provider.callCount("USD")
	require.Positive(t, first)

	outcomes, err := r.Refresh(context.Background(), ScopeAll, false)
	require.NoError(t, err)

	o, ok := outcomeFor(outcomes, "USD")
	require.True(t, ok)
	assert.Equal(t, StatusSkippedFresh, o.Status)
	assert.Equal(t, first, provider.callCount("USD"), "fresh symbol must not be fetched")
}

func TestRefresh_ForceBypassesTTL(t *testing.T) {
	s := testStore(t)
	provider := newFakeProvider(100)
	r := NewRefresher(s, provider, zerolog.Nop())

	_, err := r.Refresh(context.Background(), ScopeAll, false)
	require.NoError(t, err)
	before := provider.callCount("USD")

	outcomes, err := r.Refresh(context.Background(), ScopeAll, true)
	require.NoError(t, err)

	o, _ := outcomeFor(outcomes, "USD")
	assert.Equal(t, StatusUpdated, o.Status)
	assert.Equal(t, before+1, provider.callCount("USD"))
}

func TestRefresh_FailureIsIsolated(t *testing.T) {
	s := testStore(t)
	seedHolding(t, s, "THYAO", Equity)
	seedHolding(t, s, "GARAN", Equity)
	provider := newFakeProvider(100)
	provider.fail["GARAN"] = true
	r := NewRefresher(s, provider, zerolog.Nop())

	outcomes, err := r.Refresh(context.Background(), ScopeAll, false)
	require.NoError(t, err, "one failing symbol must not fail the batch")

	failed, _ := outcomeFor(outcomes, "GARAN")
	assert.Equal(t, StatusFailed, failed.Status)
	var pe *ProviderError
	assert.ErrorAs(t, failed.Err, &pe)

	ok, _ := outcomeFor(outcomes, "THYAO")
	assert.Equal(t, StatusUpdated, ok.Status)
}

func TestRefresh_ScopeFundsOnly(t *testing.T) {
	s := testStore(t)
	seedHolding(t, s, "AFT", Fund)
	seedHolding(t, s, "THYAO", Equity)
	provider := newFakeProvider(100)
	r := NewRefresher(s, provider, zerolog.Nop())

	outcomes, err := r.Refresh(context.Background(), ScopeFunds, false)
	require.NoError(t, err)

	_, hasFund := outcomeFor(outcomes, "AFT")
	assert.True(t, hasFund)
	_, hasEquity := outcomeFor(outcomes, "THYAO")
	assert.False(t, hasEquity, "funds scope must not touch equities")
	_, hasCore := outcomeFor(outcomes, "USD")
	assert.False(t, hasCore, "funds scope must not touch core FX symbols")
}

func TestRefresh_GeneralScopeIncludesCoreSymbols(t *testing.T) {
	s := testStore(t)
	provider := newFakeProvider(41)
	r := NewRefresher(s, provider, zerolog.Nop())

	outcomes, err := r.Refresh(context.Background(), ScopeGeneral, false)
	require.NoError(t, err)

	for _, symbol := range []string{"USD", "EUR", "XU100"} {
		o, ok := outcomeFor(outcomes, symbol)
		require.True(t, ok, "core symbol %s missing", symbol)
		assert.Equal(t, StatusUpdated, o.Status)
	}
}

func TestParseRefreshScope(t *testing.T) {
	for in, want := range map[string]RefreshScope{
		"general":    ScopeGeneral,
		"funds":      ScopeFunds,
		"fund-class": ScopeFunds,
		"all":        ScopeAll,
		"":           ScopeAll,
	} {
		got, err := ParseRefreshScope(in)
		require.NoError(t, err, "scope %q", in)
		assert.Equal(t, want, got, "scope %q", in)
	}

	_, err := ParseRefreshScope("everything")
	assert.Error(t, err, "unknown scope is a hard error")
}
