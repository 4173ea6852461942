package portfolio

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// RefreshScope selects which part of the asset cache a refresh run covers.
type RefreshScope int

const (
	// ScopeGeneral covers every non-fund class: FX, equities, crypto,
	// commodities, indexes.
	ScopeGeneral RefreshScope = iota
	// ScopeFunds covers mutual funds only.
	ScopeFunds
	// ScopeAll covers both groups.
	ScopeAll
)

func (s RefreshScope) String() string {
	switch s {
	case ScopeGeneral:
		return "general"
	case ScopeFunds:
		return "funds"
	case ScopeAll:
		return "all"
	default:
		return "unknown"
	}
}

// ParseRefreshScope parses a scope name. An unknown scope is the one hard
// error of the refresh path: it means a caller bug, not bad market data.
func ParseRefreshScope(s string) (RefreshScope, error) {
	switch s {
	case "general":
		return ScopeGeneral, nil
	case "funds", "fund", "fund-class", "fon":
		return ScopeFunds, nil
	case "all", "":
		return ScopeAll, nil
	default:
		return 0, fmt.Errorf("unknown refresh scope: %q", s)
	}
}

func (s RefreshScope) covers(class AssetType) bool {
	switch s {
	case ScopeAll:
		return true
	case ScopeFunds:
		return class == Fund
	default:
		return class != Fund
	}
}

// coreSymbols are always refreshed with the general scope even when not
// held: the USD rate feeds the summary and XU100 is the market benchmark.
var coreSymbols = map[string]AssetType{
	"USD":   FX,
	"EUR":   FX,
	"XU100": Index,
}

// RefreshStatus is the outcome class of one symbol within a refresh run.
type RefreshStatus string

const (
	StatusUpdated      RefreshStatus = "updated"
	StatusSkippedFresh RefreshStatus = "skipped-fresh"
	StatusFailed       RefreshStatus = "failed"
)

// Outcome is the per-symbol result of a refresh run. Failures are data here,
// not errors: one unreachable source never aborts the batch.
type Outcome struct {
	Symbol string
	Class  AssetType
	Status RefreshStatus
	Err    error
}

const (
	defaultPoolSize      = 5
	defaultSymbolTimeout = 30 * time.Second
)

// Refresher coordinates market data refresh runs: it resolves which symbols a
// scope covers, gates them on the per-class TTL, fetches stale ones through a
// bounded worker pool and upserts each result atomically.
type Refresher struct {
	store    *Store
	provider QuoteProvider
	log      zerolog.Logger

	poolSize int
	timeout  time.Duration
	now      func() time.Time
}

// NewRefresher creates a refresh coordinator over the given store and price
// source.
func NewRefresher(store *Store, provider QuoteProvider, log zerolog.Logger) *Refresher {
	return &Refresher{
		store:    store,
		provider: provider,
		log:      log.With().Str("component", "refresh").Logger(),
		poolSize: defaultPoolSize,
		timeout:  defaultSymbolTimeout,
		now:      time.Now,
	}
}

// Refresh runs one refresh pass. force bypasses the TTL gate. The returned
// outcomes list every symbol the scope covered, in symbol order.
func (r *Refresher) Refresh(ctx context.Context, scope RefreshScope, force bool) ([]Outcome, error) {
	targets, err := r.resolve(scope)
	if err != nil {
		return nil, err
	}

	now := r.now()
	outcomes := make([]Outcome, len(targets))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.poolSize)

	for i, t := range targets {
		g.Go(func() error {
			outcomes[i] = r.refreshOne(ctx, t, now, force)
			return nil
		})
	}
	// Workers never return errors; Wait only propagates ctx cancellation.
	if err := g.Wait(); err != nil {
		return outcomes, err
	}

	var updated, skipped, failed int
	for _, o := range outcomes {
		switch o.Status {
		case StatusUpdated:
			updated++
		case StatusSkippedFresh:
			skipped++
		case StatusFailed:
			failed++
		}
	}
	r.log.Info().
		Stringer("scope", scope).
		Bool("force", force).
		Int("updated", updated).
		Int("skipped", skipped).
		Int("failed", failed).
		Msg("Refresh finished")
	return outcomes, nil
}

type target struct {
	symbol string
	class  AssetType
	asset  Asset
	known  bool
}

// resolve lists the symbols a scope covers: every cached asset of a covered
// class, plus the core symbols for the general group.
func (r *Refresher) resolve(scope RefreshScope) ([]target, error) {
	assets, err := r.store.Assets()
	if err != nil {
		return nil, err
	}

	bySymbol := make(map[string]target)
	for symbol, a := range assets {
		if !scope.covers(a.Type) {
			continue
		}
		bySymbol[symbol] = target{symbol: symbol, class: a.Type, asset: a, known: true}
	}
	if scope != ScopeFunds {
		for symbol, class := range coreSymbols {
			if _, ok := bySymbol[symbol]; !ok {
				bySymbol[symbol] = target{symbol: symbol, class: class}
			}
		}
	}

	targets := make([]target, 0, len(bySymbol))
	for _, t := range bySymbol {
		targets = append(targets, t)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].symbol < targets[j].symbol })
	return targets, nil
}

func (r *Refresher) refreshOne(ctx context.Context, t target, now time.Time, force bool) Outcome {
	o := Outcome{Symbol: t.symbol, Class: t.class}

	if !force && t.known && t.class.IsFresh(t.asset.LastUpdated, now) {
		o.Status = StatusSkippedFresh
		return o
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	q, err := r.provider.Quote(ctx, t.symbol, t.class)
	if err != nil {
		r.log.Warn().Err(err).Str("symbol", t.symbol).Msg("Quote fetch failed")
		o.Status = StatusFailed
		o.Err = err
		return o
	}
	if err := r.store.UpsertQuote(q, t.class); err != nil {
		r.log.Error().Err(err).Str("symbol", t.symbol).Msg("Quote upsert failed")
		o.Status = StatusFailed
		o.Err = err
		return o
	}
	o.Status = StatusUpdated
	return o
}
