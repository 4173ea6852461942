package portfolio

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/emrek92/Portfoy-Takip/date"
)

// Service is the operation surface of the tracker. It owns the store and the
// refresh coordinator; every public operation of the program goes through one
// of its methods.
type Service struct {
	store     *Store
	refresher *Refresher
	log       zerolog.Logger
}

// NewService wires a service over an open store and a refresh coordinator.
func NewService(store *Store, refresher *Refresher, log zerolog.Logger) *Service {
	return &Service{
		store:     store,
		refresher: refresher,
		log:       log.With().Str("component", "service").Logger(),
	}
}

// Store exposes the underlying store for callers that need raw table access,
// such as history exports.
func (s *Service) Store() *Store { return s.store }

// Holdings values the current portfolio: one FIFO pass over the ledger joined
// with the asset cache.
func (s *Service) Holdings() (Valuation, error) {
	txs, assets, err := s.store.ReadView()
	if err != nil {
		return Valuation{}, err
	}
	return Valuate(txs, assets), nil
}

// Summary computes the aggregate portfolio view for today, persists it as the
// day's snapshot and fills the period deltas from snapshot history.
func (s *Service) Summary() (Summary, error) {
	txs, assets, err := s.store.ReadView()
	if err != nil {
		return Summary{}, err
	}
	v := Valuate(txs, assets)

	var usdRate float64
	if usd, ok := assets["USD"]; ok {
		usdRate = usd.CurrentPrice
	}
	fund, general, err := s.store.LastUpdates()
	if err != nil {
		return Summary{}, err
	}
	lastUpdated := general
	if fund.After(general) {
		lastUpdated = fund
	}

	today := date.Today()
	sum := BuildSummary(today, v, usdRate, lastUpdated)

	// Piggyback: every summary refines today's snapshot, building the history
	// the period deltas read from.
	if err := s.store.UpsertSnapshot(SnapshotOf(sum)); err != nil {
		return Summary{}, err
	}

	current := sum.TotalValue.InexactFloat64()
	sum.Daily = s.performanceSince(current, today.Add(-1))
	sum.Weekly = s.performanceSince(current, today.Add(-7))
	sum.Monthly = s.performanceSince(current, today.Add(-30))
	return sum, nil
}

// performanceSince diffs against the closest snapshot on or before the given
// day. No history that far back means a zero delta.
func (s *Service) performanceSince(current float64, on date.Date) Performance {
	snap, err := s.store.SnapshotOnOrBefore(on)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Warn().Err(err).Stringer("on", on).Msg("Snapshot lookup failed")
		}
		return Performance{}
	}
	return PerformanceSince(current, snap.TotalValue)
}

// Transactions returns the full ledger in insertion order.
func (s *Service) Transactions() ([]Transaction, error) {
	return s.store.Transactions()
}

// AddTransaction appends a transaction and returns its id.
func (s *Service) AddTransaction(t Transaction) (int64, error) {
	return s.store.InsertTransaction(t)
}

// UpdateTransaction replaces an existing transaction.
func (s *Service) UpdateTransaction(id int64, t Transaction) error {
	return s.store.UpdateTransaction(id, t)
}

// DeleteTransaction removes a transaction.
func (s *Service) DeleteTransaction(id int64) error {
	return s.store.DeleteTransaction(id)
}

// RefreshMarketData runs a refresh pass over the given scope.
func (s *Service) RefreshMarketData(ctx context.Context, scope RefreshScope, force bool) ([]Outcome, error) {
	return s.refresher.Refresh(ctx, scope, force)
}

// RealizedPnLInRange reports the realized PnL of sells dated inside r, with
// lot state derived from the complete ledger history.
func (s *Service) RealizedPnLInRange(r date.Range) (Money, error) {
	txs, err := s.store.Transactions()
	if err != nil {
		return Money{}, err
	}
	return RealizedPnLInRange(txs, r), nil
}

// RangePerformance diffs portfolio value between the closest snapshots at the
// two ends of r.
func (s *Service) RangePerformance(r date.Range) (Performance, error) {
	to := r.To
	if to.IsZero() {
		to = date.Today()
	}
	end, err := s.store.SnapshotOnOrBefore(to)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Performance{}, nil
		}
		return Performance{}, err
	}
	start, err := s.store.SnapshotOnOrBefore(r.From)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Performance{}, nil
		}
		return Performance{}, err
	}
	return PerformanceSince(end.TotalValue, start.TotalValue), nil
}

// ExportJSON writes the ledger backup to w.
func (s *Service) ExportJSON(w io.Writer) error {
	return s.store.ExportJSON(w)
}

// ImportJSON appends a backup's transactions, all-or-nothing, and returns how
// many rows were imported.
func (s *Service) ImportJSON(r io.Reader) (int, error) {
	return s.store.ImportJSON(r)
}

// AssetInfo returns the cache row for one symbol.
func (s *Service) AssetInfo(symbol string) (Asset, error) {
	return s.store.Asset(symbol)
}

// SearchAssets matches cached assets against a free-text query.
func (s *Service) SearchAssets(query string) ([]Asset, error) {
	return s.store.SearchAssets(query, 20)
}

// LastUpdates reports when each refresh group last wrote the cache.
func (s *Service) LastUpdates() (fund, general time.Time, err error) {
	return s.store.LastUpdates()
}

// ClearAll wipes every table. There is no undo.
func (s *Service) ClearAll() error {
	return s.store.ClearAll()
}
