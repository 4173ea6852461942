package portfolio

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/emrek92/Portfoy-Takip/date"
)

// UpsertSnapshot records the day's rollup, replacing an earlier snapshot of
// the same date. One row per calendar day, so recomputing a summary later in
// the day refines the snapshot instead of duplicating it.
func (s *Store) UpsertSnapshot(snap Snapshot) error {
	_, err := s.db.Exec(`
		INSERT INTO portfolio_snapshots
		(snapshot_date, total_value_tl, total_value_usd, total_cost_basis, realized_pnl, unrealized_pnl, cash_balance, total_return_pct)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(snapshot_date) DO UPDATE SET
			total_value_tl = excluded.total_value_tl,
			total_value_usd = excluded.total_value_usd,
			total_cost_basis = excluded.total_cost_basis,
			realized_pnl = excluded.realized_pnl,
			unrealized_pnl = excluded.unrealized_pnl,
			cash_balance = excluded.cash_balance,
			total_return_pct = excluded.total_return_pct`,
		snap.Date.String(),
		snap.TotalValue,
		snap.TotalValueUSD,
		snap.CostBasis,
		snap.RealizedPnL,
		snap.UnrealizedPnL,
		snap.CashBalance,
		snap.TotalReturnPct,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot %s: %w", snap.Date, err)
	}
	return nil
}

const snapshotColumns = `snapshot_date, total_value_tl, total_value_usd, total_cost_basis,
	realized_pnl, unrealized_pnl, cash_balance, total_return_pct`

// SnapshotOnOrBefore returns the most recent snapshot dated on or before d,
// or ErrNotFound when history does not reach back that far.
func (s *Store) SnapshotOnOrBefore(d date.Date) (Snapshot, error) {
	row := s.db.QueryRow(`
		SELECT `+snapshotColumns+`
		FROM portfolio_snapshots
		WHERE snapshot_date <= ?
		ORDER BY snapshot_date DESC LIMIT 1`, d.String())
	return scanSnapshot(row.Scan)
}

// LatestSnapshot returns the most recent snapshot of any date.
func (s *Store) LatestSnapshot() (Snapshot, error) {
	row := s.db.QueryRow(`
		SELECT ` + snapshotColumns + `
		FROM portfolio_snapshots
		ORDER BY snapshot_date DESC LIMIT 1`)
	return scanSnapshot(row.Scan)
}

// Snapshots returns all snapshots in a range, oldest first. A zero range
// returns the full history.
func (s *Store) Snapshots(r date.Range) ([]Snapshot, error) {
	rows, err := s.db.Query(`
		SELECT ` + snapshotColumns + `
		FROM portfolio_snapshots ORDER BY snapshot_date ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows.Scan)
		if err != nil {
			return nil, err
		}
		if !r.Contains(snap.Date) {
			continue
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

func scanSnapshot(scan func(dest ...any) error) (Snapshot, error) {
	var snap Snapshot
	var day string
	var usd, cost, realized, unrealized, cash, roi sql.NullFloat64
	err := scan(&day, &snap.TotalValue, &usd, &cost, &realized, &unrealized, &cash, &roi)
	if errors.Is(err, sql.ErrNoRows) {
		return snap, fmt.Errorf("snapshot: %w", ErrNotFound)
	}
	if err != nil {
		return snap, fmt.Errorf("failed to scan snapshot: %w", err)
	}
	d, err := date.Parse(day)
	if err != nil {
		return snap, fmt.Errorf("snapshot has invalid date %q: %w", day, err)
	}
	snap.Date = d
	snap.TotalValueUSD = usd.Float64
	snap.CostBasis = cost.Float64
	snap.RealizedPnL = realized.Float64
	snap.UnrealizedPnL = unrealized.Float64
	snap.CashBalance = cash.Float64
	snap.TotalReturnPct = roi.Float64
	return snap, nil
}
