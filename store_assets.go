package portfolio

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/emrek92/Portfoy-Takip/date"
)

// timestampFormats covers the layouts found in existing databases: RFC3339
// written by this program and sqlite's datetime('now') from older versions.
var timestampFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func parseTimestamp(s string) time.Time {
	for _, layout := range timestampFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Quote is one fresh market observation for a symbol, as delivered by a
// price source.
type Quote struct {
	Symbol        string
	Name          string
	LastPrice     float64
	ChangePercent float64
	AsOf          time.Time
}

// Assets returns the whole asset cache keyed by symbol.
func (s *Store) Assets() (map[string]Asset, error) {
	return scanAssets(s.db)
}

// Asset returns the cache row for a symbol.
func (s *Store) Asset(symbol string) (Asset, error) {
	row := s.db.QueryRow(`
		SELECT symbol, name, asset_type, current_price, day_change, last_updated, market, sector
		FROM assets WHERE symbol = ?`, symbol)
	a, err := scanAsset(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Asset{}, fmt.Errorf("asset %s: %w", symbol, ErrNotFound)
	}
	return a, err
}

// SearchAssets matches symbol, name or class against a free-text query.
func (s *Store) SearchAssets(query string, limit int) ([]Asset, error) {
	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + query + "%"
	rows, err := s.db.Query(`
		SELECT symbol, name, asset_type, current_price, day_change, last_updated, market, sector
		FROM assets
		WHERE symbol LIKE ? OR name LIKE ? OR asset_type LIKE ?
		ORDER BY symbol ASC LIMIT ?`, pattern, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search assets: %w", err)
	}
	defer rows.Close()

	var out []Asset
	for rows.Next() {
		a, err := scanAsset(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAssets(q querier) (map[string]Asset, error) {
	rows, err := q.Query(`
		SELECT symbol, name, asset_type, current_price, day_change, last_updated, market, sector
		FROM assets`)
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer rows.Close()

	assets := make(map[string]Asset)
	for rows.Next() {
		a, err := scanAsset(rows.Scan)
		if err != nil {
			return nil, err
		}
		assets[a.Symbol] = a
	}
	return assets, rows.Err()
}

func scanAsset(scan func(dest ...any) error) (Asset, error) {
	var a Asset
	var name, assetType, lastUpdated, market, sector sql.NullString
	var price, change sql.NullFloat64

	if err := scan(&a.Symbol, &name, &assetType, &price, &change, &lastUpdated, &market, &sector); err != nil {
		return a, err
	}
	a.Name = name.String
	if at, err := ParseAssetType(assetType.String); err == nil {
		a.Type = at
	} else {
		a.Type = InferAssetType(a.Symbol, name.String)
	}
	a.CurrentPrice = price.Float64
	a.DayChangePct = change.Float64
	if lastUpdated.Valid {
		a.LastUpdated = parseTimestamp(lastUpdated.String)
	}
	a.Market = market.String
	a.Sector = sector.String
	return a, nil
}

// UpsertQuote atomically records a fresh quote: the asset cache row, today's
// price history point and, for funds, the daily tracking row. last_updated is
// RFC3339 UTC, which compares lexically in timestamp order, so MAX keeps the
// column monotonic even if an older observation arrives late.
func (s *Store) UpsertQuote(q Quote, class AssetType) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	asOf := q.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}
	stamp := asOf.UTC().Format(time.RFC3339)
	today := date.FromTime(asOf).String()

	_, err = tx.Exec(`
		INSERT INTO assets (symbol, name, asset_type, current_price, day_change, last_updated)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			name = CASE WHEN excluded.name != '' THEN excluded.name ELSE name END,
			asset_type = excluded.asset_type,
			current_price = excluded.current_price,
			day_change = excluded.day_change,
			last_updated = MAX(COALESCE(last_updated, ''), excluded.last_updated)`,
		q.Symbol, q.Name, class.String(), q.LastPrice, q.ChangePercent, stamp,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert asset %s: %w", q.Symbol, err)
	}

	_, err = tx.Exec(`
		INSERT INTO asset_price_history (symbol, price, snapshot_date)
		VALUES (?, ?, ?)
		ON CONFLICT(symbol, snapshot_date) DO UPDATE SET price = excluded.price`,
		q.Symbol, q.LastPrice, today,
	)
	if err != nil {
		return fmt.Errorf("failed to record price history for %s: %w", q.Symbol, err)
	}

	if class == Fund {
		_, err = tx.Exec(`
			INSERT INTO tefas_daily_tracking (symbol, price, day_change, snapshot_date)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(symbol, snapshot_date) DO UPDATE SET
				price = excluded.price, day_change = excluded.day_change`,
			q.Symbol, q.LastPrice, q.ChangePercent, today,
		)
		if err != nil {
			return fmt.Errorf("failed to record fund tracking for %s: %w", q.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LastUpdates reports the most recent cache write per refresh group: funds
// on one clock, everything else on another.
func (s *Store) LastUpdates() (fund, general time.Time, err error) {
	rows, err := s.db.Query(`
		SELECT asset_type = 'fon', MAX(last_updated)
		FROM assets WHERE last_updated IS NOT NULL
		GROUP BY asset_type = 'fon'`)
	if err != nil {
		return fund, general, fmt.Errorf("failed to query last updates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var isFund bool
		var stamp sql.NullString
		if err := rows.Scan(&isFund, &stamp); err != nil {
			return fund, general, fmt.Errorf("failed to scan last update: %w", err)
		}
		t := parseTimestamp(stamp.String)
		if isFund {
			fund = t
		} else {
			general = t
		}
	}
	return fund, general, rows.Err()
}

// PriceHistory returns the persisted daily observations for a symbol, oldest
// first. A zero-valued range returns everything.
func (s *Store) PriceHistory(symbol string, r date.Range) ([]PriceHistoryPoint, error) {
	rows, err := s.db.Query(`
		SELECT symbol, price, snapshot_date
		FROM asset_price_history WHERE symbol = ?
		ORDER BY snapshot_date ASC`, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}
	defer rows.Close()

	var points []PriceHistoryPoint
	for rows.Next() {
		var p PriceHistoryPoint
		var day string
		if err := rows.Scan(&p.Symbol, &p.Price, &day); err != nil {
			return nil, fmt.Errorf("failed to scan price history: %w", err)
		}
		d, err := date.Parse(day)
		if err != nil {
			continue
		}
		if !r.Contains(d) {
			continue
		}
		p.Date = d
		points = append(points, p)
	}
	return points, rows.Err()
}
