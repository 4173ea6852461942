package portfolio

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// InsertTransaction validates, normalizes and appends a transaction to the
// ledger, returning its insertion id. It also seeds the asset cache row for
// the symbol so valuation has a price before the first refresh.
func (s *Store) InsertTransaction(t Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	t = t.Normalized()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`
		INSERT INTO transactions
		(transaction_date, asset_type, symbol, transaction_type, quantity, price, total_value, fees, currency, broker, notes, is_dividend)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Date,
		t.Type.String(),
		t.Symbol,
		t.Kind.String(),
		t.Quantity.String(),
		t.Price.Decimal().String(),
		t.Total().InexactFloat64(),
		t.Fees.Decimal().String(),
		t.Currency(),
		t.Broker,
		t.Notes,
		boolToInt(t.IsDividend),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read insert id: %w", err)
	}

	if err := ensureAsset(tx, t, t.Symbol); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.log.Info().Int64("id", id).Str("symbol", t.Symbol).Str("kind", t.Kind.String()).Msg("Transaction added")
	return id, nil
}

// ensureAsset makes sure an assets row exists for the symbol, seeded with the
// transaction price. An existing row only refreshes its name.
func ensureAsset(tx *sql.Tx, t Transaction, name string) error {
	if name == "" {
		name = t.Symbol
	}
	// last_updated stays NULL so the next refresh fetches a real quote
	// instead of trusting the transaction price.
	_, err := tx.Exec(`
		INSERT INTO assets (symbol, name, asset_type, current_price, day_change, last_updated)
		VALUES (?, ?, ?, ?, 0, NULL)
		ON CONFLICT(symbol) DO UPDATE SET name = excluded.name`,
		t.Symbol, name, t.Type.String(), t.Price.InexactFloat64(),
	)
	if err != nil {
		return fmt.Errorf("failed to seed asset row: %w", err)
	}
	return nil
}

// UpdateTransaction replaces the mutable fields of an existing ledger row.
func (s *Store) UpdateTransaction(id int64, t Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	t = t.Normalized()

	res, err := s.db.Exec(`
		UPDATE transactions
		SET transaction_date = ?, asset_type = ?, symbol = ?, transaction_type = ?,
		    quantity = ?, price = ?, total_value = ?, fees = ?, currency = ?, broker = ?, notes = ?
		WHERE id = ?`,
		t.Date,
		t.Type.String(),
		t.Symbol,
		t.Kind.String(),
		t.Quantity.String(),
		t.Price.Decimal().String(),
		t.Total().InexactFloat64(),
		t.Fees.Decimal().String(),
		t.Currency(),
		t.Broker,
		t.Notes,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction %d: %w", id, err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("transaction %d: %w", id, ErrNotFound)
	}
	s.log.Info().Int64("id", id).Str("symbol", t.Symbol).Msg("Transaction updated")
	return nil
}

// DeleteTransaction removes a ledger row. Prices are symbol-scoped and
// independent of transaction history, so nothing in the asset cache is
// invalidated; the next valuation simply re-derives from the smaller ledger.
func (s *Store) DeleteTransaction(id int64) error {
	res, err := s.db.Exec("DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction %d: %w", id, err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("transaction %d: %w", id, ErrNotFound)
	}
	s.log.Info().Int64("id", id).Msg("Transaction deleted")
	return nil
}

// Transactions returns the full ledger in insertion order.
func (s *Store) Transactions() ([]Transaction, error) {
	return scanTransactions(s.db)
}

func scanTransactions(q querier) ([]Transaction, error) {
	rows, err := q.Query(`
		SELECT id, transaction_date, asset_type, symbol, transaction_type,
		       quantity, price, fees, currency, broker, notes, is_dividend
		FROM transactions ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return txs, nil
}

func scanTransaction(rows *sql.Rows) (Transaction, error) {
	var t Transaction
	var assetType, kind, quantity, price string
	var fees, currency, broker, notes sql.NullString
	var isDividend sql.NullInt64

	if err := rows.Scan(
		&t.ID, &t.Date, &assetType, &t.Symbol, &kind,
		&quantity, &price, &fees, &currency, &broker, &notes, &isDividend,
	); err != nil {
		return t, fmt.Errorf("failed to scan transaction: %w", err)
	}

	t.Symbol = strings.ToUpper(strings.TrimSpace(t.Symbol))
	// A malformed class is a single-row defect; fall back to inference rather
	// than failing the whole ledger load.
	if at, err := ParseAssetType(assetType); err == nil {
		t.Type = at
	} else {
		t.Type = InferAssetType(t.Symbol, notes.String)
	}
	// Legacy rows recorded free-text types; anything not recognizable as a
	// buy is treated as a sell, matching the original data set.
	if k, err := ParseTxKind(kind); err == nil {
		t.Kind = k
	} else {
		t.Kind = Sell
	}

	cur := currency.String
	if cur == "" {
		cur = DefaultCurrency
	}
	qty, err := decimal.NewFromString(quantity)
	if err != nil {
		return t, fmt.Errorf("transaction %d: bad quantity %q: %w", t.ID, quantity, err)
	}
	prc, err := decimal.NewFromString(price)
	if err != nil {
		return t, fmt.Errorf("transaction %d: bad price %q: %w", t.ID, price, err)
	}
	t.Quantity = Q(qty)
	t.Price = M(prc, cur)
	if fees.Valid && fees.String != "" {
		f, err := decimal.NewFromString(fees.String)
		if err != nil {
			return t, fmt.Errorf("transaction %d: bad fees %q: %w", t.ID, fees.String, err)
		}
		t.Fees = M(f, cur)
	} else {
		t.Fees = M(decimal.Zero, cur)
	}
	t.Broker = broker.String
	t.Notes = notes.String
	t.IsDividend = isDividend.Int64 != 0
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
