package portfolio

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/emrek92/Portfoy-Takip/date"
)

// this file handles the backup format: a single human readable JSON document
// that round-trips the whole ledger, with enough tolerance to also read
// backups produced by older versions.

// jtransaction is one ledger row in the backup format. Quantity and price are
// json.Number so exact decimal strings survive the round trip.
type jtransaction struct {
	Date       string      `json:"date"`
	Symbol     string      `json:"symbol"`
	Name       string      `json:"name,omitempty"`
	AssetType  string      `json:"asset_type,omitempty"`
	Type       string      `json:"type"`
	Quantity   json.Number `json:"quantity"`
	Price      json.Number `json:"price"`
	Total      json.Number `json:"total,omitempty"`
	Notes      string      `json:"notes,omitempty"`
	Fees       json.Number `json:"fees,omitempty"`
	Currency   string      `json:"currency,omitempty"`
	Broker     string      `json:"broker,omitempty"`
	IsDividend bool        `json:"is_dividend,omitempty"`
}

type jbackup struct {
	Transactions []jtransaction `json:"transactions"`
	ExportedAt   string         `json:"exported_at,omitempty"`
}

// ExportJSON writes the full ledger to w in the backup format, joining each
// row with the cached asset name.
func (s *Store) ExportJSON(w io.Writer) error {
	txs, assets, err := s.ReadView()
	if err != nil {
		return err
	}

	backup := jbackup{
		Transactions: make([]jtransaction, 0, len(txs)),
		ExportedAt:   strconv.FormatInt(time.Now().Unix(), 10),
	}
	for _, t := range txs {
		name := t.Symbol
		assetType := t.Type.String()
		if a, ok := assets[t.Symbol]; ok {
			name = a.Name
			assetType = a.Type.String()
		}
		backup.Transactions = append(backup.Transactions, jtransaction{
			Date:       t.Date,
			Symbol:     t.Symbol,
			Name:       name,
			AssetType:  assetType,
			Type:       strings.ToLower(t.Kind.String()),
			Quantity:   json.Number(t.Quantity.String()),
			Price:      json.Number(t.Price.Decimal().String()),
			Total:      json.Number(t.Total().Decimal().String()),
			Notes:      t.Notes,
			Fees:       json.Number(t.Fees.Decimal().String()),
			Currency:   t.Currency(),
			Broker:     t.Broker,
			IsDividend: t.IsDividend,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}
	s.log.Info().Int("transactions", len(backup.Transactions)).Msg("Ledger exported")
	return nil
}

// ImportJSON reads a backup from r and appends its transactions to the
// ledger, all-or-nothing in one database transaction. It accepts either the
// full backup object or a bare transaction list. Rows with a missing class
// get one inferred from the symbol shape, and a "-" date means today.
func (s *Store) ImportJSON(r io.Reader) (int, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("failed to read backup: %w", err)
	}

	var backup jbackup
	if err := json.Unmarshal(raw, &backup); err != nil || backup.Transactions == nil {
		var list []jtransaction
		if err := json.Unmarshal(raw, &list); err != nil {
			return 0, fmt.Errorf("backup is neither a backup object nor a transaction list: %w", err)
		}
		backup.Transactions = list
	}

	txs := make([]Transaction, 0, len(backup.Transactions))
	names := make([]string, 0, len(backup.Transactions))
	for i, jt := range backup.Transactions {
		t, name, err := importRow(jt)
		if err != nil {
			return 0, fmt.Errorf("backup row %d (%s): %w", i, jt.Symbol, err)
		}
		txs = append(txs, t)
		names = append(names, name)
	}

	dbtx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = dbtx.Rollback() }()

	for i, t := range txs {
		_, err := dbtx.Exec(`
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
			return 0, fmt.Errorf("failed to import row %d (%s): %w", i, t.Symbol, err)
		}
		if err := ensureAsset(dbtx, t, names[i]); err != nil {
			return 0, err
		}
	}

	if err := dbtx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}
	s.log.Info().Int("transactions", len(txs)).Msg("Backup imported")
	return len(txs), nil
}

func importRow(jt jtransaction) (Transaction, string, error) {
	var t Transaction

	t.Date = jt.Date
	if t.Date == "-" || t.Date == "" {
		t.Date = date.Today().String()
	}
	t.Symbol = strings.ToUpper(strings.TrimSpace(jt.Symbol))
	if t.Symbol == "" {
		return t, "", fmt.Errorf("missing symbol")
	}

	name := jt.Name
	if name == "" {
		name = t.Symbol
	}
	if at, err := ParseAssetType(jt.AssetType); err == nil {
		t.Type = at
	} else {
		t.Type = InferAssetType(t.Symbol, name)
	}
	if k, err := ParseTxKind(jt.Type); err == nil {
		t.Kind = k
	} else {
		t.Kind = Sell
	}

	cur := jt.Currency
	if cur == "" {
		cur = DefaultCurrency
	}
	qty, err := parseNumber(jt.Quantity)
	if err != nil {
		return t, "", fmt.Errorf("bad quantity %q: %w", jt.Quantity, err)
	}
	price, err := parseNumber(jt.Price)
	if err != nil {
		return t, "", fmt.Errorf("bad price %q: %w", jt.Price, err)
	}
	t.Quantity = Q(qty)
	t.Price = M(price, cur)
	if jt.Fees != "" {
		fees, err := parseNumber(jt.Fees)
		if err != nil {
			return t, "", fmt.Errorf("bad fees %q: %w", jt.Fees, err)
		}
		t.Fees = M(fees, cur)
	} else {
		t.Fees = M(decimal.Zero, cur)
	}
	t.Broker = jt.Broker
	t.Notes = jt.Notes
	t.IsDividend = jt.IsDividend

	if err := t.Validate(); err != nil {
		return t, "", err
	}
	return t, name, nil
}

func parseNumber(n json.Number) (decimal.Decimal, error) {
	if n == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(n.String())
}
