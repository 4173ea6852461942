package portfolio

import (
	"fmt"
	"strings"

	"github.com/emrek92/Portfoy-Takip/date"
)

// TxKind is the direction of a ledger entry.
type TxKind int

const (
	Buy TxKind = iota
	Sell
)

func (k TxKind) String() string {
	if k == Buy {
		return "BUY"
	}
	return "SELL"
}

// ParseTxKind normalizes a persisted transaction type. Legacy exports carry
// Turkish variants ("Alış", "Satış", single letters), all folded here.
func ParseTxKind(s string) (TxKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY", "ALIM", "ALIŞ", "ALIS", "A", "PURCHASE":
		return Buy, nil
	case "SELL", "SATIM", "SATIŞ", "SATIS", "S":
		return Sell, nil
	}
	// Mixed-case free text from old backups ("Hisse Alış" etc).
	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "buy"), strings.Contains(lower, "alış"), strings.Contains(lower, "alis"):
		return Buy, nil
	case strings.Contains(lower, "sell"), strings.Contains(lower, "satış"), strings.Contains(lower, "satis"):
		return Sell, nil
	}
	return 0, fmt.Errorf("unknown transaction type: %q", s)
}

// Transaction is one ledger entry. The ledger is append-only: rows change only
// through the explicit update/delete operations of the service.
//
// Date is kept as persisted, not pre-parsed: a malformed date in a legacy row
// must not prevent the rest of the ledger from loading. The valuation engine
// parses it and pushes unparsable rows out of FIFO matching.
type Transaction struct {
	ID         int64
	Date       string
	Type       AssetType
	Symbol     string
	Kind       TxKind
	Quantity   Quantity
	Price      Money
	Fees       Money
	IsDividend bool
	Broker     string
	Notes      string
}

// Day parses the transaction date.
func (t Transaction) Day() (date.Date, error) { return date.Parse(t.Date) }

// Currency returns the transaction's currency code.
func (t Transaction) Currency() string {
	if c := t.Price.Currency(); c != "" {
		return c
	}
	return DefaultCurrency
}

// Total returns quantity * price.
func (t Transaction) Total() Money { return t.Price.Mul(t.Quantity) }

// Validate checks the fields a caller must get right before the transaction
// enters the ledger.
func (t Transaction) Validate() error {
	var violations []string
	if strings.TrimSpace(t.Symbol) == "" {
		violations = append(violations, "symbol is required")
	}
	if !t.Quantity.IsPositive() {
		violations = append(violations, fmt.Sprintf("quantity must be positive, got %s", t.Quantity))
	}
	if t.Price.IsNegative() {
		violations = append(violations, "price cannot be negative")
	}
	if t.Fees.IsNegative() {
		violations = append(violations, "fees cannot be negative")
	}
	if _, err := date.Parse(t.Date); err != nil {
		violations = append(violations, err.Error())
	}
	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

// Normalized returns a copy with canonical symbol casing and currency set.
func (t Transaction) Normalized() Transaction {
	t.Symbol = strings.ToUpper(strings.TrimSpace(t.Symbol))
	if t.Price.Currency() == "" {
		t.Price = M(t.Price.Decimal(), DefaultCurrency)
	}
	if t.Fees.Currency() == "" {
		t.Fees = M(t.Fees.Decimal(), t.Price.Currency())
	}
	return t
}
