package portfolio

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/emrek92/Portfoy-Takip/date"
)

func buyTx(id int64, day, symbol string, qty, price float64) Transaction {
	return Transaction{ID: id, Date: day, Symbol: symbol, Kind: Buy,
		Quantity: Q(qty), Price: TRY(price), Type: Equity}
}

func sellTx(id int64, day, symbol string, qty, price float64) Transaction {
	return Transaction{ID: id, Date: day, Symbol: symbol, Kind: Sell,
		Quantity: Q(qty), Price: TRY(price), Type: Equity}
}

func TestValuate_FIFOExample(t *testing.T) {
	txs := []Transaction{
		buyTx(1, "2025-01-01", "THYAO", 10, 100),
		buyTx(2, "2025-01-05", "THYAO", 10, 120),
		sellTx(3, "2025-01-10", "THYAO", 15, 150),
	}
	assets := map[string]Asset{
		"THYAO": {Symbol: "THYAO", Name: "Türk Hava Yolları", Type: Equity, CurrentPrice: 150},
	}

	v := Valuate(txs, assets)

	if want := TRY(650); !v.RealizedPnL.Equal(want) {
		t.Errorf("RealizedPnL = %s, want %s", v.RealizedPnL, want)
	}
	if len(v.Holdings) != 1 {
		t.Fatalf("Holdings = %d, want 1", len(v.Holdings))
	}
	h := v.Holdings[0]
	if !h.Quantity.Equal(Q(5)) {
		t.Errorf("Quantity = %s, want 5", h.Quantity)
	}
	if want := TRY(120); !h.AvgCost.Equal(want) {
		t.Errorf("AvgCost = %s, want %s", h.AvgCost, want)
	}
	if want := TRY(150); !h.UnrealizedPnL.Equal(want) {
		t.Errorf("UnrealizedPnL = %s, want %s", h.UnrealizedPnL, want)
	}
}

func TestValuate_InsertionOrderIndependent(t *testing.T) {
	txs := []Transaction{
		buyTx(1, "2025-01-01", "AAA", 10, 10),
		buyTx(2, "2025-02-01", "AAA", 10, 20),
		sellTx(3, "2025-03-01", "AAA", 15, 30),
		buyTx(4, "2025-01-15", "BBB", 5, 100),
	}
	assets := map[string]Asset{
		"AAA": {Symbol: "AAA", CurrentPrice: 30},
		"BBB": {Symbol: "BBB", CurrentPrice: 90},
	}

	want := Valuate(txs, assets)

	for i := 0; i < 10; i++ {
		shuffled := make([]Transaction, len(txs))
		copy(shuffled, txs)
		rand.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got := Valuate(shuffled, assets)
		if !got.RealizedPnL.Equal(want.RealizedPnL) {
			t.Fatalf("RealizedPnL = %s, want %s (order %v)", got.RealizedPnL, want.RealizedPnL, shuffled)
		}
		if len(got.Holdings) != len(want.Holdings) {
			t.Fatalf("Holdings = %d, want %d", len(got.Holdings), len(want.Holdings))
		}
		for j := range got.Holdings {
			if got.Holdings[j].Symbol != want.Holdings[j].Symbol ||
				!got.Holdings[j].Quantity.Equal(want.Holdings[j].Quantity) {
				t.Fatalf("holding %d differs after shuffle", j)
			}
		}
	}
}

func TestValuate_Idempotent(t *testing.T) {
	txs := []Transaction{
		buyTx(1, "2025-01-01", "AAA", 10, 10),
		buyTx(2, "2025-02-01", "AAA", 10, 20),
		sellTx(3, "2025-03-01", "AAA", 15, 30),
		sellTx(4, "2025-04-01", "BBB", 5, 100),
		buyTx(5, "not-a-date", "CCC", 1, 1),
	}
	assets := map[string]Asset{
		"AAA": {Symbol: "AAA", CurrentPrice: 30},
	}

	first := Valuate(txs, assets)
	second := Valuate(txs, assets)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated valuation differs:\n%+v\n%+v", first, second)
	}
}

func TestValuate_ForeignCurrencyRows(t *testing.T) {
	// Rows recorded with -c USD must value against TRY quotes, not fault.
	txs := []Transaction{
		{ID: 1, Date: "2025-01-01", Symbol: "AAPL", Kind: Buy,
			Quantity: Q(10), Price: M(100, "USD"), Type: Equity},
		{ID: 2, Date: "2025-02-01", Symbol: "AAPL", Kind: Sell,
			Quantity: Q(4), Price: TRY(150), Type: Equity},
	}
	assets := map[string]Asset{
		"AAPL": {Symbol: "AAPL", Name: "Apple", Type: Equity, CurrentPrice: 150},
	}

	v := Valuate(txs, assets)

	if want := TRY(200); !v.RealizedPnL.Equal(want) {
		t.Errorf("RealizedPnL = %s, want %s", v.RealizedPnL, want)
	}
	h := v.Holdings[0]
	if !h.Quantity.Equal(Q(6)) {
		t.Errorf("Quantity = %s, want 6", h.Quantity)
	}
	if want := TRY(300); !h.UnrealizedPnL.Equal(want) {
		t.Errorf("UnrealizedPnL = %s, want %s", h.UnrealizedPnL, want)
	}
}

func TestValuate_SameDayTiesKeepInsertionOrder(t *testing.T) {
	// Buy then sell on the same day must match; reversing ids must oversell.
	txs := []Transaction{
		buyTx(1, "2025-01-01", "AAA", 10, 10),
		sellTx(2, "2025-01-01", "AAA", 10, 20),
	}
	v := Valuate(txs, map[string]Asset{})
	if want := TRY(100); !v.RealizedPnL.Equal(want) {
		t.Errorf("RealizedPnL = %s, want %s", v.RealizedPnL, want)
	}

	reversed := []Transaction{
		sellTx(1, "2025-01-01", "AAA", 10, 20),
		buyTx(2, "2025-01-01", "AAA", 10, 10),
	}
	v = Valuate(reversed, map[string]Asset{})
	if !v.RealizedPnL.IsZero() {
		t.Errorf("RealizedPnL = %s, want 0 for sell-before-buy", v.RealizedPnL)
	}
	found := false
	for _, h := range v.Holdings {
		if h.Symbol == "AAA" && h.UnmatchedSell.Equal(Q(10)) {
			found = true
		}
	}
	if !found {
		t.Error("expected AAA holding reporting 10 unmatched units")
	}
}

func TestValuate_ExcludesUnparsableDates(t *testing.T) {
	txs := []Transaction{
		buyTx(1, "2025-01-01", "AAA", 10, 10),
		buyTx(2, "not-a-date", "AAA", 99, 1),
		sellTx(3, "2025-02-01", "AAA", 5, 20),
	}
	v := Valuate(txs, map[string]Asset{})

	if len(v.Excluded) != 1 || v.Excluded[0] != 2 {
		t.Fatalf("Excluded = %v, want [2]", v.Excluded)
	}
	// The malformed buy must not feed the FIFO queue.
	if !v.Holdings[0].Quantity.Equal(Q(5)) {
		t.Errorf("Quantity = %s, want 5", v.Holdings[0].Quantity)
	}
	if want := TRY(50); !v.RealizedPnL.Equal(want) {
		t.Errorf("RealizedPnL = %s, want %s", v.RealizedPnL, want)
	}
}

func TestValuate_ZeroCostBasisPct(t *testing.T) {
	txs := []Transaction{
		buyTx(1, "2025-01-01", "FREE", 10, 0),
	}
	assets := map[string]Asset{"FREE": {Symbol: "FREE", CurrentPrice: 5}}
	v := Valuate(txs, assets)

	h := v.Holdings[0]
	if h.UnrealizedPnLPct != 0 {
		t.Errorf("UnrealizedPnLPct = %f, want 0 for zero cost basis", h.UnrealizedPnLPct)
	}
	if want := TRY(50); !h.UnrealizedPnL.Equal(want) {
		t.Errorf("UnrealizedPnL = %s, want %s", h.UnrealizedPnL, want)
	}
}

func TestRealizedPnLInRange_UsesFullHistoryForLots(t *testing.T) {
	txs := []Transaction{
		buyTx(1, "2024-01-01", "AAA", 10, 10), // consumed before the range
		sellTx(2, "2024-06-01", "AAA", 10, 20),
		buyTx(3, "2024-07-01", "AAA", 10, 30),
		sellTx(4, "2025-01-15", "AAA", 10, 40),
	}

	r := DateRange{From: date.New(2025, 1, 1), To: date.New(2025, 12, 31)}
	got := RealizedPnLInRange(txs, r)

	// Only the second sell is in range, and it must consume the 30-cost lot
	// because the 10-cost lot was already sold in 2024.
	if want := TRY(100); !got.Equal(want) {
		t.Errorf("RealizedPnLInRange = %s, want %s", got, want)
	}

	// The full range equals the unfiltered walk.
	full := RealizedPnLInRange(txs, DateRange{})
	if want := TRY(200); !full.Equal(want) {
		t.Errorf("full range = %s, want %s", full, want)
	}
}

func TestValuate_AvgHoldingDays(t *testing.T) {
	txs := []Transaction{
		buyTx(1, "2025-01-01", "AAA", 10, 10),
		sellTx(2, "2025-01-11", "AAA", 10, 10),
	}
	v := Valuate(txs, map[string]Asset{})
	if v.AvgHoldingDays != 10 {
		t.Errorf("AvgHoldingDays = %f, want 10", v.AvgHoldingDays)
	}
}
