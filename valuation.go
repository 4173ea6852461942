package portfolio

import (
	"sort"
	"strings"

	"github.com/emrek92/Portfoy-Takip/date"
)

// Holding is the derived position for one symbol: open FIFO quantity joined
// with the asset cache. Never persisted, recomputed on every request.
type Holding struct {
	Symbol           string
	Name             string
	Type             AssetType
	Quantity         Quantity
	AvgCost          Money
	CurrentPrice     Money
	Value            Money
	UnrealizedPnL    Money
	UnrealizedPnLPct float64
	DayChangePct     float64

	// UnmatchedSell is the total sell quantity for this symbol that found no
	// open lot. Non-zero means the ledger oversold: reported as data, the rest
	// of the portfolio still computes.
	UnmatchedSell Quantity
}

// Valuation is the result of one full FIFO pass over the ledger.
type Valuation struct {
	Holdings       []Holding
	RealizedPnL    Money
	AvgHoldingDays float64
	// Excluded lists ids of rows whose dates failed to parse. They are kept
	// out of FIFO matching so one malformed row cannot corrupt the order of
	// all others.
	Excluded []int64
}

// walkState carries the per-symbol FIFO queues and accumulators of one pass.
type walkState struct {
	queues    map[string]*lotQueue
	types     map[string]AssetType
	realized  Money
	matched   Quantity
	heldDays  Quantity
	unmatched map[string]Quantity
	excluded  []int64
}

// fifoWalk replays the full ledger in (date, insertion id) order, maintaining
// per-symbol FIFO queues. Lot state is always derived from the complete
// timeline; the filter only scopes which sells contribute to realized PnL, so
// lots consumed before a reporting range are correctly unavailable inside it.
func fifoWalk(txs []Transaction, filter date.Range) walkState {
	st := walkState{
		queues:    make(map[string]*lotQueue),
		types:     make(map[string]AssetType),
		unmatched: make(map[string]Quantity),
	}

	type dated struct {
		tx  Transaction
		day date.Date
	}
	ordered := make([]dated, 0, len(txs))
	for _, tx := range txs {
		day, err := tx.Day()
		if err != nil {
			st.excluded = append(st.excluded, tx.ID)
			continue
		}
		ordered = append(ordered, dated{tx: tx, day: day})
	}
	// Ties on the same day keep insertion order: sort by id first, then a
	// stable sort on date alone.
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].tx.ID < ordered[j].tx.ID })
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].day.Before(ordered[j].day) })

	for _, e := range ordered {
		symbol := strings.ToUpper(strings.TrimSpace(e.tx.Symbol))
		queue, ok := st.queues[symbol]
		if !ok {
			queue = &lotQueue{}
			st.queues[symbol] = queue
			st.types[symbol] = e.tx.Type
		}

		// Engine arithmetic stays in the reporting currency: rows keep their
		// own currency code on the record, but quotes are TRY-denominated, so
		// prices are re-tagged here to keep mixed ledgers computable.
		price := e.tx.Price.In(DefaultCurrency)

		switch e.tx.Kind {
		case Buy:
			queue.push(e.tx.ID, e.day, e.tx.Quantity, price)
		case Sell:
			out := queue.sell(e.day, e.tx.Quantity, price)
			if filter.Contains(e.day) {
				st.realized = st.realized.Add(out.realized)
				st.matched = st.matched.Add(out.matched)
				st.heldDays = st.heldDays.Add(out.heldDays)
			}
			if out.unmatched.IsPositive() {
				st.unmatched[symbol] = st.unmatched[symbol].Add(out.unmatched)
			}
		}
	}
	return st
}

// Valuate runs the FIFO engine over the ledger and joins open positions with
// the asset cache. It is a pure read path: deterministic for a fixed input
// and free of side effects.
func Valuate(txs []Transaction, assets map[string]Asset) Valuation {
	st := fifoWalk(txs, date.Range{})

	v := Valuation{
		RealizedPnL: st.realized,
		Excluded:    st.excluded,
	}
	if st.matched.IsPositive() {
		v.AvgHoldingDays = st.heldDays.Div(st.matched).InexactFloat64()
	}

	symbols := make([]string, 0, len(st.queues))
	for symbol := range st.queues {
		symbols = append(symbols, symbol)
	}
	for symbol := range st.unmatched {
		if _, ok := st.queues[symbol]; !ok {
			symbols = append(symbols, symbol)
		}
	}
	sort.Strings(symbols)

	for _, symbol := range symbols {
		queue := st.queues[symbol]
		var qty Quantity
		if queue != nil {
			qty = queue.quantity()
		}
		oversold := st.unmatched[symbol]
		if !qty.IsPositive() && !oversold.IsPositive() {
			continue
		}

		h := Holding{
			Symbol:        symbol,
			Name:          symbol,
			Type:          st.types[symbol],
			Quantity:      qty,
			UnmatchedSell: oversold,
		}
		if qty.IsPositive() {
			h.AvgCost = queue.avgCost()
		}

		if asset, ok := assets[symbol]; ok {
			h.Name = asset.Name
			h.Type = asset.Type
			h.CurrentPrice = TRY(asset.CurrentPrice)
			h.DayChangePct = asset.DayChangePct
		}

		h.Value = h.CurrentPrice.Mul(qty)
		costBasis := h.AvgCost.Mul(qty)
		h.UnrealizedPnL = h.Value.Sub(costBasis)
		h.UnrealizedPnLPct = h.UnrealizedPnL.Ratio(costBasis) * 100

		v.Holdings = append(v.Holdings, h)
	}
	return v
}

// RealizedPnLInRange re-runs the FIFO walk over the complete timeline and
// accumulates realized PnL only for sells dated inside the range.
func RealizedPnLInRange(txs []Transaction, r date.Range) Money {
	return fifoWalk(txs, r).realized
}
