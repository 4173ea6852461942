package portfolio

import (
	"fmt"
	"time"

	"github.com/emrek92/Portfoy-Takip/date"
)

// Performance is a value change against an earlier snapshot, keeping both
// endpoint values so callers can display them alongside the delta.
type Performance struct {
	StartValue float64
	EndValue   float64
	Change     float64
	ChangePct  float64
}

// PerformanceSince diffs the current value against a past one. A missing or
// non-positive past value yields a zero delta, not an error.
func PerformanceSince(current, past float64) Performance {
	p := Performance{StartValue: past, EndValue: current}
	if past <= 0 {
		return p
	}
	p.Change = current - past
	p.ChangePct = p.Change / past * 100
	return p
}

// usdSanityLimit guards against a corrupt cached USD rate (e.g. a gold gram
// price stored under the USD symbol).
const usdSanityLimit = 500

// Summary is the aggregate, derived view of the whole portfolio.
type Summary struct {
	Date           date.Date
	TotalValue     Money
	TotalValueUSD  float64
	CostBasis      Money
	UnrealizedPnL  Money
	RealizedPnL    Money
	TotalReturn    Money
	ROIPct         float64
	HoldingsCount  int
	TopPerformer   string
	WorstPerformer string
	AvgHoldingDays float64
	LastUpdated    time.Time

	Daily   Performance
	Weekly  Performance
	Monthly Performance
}

// BuildSummary aggregates a valuation into a Summary. Period deltas are not
// filled here; they need snapshot history and are applied by the service.
func BuildSummary(on date.Date, v Valuation, usdRate float64, lastUpdated time.Time) Summary {
	s := Summary{
		Date:           on,
		RealizedPnL:    v.RealizedPnL,
		HoldingsCount:  len(v.Holdings),
		AvgHoldingDays: v.AvgHoldingDays,
		LastUpdated:    lastUpdated,
		TopPerformer:   "-",
		WorstPerformer: "-",
	}

	var top, worst *Holding
	for i := range v.Holdings {
		h := &v.Holdings[i]
		s.TotalValue = s.TotalValue.Add(h.Value)
		s.CostBasis = s.CostBasis.Add(h.AvgCost.Mul(h.Quantity))
		s.UnrealizedPnL = s.UnrealizedPnL.Add(h.UnrealizedPnL)
		if top == nil || h.UnrealizedPnLPct > top.UnrealizedPnLPct {
			top = h
		}
		if worst == nil || h.UnrealizedPnLPct < worst.UnrealizedPnLPct {
			worst = h
		}
	}
	if top != nil {
		s.TopPerformer = fmt.Sprintf("%s (%%%.1f)", top.Symbol, top.UnrealizedPnLPct)
		s.WorstPerformer = fmt.Sprintf("%s (%%%.1f)", worst.Symbol, worst.UnrealizedPnLPct)
	}

	s.TotalReturn = s.UnrealizedPnL.Add(s.RealizedPnL)
	s.ROIPct = s.UnrealizedPnL.Ratio(s.CostBasis) * 100

	if usdRate > usdSanityLimit {
		usdRate = 1.0
	}
	if usdRate > 0 {
		s.TotalValueUSD = s.TotalValue.InexactFloat64() / usdRate
	}
	return s
}

// Snapshot is a persisted, date-keyed rollup of portfolio value used to
// compute historical deltas without replaying the full ledger.
type Snapshot struct {
	Date           date.Date
	TotalValue     float64
	TotalValueUSD  float64
	CostBasis      float64
	RealizedPnL    float64
	UnrealizedPnL  float64
	CashBalance    float64
	TotalReturnPct float64
}

// SnapshotOf captures the persistable fields of a summary.
func SnapshotOf(s Summary) Snapshot {
	return Snapshot{
		Date:           s.Date,
		TotalValue:     s.TotalValue.InexactFloat64(),
		TotalValueUSD:  s.TotalValueUSD,
		CostBasis:      s.CostBasis.InexactFloat64(),
		RealizedPnL:    s.RealizedPnL.InexactFloat64(),
		UnrealizedPnL:  s.UnrealizedPnL.InexactFloat64(),
		TotalReturnPct: s.ROIPct,
	}
}
