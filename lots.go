package portfolio

import "github.com/emrek92/Portfoy-Takip/date"

// lot is a single still-open purchase batch of a symbol, tracked for FIFO
// matching. Lots are derived state: they live only for the duration of one
// valuation pass and are never persisted.
type lot struct {
	txID      int64
	openDate  date.Date
	remaining Quantity
	unitCost  Money
}

// lotQueue is the per-symbol FIFO queue of open lots, oldest first.
type lotQueue struct {
	lots []lot
}

// push records a purchase.
func (q *lotQueue) push(txID int64, on date.Date, quantity Quantity, unitCost Money) {
	q.lots = append(q.lots, lot{txID: txID, openDate: on, remaining: quantity, unitCost: unitCost})
}

// sellOutcome is the result of matching one sell against the queue.
type sellOutcome struct {
	realized  Money    // sum of consumed*(sellPrice-lotCost) over matched lots
	matched   Quantity // quantity covered by open lots
	unmatched Quantity // excess sell quantity with no matching lot
	heldDays  Quantity // sum of consumed*daysHeld, for weighted holding period
}

// sell consumes up to quantity units from the front of the queue, splitting
// the front lot when it holds more than needed. The excess of an oversell is
// reported, never clamped and never matched against a fabricated zero-cost
// lot.
func (q *lotQueue) sell(on date.Date, quantity Quantity, price Money) sellOutcome {
	var out sellOutcome
	remaining := quantity

	for len(q.lots) > 0 && remaining.IsPositive() {
		front := &q.lots[0]
		take := front.remaining
		if take.GreaterThan(remaining) {
			take = remaining
		}

		gainPerUnit := price.Sub(front.unitCost)
		out.realized = out.realized.Add(gainPerUnit.Mul(take))
		out.matched = out.matched.Add(take)
		out.heldDays = out.heldDays.Add(take.Mul(Q(on.Sub(front.openDate))))

		front.remaining = front.remaining.Sub(take)
		remaining = remaining.Sub(take)
		if front.remaining.IsZero() {
			q.lots = q.lots[1:]
		}
	}

	out.unmatched = remaining
	return out
}

// quantity sums the remaining units of all open lots.
func (q *lotQueue) quantity() Quantity {
	var total Quantity
	for _, l := range q.lots {
		total = total.Add(l.remaining)
	}
	return total
}

// costBasis sums remaining*unitCost over all open lots.
func (q *lotQueue) costBasis() Money {
	var total Money
	for _, l := range q.lots {
		total = total.Add(l.unitCost.Mul(l.remaining))
	}
	return total
}

// avgCost is the quantity-weighted mean unit cost of the remaining lots.
func (q *lotQueue) avgCost() Money {
	qty := q.quantity()
	if qty.IsZero() {
		return Money{}
	}
	return q.costBasis().Div(qty)
}
