package portfolio

import (
	"testing"
	"time"

	"github.com/emrek92/Portfoy-Takip/date"
)

func TestLotQueue_SellSplitsFrontLot(t *testing.T) {
	q := &lotQueue{}
	q.push(1, date.New(2025, time.January, 1), Q(10), TRY(100))
	q.push(2, date.New(2025, time.January, 5), Q(10), TRY(120))

	out := q.sell(date.New(2025, time.January, 10), Q(15), TRY(150))

	// 10 @ (150-100) + 5 @ (150-120) = 500 + 150
	if want := TRY(650); !out.realized.Equal(want) {
		t.Errorf("realized = %s, want %s", out.realized, want)
	}
	if !out.matched.Equal(Q(15)) {
		t.Errorf("matched = %s, want 15", out.matched)
	}
	if !out.unmatched.IsZero() {
		t.Errorf("unmatched = %s, want 0", out.unmatched)
	}
	if !q.quantity().Equal(Q(5)) {
		t.Errorf("remaining = %s, want 5", q.quantity())
	}
	if want := TRY(120); !q.avgCost().Equal(want) {
		t.Errorf("avgCost = %s, want %s", q.avgCost(), want)
	}
}

func TestLotQueue_OversellReportsExcess(t *testing.T) {
	q := &lotQueue{}
	q.push(1, date.New(2025, time.January, 1), Q(10), TRY(100))

	out := q.sell(date.New(2025, time.January, 10), Q(12), TRY(150))

	// Only the matched 10 units realize PnL; the 2 extra are reported raw.
	if want := TRY(500); !out.realized.Equal(want) {
		t.Errorf("realized = %s, want %s", out.realized, want)
	}
	if !out.unmatched.Equal(Q(2)) {
		t.Errorf("unmatched = %s, want 2", out.unmatched)
	}
	if !q.quantity().IsZero() {
		t.Errorf("remaining = %s, want 0", q.quantity())
	}
}

func TestLotQueue_HeldDaysWeightedByQuantity(t *testing.T) {
	q := &lotQueue{}
	q.push(1, date.New(2025, time.January, 1), Q(10), TRY(100))
	q.push(2, date.New(2025, time.January, 11), Q(10), TRY(100))

	out := q.sell(date.New(2025, time.January, 21), Q(20), TRY(100))

	// 10 units held 20 days + 10 units held 10 days.
	if !out.heldDays.Equal(Q(300)) {
		t.Errorf("heldDays = %s, want 300", out.heldDays)
	}
}

func TestLotQueue_SellOnEmptyQueue(t *testing.T) {
	q := &lotQueue{}
	out := q.sell(date.New(2025, time.March, 1), Q(5), TRY(10))
	if !out.unmatched.Equal(Q(5)) {
		t.Errorf("unmatched = %s, want 5", out.unmatched)
	}
	if !out.realized.IsZero() {
		t.Errorf("realized = %s, want 0", out.realized)
	}
}
