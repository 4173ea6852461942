package portfolio

import "github.com/emrek92/Portfoy-Takip/date"

// Aliases so callers outside the package rarely need to import date directly.

type Date = date.Date
type DateRange = date.Range

// Today returns the current date.
func Today() Date { return date.Today() }

// ParseDate parses a day-granularity date, accepting single-digit months and
// days.
func ParseDate(s string) (Date, error) { return date.Parse(s) }

// NewDateRange builds an inclusive range, swapping the ends if reversed.
func NewDateRange(from, to Date) DateRange {
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		from, to = to, from
	}
	return DateRange{From: from, To: to}
}
