package date

import (
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Date
		wantErr bool
	}{
		{"2025-01-15", New(2025, time.January, 15), false},
		{"2025-1-5", New(2025, time.January, 5), false},
		{"2025-02-30", New(2025, time.March, 2), true}, // time.Parse rejects out-of-range days
		{"15.01.2025", Date{}, true},
		{"", Date{}, true},
		{"not-a-date", Date{}, true},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("Parse(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestAddNormalizes(t *testing.T) {
	d := New(2025, time.January, 31).Add(1)
	if d != New(2025, time.February, 1) {
		t.Errorf("Add(1) = %v, want 2025-02-01", d)
	}
	d = New(2025, time.March, 1).Add(-1)
	if d != New(2025, time.February, 28) {
		t.Errorf("Add(-1) = %v, want 2025-02-28", d)
	}
}

func TestSub(t *testing.T) {
	a := New(2025, time.January, 10)
	b := New(2025, time.January, 1)
	if got := a.Sub(b); got != 9 {
		t.Errorf("Sub = %d, want 9", got)
	}
}

func TestRangeContains(t *testing.T) {
	r := Range{From: New(2025, time.January, 1), To: New(2025, time.January, 31)}
	if !r.Contains(New(2025, time.January, 15)) {
		t.Error("expected mid-range date to be contained")
	}
	if r.Contains(New(2025, time.February, 1)) {
		t.Error("expected out-of-range date to be excluded")
	}
	open := Range{}
	if !open.Contains(New(1999, time.June, 1)) {
		t.Error("open range should contain everything")
	}
}

func TestIsWeekend(t *testing.T) {
	if !New(2025, time.January, 4).IsWeekend() { // Saturday
		t.Error("2025-01-04 should be a weekend")
	}
	if New(2025, time.January, 6).IsWeekend() { // Monday
		t.Error("2025-01-06 should not be a weekend")
	}
}
