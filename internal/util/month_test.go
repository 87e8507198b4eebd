package util

import (
	"testing"
	"time"
)

func TestDateOf(t *testing.T) {
	in := time.Date(2026, 3, 14, 18, 45, 12, 99, time.UTC)
	got := DateOf(in)
	want := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("DateOf(%v) = %v, want %v", in, got, want)
	}
}

func TestDateOf_ConvertsToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	in := time.Date(2026, 3, 15, 2, 0, 0, 0, loc) // 2026-03-14 17:00 UTC
	got := DateOf(in)
	want := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("DateOf(%v) = %v, want %v", in, got, want)
	}
}

func TestMonthRange(t *testing.T) {
	tests := []struct {
		year      int
		month     time.Month
		wantStart string
		wantEnd   string
	}{
		{2026, time.January, "2026-01-01", "2026-01-31"},
		{2026, time.February, "2026-02-01", "2026-02-28"},
		{2028, time.February, "2028-02-01", "2028-02-29"},
		{2026, time.December, "2026-12-01", "2026-12-31"},
	}

	for _, tt := range tests {
		start, end := MonthRange(tt.year, tt.month)
		if start.Format("2006-01-02") != tt.wantStart || end.Format("2006-01-02") != tt.wantEnd {
			t.Errorf("MonthRange(%d, %s) = (%s, %s), want (%s, %s)",
				tt.year, tt.month, start.Format("2006-01-02"), end.Format("2006-01-02"), tt.wantStart, tt.wantEnd)
		}
	}
}

func TestCalculateActualDate(t *testing.T) {
	tests := []struct {
		name      string
		year      int
		month     time.Month
		targetDay int
		want      string
	}{
		{"day exists", 2026, time.March, 15, "2026-03-15"},
		{"day 31 in 30-day month", 2026, time.April, 31, "2026-04-30"},
		{"day 31 in february", 2026, time.February, 31, "2026-02-28"},
		{"day 30 in leap february", 2028, time.February, 30, "2028-02-29"},
		{"day below one", 2026, time.March, 0, "2026-03-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateActualDate(tt.year, tt.month, tt.targetDay).Format("2006-01-02")
			if got != tt.want {
				t.Errorf("CalculateActualDate(%d, %s, %d) = %s, want %s", tt.year, tt.month, tt.targetDay, got, tt.want)
			}
		})
	}
}

func TestAddMonthsClamped(t *testing.T) {
	tests := []struct {
		name string
		from string
		n    int
		want string
	}{
		{"mid month", "2026-01-15", 1, "2026-02-15"},
		{"jan 31 non-leap", "2026-01-31", 1, "2026-02-28"},
		{"jan 31 leap", "2028-01-31", 1, "2028-02-29"},
		{"march 31 to april", "2026-03-31", 1, "2026-04-30"},
		{"december rolls year", "2026-12-31", 1, "2027-01-31"},
		{"several months", "2026-01-31", 3, "2026-04-30"},
		{"feb 28 stays 28", "2026-02-28", 1, "2026-03-28"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, _ := time.Parse("2006-01-02", tt.from)
			got := AddMonthsClamped(from, tt.n).Format("2006-01-02")
			if got != tt.want {
				t.Errorf("AddMonthsClamped(%s, %d) = %s, want %s", tt.from, tt.n, got, tt.want)
			}
		})
	}
}

func TestAddMonthsClamped_KeepsTimeOfDay(t *testing.T) {
	from := time.Date(2026, 1, 31, 9, 30, 0, 0, time.UTC)
	got := AddMonthsClamped(from, 1)
	want := time.Date(2026, 2, 28, 9, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("AddMonthsClamped(%v, 1) = %v, want %v", from, got, want)
	}
}
