package calendar

import (
	"testing"
	"time"
)

func mustDate(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNextOccurrence(t *testing.T) {
	t.Run("same weekday returns the date itself", func(t *testing.T) {
		got := NextOccurrence(time.Tuesday, mustDate("2024-01-02"))
		if !got.Equal(mustDate("2024-01-02")) {
			t.Errorf("NextOccurrence = %s, want 2024-01-02", got.Format(DateLayout))
		}
	})

	t.Run("later weekday in the same week", func(t *testing.T) {
		got := NextOccurrence(time.Friday, mustDate("2024-01-02"))
		if !got.Equal(mustDate("2024-01-05")) {
			t.Errorf("NextOccurrence = %s, want 2024-01-05", got.Format(DateLayout))
		}
	})

	t.Run("earlier weekday wraps to next week", func(t *testing.T) {
		got := NextOccurrence(time.Monday, mustDate("2024-01-02"))
		if !got.Equal(mustDate("2024-01-08")) {
			t.Errorf("NextOccurrence = %s, want 2024-01-08", got.Format(DateLayout))
		}
	})

	t.Run("time of day is dropped", func(t *testing.T) {
		got := NextOccurrence(time.Tuesday, time.Date(2024, 1, 2, 21, 30, 0, 0, time.UTC))
		if !got.Equal(mustDate("2024-01-02")) {
			t.Errorf("NextOccurrence = %v, want midnight 2024-01-02", got)
		}
	})

	t.Run("keeps the input location", func(t *testing.T) {
		loc, err := time.LoadLocation("America/New_York")
		if err != nil {
			t.Skipf("tzdata unavailable: %v", err)
		}
		got := NextOccurrence(time.Sunday, time.Date(2024, 3, 5, 0, 0, 0, 0, loc))
		if got.Location() != loc {
			t.Errorf("location = %v, want %v", got.Location(), loc)
		}
		// crosses the DST change on 2024-03-10
		if got.Day() != 10 || got.Hour() != 0 {
			t.Errorf("NextOccurrence = %v, want midnight 2024-03-10", got)
		}
	})
}

func TestWithinAnyRange(t *testing.T) {
	ranges := []Range{
		{Start: mustDate("2024-02-13"), End: mustDate("2024-02-13")},
		{Start: mustDate("2024-03-01"), End: mustDate("2024-03-15")},
	}

	tests := []struct {
		date string
		want bool
	}{
		{"2024-02-12", false},
		{"2024-02-13", true},
		{"2024-02-14", false},
		{"2024-03-01", true},
		{"2024-03-08", true},
		{"2024-03-15", true},
		{"2024-03-16", false},
	}
	for _, tt := range tests {
		if got := WithinAnyRange(mustDate(tt.date), ranges); got != tt.want {
			t.Errorf("WithinAnyRange(%s) = %v, want %v", tt.date, got, tt.want)
		}
	}

	if WithinAnyRange(mustDate("2024-02-13"), nil) {
		t.Error("WithinAnyRange with no ranges = true, want false")
	}
}

func TestRangeContainsIgnoresZone(t *testing.T) {
	loc := time.FixedZone("UTC-8", -8*3600)
	r := Range{Start: mustDate("2024-02-13"), End: mustDate("2024-02-13")}
	late := time.Date(2024, 2, 13, 23, 0, 0, 0, loc)
	if !r.Contains(late) {
		t.Errorf("range %s should contain %v", r, late)
	}
}

func TestRangeOverlaps(t *testing.T) {
	a := Range{Start: mustDate("2024-01-01"), End: mustDate("2024-01-10")}
	tests := []struct {
		name string
		b    Range
		want bool
	}{
		{"disjoint", Range{Start: mustDate("2024-01-11"), End: mustDate("2024-01-12")}, false},
		{"shared last day", Range{Start: mustDate("2024-01-10"), End: mustDate("2024-01-12")}, true},
		{"contained", Range{Start: mustDate("2024-01-03"), End: mustDate("2024-01-04")}, true},
		{"before", Range{Start: mustDate("2023-12-01"), End: mustDate("2023-12-31")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Overlaps(tt.b); got != tt.want {
				t.Errorf("Overlaps = %v, want %v", got, tt.want)
			}
			if got := tt.b.Overlaps(a); got != tt.want {
				t.Errorf("reverse Overlaps = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWeekOfSeason(t *testing.T) {
	start := mustDate("2024-01-02")
	tests := []struct {
		date string
		want int
	}{
		{"2024-01-01", 0},
		{"2024-01-02", 1},
		{"2024-01-08", 1},
		{"2024-01-09", 2},
		{"2024-02-13", 7},
	}
	for _, tt := range tests {
		if got := WeekOfSeason(start, mustDate(tt.date)); got != tt.want {
			t.Errorf("WeekOfSeason(%s) = %d, want %d", tt.date, got, tt.want)
		}
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		raw     string
		want    Clock
		wantErr bool
	}{
		{"18:30", At(18, 30), false},
		{"09:05", At(9, 5), false},
		{"6:30 PM", At(18, 30), false},
		{"6:30pm", At(18, 30), false},
		{"", 0, true},
		{"25:00", 0, true},
		{"evening", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseClock(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q) expected error", tt.raw)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q) error: %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseClock(%q) = %s, want %s", tt.raw, got, tt.want)
		}
	}
}

func TestClockOn(t *testing.T) {
	got := At(18, 30).On(mustDate("2024-01-02"))
	want := time.Date(2024, 1, 2, 18, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("On = %v, want %v", got, want)
	}
	if At(7, 5).String() != "07:05" {
		t.Errorf("String = %q, want 07:05", At(7, 5).String())
	}
}
