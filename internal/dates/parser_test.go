package dates

import (
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 4, 5, 0, time.UTC)
	parser := NewParserAt(now)

	tests := []struct {
		input    string
		expected time.Time
		wantErr  bool
	}{
		{"hoy", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), false},
		{"Today", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), false},
		{"mañana", time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), false},
		{"2025-03-11", time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), false},
		{"11/03/2025", time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), false},
		{"11.03.2025", time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), false},
		{"11.03", time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), false},
		{"11 marzo 2025", time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), false},
		{"11 de marzo de 2026", time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), false},
		{"11 march", time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), false},
		{"31/02/2025", time.Time{}, true},
		{"11 brumario 2025", time.Time{}, true},
		{"2025-13-01", time.Time{}, true},
		{"", time.Time{}, true},
		{"someday", time.Time{}, true},
	}

	for _, tt := range tests {
		result, err := parser.Parse(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if err == nil && !result.Equal(tt.expected) {
			t.Errorf("Parse(%q) = %v, want %v", tt.input, result, tt.expected)
		}
	}
}

func TestWindow(t *testing.T) {
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	single := SingleDay(start)
	if single.IsRange() || single.Days() != 1 {
		t.Errorf("SingleDay = %+v, want one day", single)
	}

	w, err := NewWindow(start, start.AddDate(0, 0, 6))
	if err != nil {
		t.Fatalf("NewWindow: %v", err)
	}
	if !w.IsRange() || w.Days() != 7 {
		t.Errorf("Days() = %d, want 7", w.Days())
	}
	if got := w.String(); got != "2025-03-01..2025-03-07" {
		t.Errorf("String() = %q", got)
	}

	long, _ := NewWindow(start, start.AddDate(0, 0, 59))
	if long.CalendarDays() != MaxCalendarDays {
		t.Errorf("CalendarDays() = %d, want %d", long.CalendarDays(), MaxCalendarDays)
	}

	if _, err := NewWindow(start, start.AddDate(0, 0, -1)); err == nil {
		t.Errorf("expected error for end before start")
	}
}
