package temporal

import (
	"errors"
	"testing"
	"time"
)

// Thursday 2025-08-07, 10:00 local.
var refNow = time.Date(2025, 8, 7, 10, 0, 0, 0, time.UTC)

func TestResolveDate(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"today", "2025-08-07"},
		{"tomorrow", "2025-08-08"},
		{"Tomorrow", "2025-08-08"},
		{"day after tomorrow", "2025-08-09"},
		{"this Thursday", "2025-08-07"}, // same day, not passed: resolves to today
		{"this Friday", "2025-08-08"},
		{"this Wednesday", "2025-08-13"}, // already passed this week
		{"next Thursday", "2025-08-14"},  // always the week after
		{"next Friday", "2025-08-15"},
		{"next Monday", "2025-08-18"},
		{"Friday", "2025-08-08"}, // bare weekday behaves like "this"
		{"8/14", "2025-08-14"},
		{"12/03", "2025-12-03"},
		{"8/1", "2026-08-01"}, // already passed: next year
		{"8/14/2027", "2027-08-14"},
		{"2025-08-20", "2025-08-20"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := ResolveDate(tt.expr, refNow)
			if err != nil {
				t.Fatalf("ResolveDate(%q) error: %v", tt.expr, err)
			}
			if got != tt.want {
				t.Fatalf("ResolveDate(%q) = %q, want %q", tt.expr, got, tt.want)
			}
		})
	}
}

func TestResolveDateLateInTheDay(t *testing.T) {
	// Date resolution is by calendar day, not hour: "this Thursday" asked
	// at 23:00 on a Thursday is still today.
	late := time.Date(2025, 8, 7, 23, 0, 0, 0, time.UTC)
	got, err := ResolveDate("this Thursday", late)
	if err != nil {
		t.Fatal(err)
	}
	if got != "2025-08-07" {
		t.Fatalf("expected same-day resolution, got %q", got)
	}

	// The week-after branch is reached via "next".
	got, err = ResolveDate("next Thursday", late)
	if err != nil {
		t.Fatal(err)
	}
	if got != "2025-08-14" {
		t.Fatalf("expected next-week resolution, got %q", got)
	}
}

func TestResolveDateAmbiguous(t *testing.T) {
	for _, expr := range []string{"", "sometime soon", "13/45", "next weekish", "2/30"} {
		if _, err := ResolveDate(expr, refNow); !errors.Is(err, ErrAmbiguous) {
			t.Fatalf("ResolveDate(%q) expected ErrAmbiguous, got %v", expr, err)
		}
	}
}

func TestResolveTime(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"3pm", "15:00"},
		{"3 pm", "15:00"},
		{"2:30 PM", "14:30"},
		{"2:30pm", "14:30"},
		{"9am", "09:00"},
		{"12am", "00:00"},
		{"12pm", "12:00"},
		{"noon", "12:00"},
		{"midnight", "00:00"},
		{"14:30", "14:30"},
		{"09:05", "09:05"},
		{"11:59 p.m.", "23:59"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := ResolveTime(tt.expr)
			if err != nil {
				t.Fatalf("ResolveTime(%q) error: %v", tt.expr, err)
			}
			if got != tt.want {
				t.Fatalf("ResolveTime(%q) = %q, want %q", tt.expr, got, tt.want)
			}
		})
	}
}

func TestResolveTimeRoundTrip(t *testing.T) {
	// Every valid 24-hour HH:MM survives a trip through 12-hour rendering
	// and back.
	for hour := 0; hour < 24; hour++ {
		for _, minute := range []int{0, 15, 30, 59} {
			hhmm := time.Date(2025, 1, 1, hour, minute, 0, 0, time.UTC).Format(TimeLayout)
			twelve := time.Date(2025, 1, 1, hour, minute, 0, 0, time.UTC).Format("3:04 PM")
			got, err := ResolveTime(twelve)
			if err != nil {
				t.Fatalf("ResolveTime(%q) error: %v", twelve, err)
			}
			if got != hhmm {
				t.Fatalf("round trip %q -> %q, want %q", hhmm, got, hhmm)
			}
		}
	}
}

func TestResolveTimeAmbiguous(t *testing.T) {
	for _, expr := range []string{"", "3", "late afternoon", "25:00", "13pm", "10:75"} {
		if _, err := ResolveTime(expr); !errors.Is(err, ErrAmbiguous) {
			t.Fatalf("ResolveTime(%q) expected ErrAmbiguous, got %v", expr, err)
		}
	}
}

func TestDurationMinutes(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"1 hour", 60},
		{"2 hours", 120},
		{"90 minutes", 90},
		{"45 min", 45},
		{"1 hour 30 minutes", 90},
		{"1.5 hours", 90},
		{"all day", 60}, // unrecognized: documented default
		{"", 60},
	}

	for _, tt := range tests {
		if got := DurationMinutes(tt.text, 60); got != tt.want {
			t.Fatalf("DurationMinutes(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestAddMinutes(t *testing.T) {
	got, err := AddMinutes("15:00", 60)
	if err != nil {
		t.Fatal(err)
	}
	if got != "16:00" {
		t.Fatalf("AddMinutes = %q, want 16:00", got)
	}

	got, err = AddMinutes("23:30", 45)
	if err != nil {
		t.Fatal(err)
	}
	if got != "00:15" {
		t.Fatalf("AddMinutes wrap = %q, want 00:15", got)
	}

	if _, err := AddMinutes("25:00", 10); err == nil {
		t.Fatal("expected error for invalid time")
	}
}
