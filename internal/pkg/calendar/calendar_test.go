package calendar

import (
	"testing"
	"time"
)

func d(s string) time.Time {
	t, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestWorkingDays(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
		want  int
	}{
		{"mon to fri", "2024-01-01", "2024-01-05", 5},
		{"weekend only", "2024-01-06", "2024-01-07", 0},
		{"single weekday", "2024-01-03", "2024-01-03", 1},
		{"single saturday", "2024-01-06", "2024-01-06", 0},
		{"two full weeks", "2024-01-01", "2024-01-14", 10},
		{"fri to mon", "2024-01-05", "2024-01-08", 2},
		{"start after end", "2024-01-05", "2024-01-01", 0},
		{"across year end", "2024-12-30", "2025-01-03", 5},
		{"leap february", "2024-02-01", "2024-02-29", 21},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WorkingDays(d(tt.start), d(tt.end)); got != tt.want {
				t.Errorf("WorkingDays(%s, %s) = %d, want %d", tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestWorkingDaysMatchesNaiveCount(t *testing.T) {
	base := d("2023-12-25")
	for offset := 0; offset < 14; offset++ {
		start := base.AddDate(0, 0, offset)
		for length := 0; length < 40; length++ {
			end := start.AddDate(0, 0, length)

			naive := 0
			for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
				if day.Weekday() != time.Saturday && day.Weekday() != time.Sunday {
					naive++
				}
			}

			if got := WorkingDays(start, end); got != naive {
				t.Fatalf("WorkingDays(%s, %s) = %d, want %d", start.Format(DateLayout), end.Format(DateLayout), got, naive)
			}
		}
	}
}

func TestWorkingDaysIgnoresTimeOfDay(t *testing.T) {
	start := time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC)
	end := time.Date(2024, 1, 5, 0, 1, 0, 0, time.UTC)
	if got := WorkingDays(start, end); got != 5 {
		t.Errorf("WorkingDays = %d, want 5", got)
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name         string
		aStart, aEnd string
		bStart, bEnd string
		want         bool
	}{
		{"partial", "2025-01-01", "2025-01-05", "2025-01-03", "2025-01-07", true},
		{"touching edge", "2025-01-01", "2025-01-05", "2025-01-05", "2025-01-06", true},
		{"contained", "2025-01-01", "2025-01-10", "2025-01-03", "2025-01-04", true},
		{"disjoint", "2025-01-01", "2025-01-05", "2025-01-06", "2025-01-07", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(d(tt.aStart), d(tt.aEnd), d(tt.bStart), d(tt.bEnd)); got != tt.want {
				t.Errorf("Overlaps = %v, want %v", got, tt.want)
			}
		})
	}
}
