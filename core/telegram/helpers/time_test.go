package helpers

import (
	"testing"
	"time"
)

func TestParseScheduleTime(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		in   string
		ok   bool
		want time.Time
	}{
		{"2025-07-01 10:00", true, time.Date(2025, 7, 1, 10, 0, 0, 0, loc)},
		{"2025-7-1 10:00", true, time.Date(2025, 7, 1, 10, 0, 0, 0, loc)},
		{"01.07.2025 10:00", true, time.Date(2025, 7, 1, 10, 0, 0, 0, loc)},
		{"  2025-07-01 10:00  ", true, time.Date(2025, 7, 1, 10, 0, 0, 0, loc)},
		{"2025-07-01", false, time.Time{}},
		{"tomorrow", false, time.Time{}},
		{"", false, time.Time{}},
	}
	for _, c := range cases {
		got, ok := ParseScheduleTime(c.in, loc)
		if ok != c.ok {
			t.Fatalf("ParseScheduleTime(%q) ok = %v, want %v", c.in, ok, c.ok)
		}
		if ok && !got.Equal(c.want) {
			t.Fatalf("ParseScheduleTime(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}
