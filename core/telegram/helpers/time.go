package helpers

import (
	"strings"
	"time"
)

// Layouts accepted for user-typed schedule datetimes. The first entry is the
// canonical format shown in prompts; the rest tolerate missing zero-padding
// and the dotted day-first order common in ru locales.
var scheduleLayouts = []string{
	"2006-01-02 15:04",
	"2006-1-2 15:04",
	"02.01.2006 15:04",
	"2.1.2006 15:04",
}

// ParseScheduleTime parses a user-typed datetime in the given location.
// Minute precision only; returns false when no layout matches.
func ParseScheduleTime(input string, loc *time.Location) (time.Time, bool) {
	s := strings.TrimSpace(input)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range scheduleLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
