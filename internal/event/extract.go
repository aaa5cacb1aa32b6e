package event

import (
	"strings"
	"time"

	"weathercal/internal/weather"
)

// ExtractDate recovers the calendar date from a raw DTSTART value as
// it appears on a remote calendar object. Both DATE ("20240302") and
// DATE-TIME ("20240302T120000", with or without a trailing Z) forms
// are handled; the time-of-day part is discarded. The second return is
// false when no date can be determined, which the reconciler treats as
// "unknown date" and skips.
func ExtractDate(raw string) (weather.Date, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return weather.Date{}, false
	}

	// Drop the time-of-day portion of DATE-TIME values.
	datePart, _, _ := strings.Cut(raw, "T")

	if t, err := time.Parse("20060102", datePart); err == nil {
		return weather.DateOf(t), true
	}
	// Some servers hand back extended-format dates.
	if d, err := weather.ParseDate(datePart); err == nil {
		return d, true
	}

	return weather.Date{}, false
}
