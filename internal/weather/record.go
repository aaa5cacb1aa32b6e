package weather

import "strings"

// Record is the normalized, timezone-resolved representation of one
// day's weather, independent of payload shape. Records are constructed
// by Normalize and never mutated afterwards.
//
// Temperatures are Celsius, unrounded; rounding happens only at render
// time. Optional fields are pointers: nil means the source payload did
// not carry the value (current-conditions records have no min/max and
// no precipitation probability).
type Record struct {
	Date        Date
	Description string
	Glyph       string

	Temp      float64
	FeelsLike float64
	TempMin   *float64
	TempMax   *float64

	Humidity  float64
	WindSpeed float64

	// Pop is the precipitation probability as a fraction in [0,1].
	Pop *float64
	// Snow / Rain are accumulation amounts in millimeters.
	Snow *float64
	Rain *float64

	// IsCurrent is true only for the single record representing "now".
	IsCurrent bool

	// Summary is the long-form narrative; defaults to Description when
	// the source provides none.
	Summary string

	// Timezone is the IANA zone name used to localize the "added at"
	// stamp at render time. Renderers fall back to UTC when it is
	// empty or invalid.
	Timezone string
}

// glyphTable maps lowercased condition descriptions to display glyphs.
// Unmatched descriptions fall back to a generic thermometer. The
// mapping is cosmetic only and never feeds into event identity.
var glyphTable = map[string]string{
	"clear sky":        "☀️",
	"few clouds":       "🌤️",
	"scattered clouds": "⛅",
	"broken clouds":    "☁️",
	"overcast clouds":  "☁️",
	"shower rain":      "🌦️",
	"light rain":       "🌧️",
	"moderate rain":    "🌧️",
	"rain":             "🌧️",
	"heavy rain":       "🌧️",
	"thunderstorm":     "⛈️",
	"light snow":       "🌨️",
	"snow":             "❄️",
	"heavy snow":       "❄️",
	"mist":             "🌫️",
	"fog":              "🌫️",
	"haze":             "🌫️",
}

const glyphFallback = "🌡"

// GlyphFor returns the display glyph for a condition description.
func GlyphFor(description string) string {
	if g, ok := glyphTable[strings.ToLower(description)]; ok {
		return g
	}
	return glyphFallback
}
