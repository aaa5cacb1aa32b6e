package event

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"weathercal/internal/weather"
)

func fptr(v float64) *float64 { return &v }

func futureRecord() weather.Record {
	return weather.Record{
		Date:        weather.Date{Year: 2024, Month: time.March, Day: 2},
		Description: "light rain",
		Glyph:       "🌧️",
		Temp:        7.4,
		FeelsLike:   5.9,
		TempMin:     fptr(2.3),
		TempMax:     fptr(9.8),
		Humidity:    81,
		WindSpeed:   3.6,
		Pop:         fptr(0.35),
		Rain:        fptr(1.2),
		Summary:     "rainy day",
		Timezone:    "UTC",
	}
}

func TestUIDDependsOnlyOnDate(t *testing.T) {
	a := futureRecord()
	b := futureRecord()
	b.Temp = -3.0
	b.Description = "heavy snow"

	if UID(a.Date) != UID(b.Date) {
		t.Fatal("records with equal dates must share an identity")
	}

	sum := md5.Sum([]byte("weather-2024-03-02"))
	want := hex.EncodeToString(sum[:]) + UIDSuffix
	if got := UID(a.Date); got != want {
		t.Errorf("UID = %q, want %q", got, want)
	}

	other := weather.Date{Year: 2024, Month: time.March, Day: 3}
	if UID(a.Date) == UID(other) {
		t.Error("distinct dates must not collide")
	}
}

func TestOwned(t *testing.T) {
	if !Owned(UID(weather.Date{Year: 2024, Month: time.March, Day: 2})) {
		t.Error("generated UIDs must carry the namespace marker")
	}
	if Owned("some-unrelated-event@example.com") {
		t.Error("foreign UIDs must not be treated as owned")
	}
}

func TestTitleRounding(t *testing.T) {
	r := futureRecord()
	if got := Title(r); got != "🌧️ 2°~10°C" {
		t.Errorf("range title = %q, want %q", got, "🌧️ 2°~10°C")
	}

	r.TempMin = nil
	r.TempMax = nil
	r.Temp = 9.6
	if got := Title(r); got != "🌧️ 10°C" {
		t.Errorf("current title = %q, want %q", got, "🌧️ 10°C")
	}
}

func TestDescriptionRendering(t *testing.T) {
	now := time.Date(2024, time.March, 2, 12, 0, 0, 0, time.UTC)
	desc := Description(futureRecord(), now)

	for _, want := range []string{
		"Weather: light rain",
		"Temperature: 7.4°C",
		"Feels like: 5.9°C",
		"Low/High: 2.3°C / 9.8°C",
		"Humidity: 81%",
		"Wind speed: 3.6 m/s",
		"Precipitation probability: 35%",
		"Rainfall: 1.2 mm",
		"rainy day",
		"Added at: 2024-03-02 12:00:00 (UTC)",
	} {
		if !strings.Contains(desc, want) {
			t.Errorf("description is missing %q:\n%s", want, desc)
		}
	}

	if strings.Contains(desc, "Snowfall") {
		t.Error("absent snow amount must not be rendered")
	}
}

func TestDescriptionFallsBackToUTC(t *testing.T) {
	r := futureRecord()
	r.Timezone = "Not/AZone"
	now := time.Date(2024, time.March, 2, 12, 0, 0, 0, time.UTC)

	desc := Description(r, now)
	if !strings.Contains(desc, "2024-03-02 12:00:00 (Not/AZone)") {
		t.Errorf("invalid zone should stamp in UTC while keeping the name:\n%s", desc)
	}
}

func TestBuildAllDayEvent(t *testing.T) {
	now := time.Date(2024, time.March, 2, 12, 0, 0, 0, time.UTC)
	body := Build(futureRecord(), now)

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"PRODID:-//Weather Calendar//weather-sync//CN",
		"UID:" + UID(weather.Date{Year: 2024, Month: time.March, Day: 2}),
		"DTSTART;VALUE=DATE:20240302",
		"DTEND;VALUE=DATE:20240303",
		"BEGIN:VALARM",
		"ACTION:NONE",
		"TRIGGER;VALUE=DATE-TIME:19760401T005545Z",
		"X-APPLE-DEFAULT-ALARM:TRUE",
		"X-APPLE-LOCAL-DEFAULT-ALARM:TRUE",
		"END:VALARM",
		"END:VCALENDAR",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("serialized event is missing %q:\n%s", want, body)
		}
	}
}

func TestExtractDate(t *testing.T) {
	cases := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"20240302", "2024-03-02", true},
		{"20240302T120000Z", "2024-03-02", true},
		{"20240302T120000", "2024-03-02", true},
		{"2024-03-02", "2024-03-02", true},
		{" 20240302 ", "2024-03-02", true},
		{"", "", false},
		{"garbage", "", false},
		{"2024030", "", false},
	}

	for _, tc := range cases {
		got, ok := ExtractDate(tc.raw)
		if ok != tc.ok {
			t.Errorf("ExtractDate(%q) ok = %v, want %v", tc.raw, ok, tc.ok)
			continue
		}
		if ok && got.String() != tc.want {
			t.Errorf("ExtractDate(%q) = %s, want %s", tc.raw, got, tc.want)
		}
	}
}
