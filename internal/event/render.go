package event

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"weathercal/internal/weather"
)

const prodID = "-//Weather Calendar//weather-sync//CN"

// alarmTrigger is a fixed absolute timestamp in the past. Apple
// clients can apply per-calendar default alerts even when no VALARM
// exists; attaching this non-triggering alarm suppresses them. It
// carries no user-visible effect.
const alarmTrigger = "19760401T005545Z"

// Title renders the short event summary: glyph plus whole-degree
// temperature, or the min~max range when both bounds are present.
func Title(r weather.Record) string {
	if r.TempMin != nil && r.TempMax != nil {
		return fmt.Sprintf("%s %.0f°~%.0f°C", r.Glyph, *r.TempMin, *r.TempMax)
	}
	return fmt.Sprintf("%s %.0f°C", r.Glyph, r.Temp)
}

// Description renders the multi-line event body. Temperatures show one
// decimal; the precipitation probability is a rounded percentage; snow
// and rain amounts appear only when non-zero. The trailing "added at"
// stamp is localized to the record's timezone, falling back to UTC.
func Description(r weather.Record, now time.Time) string {
	lines := []string{
		"Weather: " + r.Description,
		fmt.Sprintf("Temperature: %.1f°C", r.Temp),
		fmt.Sprintf("Feels like: %.1f°C", r.FeelsLike),
	}

	if r.TempMin != nil && r.TempMax != nil {
		lines = append(lines, fmt.Sprintf("Low/High: %.1f°C / %.1f°C", *r.TempMin, *r.TempMax))
	}

	lines = append(lines,
		fmt.Sprintf("Humidity: %.0f%%", r.Humidity),
		fmt.Sprintf("Wind speed: %g m/s", r.WindSpeed),
	)

	if r.Pop != nil {
		lines = append(lines, fmt.Sprintf("Precipitation probability: %.0f%%", *r.Pop*100))
	}
	if r.Snow != nil && *r.Snow != 0 {
		lines = append(lines, fmt.Sprintf("Snowfall: %g mm", *r.Snow))
	}
	if r.Rain != nil && *r.Rain != 0 {
		lines = append(lines, fmt.Sprintf("Rainfall: %g mm", *r.Rain))
	}

	lines = append(lines, "", r.Summary)

	tzName := r.Timezone
	if tzName == "" {
		tzName = "UTC"
	}
	lines = append(lines, fmt.Sprintf("Added at: %s (%s)",
		now.In(locationFor(r.Timezone)).Format("2006-01-02 15:04:05"), tzName))

	return strings.Join(lines, "\n")
}

// Build renders the record as a complete VCALENDAR ready to PUT: one
// all-day VEVENT spanning date to date+1, plus the alarm-suppression
// VALARM.
func Build(r weather.Record, now time.Time) string {
	cal := ical.NewCalendar()
	cal.SetProductId(prodID)
	cal.SetVersion("2.0")

	ev := cal.AddEvent(UID(r.Date))
	ev.SetDtStampTime(now.UTC())
	ev.SetSummary(Title(r))
	ev.SetDescription(Description(r, now))
	ev.SetAllDayStartAt(r.Date.Time(time.UTC))
	ev.SetAllDayEndAt(r.Date.AddDays(1).Time(time.UTC))

	alarm := ev.AddAlarm()
	alarm.SetProperty(ical.ComponentProperty(ical.PropertyAction), "NONE")
	alarm.SetProperty(ical.ComponentProperty(ical.PropertyTrigger), alarmTrigger,
		&ical.KeyValues{Key: string(ical.ParameterValue), Value: []string{"DATE-TIME"}})
	alarm.SetProperty("X-APPLE-DEFAULT-ALARM", "TRUE")
	alarm.SetProperty("X-APPLE-LOCAL-DEFAULT-ALARM", "TRUE")

	return cal.Serialize()
}

// locationFor resolves an IANA zone name, falling back to UTC when the
// name is empty or unknown.
func locationFor(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
