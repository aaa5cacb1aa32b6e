package weather

import (
	"errors"
	"fmt"
	"time"

	"weathercal/internal/owm"
)

// ErrMalformedPayload marks payloads the normalizer refuses to work
// with: missing/invalid timezone or absent required numeric fields.
// The whole run aborts on it; no partial sync is attempted.
var ErrMalformedPayload = errors.New("malformed forecast payload")

// kelvinToCelsius converts uniformly, with no rounding. Rounding is a
// rendering concern.
func kelvinToCelsius(k float64) float64 {
	return k - 273.15
}

// Normalize converts a One Call payload into the ordered canonical
// record sequence:
//
//   - exactly one record with IsCurrent=true, derived from the current
//     block, with no min/max bounds
//   - one record per daily block, except the block whose local date
//     matches the current record's date (already represented)
//
// Every timestamp is localized with the payload's timezone; the local
// calendar date becomes the record's business key.
func Normalize(p *owm.Payload) ([]Record, error) {
	if p == nil || p.Current == nil {
		return nil, fmt.Errorf("%w: missing current block", ErrMalformedPayload)
	}
	if p.Timezone == "" {
		return nil, fmt.Errorf("%w: missing timezone", ErrMalformedPayload)
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid timezone %q", ErrMalformedPayload, p.Timezone)
	}

	cur := p.Current
	if cur.Temp == nil || cur.FeelsLike == nil || cur.Humidity == nil || cur.WindSpeed == nil {
		return nil, fmt.Errorf("%w: current block is missing required numeric fields", ErrMalformedPayload)
	}
	if len(cur.Weather) == 0 {
		return nil, fmt.Errorf("%w: current block has no weather condition", ErrMalformedPayload)
	}

	desc := cur.Weather[0].Description
	curDate := DateOf(time.Unix(cur.Dt, 0).In(loc))

	records := []Record{{
		Date:        curDate,
		Description: desc,
		Glyph:       GlyphFor(desc),
		Temp:        kelvinToCelsius(*cur.Temp),
		FeelsLike:   kelvinToCelsius(*cur.FeelsLike),
		Humidity:    *cur.Humidity,
		WindSpeed:   *cur.WindSpeed,
		Snow:        oneHour(cur.Snow),
		Rain:        oneHour(cur.Rain),
		IsCurrent:   true,
		Summary:     "current: " + desc,
		Timezone:    p.Timezone,
	}}

	for i, day := range p.Daily {
		d := DateOf(time.Unix(day.Dt, 0).In(loc))
		if d == curDate {
			// Today is already represented by the current record.
			continue
		}
		if day.Temp == nil || day.FeelsLike == nil || day.Humidity == nil || day.WindSpeed == nil {
			return nil, fmt.Errorf("%w: daily block %d is missing required numeric fields", ErrMalformedPayload, i)
		}
		if len(day.Weather) == 0 {
			return nil, fmt.Errorf("%w: daily block %d has no weather condition", ErrMalformedPayload, i)
		}

		dayDesc := day.Weather[0].Description
		tempMin := kelvinToCelsius(day.Temp.Min)
		tempMax := kelvinToCelsius(day.Temp.Max)
		summary := day.Summary
		if summary == "" {
			summary = dayDesc
		}

		records = append(records, Record{
			Date:        d,
			Description: dayDesc,
			Glyph:       GlyphFor(dayDesc),
			Temp:        kelvinToCelsius(day.Temp.Day),
			FeelsLike:   kelvinToCelsius(day.FeelsLike.Day),
			TempMin:     &tempMin,
			TempMax:     &tempMax,
			Humidity:    *day.Humidity,
			WindSpeed:   *day.WindSpeed,
			Pop:         day.Pop,
			Snow:        day.Snow,
			Rain:        day.Rain,
			Summary:     summary,
			Timezone:    p.Timezone,
		})
	}

	return records, nil
}

func oneHour(p *owm.Precipitation) *float64 {
	if p == nil {
		return nil
	}
	v := p.OneHour
	return &v
}
