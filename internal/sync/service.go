package sync

import (
	"context"
	"errors"
	"fmt"

	"weathercal/internal/caldav"
	appLog "weathercal/internal/log"
	"weathercal/internal/owm"
	"weathercal/internal/weather"
)

// ErrCalendarUnavailable is returned when the target calendar can
// neither be found nor created. Nothing has been reconciled when it
// surfaces.
var ErrCalendarUnavailable = errors.New("calendar unavailable")

// Fetcher supplies the raw forecast payload. The production
// implementation is the OpenWeatherMap client; tests substitute a
// canned payload.
type Fetcher interface {
	Fetch(ctx context.Context) (*owm.Payload, error)
}

// Service runs the full pipeline for one invocation: fetch, normalize,
// select the calendar, reconcile.
type Service struct {
	fetcher      Fetcher
	client       *caldav.Client
	calendarName string
	retention    int
}

func NewService(fetcher Fetcher, client *caldav.Client, calendarName string, retentionDays int) *Service {
	return &Service{
		fetcher:      fetcher,
		client:       client,
		calendarName: calendarName,
		retention:    retentionDays,
	}
}

// RunOnce executes a single sync pass. The returned Outcome holds
// every log line accumulated before a failure, so callers can surface
// partial progress alongside the error.
func (s *Service) RunOnce(ctx context.Context) (*Outcome, error) {
	out := NewOutcome()

	payload, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return out, fmt.Errorf("fetch forecast: %w", err)
	}

	records, err := weather.Normalize(payload)
	if err != nil {
		return out, err
	}

	out.Logf("extracted weather records:")
	for _, rec := range records {
		if rec.TempMin != nil && rec.TempMax != nil {
			out.Logf("%s %s %s: %.0f°~%.0f°C", rec.Date, rec.Glyph, rec.Description, *rec.TempMin, *rec.TempMax)
		} else {
			out.Logf("%s %s %s: %.0f°C (current)", rec.Date, rec.Glyph, rec.Description, rec.Temp)
		}
	}

	cal, created, err := s.client.EnsureCalendar(ctx, s.calendarName)
	if err != nil {
		return out, fmt.Errorf("%w: %v", ErrCalendarUnavailable, err)
	}
	if created {
		out.Logf("created calendar: %s", s.calendarName)
	}
	out.Logf("using calendar: %s", cal.Name)

	rec := &Reconciler{
		Store:         NewCalDAVStore(s.client.Collection(cal)),
		RetentionDays: s.retention,
	}
	if err := rec.Reconcile(ctx, records, rec.Today(records), out); err != nil {
		return out, err
	}

	out.Logf("weather sync completed")
	appLog.Info("sync run completed", "records", len(records), "calendar", cal.Name)
	return out, nil
}
