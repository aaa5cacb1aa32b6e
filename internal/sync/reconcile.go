package sync

import (
	"context"
	"time"

	"weathercal/internal/event"
	appLog "weathercal/internal/log"
	"weathercal/internal/weather"
)

// Reconciler diffs the freshly normalized record set against whatever
// already exists in the store and applies the retention policy.
type Reconciler struct {
	Store Store

	// RetentionDays is the trailing window of past days whose entries
	// are kept. Zero keeps nothing: every entry dated before today is
	// deleted.
	RetentionDays int

	// Now is the wall clock used for DTSTAMP and the "added at"
	// rendering. Defaults to time.Now.
	Now func() time.Time
}

func (r *Reconciler) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Today derives the reconciliation pivot from the record set: the
// minimum record date is the current-conditions date. An empty set
// falls back to the wall-clock date.
func (r *Reconciler) Today(records []weather.Record) weather.Date {
	if len(records) == 0 {
		return weather.DateOf(r.now())
	}
	min := records[0].Date
	for _, rec := range records[1:] {
		if rec.Date.Before(min) {
			min = rec.Date
		}
	}
	return min
}

// Reconcile classifies every owned existing entry against today and
// the retention window, deletes everything marked for removal, then
// writes one entry per record. All deletions complete before any
// creation begins. Entries without the namespace marker are never
// inspected or touched; an entry whose date cannot be determined is
// skipped with a log line and does not abort the run. Store errors
// propagate immediately.
func (r *Reconciler) Reconcile(ctx context.Context, records []weather.Record, today weather.Date, out *Outcome) error {
	keepSince := today.AddDays(-r.RetentionDays)

	existing, err := r.Store.List(ctx)
	if err != nil {
		return err
	}

	doomed := make([]Entry, 0, len(existing))
	for _, e := range existing {
		if !event.Owned(e.UID) {
			continue
		}
		d, ok := event.ExtractDate(e.RawDate)
		if !ok {
			out.Logf("skipping entry with unknown date: %s", e.Label)
			continue
		}
		switch {
		case d.Before(keepSince):
			out.Logf("deleting expired entry: %s - %s", d, e.Label)
			doomed = append(doomed, e)
		case !d.Before(today):
			out.Logf("replacing entry (delete first): %s - %s", d, e.Label)
			doomed = append(doomed, e)
		default:
			out.Logf("keeping historical entry: %s - %s", d, e.Label)
		}
	}

	for _, e := range doomed {
		if err := r.Store.Delete(ctx, e); err != nil {
			appLog.Error("entry delete failed", err, "uid", e.UID)
			return err
		}
	}

	now := r.now()
	for _, rec := range records {
		uid := event.UID(rec.Date)
		if err := r.Store.Put(ctx, uid, event.Build(rec, now)); err != nil {
			appLog.Error("entry create failed", err, "uid", uid, "date", rec.Date.String())
			return err
		}
		out.Logf("added: %s - %s %s", rec.Date, rec.Glyph, rec.Description)
	}

	return nil
}
