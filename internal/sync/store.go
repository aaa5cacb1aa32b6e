package sync

import (
	"context"

	"weathercal/internal/caldav"
)

// Entry is the reconciler's view of one remote calendar object: an
// opaque handle for deletion, the identity string, a raw date-bearing
// field, and a label for logging. The reconciler never mutates remote
// state through an Entry; it only issues Store calls.
type Entry struct {
	ID      string
	UID     string
	Label   string
	RawDate string
}

// Store is the remote calendar boundary the reconciler works against.
// Implementations own all transport concerns (auth, timeouts); the
// reconciler treats every call as an opaque synchronous operation and
// propagates any error as fatal for the run.
type Store interface {
	List(ctx context.Context) ([]Entry, error)
	Delete(ctx context.Context, e Entry) error
	Put(ctx context.Context, uid, body string) error
}

// calDAVStore adapts a bound CalDAV collection to the Store interface.
type calDAVStore struct {
	col *caldav.Collection
}

// NewCalDAVStore wraps a CalDAV collection as a reconciler Store.
func NewCalDAVStore(col *caldav.Collection) Store {
	return &calDAVStore{col: col}
}

func (s *calDAVStore) List(ctx context.Context) ([]Entry, error) {
	refs, err := s.col.List(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(refs))
	for _, ref := range refs {
		label := ref.Summary
		if label == "" {
			label = "Unknown"
		}
		entries = append(entries, Entry{
			ID:      ref.Href,
			UID:     ref.UID,
			Label:   label,
			RawDate: ref.DtStart,
		})
	}
	return entries, nil
}

func (s *calDAVStore) Delete(ctx context.Context, e Entry) error {
	return s.col.Delete(ctx, caldav.EntryRef{Href: e.ID})
}

func (s *calDAVStore) Put(ctx context.Context, uid, body string) error {
	return s.col.Put(ctx, uid, body)
}
