package caldav

import (
	"context"
	"net/http"
	"strings"

	ical "github.com/arran4/golang-ical"

	appLog "weathercal/internal/log"
)

// ListCalendars returns the calendar collections directly under the
// calendar home.
func (c *Client) ListCalendars(ctx context.Context) ([]Calendar, error) {
	header := http.Header{}
	header.Set("Depth", "1")
	header.Set("Content-Type", "application/xml; charset=utf-8")

	resp, err := c.do(ctx, "list calendars", "PROPFIND", c.base.Path, header,
		[]byte(propfindCalendarsBody), http.StatusMultiStatus, http.StatusOK)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	ms, err := parseMultistatus(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "list calendars", Err: err}
	}

	calendars := make([]Calendar, 0)
	for _, r := range ms.Responses {
		prop, ok := r.okProp()
		if !ok || prop.ResourceType == nil || prop.ResourceType.Calendar == nil {
			continue
		}
		path := r.Href
		if !strings.HasSuffix(path, "/") {
			path += "/"
		}
		calendars = append(calendars, Calendar{Path: path, Name: prop.DisplayName})
	}

	appLog.Info("caldav calendars listed", "count", len(calendars))
	return calendars, nil
}

// CreateCalendar creates a calendar collection named name under the
// calendar home. The collection path segment is a slug of the name.
func (c *Client) CreateCalendar(ctx context.Context, name string) (Calendar, error) {
	path := c.base.Path + slugify(name) + "/"

	header := http.Header{}
	header.Set("Content-Type", "application/xml; charset=utf-8")

	resp, err := c.do(ctx, "create calendar", "MKCALENDAR", path, header,
		mkcalendarBody(name), http.StatusCreated, http.StatusOK)
	if err != nil {
		return Calendar{}, err
	}
	resp.Body.Close()

	appLog.Info("caldav calendar created", "name", name)
	return Calendar{Path: path, Name: name}, nil
}

// EnsureCalendar finds a calendar by exact display name, creating it
// when absent. The second return reports whether a new calendar was
// created.
func (c *Client) EnsureCalendar(ctx context.Context, name string) (Calendar, bool, error) {
	calendars, err := c.ListCalendars(ctx)
	if err != nil {
		return Calendar{}, false, err
	}
	for _, cal := range calendars {
		if cal.Name == name {
			return cal, false, nil
		}
	}
	cal, err := c.CreateCalendar(ctx, name)
	if err != nil {
		return Calendar{}, false, err
	}
	return cal, true, nil
}

// Collection binds the client to one calendar for object operations.
func (c *Client) Collection(cal Calendar) *Collection {
	return &Collection{client: c, cal: cal}
}

// Collection exposes list/put/delete on the objects of one calendar.
type Collection struct {
	client *Client
	cal    Calendar
}

// Calendar returns the bound calendar.
func (col *Collection) Calendar() Calendar { return col.cal }

// List fetches every VEVENT-bearing object in the calendar via a
// calendar-query REPORT. Objects whose payload cannot be parsed are
// logged and omitted; they carry no provable ownership marker, so the
// reconciler must not touch them anyway.
func (col *Collection) List(ctx context.Context) ([]EntryRef, error) {
	header := http.Header{}
	header.Set("Depth", "1")
	header.Set("Content-Type", "application/xml; charset=utf-8")

	resp, err := col.client.do(ctx, "list entries", "REPORT", col.cal.Path, header,
		[]byte(calendarQueryBody), http.StatusMultiStatus, http.StatusOK)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	ms, err := parseMultistatus(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "list entries", Err: err}
	}

	refs := make([]EntryRef, 0)
	for _, r := range ms.Responses {
		prop, ok := r.okProp()
		if !ok || prop.CalendarData == "" {
			continue
		}
		ref, perr := parseObject(r.Href, prop.CalendarData)
		if perr != nil {
			appLog.Error("caldav object parse failed", perr, "href", r.Href)
			continue
		}
		refs = append(refs, ref)
	}

	appLog.Info("caldav entries listed", "calendar", col.cal.Name, "count", len(refs))
	return refs, nil
}

// Delete removes one object. A 404 is treated as success so that a
// re-run after a partial failure stays idempotent.
func (col *Collection) Delete(ctx context.Context, ref EntryRef) error {
	resp, err := col.client.do(ctx, "delete entry", http.MethodDelete, ref.Href, nil, nil,
		http.StatusOK, http.StatusNoContent, http.StatusNotFound)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// Put writes a rendered calendar object at a UID-derived path inside
// the collection. PUT to an existing path overwrites.
func (col *Collection) Put(ctx context.Context, uid, body string) error {
	header := http.Header{}
	header.Set("Content-Type", "text/calendar; charset=utf-8")

	path := col.cal.Path + uid + ".ics"
	resp, err := col.client.do(ctx, "create entry", http.MethodPut, path, header, []byte(body),
		http.StatusCreated, http.StatusNoContent, http.StatusOK)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// parseObject extracts the reconciler-facing fields from one object's
// iCalendar payload.
func parseObject(href, data string) (EntryRef, error) {
	// XML content normalizes CRLF to LF; restore the CRLF line endings
	// iCalendar requires before parsing.
	data = strings.TrimSpace(data)
	data = strings.ReplaceAll(data, "\r\n", "\n")
	data = strings.ReplaceAll(data, "\n", "\r\n")
	data += "\r\n"

	cal, err := ical.ParseCalendar(strings.NewReader(data))
	if err != nil {
		return EntryRef{}, err
	}

	ref := EntryRef{Href: href}
	events := cal.Events()
	if len(events) == 0 {
		return ref, nil
	}
	ve := events[0]

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		ref.UID = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		ref.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDtStart); p != nil {
		ref.DtStart = p.Value
	}
	return ref, nil
}

// slugify turns a display name into a safe collection path segment.
func slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "calendar"
	}
	return b.String()
}
