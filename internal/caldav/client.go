// Package caldav is a minimal CalDAV client covering exactly what the
// weather sync needs: list calendars under a calendar home, create one,
// and list/put/delete the objects inside it. The configured URL is
// treated as the user's calendar home collection; principal discovery
// is out of scope.
package caldav

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	appLog "weathercal/internal/log"
)

// Config carries the connection settings for one CalDAV account.
type Config struct {
	// BaseURL is the calendar home collection URL,
	// e.g. "https://caldav.example.com/testuser".
	BaseURL  string
	Username string
	Password string
	// Timeout bounds each round trip. Zero means a 15s default.
	Timeout time.Duration
}

// Calendar identifies one calendar collection on the server.
type Calendar struct {
	// Path is the server-absolute collection path, trailing slash kept.
	Path string
	// Name is the calendar's display name.
	Name string
}

// EntryRef is a read-only snapshot of one object in a calendar: enough
// for the reconciler to classify it and for the client to delete it.
type EntryRef struct {
	// Href is the server-absolute object path.
	Href string
	// UID is the iCalendar UID, empty when the object could not be
	// parsed.
	UID string
	// Summary is a human label for logging.
	Summary string
	// DtStart is the raw DTSTART value; date extraction happens in the
	// reconciler so an unparseable value degrades to a logged skip.
	DtStart string
}

// TransportError wraps a failed CalDAV round trip. Any occurrence is
// fatal for the current sync run; the client never retries.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("caldav %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("caldav %s: unexpected status %d", e.Op, e.Status)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Client talks to a single CalDAV calendar home.
type Client struct {
	base     *url.URL
	username string
	password string
	httpc    *http.Client
}

// NewClient validates the base URL and constructs a client.
func NewClient(cfg Config) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid caldav url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid caldav url %q: missing scheme or host", redactURL(cfg.BaseURL))
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		base:     u,
		username: cfg.Username,
		password: cfg.Password,
		httpc: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// BasePath returns the calendar home path on the server.
func (c *Client) BasePath() string {
	return c.base.Path
}

// absURL builds the full URL for a server-absolute path.
func (c *Client) absURL(path string) string {
	u := *c.base
	u.Path = path
	return u.String()
}

// do executes one request against a server path and verifies the
// status code against the accepted set. The caller owns the body.
func (c *Client) do(ctx context.Context, op, method, path string, header http.Header, body []byte, accept ...int) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.absURL(path), reader)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	if c.username != "" || c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	appLog.Debug("caldav request", "op", op, "method", method, "url", redactURL(c.absURL(path)))

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	for _, code := range accept {
		if resp.StatusCode == code {
			return resp, nil
		}
	}

	resp.Body.Close()
	return nil, &TransportError{Op: op, Status: resp.StatusCode}
}

// redactURL hides the path of a server URL for logging; paths can
// embed usernames or tokens.
func redactURL(u string) string {
	i := strings.Index(u, "://")
	if i < 0 {
		return "caldav://...(redacted)"
	}
	j := strings.IndexByte(u[i+3:], '/')
	if j < 0 {
		return u
	}
	return u[:i+3+j] + "/...(redacted)"
}
