package owm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"golang.org/x/time/rate"
)

const samplePayload = `{
  "timezone": "Asia/Shanghai",
  "current": {
    "dt": 1709380800,
    "temp": 283.15,
    "feels_like": 281.65,
    "humidity": 81,
    "wind_speed": 3.6,
    "weather": [{"id": 500, "main": "Rain", "description": "light rain", "icon": "10d"}],
    "rain": {"1h": 0.4}
  },
  "daily": [
    {
      "dt": 1709467200,
      "summary": "Rain through the day",
      "temp": {"day": 285.15, "min": 275.45, "max": 282.95},
      "feels_like": {"day": 284.15},
      "humidity": 65,
      "wind_speed": 4.2,
      "weather": [{"id": 501, "main": "Rain", "description": "moderate rain", "icon": "10d"}],
      "pop": 0.35,
      "rain": 1.2
    }
  ]
}`

func TestFetchDecodesPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("appid") != "test-key" {
			t.Errorf("appid = %q", q.Get("appid"))
		}
		if q.Get("lat") != "31.23" || q.Get("lon") != "121.47" {
			t.Errorf("coords = %s,%s", q.Get("lat"), q.Get("lon"))
		}
		if q.Get("exclude") != "minutely,hourly,alerts" {
			t.Errorf("exclude = %q", q.Get("exclude"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.URL)
	payload, err := c.Fetch(context.Background(), 31.23, 121.47)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if payload.Timezone != "Asia/Shanghai" {
		t.Errorf("timezone = %q", payload.Timezone)
	}
	if payload.Current == nil || payload.Current.Temp == nil || *payload.Current.Temp != 283.15 {
		t.Error("current temp not decoded")
	}
	if payload.Current.Rain == nil || payload.Current.Rain.OneHour != 0.4 {
		t.Error("current rain volume not decoded")
	}
	if len(payload.Daily) != 1 {
		t.Fatalf("daily count = %d", len(payload.Daily))
	}
	day := payload.Daily[0]
	if day.Temp == nil || day.Temp.Min != 275.45 || day.Temp.Max != 282.95 {
		t.Error("daily temp bounds not decoded")
	}
	if day.Pop == nil || *day.Pop != 0.35 {
		t.Error("pop not decoded")
	}
	if day.Summary != "Rain through the day" {
		t.Errorf("summary = %q", day.Summary)
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.URL)
	c.limiter = rate.NewLimiter(rate.Inf, 1)
	if _, err := c.Fetch(context.Background(), 0, 0); err != nil {
		t.Fatalf("Fetch should succeed after a retry: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestFetchRejectsClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient("bad-key", srv.URL)
	if _, err := c.Fetch(context.Background(), 0, 0); err == nil {
		t.Fatal("expected an error for a 401 response")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (no retry on client errors)", calls.Load())
	}
}

func TestFetchRequiresAPIKey(t *testing.T) {
	c := NewClient("", "http://unused.invalid")
	if _, err := c.Fetch(context.Background(), 0, 0); err == nil {
		t.Fatal("expected an error without an api key")
	}
}
