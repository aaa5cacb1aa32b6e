package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"weathercal/internal/config"
	appLog "weathercal/internal/log"
	syncer "weathercal/internal/sync"
)

// Runner executes one sync pass on demand. Satisfied by *sync.Service.
type Runner interface {
	RunOnce(ctx context.Context) (*syncer.Outcome, error)
}

// Server exposes a small ops API: health, last sync status, and a
// manual sync trigger.
type Server struct {
	cfg    *config.Config
	runner Runner
	mux    *http.ServeMux

	statusMu sync.RWMutex
	last     *runStatus
}

// runStatus is the recorded result of the most recent sync run.
type runStatus struct {
	StartedAt time.Time `json:"started_at"`
	Duration  string    `json:"duration"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
	Lines     []string  `json:"lines"`
}

// NewServer constructs a new ops Server.
func NewServer(cfg *config.Config, runner Runner) *Server {
	s := &Server{
		cfg:    cfg,
		runner: runner,
		mux:    http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// RecordRun stores the result of a sync run for /api/status. The
// scheduler calls this after every run, successful or not.
func (s *Server) RecordRun(startedAt time.Time, out *syncer.Outcome, err error) {
	status := &runStatus{
		StartedAt: startedAt,
		Duration:  time.Since(startedAt).Round(time.Millisecond).String(),
		Success:   err == nil,
	}
	if err != nil {
		status.Error = err.Error()
	}
	if out != nil {
		status.Lines = out.Lines()
	}

	s.statusMu.Lock()
	s.last = status
	s.statusMu.Unlock()
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// An empty username or password is treated as disabled.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// /health is always exposed without authentication.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="weathercal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Start runs the HTTP server bound to cfg.Listen.
func (s *Server) Start(_ context.Context) error {
	appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
	return http.ListenAndServe(s.cfg.Listen, s.Handler())
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/status", s.handleStatus)
	s.mux.HandleFunc("/api/sync", s.handleSync)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleStatus returns the outcome of the most recent sync run.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	s.statusMu.RLock()
	last := s.last
	s.statusMu.RUnlock()

	if last == nil {
		writeJSON(w, http.StatusOK, map[string]any{"ran": false})
		return
	}
	writeJSON(w, http.StatusOK, last)
}

// handleSync triggers a sync run immediately and returns its outcome.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	started := time.Now()
	out, err := s.runner.RunOnce(r.Context())
	s.RecordRun(started, out, err)

	if err != nil {
		appLog.Error("manual sync failed", err)
		var lines []string
		if out != nil {
			lines = out.Lines()
		}
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error": err.Error(),
			"lines": lines,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"lines": out.Lines(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
