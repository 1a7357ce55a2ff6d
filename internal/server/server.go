// Package server exposes the authoritative backend over HTTP: the entry
// collection and the active-session state machine, behind a cookie-based
// login for the single authorized operator.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dstreuter/zeitlog/internal/domain"
	"github.com/dstreuter/zeitlog/internal/session"
)

// Options configures a Server.
type Options struct {
	// User is the single authorized operator.
	User string
	// PasswordHash is the bcrypt hash of the operator's password. Login
	// fails with a configuration error while unset.
	PasswordHash string
	// SessionSecret signs session cookies.
	SessionSecret []byte
	// SessionsDir holds the session records.
	SessionsDir string
	// StaticDir, when it exists, is served for non-API paths with an SPA
	// fallback to index.html.
	StaticDir string
	// Secure marks cookies as HTTPS-only.
	Secure bool
	// Logger defaults to log.Default().
	Logger *log.Logger
}

// Server handles the /api surface over one Tracker.
type Server struct {
	tracker  *session.Tracker
	opts     Options
	sessions *SessionStore
	limiter  *loginLimiter
	log      *log.Logger
}

// New creates a Server over the given tracker.
func New(tracker *session.Tracker, opts Options) (*Server, error) {
	sessions, err := NewSessionStore(opts.SessionsDir, opts.SessionSecret, DefaultSessionTTL)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		tracker:  tracker,
		opts:     opts,
		sessions: sessions,
		limiter:  newLoginLimiter(),
		log:      logger,
	}, nil
}

// Handler returns the full route table. Every response carries
// Cache-Control: no-store; the installable shell's cache must never serve
// stale API data.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/session", s.handleSession)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/logout", s.handleLogout)

	mux.Handle("GET /api/entries", s.requireAuth(s.handleListEntries))
	mux.Handle("POST /api/entries", s.requireAuth(s.handleCreateEntry))
	mux.Handle("PUT /api/entries/{id}", s.requireAuth(s.handleUpdateEntry))
	mux.Handle("DELETE /api/entries/{id}", s.requireAuth(s.handleDeleteEntry))

	mux.Handle("GET /api/active", s.requireAuth(s.handleGetActive))
	mux.Handle("POST /api/active/start", s.requireAuth(s.handleStart))
	mux.Handle("POST /api/active/pause", s.requireAuth(s.handlePause))
	mux.Handle("POST /api/active/resume", s.requireAuth(s.handleResume))
	mux.Handle("POST /api/active/update", s.requireAuth(s.handleUpdateActive))
	mux.Handle("POST /api/active/ackBreak", s.requireAuth(s.handleAckBreak))
	mux.Handle("POST /api/active/cancel", s.requireAuth(s.handleCancel))
	mux.Handle("POST /api/active/finish", s.requireAuth(s.handleFinish))

	s.mountStatic(mux)

	return noStore(mux)
}

// ListenAndServe runs the server until ctx is canceled or the listener
// fails. Cancellation drains in-flight requests before returning.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.log.Printf("listening on %s", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func noStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) mountStatic(mux *http.ServeMux) {
	dir := s.opts.StaticDir
	if dir == "" {
		return
	}
	if stat, err := os.Stat(dir); err != nil || !stat.IsDir() {
		return
	}
	fs := http.FileServer(http.Dir(dir))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			writeError(w, http.StatusNotFound, "Not found")
			return
		}
		if _, err := os.Stat(filepath.Join(dir, filepath.Clean(r.URL.Path))); err == nil && r.URL.Path != "/" {
			fs.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(dir, "index.html"))
	})
}

// --- auth ---

func (s *Server) currentUser(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return "", false
	}
	user, ok := s.sessions.Resolve(cookie.Value)
	if !ok || user != s.opts.User {
		return "", false
	}
	return user, true
}

func (s *Server) requireAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := s.currentUser(r); !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		// Sliding renewal: re-issue the cookie lifetime on activity.
		if cookie, err := r.Cookie(SessionCookie); err == nil {
			s.setSessionCookie(w, cookie.Value)
		}
		next(w, r)
	})
}

func (s *Server) setSessionCookie(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.opts.Secure,
		MaxAge:   int(DefaultSessionTTL / time.Second),
	})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if user, ok := s.currentUser(r); ok {
		writeJSON(w, http.StatusOK, map[string]any{"user": user})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": nil})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	if !s.limiter.allow(ip) {
		writeError(w, http.StatusTooManyRequests, "Too many attempts")
		return
	}

	var body struct {
		User     string `json:"user"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.User != s.opts.User {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if s.opts.PasswordHash == "" {
		writeError(w, http.StatusInternalServerError, "Server password hash not configured")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.opts.PasswordHash), []byte(body.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	// Fresh session id on every login to prevent fixation.
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		s.sessions.Revoke(cookie.Value)
	}
	value, err := s.sessions.Issue(body.User)
	if err != nil {
		s.log.Printf("issuing session: %v", err)
		writeError(w, http.StatusInternalServerError, "Session error")
		return
	}
	s.setSessionCookie(w, value)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		s.sessions.Revoke(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// --- entries ---

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.tracker.Entries(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Client            string   `json:"client"`
		Skills            []string `json:"skills"`
		Tasks             string   `json:"tasks"`
		Start             *int64   `json:"start"`
		End               *int64   `json:"end"`
		PauseMs           int64    `json:"pauseMs"`
		AcknowledgedBreak bool     `json:"acknowledgedBreak"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Start == nil || body.End == nil {
		writeError(w, http.StatusBadRequest, "Missing start/end")
		return
	}
	entry := &domain.TimeEntry{
		Client:            body.Client,
		Skills:            body.Skills,
		Tasks:             body.Tasks,
		Start:             *body.Start,
		End:               *body.End,
		PauseMs:           body.PauseMs,
		AcknowledgedBreak: body.AcknowledgedBreak,
	}
	created, err := s.tracker.CreateEntry(r.Context(), entry)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	var patch domain.EntryPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	updated, err := s.tracker.UpdateEntry(r.Context(), r.PathValue("id"), &patch)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.DeleteEntry(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// --- active session ---

func (s *Server) handleGetActive(w http.ResponseWriter, r *http.Request) {
	a, err := s.tracker.Get(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"active": a})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	a, err := s.tracker.Start(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"active": a})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	a, err := s.tracker.Pause(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"active": a})
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	a, err := s.tracker.Resume(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"active": a})
}

func (s *Server) handleUpdateActive(w http.ResponseWriter, r *http.Request) {
	var patch domain.SessionPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	a, err := s.tracker.Update(r.Context(), &patch)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"active": a})
}

func (s *Server) handleAckBreak(w http.ResponseWriter, r *http.Request) {
	a, err := s.tracker.AckBreak(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"active": a})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.Cancel(r.Context()); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleFinish(w http.ResponseWriter, r *http.Request) {
	entry, err := s.tracker.Finish(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// --- responses ---

// fail maps domain errors onto the wire taxonomy. Unknown errors are
// logged and surfaced as a 500 without internals.
func (s *Server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrAlreadyActive):
		writeError(w, http.StatusConflict, "Active session exists")
	case errors.Is(err, domain.ErrNoActiveSession):
		writeError(w, http.StatusNotFound, "No active")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case domain.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Printf("request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
