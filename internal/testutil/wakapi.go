package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/trinetra/internal/app/system/wakapi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Fake Wakapi credentials that exist from the start.
const (
	FakeUsername = "testuser"
	FakePassword = "testpass"
)

// RecordedRequest is one request seen by FakeWakapi.
type RecordedRequest struct {
	Method string
	Path   string
	Form   url.Values
	Query  url.Values
}

// FakeWakapi is an in-process stand-in for the remote service. It keeps
// users and sessions in memory and answers the endpoints Trinetra uses.
type FakeWakapi struct {
	*httptest.Server

	mu       sync.Mutex
	users    map[string]string // username -> password
	sessions map[string]string // token -> username
	requests []RecordedRequest
	nextID   int

	// StatsStatus, when non-zero, is returned by every stats endpoint
	// instead of data (e.g. 404 to simulate a renamed probe endpoint).
	StatsStatus int
	// Stats is the payload returned under "data" for each range.
	// Ranges without an entry get an empty payload.
	Stats map[string]map[string]any
	// RawStats, when set, is written verbatim as the stats response body.
	RawStats string
	// Summary is returned under "data" by the summaries endpoint.
	Summary []map[string]any
	// Heartbeats is returned under "data" by the heartbeats endpoint.
	Heartbeats []map[string]any
}

// NewFakeWakapi starts a fake remote service and stops it when t ends.
func NewFakeWakapi(t *testing.T) *FakeWakapi {
	t.Helper()
	f := &FakeWakapi{
		users:    map[string]string{FakeUsername: FakePassword},
		sessions: map[string]string{},
		Stats:    map[string]map[string]any{},
	}

	r := chi.NewRouter()
	r.Use(f.record)
	r.Post("/login", f.handleLogin)
	r.Post("/signup", f.handleSignup)
	r.Post("/logout", f.handleLogout)
	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("app=1\ndb=1"))
	})
	r.Get("/api/v1/users/current/stats/{range}", f.requireSession(f.handleStats))
	r.Get("/compat/wakatime/v1/users/current/summaries", f.requireSession(f.handleSummaries))
	r.Get("/api/users/current/heartbeats", f.requireSession(f.handleHeartbeats))

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Server.Close)
	return f
}

// Client returns a wakapi.Client pointed at the fake.
func (f *FakeWakapi) Client(t *testing.T, onUnauthorized wakapi.UnauthorizedFunc) *wakapi.Client {
	t.Helper()
	c, err := wakapi.New(wakapi.Config{
		BaseURL:      f.URL,
		Timeout:      2 * time.Second,
		LocalCookies: []string{"trinetra_csrf", "trinetra-flash"},
	}, onUnauthorized, zap.NewNop())
	if err != nil {
		t.Fatalf("wakapi.New() error = %v", err)
	}
	return c
}

// SessionCookie creates a live session for username and returns its cookie.
func (f *FakeWakapi) SessionCookie(username string) *http.Cookie {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &http.Cookie{Name: wakapi.DefaultSessionCookie, Value: f.newSessionLocked(username)}
}

// SignedIn returns ctx carrying a live session cookie for FakeUsername.
func (f *FakeWakapi) SignedIn(ctx context.Context) context.Context {
	return wakapi.WithCredentials(ctx, []*http.Cookie{f.SessionCookie(FakeUsername)})
}

// HasUser reports whether username has been registered.
func (f *FakeWakapi) HasUser(username string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.users[username]
	return ok
}

// Requests returns a copy of every request received so far.
func (f *FakeWakapi) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]RecordedRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

// Hits counts requests whose path equals path.
func (f *FakeWakapi) Hits(path string) int {
	n := 0
	for _, r := range f.Requests() {
		if r.Path == path {
			n++
		}
	}
	return n
}

func (f *FakeWakapi) newSessionLocked(username string) string {
	f.nextID++
	token := fmt.Sprintf("session-%d", f.nextID)
	f.sessions[token] = username
	return token
}

func (f *FakeWakapi) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		f.mu.Lock()
		f.requests = append(f.requests, RecordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Form:   r.PostForm,
			Query:  r.URL.Query(),
		})
		f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (f *FakeWakapi) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ck, err := r.Cookie(wakapi.DefaultSessionCookie)
		if err == nil {
			f.mu.Lock()
			_, ok := f.sessions[ck.Value]
			f.mu.Unlock()
			if ok {
				next(w, r)
				return
			}
		}
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "unauthorized"})
	}
}

func (f *FakeWakapi) handleLogin(w http.ResponseWriter, r *http.Request) {
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")
	if username == "" || password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "missing parameters"})
		return
	}

	f.mu.Lock()
	want, ok := f.users[username]
	if !ok || want != password {
		f.mu.Unlock()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("<p>Invalid credentials</p>"))
		return
	}
	token := f.newSessionLocked(username)
	f.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: wakapi.DefaultSessionCookie, Value: token, Path: "/", HttpOnly: true})
	w.Header().Set("Location", "/summary")
	w.WriteHeader(http.StatusFound)
}

func (f *FakeWakapi) handleSignup(w http.ResponseWriter, r *http.Request) {
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")
	if username == "" || password == "" || password != r.PostForm.Get("password_repeat") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid parameters"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.users[username]; exists {
		writeJSON(w, http.StatusConflict, map[string]string{"message": "user already existing"})
		return
	}
	f.users[username] = password
	w.Header().Set("Location", "/login")
	w.WriteHeader(http.StatusFound)
}

func (f *FakeWakapi) handleLogout(w http.ResponseWriter, r *http.Request) {
	if ck, err := r.Cookie(wakapi.DefaultSessionCookie); err == nil {
		f.mu.Lock()
		delete(f.sessions, ck.Value)
		f.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: wakapi.DefaultSessionCookie, Value: "", Path: "/", MaxAge: -1})
	w.Header().Set("Location", "/")
	w.WriteHeader(http.StatusFound)
}

func (f *FakeWakapi) handleStats(w http.ResponseWriter, r *http.Request) {
	if f.StatsStatus != 0 {
		writeJSON(w, f.StatsStatus, map[string]string{"message": http.StatusText(f.StatsStatus)})
		return
	}
	if f.RawStats != "" {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(f.RawStats))
		return
	}
	rng := chi.URLParam(r, "range")
	data, ok := f.Stats[rng]
	if !ok {
		data = map[string]any{"username": FakeUsername, "range": rng, "total_seconds": 0}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": data})
}

func (f *FakeWakapi) handleSummaries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("start") == "" || q.Get("end") == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "missing start or end"})
		return
	}
	data := f.Summary
	if data == nil {
		data = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": data, "start": q.Get("start"), "end": q.Get("end")})
}

func (f *FakeWakapi) handleHeartbeats(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("date") == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "missing date"})
		return
	}
	data := f.Heartbeats
	if data == nil {
		data = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": data})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
