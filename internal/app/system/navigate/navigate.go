// Package navigate sends the current request to the login page when the
// remote service rejects its session.
//
// Middleware records the in-flight request; ToLogin, which is handed to the
// wakapi client as its unauthorized callback, answers that request with a
// redirect. Handlers check Done before writing anything else, so a response
// already turned into a redirect is never rendered over.
package navigate

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/dalemusser/trinetra/internal/app/system/jsonutil"
)

// LoginPath is the entry point of the login flow.
const LoginPath = "/login"

type ctxKey struct{}

type state struct {
	mu     sync.Mutex
	w      http.ResponseWriter
	r      *http.Request
	done   bool
	inline bool
}

// Middleware installs per-request navigation state.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := &state{w: w}
		r = r.WithContext(context.WithValue(r.Context(), ctxKey{}, st))
		st.r = r
		next.ServeHTTP(w, r)
	})
}

// Inline marks requests whose handlers present remote 401s themselves.
// ToLogin leaves such requests alone. Mount it inside Middleware.
func Inline(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if st := from(r.Context()); st != nil {
			st.mu.Lock()
			st.inline = true
			st.mu.Unlock()
		}
		next.ServeHTTP(w, r)
	})
}

func from(ctx context.Context) *state {
	st, _ := ctx.Value(ctxKey{}).(*state)
	return st
}

// ToLogin answers the request bound to ctx with a trip to the login page:
// an HX-Redirect for htmx, a 303 for pages, a JSON 401 for /api callers.
// It does nothing outside Middleware, on the login pages themselves, under
// Inline, or when the request has already been redirected.
func ToLogin(ctx context.Context) {
	st := from(ctx)
	if st == nil {
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.done || st.inline || OnLoginSurface(st.r) {
		return
	}
	st.done = true
	respond(st.w, st.r)
}

// Done reports whether ToLogin already answered r.
func Done(r *http.Request) bool {
	return DoneContext(r.Context())
}

// DoneContext is Done for code that only holds the context.
func DoneContext(ctx context.Context) bool {
	st := from(ctx)
	if st == nil {
		return false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.done
}

// OnLoginSurface reports whether r is already part of the login flow.
func OnLoginSurface(r *http.Request) bool {
	p := r.URL.Path
	return p == LoginPath || strings.HasPrefix(p, LoginPath+"/")
}

// LoginURL returns the login URL for r, carrying a return path for GETs.
func LoginURL(r *http.Request) string {
	if r.Method != http.MethodGet || r.URL.Path == "/" {
		return LoginPath
	}
	return LoginPath + "?return=" + url.QueryEscape(r.URL.RequestURI())
}

// Redirect sends r to the login page unconditionally, in the same manner
// as ToLogin. It is used when a probe reports no session without a 401.
func Redirect(w http.ResponseWriter, r *http.Request) {
	if st := from(r.Context()); st != nil {
		st.mu.Lock()
		defer st.mu.Unlock()
		if st.done {
			return
		}
		st.done = true
	}
	respond(w, r)
}

func respond(w http.ResponseWriter, r *http.Request) {
	target := LoginURL(r)
	switch {
	case r.Header.Get("HX-Request") == "true":
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusUnauthorized)
	case wantsHTML(r) || !strings.HasPrefix(r.URL.Path, "/api/"):
		http.Redirect(w, r, target, http.StatusSeeOther)
	default:
		jsonutil.Unauthorized(w, "unauthorized")
	}
}

func wantsHTML(r *http.Request) bool {
	if r.Header.Get("HX-Request") == "true" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
