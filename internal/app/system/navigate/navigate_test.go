package navigate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

// serve runs fn inside Middleware for a request to target.
func serve(t *testing.T, req *http.Request, fn func(w http.ResponseWriter, r *http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	Middleware(http.HandlerFunc(fn)).ServeHTTP(rec, req)
	return rec
}

func TestToLogin_HTML(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/dashboard?range=30_days", nil)
	req.Header.Set("Accept", "text/html")

	var done bool
	rec := serve(t, req, func(w http.ResponseWriter, r *http.Request) {
		ToLogin(r.Context())
		done = Done(r)
	})

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	want := "/login?return=%2Fdashboard%3Frange%3D30_days"
	if loc := rec.Header().Get("Location"); loc != want {
		t.Errorf("Location = %q, want %q", loc, want)
	}
	if !done {
		t.Error("Done() should be true after ToLogin")
	}
}

func TestToLogin_HTMX(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("HX-Request", "true")

	rec := serve(t, req, func(w http.ResponseWriter, r *http.Request) {
		ToLogin(r.Context())
	})

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if got := rec.Header().Get("HX-Redirect"); got != "/login?return=%2Fdashboard" {
		t.Errorf("HX-Redirect = %q", got)
	}
}

func TestToLogin_API(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/stats/7_days", nil)
	req.Header.Set("Accept", "application/json")

	rec := serve(t, req, func(w http.ResponseWriter, r *http.Request) {
		ToLogin(r.Context())
	})

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestToLogin_OnlyOnce(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rec := serve(t, req, func(w http.ResponseWriter, r *http.Request) {
		ToLogin(r.Context())
		ToLogin(r.Context())
		Redirect(w, r)
	})

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if n := len(rec.Header().Values("Location")); n != 1 {
		t.Errorf("Location headers = %d, want 1", n)
	}
}

func TestToLogin_NoopOnLoginSurface(t *testing.T) {
	for _, path := range []string{"/login", "/login/signup"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		var done bool
		rec := serve(t, req, func(w http.ResponseWriter, r *http.Request) {
			ToLogin(r.Context())
			done = Done(r)
			w.WriteHeader(http.StatusOK)
		})
		if done {
			t.Errorf("%s: Done() = true, want false on the login surface", path)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want %d", path, rec.Code, http.StatusOK)
		}
	}
}

func TestToLogin_WithoutMiddleware(t *testing.T) {
	// Must not panic.
	ToLogin(context.Background())
	if DoneContext(context.Background()) {
		t.Error("DoneContext() should be false without Middleware")
	}
}

func TestLoginURL(t *testing.T) {
	tests := []struct {
		method, target, want string
	}{
		{http.MethodGet, "/", "/login"},
		{http.MethodGet, "/test", "/login?return=%2Ftest"},
		{http.MethodPost, "/test/stats", "/login"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.target, nil)
		if got := LoginURL(req); got != tt.want {
			t.Errorf("LoginURL(%s %s) = %q, want %q", tt.method, tt.target, got, tt.want)
		}
	}
}

func TestToLogin_Inline(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test/login", nil)

	var done bool
	rec := httptest.NewRecorder()
	Middleware(Inline(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ToLogin(r.Context())
		done = Done(r)
		w.WriteHeader(http.StatusOK)
	}))).ServeHTTP(rec, req)

	if done {
		t.Error("ToLogin should not fire under Inline")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}
