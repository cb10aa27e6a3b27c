package devtest

import (
	"net/http"
	"net/http/httptest"
	"testing"

	errorsfeature "github.com/dalemusser/trinetra/internal/app/features/errors"
	"github.com/dalemusser/trinetra/internal/app/store/wakapiauth"
	"github.com/dalemusser/trinetra/internal/app/store/wakapistats"
	"github.com/dalemusser/trinetra/internal/app/system/navigate"
	"github.com/dalemusser/trinetra/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func newRouter(t *testing.T, fake *testutil.FakeWakapi) http.Handler {
	t.Helper()
	testutil.MustBootTemplates(t)

	client := fake.Client(t, navigate.ToLogin)
	h := NewHandler(
		wakapiauth.New(client, nil),
		wakapistats.New(client, nil),
		nil,
		errorsfeature.NewErrorLogger(zap.NewNop()),
		false,
		zap.NewNop(),
	)

	r := chi.NewRouter()
	r.Use(navigate.Middleware)
	r.Use(client.ForwardCredentials)
	r.Mount("/test", Routes(h))
	return r
}

func post(router http.Handler, target string, cookies ...*http.Cookie) *testutil.ResponseRecorder {
	req := testutil.WithCSRFToken(httptest.NewRequest(http.MethodPost, target, nil))
	req.Header.Set("Accept", "text/html")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestShow(t *testing.T) {
	fake := testutil.NewFakeWakapi(t)
	router := newRouter(t, fake)

	req := testutil.WithCSRFToken(httptest.NewRequest(http.MethodGet, "/test", nil))
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Test Auth Check")
	rec.AssertContains(t, "Test Login")
	rec.AssertContains(t, "Test Stats")
	rec.AssertNotContains(t, "Recent auth events")
}

func TestAuth_WithoutSessionStaysOnPage(t *testing.T) {
	fake := testutil.NewFakeWakapi(t)
	router := newRouter(t, fake)

	rec := post(router, "/test/auth")

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "unauthenticated")
	rec.AssertContains(t, "status 401")
}

func TestAuth_WithSession(t *testing.T) {
	fake := testutil.NewFakeWakapi(t)
	router := newRouter(t, fake)

	rec := post(router, "/test/auth", fake.SessionCookie(testutil.FakeUsername))

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "authenticated")
	rec.AssertNotContains(t, "unauthenticated")
}

func TestLogin_SampleCredentials(t *testing.T) {
	fake := testutil.NewFakeWakapi(t)
	router := newRouter(t, fake)

	rec := post(router, "/test/login")

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "wakapi_auth")
	reqs := fake.Requests()
	if len(reqs) != 1 || reqs[0].Form.Get("username") != SampleUsername {
		t.Errorf("expected one login with the sample user, got %+v", reqs)
	}
}

func TestStats_Unauthorized(t *testing.T) {
	fake := testutil.NewFakeWakapi(t)
	router := newRouter(t, fake)

	rec := post(router, "/test/stats")

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "notice-error")
	rec.AssertContains(t, "status 401")
}

func TestStats_WithSession(t *testing.T) {
	fake := testutil.NewFakeWakapi(t)
	fake.Stats["today"] = map[string]any{"total_seconds": 5400, "range": "today"}
	router := newRouter(t, fake)

	rec := post(router, "/test/stats", fake.SessionCookie(testutil.FakeUsername))

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "5400")
	rec.AssertContains(t, "&#34;range&#34;: &#34;today&#34;")
}
