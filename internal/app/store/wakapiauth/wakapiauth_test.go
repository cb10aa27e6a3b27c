package wakapiauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/trinetra/internal/app/system/wakapi"
	"github.com/dalemusser/trinetra/internal/domain/models"
	"github.com/dalemusser/trinetra/internal/testutil"
	"go.uber.org/zap"
)

func newStore(t *testing.T, onUnauthorized wakapi.UnauthorizedFunc) (*Store, *testutil.FakeWakapi) {
	t.Helper()
	fake := testutil.NewFakeWakapi(t)
	return New(fake.Client(t, onUnauthorized), zap.NewNop()), fake
}

func TestLogin_RedirectIsSuccess(t *testing.T) {
	s, fake := newStore(t, nil)

	res, err := s.Login(context.Background(), testutil.FakeUsername, testutil.FakePassword)
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if !res.Success || !res.Redirect || res.Status != http.StatusFound {
		t.Errorf("Login() = %+v, want successful 302", res)
	}
	if len(res.Cookies) == 0 || res.Cookies[0].Name != wakapi.DefaultSessionCookie {
		t.Errorf("expected remote session cookie, got %+v", res.Cookies)
	}

	reqs := fake.Requests()
	if len(reqs) != 1 || reqs[0].Path != "/login" || reqs[0].Form.Get("username") != testutil.FakeUsername {
		t.Errorf("unexpected requests %+v", reqs)
	}
}

func TestLogin_PlainOKIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	c, err := wakapi.New(wakapi.Config{BaseURL: srv.URL, Timeout: time.Second}, nil, nil)
	if err != nil {
		t.Fatalf("wakapi.New() error = %v", err)
	}
	res, err := New(c, nil).Login(context.Background(), "u", "p")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if !res.Success || res.Redirect {
		t.Errorf("Login() = %+v, want success without redirect", res)
	}
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		want     wakapi.Kind
	}{
		{"missing password is 400", testutil.FakeUsername, "", wakapi.KindValidation},
		{"wrong password is 401", testutil.FakeUsername, "nope", wakapi.KindUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newStore(t, nil)
			res, err := s.Login(context.Background(), tt.username, tt.password)
			if err == nil {
				t.Fatalf("Login() = %+v, want error", res)
			}
			if got := wakapi.KindOf(err); got != tt.want {
				t.Errorf("KindOf(err) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLogin_UnauthorizedInvokesCallback(t *testing.T) {
	calls := 0
	s, _ := newStore(t, func(context.Context) { calls++ })

	if _, err := s.Login(context.Background(), testutil.FakeUsername, "nope"); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("onUnauthorized calls = %d, want 1", calls)
	}
}

func TestRegister_SendsPasswordConfirmation(t *testing.T) {
	s, fake := newStore(t, nil)

	res, err := s.Register(context.Background(), "newuser", "new@example.com", "s3cret")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if !res.Success {
		t.Errorf("Register() = %+v, want success", res)
	}
	if !fake.HasUser("newuser") {
		t.Error("user was not created")
	}

	form := fake.Requests()[0].Form
	if form.Get("password_repeat") != "s3cret" || form.Get("email") != "new@example.com" {
		t.Errorf("unexpected signup form %v", form)
	}
}

func TestRegister_DuplicateUser(t *testing.T) {
	s, _ := newStore(t, nil)

	_, err := s.Register(context.Background(), testutil.FakeUsername, "", "x")
	if wakapi.KindOf(err) != wakapi.KindUnexpected || wakapi.StatusOf(err) != http.StatusConflict {
		t.Fatalf("expected 409 unexpected error, got %v", err)
	}
	if wakapi.MessageOf(err) != "user already existing" {
		t.Errorf("MessageOf(err) = %q", wakapi.MessageOf(err))
	}
}

func TestLogout(t *testing.T) {
	s, fake := newStore(t, nil)
	ctx := fake.SignedIn(context.Background())

	if st := s.CheckAuth(ctx); !st.Authenticated {
		t.Fatalf("precondition: expected authenticated, got %+v", st)
	}
	if _, err := s.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if st := s.CheckAuth(ctx); st.Authenticated {
		t.Errorf("session should be gone after logout, got %+v", st)
	}
}

func TestCheckAuth_Authenticated(t *testing.T) {
	s, fake := newStore(t, nil)

	st := s.CheckAuth(fake.SignedIn(context.Background()))
	if !st.Authenticated || st.Status != models.StatusAuthenticated {
		t.Fatalf("CheckAuth() = %+v, want authenticated", st)
	}
	if st.User == nil || st.User.Username != testutil.FakeUsername {
		t.Errorf("User = %+v, want %q", st.User, testutil.FakeUsername)
	}
	if fake.Hits("/api/v1/users/current/stats/today") != 1 {
		t.Errorf("probe not sent to the today stats endpoint: %+v", fake.Requests())
	}
}

func TestCheckAuth_EveryFailureIsUnauthenticated(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) (*Store, context.Context)
		want  wakapi.Kind
	}{
		{
			name: "401",
			setup: func(t *testing.T) (*Store, context.Context) {
				s, _ := newStore(t, nil)
				return s, context.Background()
			},
			want: wakapi.KindUnauthorized,
		},
		{
			name: "404",
			setup: func(t *testing.T) (*Store, context.Context) {
				s, fake := newStore(t, nil)
				fake.StatsStatus = http.StatusNotFound
				return s, fake.SignedIn(context.Background())
			},
			want: wakapi.KindNotFound,
		},
		{
			name: "transport",
			setup: func(t *testing.T) (*Store, context.Context) {
				fake := testutil.NewFakeWakapi(t)
				c := fake.Client(t, nil)
				fake.Close()
				return New(c, nil), context.Background()
			},
			want: wakapi.KindTransport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ctx := tt.setup(t)
			st := s.CheckAuth(ctx)
			if st.Authenticated || st.Status != models.StatusUnauthenticated || st.User != nil {
				t.Errorf("CheckAuth() = %+v, want unauthenticated", st)
			}
			if got := wakapi.KindOf(st.Reason); got != tt.want {
				t.Errorf("KindOf(Reason) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckAuth_FailedProbeStopsTheFlow(t *testing.T) {
	redirected := false
	s, fake := newStore(t, func(context.Context) { redirected = true })

	st := s.CheckAuth(context.Background())
	if st.Authenticated {
		t.Fatal("expected unauthenticated")
	}
	if !redirected {
		t.Error("401 from the probe should trigger the unauthorized callback")
	}
	if n := len(fake.Requests()); n != 1 {
		t.Errorf("expected only the probe request, got %d requests", n)
	}
}
