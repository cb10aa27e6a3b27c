// internal/app/store/wakapiauth/wakapiauth.go
package wakapiauth

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dalemusser/trinetra/internal/app/system/wakapi"
	"github.com/dalemusser/trinetra/internal/domain/models"
	"go.uber.org/zap"
)

// ProbePath is the privileged request used to infer whether the forwarded
// session is valid. The remote service has no session introspection
// endpoint, so a successful fetch of today's stats stands in for one.
const ProbePath = "/v1/users/current/stats/today"

// Service is the authentication surface the handlers depend on.
// Swapping the probe for a real introspection endpoint means writing a new
// implementation of this interface and nothing else.
type Service interface {
	Login(ctx context.Context, username, password string) (*Result, error)
	Register(ctx context.Context, username, email, password string) (*Result, error)
	Logout(ctx context.Context) (*Result, error)
	CheckAuth(ctx context.Context) models.SessionState
}

// Client is the subset of *wakapi.Client used here.
type Client interface {
	PostForm(ctx context.Context, path string, form url.Values) (*wakapi.Response, error)
	Post(ctx context.Context, path string) (*wakapi.Response, error)
	GetJSON(ctx context.Context, path string, query url.Values, v any) error
}

// Result describes a successful login, registration, or logout.
type Result struct {
	Success  bool
	Redirect bool   // the service answered with a 3xx
	Location string // redirect target reported by the service
	Status   int
	Cookies  []*http.Cookie // Set-Cookie values to relay to the browser
}

// Store implements Service on top of the remote HTTP API.
type Store struct {
	c      Client
	logger *zap.Logger
}

var _ Service = (*Store)(nil)

// New creates a Store.
func New(c Client, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{c: c, logger: logger}
}

// Login submits credentials. A redirect is the remote service's success
// signal and is inspected, not followed; a plain 2xx also succeeds.
func (s *Store) Login(ctx context.Context, username, password string) (*Result, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	resp, err := s.c.PostForm(ctx, "/login", form)
	return s.result("login", resp, err)
}

// Register creates an account. The remote service insists on a password
// confirmation field, which is filled with the same password.
func (s *Store) Register(ctx context.Context, username, email, password string) (*Result, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("email", email)
	form.Set("password", password)
	form.Set("password_repeat", password)

	resp, err := s.c.PostForm(ctx, "/signup", form)
	return s.result("register", resp, err)
}

// Logout ends the remote session.
func (s *Store) Logout(ctx context.Context) (*Result, error) {
	resp, err := s.c.Post(ctx, "/logout")
	return s.result("logout", resp, err)
}

// CheckAuth probes the remote service and projects the outcome onto a
// SessionState. Every failure, whatever its kind, yields an
// unauthenticated state; the failure itself is kept in Reason.
func (s *Store) CheckAuth(ctx context.Context) models.SessionState {
	var envelope struct {
		Data *struct {
			UserID   string `json:"user_id"`
			Username string `json:"username"`
		} `json:"data"`
	}

	if err := s.c.GetJSON(ctx, ProbePath, nil, &envelope); err != nil {
		s.logger.Debug("auth probe failed",
			zap.String("kind", wakapi.KindOf(err).String()),
			zap.Int("status", wakapi.StatusOf(err)))
		return models.SessionState{
			Status: models.StatusUnauthenticated,
			Reason: err,
		}
	}

	user := &models.WakapiUser{Username: models.DefaultDisplayName}
	if envelope.Data != nil {
		user.ID = envelope.Data.UserID
		if envelope.Data.Username != "" {
			user.Username = envelope.Data.Username
		}
	}
	return models.SessionState{
		Status:        models.StatusAuthenticated,
		Authenticated: true,
		User:          user,
	}
}

func (s *Store) result(op string, resp *wakapi.Response, err error) (*Result, error) {
	if err != nil {
		s.logger.Debug("auth request rejected",
			zap.String("op", op),
			zap.String("kind", wakapi.KindOf(err).String()),
			zap.Int("status", wakapi.StatusOf(err)))
		return nil, err
	}
	return &Result{
		Success:  true,
		Redirect: resp.Redirect(),
		Location: resp.Location,
		Status:   resp.Status,
		Cookies:  resp.Cookies,
	}, nil
}
