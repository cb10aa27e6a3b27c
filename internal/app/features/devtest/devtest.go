// internal/app/features/devtest/devtest.go
package devtest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	errorsfeature "github.com/dalemusser/trinetra/internal/app/features/errors"
	"github.com/dalemusser/trinetra/internal/app/store/audit"
	"github.com/dalemusser/trinetra/internal/app/store/wakapiauth"
	"github.com/dalemusser/trinetra/internal/app/system/navigate"
	"github.com/dalemusser/trinetra/internal/app/system/timeouts"
	"github.com/dalemusser/trinetra/internal/app/system/viewdata"
	"github.com/dalemusser/trinetra/internal/app/system/wakapi"
	"github.com/dalemusser/trinetra/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Sample credentials submitted by the login button.
const (
	SampleUsername = "testuser"
	SamplePassword = "testpass"
)

// recentLimit is how many audit events the page lists.
const recentLimit = 10

// TodayReader is the part of the stats store the page exercises.
type TodayReader interface {
	GetTodayStats(ctx context.Context) (*models.Stats, error)
}

// Handler provides the developer test page.
type Handler struct {
	auth   wakapiauth.Service
	stats  TodayReader
	audit  *audit.Store // nil when audit storage is disabled
	errLog *errorsfeature.ErrorLogger
	secure bool
	logger *zap.Logger
}

// NewHandler creates a new devtest Handler.
func NewHandler(
	auth wakapiauth.Service,
	stats TodayReader,
	auditStore *audit.Store,
	errLog *errorsfeature.ErrorLogger,
	secure bool,
	logger *zap.Logger,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		auth:   auth,
		stats:  stats,
		audit:  auditStore,
		errLog: errLog,
		secure: secure,
		logger: logger,
	}
}

// Routes returns a chi.Router with the test page mounted. Remote 401s are
// shown on the page instead of sending the browser to the login form.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(navigate.Inline)
	r.Get("/", h.show)
	r.Post("/auth", h.testAuth)
	r.Post("/login", h.testLogin)
	r.Post("/stats", h.testStats)
	return r
}

// RecentEvent is an audit event formatted for display.
type RecentEvent struct {
	When     string
	Type     string
	Username string
	Outcome  string
}

// PageVM is the view model for the test page.
type PageVM struct {
	viewdata.BaseVM

	Action  string // which button produced the result
	Result  string // pretty-printed JSON
	Error   string
	Status  int
	Elapsed string

	AuditEnabled bool
	Recent       []RecentEvent
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, PageVM{})
}

func (h *Handler) testAuth(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	state := h.auth.CheckAuth(r.Context())

	out := struct {
		models.SessionState
		Reason string `json:"reason,omitempty"`
	}{SessionState: state}
	if state.Reason != nil {
		out.Reason = state.Reason.Error()
	}

	vm := PageVM{Action: "Auth Check", Elapsed: since(start)}
	vm.Result = pretty(out)
	if state.Reason != nil {
		vm.Status = wakapi.StatusOf(state.Reason)
	}
	h.render(w, r, vm)
}

func (h *Handler) testLogin(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	res, err := h.auth.Login(r.Context(), SampleUsername, SamplePassword)

	vm := PageVM{Action: "Login", Elapsed: since(start)}
	if err != nil {
		h.setError(r, &vm, err)
		h.render(w, r, vm)
		return
	}

	wakapi.RelayCookies(w, res.Cookies, h.secure)
	names := make([]string, 0, len(res.Cookies))
	for _, ck := range res.Cookies {
		names = append(names, ck.Name)
	}
	vm.Status = res.Status
	vm.Result = pretty(map[string]any{
		"success":  res.Success,
		"redirect": res.Redirect,
		"location": res.Location,
		"status":   res.Status,
		"cookies":  names,
	})
	h.render(w, r, vm)
}

func (h *Handler) testStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	stats, err := h.stats.GetTodayStats(r.Context())

	vm := PageVM{Action: "Stats (today)", Elapsed: since(start)}
	if err != nil {
		h.setError(r, &vm, err)
		h.render(w, r, vm)
		return
	}
	vm.Status = http.StatusOK
	vm.Result = pretty(stats)
	h.render(w, r, vm)
}

func (h *Handler) setError(r *http.Request, vm *PageVM, err error) {
	h.errLog.LogRemote(r, "developer test call failed", err)
	vm.Status = wakapi.StatusOf(err)
	vm.Error = wakapi.MessageOf(err)
	if vm.Error == "" {
		vm.Error = err.Error()
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, vm PageVM) {
	vm.BaseVM = viewdata.NewBaseVM(w, r, "API Test")
	vm.AuditEnabled = h.audit != nil
	if h.audit != nil {
		vm.Recent = h.recentEvents(r.Context())
	}
	templates.Render(w, r, "devtest/index", vm)
}

func (h *Handler) recentEvents(ctx context.Context) []RecentEvent {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	events, err := h.audit.GetRecent(ctx, recentLimit)
	if err != nil {
		h.logger.Warn("failed to load recent audit events", zap.Error(err))
		return nil
	}
	out := make([]RecentEvent, 0, len(events))
	for _, e := range events {
		outcome := "ok"
		if !e.Success {
			outcome = e.FailureKind
			if outcome == "" {
				outcome = "failed"
			}
		}
		out = append(out, RecentEvent{
			When:     e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			Type:     e.EventType,
			Username: e.Username,
			Outcome:  outcome,
		})
	}
	return out
}

func pretty(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err.Error()
	}
	return string(b)
}

func since(start time.Time) string {
	return time.Since(start).Round(time.Millisecond).String()
}
