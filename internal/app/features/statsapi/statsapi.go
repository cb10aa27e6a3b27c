// internal/app/features/statsapi/statsapi.go
package statsapi

import (
	"context"
	"net/http"

	errorsfeature "github.com/dalemusser/trinetra/internal/app/features/errors"
	"github.com/dalemusser/trinetra/internal/app/store/wakapiauth"
	"github.com/dalemusser/trinetra/internal/app/system/inputval"
	"github.com/dalemusser/trinetra/internal/app/system/jsonutil"
	"github.com/dalemusser/trinetra/internal/app/system/navigate"
	"github.com/dalemusser/trinetra/internal/app/system/timerange"
	"github.com/dalemusser/trinetra/internal/app/system/wakapi"
	"github.com/dalemusser/trinetra/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// StatsReader is the part of the stats store the API exposes.
type StatsReader interface {
	GetStatsFor(ctx context.Context, r timerange.Range) (*models.Stats, error)
	GetSummary(ctx context.Context, start, end string) (*models.Summary, error)
	GetHeartbeats(ctx context.Context, date string) ([]models.Heartbeat, error)
}

// Handler provides JSON endpoints over the remote statistics.
type Handler struct {
	auth   wakapiauth.Service
	stats  StatsReader
	errLog *errorsfeature.ErrorLogger
	logger *zap.Logger
}

// NewHandler creates a new statsapi Handler.
func NewHandler(auth wakapiauth.Service, stats StatsReader, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{auth: auth, stats: stats, errLog: errLog, logger: logger}
}

// Routes returns a chi.Router with the API mounted.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/stats/{range}", h.getStats)
	r.Get("/summary", h.getSummary)
	r.Get("/heartbeats", h.getHeartbeats)
	r.With(navigate.Inline).Get("/session", h.getSession)
	return r
}

// sessionResponse is the JSON shape of a probe result.
type sessionResponse struct {
	Status        models.SessionStatus `json:"status"`
	Authenticated bool                 `json:"authenticated"`
	User          *models.WakapiUser   `json:"user,omitempty"`
	Reason        string               `json:"reason,omitempty"`
}

func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	rng, err := timerange.Parse(chi.URLParam(r, "range"))
	if err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}

	stats, err := h.stats.GetStatsFor(r.Context(), rng)
	if err != nil {
		h.remoteError(w, r, err)
		return
	}
	jsonutil.OK(w, map[string]any{"range": rng.String(), "data": stats})
}

func (h *Handler) getSummary(w http.ResponseWriter, r *http.Request) {
	input := inputval.DateRangeInput{
		Start: query.Get(r, "start"),
		End:   query.Get(r, "end"),
	}
	if res := inputval.Validate(input); res.HasErrors() {
		jsonutil.BadRequest(w, res.First())
		return
	}

	summary, err := h.stats.GetSummary(r.Context(), input.Start, input.End)
	if err != nil {
		h.remoteError(w, r, err)
		return
	}
	jsonutil.OK(w, summary)
}

func (h *Handler) getHeartbeats(w http.ResponseWriter, r *http.Request) {
	date := query.Get(r, "date")
	if !inputval.IsValidDate(date) {
		jsonutil.BadRequest(w, "date must be a date in YYYY-MM-DD format")
		return
	}

	beats, err := h.stats.GetHeartbeats(r.Context(), date)
	if err != nil {
		h.remoteError(w, r, err)
		return
	}
	jsonutil.OK(w, map[string]any{"date": date, "data": beats})
}

// getSession reports the probe outcome. It always answers 200; a rejected
// session is a valid answer here, not an error.
func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	state := h.auth.CheckAuth(r.Context())

	resp := sessionResponse{
		Status:        state.Status,
		Authenticated: state.Authenticated,
		User:          state.User,
	}
	if state.Reason != nil {
		resp.Reason = wakapi.KindOf(state.Reason).String()
	}
	jsonutil.OK(w, resp)
}

// remoteError translates a remote failure into a JSON error, unless the
// request was already answered by the unauthorized hook.
func (h *Handler) remoteError(w http.ResponseWriter, r *http.Request, err error) {
	if navigate.Done(r) || wakapi.IsCanceled(err) {
		return
	}

	msg := wakapi.MessageOf(err)
	if msg == "" {
		msg = wakapi.GenericMessage
	}

	switch wakapi.KindOf(err) {
	case wakapi.KindUnauthorized:
		jsonutil.Unauthorized(w, msg)
	case wakapi.KindNotFound:
		jsonutil.NotFound(w, msg)
	case wakapi.KindValidation:
		jsonutil.BadRequest(w, msg)
	case wakapi.KindTransport:
		h.errLog.LogRemote(r, "stats api: remote unreachable", err)
		jsonutil.ServiceUnavailable(w, msg)
	default:
		h.errLog.LogRemote(r, "stats api: remote failure", err)
		jsonutil.BadGateway(w, msg)
	}
}
