// internal/app/features/dashboard/dashboard.go
package dashboard

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	errorsfeature "github.com/dalemusser/trinetra/internal/app/features/errors"
	"github.com/dalemusser/trinetra/internal/app/store/wakapiauth"
	"github.com/dalemusser/trinetra/internal/app/system/navigate"
	"github.com/dalemusser/trinetra/internal/app/system/timerange"
	"github.com/dalemusser/trinetra/internal/app/system/viewdata"
	"github.com/dalemusser/trinetra/internal/app/system/viewfmt"
	"github.com/dalemusser/trinetra/internal/app/system/wakapi"
	"github.com/dalemusser/trinetra/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// StatsReader is the part of the stats store the dashboard reads from.
type StatsReader interface {
	GetStatsFor(ctx context.Context, r timerange.Range) (*models.Stats, error)
}

// Handler provides dashboard handlers.
type Handler struct {
	auth   wakapiauth.Service
	stats  StatsReader
	errLog *errorsfeature.ErrorLogger
	logger *zap.Logger
}

// NewHandler creates a new dashboard Handler.
func NewHandler(auth wakapiauth.Service, stats StatsReader, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		auth:   auth,
		stats:  stats,
		errLog: errLog,
		logger: logger,
	}
}

// RangeOption is one entry of the range selector.
type RangeOption struct {
	Value    string
	Label    string
	Selected bool
}

// DashboardVM is the view model for the dashboard.
type DashboardVM struct {
	viewdata.BaseVM

	Range      string
	RangeLabel string
	Ranges     []RangeOption

	// Error, when set, replaces the statistics with a retry prompt.
	Error    string
	RetryURL string

	HasData   bool
	Cards     []viewdata.StatCard
	Languages viewdata.RankedList
	Projects  viewdata.RankedList
}

// Routes returns a chi.Router with dashboard routes mounted.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.showDashboard)
	return r
}

// showDashboard confirms the session, then loads statistics for the
// selected range. Nothing is fetched for a visitor without a session.
func (h *Handler) showDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	state := h.auth.CheckAuth(ctx)
	if navigate.Done(r) {
		return
	}
	if !state.Authenticated {
		navigate.Redirect(w, r)
		return
	}

	raw := query.Get(r, "range")
	rng, rangeErr := timerange.Parse(raw)

	vm := DashboardVM{
		BaseVM:     viewdata.NewBaseVM(w, r, "Dashboard"),
		Range:      rng.String(),
		RangeLabel: rng.Label(),
		Ranges:     rangeOptions(rng),
		RetryURL:   "/dashboard?range=" + rng.String(),
	}
	vm.SetSession(state)

	if rangeErr != nil {
		vm.Error = "Unknown time range \"" + raw + "\". Choose one of the ranges above."
		w.WriteHeader(http.StatusBadRequest)
		templates.Render(w, r, "dashboard/index", vm)
		return
	}

	stats, err := h.stats.GetStatsFor(ctx, rng)
	if err != nil {
		if navigate.Done(r) || wakapi.IsCanceled(err) {
			return
		}
		if wakapi.IsUnauthorized(err) || wakapi.IsNotFound(err) {
			navigate.Redirect(w, r)
			return
		}
		h.errLog.LogRemote(r, "failed to load dashboard stats", err)
		vm.Error = errorMessage(err)
		w.WriteHeader(http.StatusBadGateway)
		templates.Render(w, r, "dashboard/index", vm)
		return
	}

	fill(&vm, stats, rng)
	templates.Render(w, r, "dashboard/index", vm)
}

func rangeOptions(selected timerange.Range) []RangeOption {
	all := timerange.All()
	out := make([]RangeOption, 0, len(all))
	for _, rg := range all {
		out = append(out, RangeOption{
			Value:    rg.String(),
			Label:    rg.Label(),
			Selected: rg == selected,
		})
	}
	return out
}

// fill derives the cards and lists. The daily average is the range total
// divided by the range's day count, not the remote daily_average.
func fill(vm *DashboardVM, stats *models.Stats, rng timerange.Range) {
	vm.HasData = stats.TotalSeconds > 0 || len(stats.Languages) > 0 || len(stats.Projects) > 0
	vm.Cards = []viewdata.StatCard{
		{Label: "Total Time", Value: viewfmt.Duration(stats.TotalSeconds), Glow: "purple"},
		{Label: "Languages", Value: strconv.Itoa(len(stats.Languages)), Glow: "blue"},
		{Label: "Projects", Value: strconv.Itoa(len(stats.Projects)), Glow: "pink"},
		{Label: "Daily Average", Value: viewfmt.Duration(DailyAverage(stats.TotalSeconds, rng)), Glow: "cyan"},
	}
	vm.Languages = viewdata.NewRankedList("Top Languages", "No language data available", stats.Languages, false)
	vm.Projects = viewdata.NewRankedList("Top Projects", "No project data available", stats.Projects, false)
}

// DailyAverage spreads total seconds over the days in rng.
func DailyAverage(totalSeconds float64, rng timerange.Range) float64 {
	days := rng.Days()
	if days <= 0 {
		return 0
	}
	return totalSeconds / float64(days)
}

func errorMessage(err error) string {
	var we *wakapi.Error
	if errors.As(err, &we) && we.Message != "" {
		return we.Message
	}
	return "Failed to load statistics."
}
