// internal/app/features/home/home.go
package home

import (
	"net/http"

	"github.com/dalemusser/trinetra/internal/app/system/viewdata"
	"github.com/dalemusser/trinetra/internal/app/system/viewfmt"
	"github.com/dalemusser/trinetra/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler provides home page handlers.
type Handler struct {
	logger *zap.Logger
}

// NewHandler creates a new home Handler.
func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{
		logger: logger,
	}
}

// HomeVM is the view model for the home page.
type HomeVM struct {
	viewdata.BaseVM
	Intro     string
	Preview   []viewdata.StatCard
	Languages viewdata.RankedList
	Projects  viewdata.RankedList
}

// Routes returns a chi.Router with home routes mounted.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.Index)
	return r
}

// Index renders the landing page. The preview is sample data; the page
// makes no remote calls.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	vm := HomeVM{
		BaseVM: viewdata.NewBaseVM(w, r, ""),
		Intro: "Your mystical coding companion. Track your development journey " +
			"through the cosmic realms of code.",
		Preview:   previewCards(),
		Languages: viewdata.NewRankedList("Top Languages", "", previewLanguages, true),
		Projects:  viewdata.NewRankedList("Recent Projects", "", previewProjects, false),
	}

	templates.Render(w, r, "home/index", vm)
}

func previewCards() []viewdata.StatCard {
	return []viewdata.StatCard{
		{Label: "Today", Value: viewfmt.Duration(2*3600 + 34*60), Glow: "purple"},
		{Label: "This Week", Value: viewfmt.Duration(18*3600 + 42*60), Glow: "blue"},
		{Label: "Daily Average", Value: viewfmt.Duration(2*3600 + 15*60), Glow: "pink"},
		{Label: "Total Time", Value: viewfmt.Duration(248*3600 + 16*60), Glow: "cyan"},
	}
}

var previewLanguages = []models.StatEntry{
	{Name: "TypeScript", TotalSeconds: 8*3600 + 25*60, Percent: 45},
	{Name: "JavaScript", TotalSeconds: 5*3600 + 37*60, Percent: 30},
	{Name: "Python", TotalSeconds: 3*3600 + 11*60, Percent: 17},
	{Name: "CSS", TotalSeconds: 1*3600 + 29*60, Percent: 8},
}

var previewProjects = []models.StatEntry{
	{Name: "Trinetra Dashboard", TotalSeconds: 12*3600 + 30*60},
	{Name: "API Development", TotalSeconds: 4*3600 + 12*60},
	{Name: "UI Components", TotalSeconds: 2*3600 + 0*60},
}
