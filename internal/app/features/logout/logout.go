// internal/app/features/logout/logout.go
package logout

import (
	"net/http"

	"github.com/dalemusser/trinetra/internal/app/store/wakapiauth"
	"github.com/dalemusser/trinetra/internal/app/system/auditlog"
	"github.com/dalemusser/trinetra/internal/app/system/navigate"
	"github.com/dalemusser/trinetra/internal/app/system/wakapi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler provides logout handlers.
type Handler struct {
	auth          wakapiauth.Service
	auditLogger   *auditlog.Logger
	sessionCookie string
	secure        bool
	logger        *zap.Logger
}

// NewHandler creates a new logout Handler.
func NewHandler(
	auth wakapiauth.Service,
	auditLogger *auditlog.Logger,
	sessionCookie string,
	secure bool,
	logger *zap.Logger,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sessionCookie == "" {
		sessionCookie = wakapi.DefaultSessionCookie
	}
	return &Handler{
		auth:          auth,
		auditLogger:   auditLogger,
		sessionCookie: sessionCookie,
		secure:        secure,
		logger:        logger,
	}
}

// Routes returns a chi.Router with logout routes mounted.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.handleLogout)
	r.Get("/", h.handleLogout) // Allow GET for simple logout links
	return r
}

// handleLogout ends the remote session and clears the browser's copy of it.
// The remote call is best effort: the user is signed out locally whatever
// it returns.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	// Expire first so the cookie is cleared even if a 401 from the remote
	// service answers the request before we get to redirect.
	wakapi.ExpireCookie(w, h.sessionCookie, h.secure)

	res, err := h.auth.Logout(r.Context())
	if err != nil {
		if !wakapi.IsCanceled(err) {
			h.logger.Warn("remote logout failed",
				zap.String("kind", wakapi.KindOf(err).String()),
				zap.Int("status", wakapi.StatusOf(err)))
		}
	}
	h.auditLogger.Logout(r.Context(), r, err)

	if navigate.Done(r) {
		return
	}
	if res != nil {
		wakapi.RelayCookies(w, res.Cookies, h.secure)
	}
	http.Redirect(w, r, navigate.LoginPath, http.StatusSeeOther)
}
