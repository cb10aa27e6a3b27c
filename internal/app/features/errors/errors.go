// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/trinetra/internal/app/system/viewdata"
	"github.com/dalemusser/trinetra/internal/app/system/wakapi"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// ErrorLogger wraps the zap logger for handler error logging.
type ErrorLogger struct {
	logger *zap.Logger
}

// NewErrorLogger creates a new ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorLogger{logger: logger}
}

// Log logs an error with the given message and error.
func (e *ErrorLogger) Log(r *http.Request, msg string, err error) {
	e.logger.Error(msg,
		zap.Error(err),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
	)
}

// LogWithFields logs an error with additional fields.
func (e *ErrorLogger) LogWithFields(r *http.Request, msg string, err error, fields ...zap.Field) {
	allFields := append([]zap.Field{
		zap.Error(err),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
	}, fields...)
	e.logger.Error(msg, allFields...)
}

// LogRemote logs a failed call to the time-tracking service. Rejections
// the user can fix (bad credentials, expired session) are logged at warn;
// everything else at error. Canceled requests are not logged.
func (e *ErrorLogger) LogRemote(r *http.Request, msg string, err error) {
	if wakapi.IsCanceled(err) {
		return
	}
	fields := []zap.Field{
		zap.Error(err),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
		zap.String("kind", wakapi.KindOf(err).String()),
		zap.Int("status", wakapi.StatusOf(err)),
	}
	switch wakapi.KindOf(err) {
	case wakapi.KindValidation, wakapi.KindUnauthorized:
		e.logger.Warn(msg, fields...)
	default:
		e.logger.Error(msg, fields...)
	}
}

// Handler provides error page handlers.
type Handler struct{}

// NewHandler creates a new error Handler.
func NewHandler() *Handler {
	return &Handler{}
}

type errorVM struct {
	viewdata.BaseVM
	Status  int
	Heading string
	Message string
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, heading, message string) {
	vm := errorVM{
		BaseVM:  viewdata.New(r),
		Status:  status,
		Heading: heading,
		Message: message,
	}
	vm.Title = heading

	w.WriteHeader(status)
	templates.Render(w, r, "errors/page", vm)
}

// Forbidden renders the 403 forbidden page.
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusForbidden, "Access Denied",
		"Your request could not be verified. Reload the page and try again.")
}

// Unauthorized renders the 401 unauthorized page.
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusUnauthorized, "Unauthorized",
		"Please sign in to continue.")
}

// NotFound renders the 404 not found page.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, "Not Found",
		"The page you are looking for does not exist.")
}

// InternalError renders the 500 internal server error page.
func (h *Handler) InternalError(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusInternalServerError, "Server Error",
		"Something went wrong on our side. Please try again.")
}
