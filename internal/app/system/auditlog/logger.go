// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/trinetra/internal/app/store/audit"
	"github.com/dalemusser/trinetra/internal/app/system/network"
	"github.com/dalemusser/trinetra/internal/app/system/timeouts"
	"github.com/dalemusser/trinetra/internal/app/system/wakapi"
	"go.uber.org/zap"
)

// Destinations for audit events.
const (
	ModeAll = "all" // MongoDB + zap
	ModeDB  = "db"  // MongoDB only
	ModeLog = "log" // zap only
	ModeOff = "off" // disabled
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for authentication events (login, signup, logout).
	// Values: "all", "db", "log", "off".
	Auth string
}

// Logger provides convenience methods for logging audit events.
// It logs to MongoDB (via audit.Store) and structured logs (via zap).
// The store may be nil, in which case only zap is used.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.Username != "" {
		fields = append(fields, zap.String("username", event.Username))
	}
	if event.Status != 0 {
		fields = append(fields, zap.Int("status", event.Status))
	}
	if event.FailureKind != "" {
		fields = append(fields, zap.String("failure_kind", event.FailureKind))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}
	if event.Category == "" {
		event.Category = audit.CategoryAuth
	}

	setting := l.config.Auth
	if setting == "" {
		setting = ModeLog
	}
	if setting == ModeOff {
		return
	}

	if setting == ModeAll || setting == ModeLog {
		l.logToZap(event)
	}

	if (setting == ModeAll || setting == ModeDB) && l.store != nil {
		// The audit write must not be lost because the browser went away.
		dbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.Short())
		defer cancel()
		if err := l.store.Log(dbCtx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func (l *Logger) authEvent(r *http.Request, eventType, username string, status int, err error) audit.Event {
	ev := audit.Event{
		Category:  audit.CategoryAuth,
		EventType: eventType,
		Username:  username,
		IP:        network.GetClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   err == nil,
		Status:    status,
	}
	if err != nil {
		ev.Status = wakapi.StatusOf(err)
		ev.FailureKind = wakapi.KindOf(err).String()
		ev.FailureReason = wakapi.MessageOf(err)
		if ev.FailureReason == "" {
			ev.FailureReason = err.Error()
		}
	}
	return ev
}

// --- Authentication Events ---

// LoginSucceeded logs a login the remote service accepted.
func (l *Logger) LoginSucceeded(ctx context.Context, r *http.Request, username string, status int) {
	l.Log(ctx, l.authEvent(r, audit.EventLoginSuccess, username, status, nil))
}

// LoginFailed logs a login the remote service rejected or never answered.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, username string, err error) {
	l.Log(ctx, l.authEvent(r, audit.EventLoginFailed, username, 0, err))
}

// SignupSucceeded logs a created account.
func (l *Logger) SignupSucceeded(ctx context.Context, r *http.Request, username string, status int) {
	l.Log(ctx, l.authEvent(r, audit.EventSignupSuccess, username, status, nil))
}

// SignupFailed logs a rejected registration.
func (l *Logger) SignupFailed(ctx context.Context, r *http.Request, username string, err error) {
	l.Log(ctx, l.authEvent(r, audit.EventSignupFailed, username, 0, err))
}

// Logout logs a logout. err is the remote failure, if any; the local
// cookies are cleared either way.
func (l *Logger) Logout(ctx context.Context, r *http.Request, err error) {
	eventType := audit.EventLogout
	if err != nil {
		eventType = audit.EventLogoutFailed
	}
	l.Log(ctx, l.authEvent(r, eventType, "", 0, err))
}
