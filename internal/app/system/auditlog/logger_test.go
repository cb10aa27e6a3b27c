package auditlog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/trinetra/internal/app/store/audit"
	"github.com/dalemusser/trinetra/internal/app/system/wakapi"
	"github.com/dalemusser/trinetra/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newRequest() *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "203.0.113.9:4000"
	req.Header.Set("User-Agent", "TestAgent")
	return req
}

func TestLogger_NilIsNoop(t *testing.T) {
	var l *Logger
	l.LoginSucceeded(context.Background(), newRequest(), "alice", http.StatusFound)
}

func TestLogger_LogMode(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := New(nil, zap.New(core), Config{Auth: ModeLog})

	l.LoginSucceeded(context.Background(), newRequest(), "alice", http.StatusFound)

	if logs.Len() != 1 {
		t.Fatalf("expected 1 log entry, got %d", logs.Len())
	}
	entry := logs.All()[0]
	if entry.Level != zap.InfoLevel {
		t.Errorf("level = %v, want info", entry.Level)
	}
	fields := entry.ContextMap()
	if fields["event_type"] != audit.EventLoginSuccess || fields["username"] != "alice" || fields["ip"] != "203.0.113.9" {
		t.Errorf("unexpected fields: %v", fields)
	}
	if _, ok := fields["password"]; ok {
		t.Error("credentials must never be logged")
	}
}

func TestLogger_FailureCarriesKind(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := New(nil, zap.New(core), Config{Auth: ModeAll})

	err := &wakapi.Error{Kind: wakapi.KindValidation, Op: "login", Status: http.StatusBadRequest, Message: "missing parameters"}
	l.LoginFailed(context.Background(), newRequest(), "alice", err)

	if logs.Len() != 1 {
		t.Fatalf("expected 1 log entry, got %d", logs.Len())
	}
	entry := logs.All()[0]
	if entry.Level != zap.WarnLevel {
		t.Errorf("level = %v, want warn", entry.Level)
	}
	fields := entry.ContextMap()
	if fields["failure_kind"] != wakapi.KindValidation.String() {
		t.Errorf("failure_kind = %v", fields["failure_kind"])
	}
	if fields["status"] != int64(http.StatusBadRequest) {
		t.Errorf("status = %v", fields["status"])
	}
	if fields["failure_reason"] != "missing parameters" {
		t.Errorf("failure_reason = %v", fields["failure_reason"])
	}
}

func TestLogger_OffMode(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := New(nil, zap.New(core), Config{Auth: ModeOff})

	l.Logout(context.Background(), newRequest(), nil)
	if logs.Len() != 0 {
		t.Errorf("off mode logged %d entries", logs.Len())
	}
}

func TestLogger_DBMode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	core, logs := observer.New(zap.DebugLevel)
	l := New(store, zap.New(core), Config{Auth: ModeDB})

	ctx, cancel := testutil.TestContext()
	defer cancel()

	l.SignupFailed(ctx, newRequest(), "bob", &wakapi.Error{Kind: wakapi.KindUnexpected, Status: http.StatusConflict, Message: "user already existing"})

	if logs.Len() != 0 {
		t.Errorf("db mode should not log to zap, got %d entries", logs.Len())
	}
	events, err := store.Query(ctx, audit.QueryFilter{Username: "bob"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 stored event, got %d", len(events))
	}
	got := events[0]
	if got.EventType != audit.EventSignupFailed || got.Success || got.Status != http.StatusConflict {
		t.Errorf("stored event = %+v", got)
	}
	if got.UserAgent != "TestAgent" {
		t.Errorf("UserAgent = %q", got.UserAgent)
	}
}
