package errors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/trinetra/internal/app/system/wakapi"
	"github.com/dalemusser/trinetra/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewHandler(t *testing.T) {
	h := NewHandler()
	if h == nil {
		t.Fatal("NewHandler() returned nil")
	}
}

func TestErrorPages_Status(t *testing.T) {
	testutil.MustBootTemplates(t)
	h := NewHandler()

	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    int
	}{
		{"forbidden", h.Forbidden, http.StatusForbidden},
		{"unauthorized", h.Unauthorized, http.StatusUnauthorized},
		{"not found", h.NotFound, http.StatusNotFound},
		{"internal", h.InternalError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.WithCSRFToken(httptest.NewRequest(http.MethodGet, "/missing", nil))
			rec := httptest.NewRecorder()

			tt.handler(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestErrorLogger_Log(t *testing.T) {
	errLog := NewErrorLogger(zap.NewNop())

	// Should not panic
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	errLog.Log(req, "test error", nil)
	errLog.LogWithFields(req, "test error", nil, zap.String("extra", "field"))
}

func TestErrorLogger_LogRemote(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	errLog := NewErrorLogger(zap.New(core))
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)

	errLog.LogRemote(req, "bad credentials", &wakapi.Error{Kind: wakapi.KindValidation, Status: 400})
	errLog.LogRemote(req, "down", &wakapi.Error{Kind: wakapi.KindTransport})
	errLog.LogRemote(req, "gone", &wakapi.Error{Kind: wakapi.KindTransport, Err: context.Canceled})

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries (canceled skipped), got %d", len(entries))
	}
	if entries[0].Level != zap.WarnLevel {
		t.Errorf("validation logged at %v, want warn", entries[0].Level)
	}
	if entries[1].Level != zap.ErrorLevel {
		t.Errorf("transport logged at %v, want error", entries[1].Level)
	}
	if entries[0].ContextMap()["kind"] != "validation" {
		t.Errorf("kind field = %v", entries[0].ContextMap()["kind"])
	}
}
