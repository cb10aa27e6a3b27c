package flash

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
)

const testKey = "0123456789abcdefghijklmnopqrstuvwxyz-flash"

func TestNew_RejectsEmptyKey(t *testing.T) {
	_, err := New("", "", "", 0, false, zap.NewNop())
	var cfgErr *SessionConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected SessionConfigError, got %v", err)
	}
}

func TestNew_RejectsWeakKeyInProduction(t *testing.T) {
	if _, err := New("dev-only-change-me-please-0123456789ABCDEF", "", "", 0, true, zap.NewNop()); err == nil {
		t.Fatal("expected error for default key in secure mode")
	}
	if _, err := New("short", "", "", 0, false, zap.NewNop()); err != nil {
		t.Fatalf("weak key should be allowed outside production: %v", err)
	}
}

func TestNew_DefaultName(t *testing.T) {
	s, err := New(testKey, "", "", time.Minute, false, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if s.Name() != DefaultName {
		t.Errorf("Name() = %q, want %q", s.Name(), DefaultName)
	}
}

func TestAddThenPop(t *testing.T) {
	s, err := New(testKey, "test-flash", "", time.Minute, false, zap.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Request 1: queue messages.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login/signup", nil)
	s.Success(rec, req, "Account created successfully! Please login.")
	s.Error(rec, req, "second")

	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected flash cookie to be set")
	}

	// Request 2: read them back.
	req2 := httptest.NewRequest(http.MethodGet, "/login", nil)
	req2.AddCookie(cookies[len(cookies)-1])
	rec2 := httptest.NewRecorder()
	got := s.Pop(rec2, req2)

	want := []Message{
		{Level: LevelSuccess, Text: "Account created successfully! Please login."},
		{Level: LevelError, Text: "second"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Pop() mismatch (-want +got):\n%s", diff)
	}
}

func TestPop_NoCookie(t *testing.T) {
	s, _ := New(testKey, "", "", time.Minute, false, nil)
	rec := httptest.NewRecorder()
	if got := s.Pop(rec, httptest.NewRequest(http.MethodGet, "/", nil)); got != nil {
		t.Errorf("Pop() = %v, want nil", got)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("Pop() with nothing queued should not write a cookie")
	}
}

func TestPop_NilStore(t *testing.T) {
	var s *Store
	if got := s.Pop(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil)); got != nil {
		t.Errorf("Pop() on nil store = %v", got)
	}
}

func TestPop_TamperedCookie(t *testing.T) {
	s, _ := New(testKey, "test-flash", "", time.Minute, false, zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "test-flash", Value: "garbage"})

	if got := s.Pop(httptest.NewRecorder(), req); got != nil {
		t.Errorf("Pop() = %v, want nil for unreadable cookie", got)
	}
}
