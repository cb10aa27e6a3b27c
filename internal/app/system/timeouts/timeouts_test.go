package timeouts

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestConfigure_KeepsUnsetValues(t *testing.T) {
	t.Cleanup(Reset)

	Configure(Config{Remote: 3 * time.Second})

	got := Current()
	want := Config{Ping: DefaultPing, Short: DefaultShort, Remote: 3 * time.Second}
	if got != want {
		t.Errorf("Current() = %+v, want %+v", got, want)
	}
	if Remote() != 3*time.Second {
		t.Errorf("Remote() = %v", Remote())
	}
}

func TestReset(t *testing.T) {
	Configure(Config{Ping: time.Minute, Short: time.Minute, Remote: time.Minute})
	Reset()
	if Ping() != DefaultPing || Short() != DefaultShort || Remote() != DefaultRemote {
		t.Errorf("Reset() left %+v", Current())
	}
}

func TestWithTimeout_LogsDeadline(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	ctx, cancel := WithTimeout(context.Background(), time.Millisecond, zap.New(core), "stats fetch")
	<-ctx.Done()
	cancel()

	if logs.Len() != 1 {
		t.Fatalf("expected 1 timeout log, got %d", logs.Len())
	}
	if op := logs.All()[0].ContextMap()["operation"]; op != "stats fetch" {
		t.Errorf("operation = %v", op)
	}
}

func TestWithTimeout_SilentOnCancel(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	_, cancel := WithTimeout(context.Background(), time.Hour, zap.New(core), "noop")
	cancel()
	if logs.Len() != 0 {
		t.Errorf("cancel before deadline should not log, got %d entries", logs.Len())
	}
}
