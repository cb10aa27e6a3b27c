package wakapistats

import (
	"context"
	"testing"

	"github.com/dalemusser/trinetra/internal/app/system/timerange"
	"github.com/dalemusser/trinetra/internal/app/system/wakapi"
	"github.com/dalemusser/trinetra/internal/domain/models"
	"github.com/dalemusser/trinetra/internal/testutil"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
)

func newStore(t *testing.T) (*Store, *testutil.FakeWakapi) {
	t.Helper()
	fake := testutil.NewFakeWakapi(t)
	return New(fake.Client(t, nil), zap.NewNop()), fake
}

func TestGetStats_UnwrapsDataEnvelope(t *testing.T) {
	s, fake := newStore(t)
	fake.RawStats = `{"data":{"total_seconds":120,"languages":[],"projects":[],"editors":[]}}`

	got, err := s.GetStats(fake.SignedIn(context.Background()), "last_7_days")
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}

	want := &models.Stats{
		TotalSeconds:     120,
		Languages:        []models.StatEntry{},
		Projects:         []models.StatEntry{},
		Editors:          []models.StatEntry{},
		OperatingSystems: []models.StatEntry{},
		Machines:         []models.StatEntry{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GetStats() mismatch (-want +got):\n%s", diff)
	}
}

func TestGetStats_MissingCollectionsBecomeEmpty(t *testing.T) {
	s, fake := newStore(t)
	fake.RawStats = `{"data":{"total_seconds":60,"languages":null}}`

	got, err := s.GetStats(fake.SignedIn(context.Background()), "today")
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if got.Languages == nil || got.Projects == nil || got.Editors == nil {
		t.Fatalf("collections should be non-nil: %+v", got)
	}
	if len(got.Languages) != 0 || len(got.Projects) != 0 {
		t.Errorf("collections should be empty: %+v", got)
	}
}

func TestGetStats_KeepsRemoteOrderAndPercentages(t *testing.T) {
	s, fake := newStore(t)
	fake.Stats["last_30_days"] = map[string]any{
		"total_seconds": 7200,
		"languages": []map[string]any{
			{"name": "Go", "total_seconds": 5400, "percent": 75},
			{"name": "SQL", "total_seconds": 1800, "percent": 40},
		},
	}

	got, err := s.GetStatsFor(fake.SignedIn(context.Background()), timerange.Last30Days)
	if err != nil {
		t.Fatalf("GetStatsFor() error = %v", err)
	}
	want := []models.StatEntry{
		{Name: "Go", TotalSeconds: 5400, Percent: 75},
		{Name: "SQL", TotalSeconds: 1800, Percent: 40},
	}
	if diff := cmp.Diff(want, got.Languages); diff != "" {
		t.Errorf("languages mismatch (-want +got):\n%s", diff)
	}
	if fake.Hits("/api/v1/users/current/stats/last_30_days") != 1 {
		t.Errorf("expected one request for last_30_days, got %+v", fake.Requests())
	}
}

func TestGetStats_MissingEnvelopeIsUnexpected(t *testing.T) {
	s, fake := newStore(t)
	fake.RawStats = `{"total_seconds":120}`

	_, err := s.GetStats(fake.SignedIn(context.Background()), "today")
	if wakapi.KindOf(err) != wakapi.KindUnexpected {
		t.Fatalf("KindOf(err) = %v, want unexpected (err = %v)", wakapi.KindOf(err), err)
	}
}

func TestGetStats_Unauthorized(t *testing.T) {
	s, _ := newStore(t)

	_, err := s.GetTodayStats(context.Background())
	if !wakapi.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestGetWeeklyStats_UsesLast7Days(t *testing.T) {
	s, fake := newStore(t)

	got, err := s.GetWeeklyStats(fake.SignedIn(context.Background()))
	if err != nil {
		t.Fatalf("GetWeeklyStats() error = %v", err)
	}
	if got.Range != "last_7_days" {
		t.Errorf("Range = %q, want last_7_days", got.Range)
	}
}

func TestGetSummary_KeepsDayArray(t *testing.T) {
	s, fake := newStore(t)
	fake.Summary = []map[string]any{
		{
			"range":       map[string]any{"date": "2024-05-01", "start": "2024-05-01T00:00:00Z", "end": "2024-05-01T23:59:59Z"},
			"grand_total": map[string]any{"total_seconds": 3600, "hours": 1, "minutes": 0},
			"languages":   []map[string]any{{"name": "Go", "total_seconds": 3600, "percent": 100}},
		},
		{
			"range":       map[string]any{"date": "2024-05-02", "start": "2024-05-02T00:00:00Z", "end": "2024-05-02T23:59:59Z"},
			"grand_total": map[string]any{"total_seconds": 1800, "hours": 0, "minutes": 30},
		},
	}

	got, err := s.GetSummary(fake.SignedIn(context.Background()), "2024-05-01", "2024-05-02")
	if err != nil {
		t.Fatalf("GetSummary() error = %v", err)
	}
	if len(got.Data) != 2 {
		t.Fatalf("len(Data) = %d, want 2", len(got.Data))
	}
	if got.TotalSeconds() != 5400 {
		t.Errorf("TotalSeconds() = %v, want 5400", got.TotalSeconds())
	}
	if got.Data[1].Languages == nil {
		t.Error("per-day languages should be normalized to an empty slice")
	}
	if got.Start != "2024-05-01" || got.End != "2024-05-02" {
		t.Errorf("range = %s..%s", got.Start, got.End)
	}

	reqs := fake.Requests()
	last := reqs[len(reqs)-1]
	if last.Path != "/compat/wakatime/v1/users/current/summaries" || last.Query.Get("start") != "2024-05-01" {
		t.Errorf("unexpected request %+v", last)
	}
}

func TestGetSummary_ValidationError(t *testing.T) {
	s, fake := newStore(t)

	_, err := s.GetSummary(fake.SignedIn(context.Background()), "", "")
	if !wakapi.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetHeartbeats(t *testing.T) {
	s, fake := newStore(t)
	fake.Heartbeats = []map[string]any{
		{"entity": "main.go", "type": "file", "time": 1714550400.5, "language": "Go", "is_write": true},
	}

	got, err := s.GetHeartbeats(fake.SignedIn(context.Background()), "2024-05-01")
	if err != nil {
		t.Fatalf("GetHeartbeats() error = %v", err)
	}
	want := []models.Heartbeat{{Entity: "main.go", Type: "file", Time: 1714550400.5, Language: "Go", IsWrite: true}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GetHeartbeats() mismatch (-want +got):\n%s", diff)
	}
}

func TestGetHeartbeats_EmptyDay(t *testing.T) {
	s, fake := newStore(t)

	got, err := s.GetHeartbeats(fake.SignedIn(context.Background()), "2024-05-01")
	if err != nil {
		t.Fatalf("GetHeartbeats() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("GetHeartbeats() = %#v, want empty slice", got)
	}
}
