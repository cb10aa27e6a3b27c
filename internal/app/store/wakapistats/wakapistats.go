// internal/app/store/wakapistats/wakapistats.go
package wakapistats

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/dalemusser/trinetra/internal/app/system/timerange"
	"github.com/dalemusser/trinetra/internal/app/system/wakapi"
	"github.com/dalemusser/trinetra/internal/domain/models"
	"go.uber.org/zap"
)

// Remote paths, in the client-visible vocabulary of the route table.
const (
	statsPath      = "/v1/users/current/stats/"
	summariesPath  = "/compat/wakatime/v1/users/current/summaries"
	heartbeatsPath = "/api/users/current/heartbeats"
)

// Client is the subset of *wakapi.Client used here.
type Client interface {
	Get(ctx context.Context, path string, query url.Values) (*wakapi.Response, error)
}

// Store reads statistics from the remote service and hands them out in a
// single normalized shape.
type Store struct {
	c      Client
	logger *zap.Logger
}

// New creates a Store.
func New(c Client, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{c: c, logger: logger}
}

// GetStats fetches the aggregate for a remote range name (today,
// last_7_days, ...) and strips the "data" envelope. Callers receive the
// inner payload and must not unwrap it again.
func (s *Store) GetStats(ctx context.Context, remoteRange string) (*models.Stats, error) {
	path := statsPath + url.PathEscape(remoteRange)

	var stats models.Stats
	if err := s.getData(ctx, "stats "+remoteRange, path, nil, &stats); err != nil {
		return nil, err
	}
	stats.Normalize()
	return &stats, nil
}

// GetStatsFor is GetStats for a selector value.
func (s *Store) GetStatsFor(ctx context.Context, r timerange.Range) (*models.Stats, error) {
	return s.GetStats(ctx, r.Remote())
}

// GetTodayStats fetches today's aggregate.
func (s *Store) GetTodayStats(ctx context.Context) (*models.Stats, error) {
	return s.GetStatsFor(ctx, timerange.Today)
}

// GetWeeklyStats fetches the last seven days.
func (s *Store) GetWeeklyStats(ctx context.Context) (*models.Stats, error) {
	return s.GetStatsFor(ctx, timerange.Last7Days)
}

// GetSummary fetches per-day buckets between start and end (YYYY-MM-DD).
// The summaries envelope is an array of days and is returned whole.
func (s *Store) GetSummary(ctx context.Context, start, end string) (*models.Summary, error) {
	q := url.Values{}
	q.Set("start", start)
	q.Set("end", end)

	resp, err := s.c.Get(ctx, summariesPath, q)
	if err != nil {
		return nil, err
	}

	var summary models.Summary
	if err := json.Unmarshal(resp.Body, &summary); err != nil {
		return nil, decodeError("summary", resp, err)
	}
	if summary.Start == "" {
		summary.Start = start
	}
	if summary.End == "" {
		summary.End = end
	}
	summary.Normalize()
	return &summary, nil
}

// GetHeartbeats fetches the raw heartbeats recorded on date (YYYY-MM-DD).
func (s *Store) GetHeartbeats(ctx context.Context, date string) ([]models.Heartbeat, error) {
	q := url.Values{}
	q.Set("date", date)

	var beats []models.Heartbeat
	if err := s.getData(ctx, "heartbeats", heartbeatsPath, q, &beats); err != nil {
		return nil, err
	}
	if beats == nil {
		beats = []models.Heartbeat{}
	}
	return beats, nil
}

// getData fetches path and decodes the value under "data" into v.
// A payload without a "data" member is an unexpected response.
func (s *Store) getData(ctx context.Context, op, path string, q url.Values, v any) error {
	resp, err := s.c.Get(ctx, path, q)
	if err != nil {
		return err
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return decodeError(op, resp, err)
	}
	if len(envelope.Data) == 0 {
		s.logger.Warn("wakapi response missing data envelope", zap.String("op", op))
		return &wakapi.Error{
			Kind:    wakapi.KindUnexpected,
			Op:      http.MethodGet + " " + path,
			Status:  resp.Status,
			Message: "The time-tracking service returned no data.",
		}
	}
	if string(envelope.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, v); err != nil {
		return decodeError(op, resp, err)
	}
	return nil
}

func decodeError(op string, resp *wakapi.Response, err error) error {
	return &wakapi.Error{
		Kind:    wakapi.KindUnexpected,
		Op:      op,
		Status:  resp.Status,
		Message: "The time-tracking service returned data Trinetra could not read.",
		Err:     err,
	}
}
