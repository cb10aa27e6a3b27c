// internal/app/features/health/health.go
package health

import (
	"context"
	"net/http"
	"sync"

	"github.com/dalemusser/trinetra/internal/app/system/jsonutil"
	"github.com/dalemusser/trinetra/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Pinger reports whether the remote time-tracking service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler provides health check endpoints.
type Handler struct {
	remote      Pinger
	mongoClient *mongo.Client // nil when audit storage is disabled
	logger      *zap.Logger
}

// NewHandler creates a new health check Handler. mongoClient may be nil.
func NewHandler(remote Pinger, mongoClient *mongo.Client, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		remote:      remote,
		mongoClient: mongoClient,
		logger:      logger,
	}
}

// Response represents the health check response.
type Response struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services,omitempty"`
}

// Routes returns a chi.Router with health check routes mounted.
// Provides /health (full check), /health/ready, and /health/live.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.Check)
	r.Get("/ready", h.Ready)
	r.Get("/live", h.Live)
	return r
}

// MountRootEndpoints adds /ready and /livez endpoints directly on the root router.
// This is the standard convention for Kubernetes probes:
//   - /ready (or /readyz) - readiness probe
//   - /livez - liveness probe
func MountRootEndpoints(r chi.Router, h *Handler) {
	r.Get("/ready", h.Ready)
	r.Get("/readyz", h.Ready)
	r.Get("/livez", h.Live)
}

// probe pings every dependency concurrently. The returned error is the
// first failure; services always holds one entry per dependency.
func (h *Handler) probe(ctx context.Context) (map[string]string, error) {
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Ping(), h.logger, "health probe")
	defer cancel()

	var (
		mu       sync.Mutex
		services = make(map[string]string, 2)
		g        errgroup.Group
	)
	record := func(name string, err error) error {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			services[name] = "unavailable"
			h.logger.Warn("health check: dependency unavailable", zap.String("service", name), zap.Error(err))
			return err
		}
		services[name] = "ok"
		return nil
	}

	g.Go(func() error {
		return record("wakapi", h.remote.Ping(ctx))
	})
	if h.mongoClient != nil {
		g.Go(func() error {
			return record("mongodb", h.mongoClient.Ping(ctx, readpref.Primary()))
		})
	}

	err := g.Wait()
	return services, err
}

// Check performs a full health check of the remote service and, when
// configured, MongoDB.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	services, err := h.probe(r.Context())
	resp := Response{Status: "ok", Services: services}
	if err != nil {
		resp.Status = "degraded"
		jsonutil.JSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	jsonutil.OK(w, resp)
}

// Ready checks if the service is ready to accept requests.
// Used by Kubernetes readiness probes.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if _, err := h.probe(r.Context()); err != nil {
		jsonutil.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	jsonutil.OK(w, map[string]string{"status": "ready"})
}

// Live checks if the service is alive.
// Used by Kubernetes liveness probes.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	jsonutil.OK(w, map[string]string{"status": "alive"})
}
