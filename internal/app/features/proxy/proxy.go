// internal/app/features/proxy/proxy.go
package proxy

import (
	"context"
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/dalemusser/trinetra/internal/app/system/jsonutil"
	"github.com/dalemusser/trinetra/internal/app/system/wakapi"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultPrefix is where the proxy is mounted unless configured otherwise.
const DefaultPrefix = "/api/wakapi"

type remotePathKey struct{}

// Handler forwards browser calls to the remote service through the route
// table, so scripts see one origin and one cookie jar.
type Handler struct {
	base   *url.URL
	secure bool
	logger *zap.Logger
	rp     *httputil.ReverseProxy
}

// NewHandler creates a proxy to base. secure marks relayed cookies Secure.
func NewHandler(base *url.URL, secure bool, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{base: base, secure: secure, logger: logger}
	h.rp = &httputil.ReverseProxy{
		Rewrite:        h.rewrite,
		ModifyResponse: h.modifyResponse,
		ErrorHandler:   h.errorHandler,
	}
	return h
}

// Routes returns a chi.Router that proxies everything below its mount point.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Handle("/*", http.HandlerFunc(h.serve))
	return r
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request) {
	remotePath, err := wakapi.Rewrite("/" + chi.URLParam(r, "*"))
	if err != nil {
		jsonutil.NotFound(w, "no such remote endpoint")
		return
	}
	ctx := context.WithValue(r.Context(), remotePathKey{}, remotePath)
	h.rp.ServeHTTP(w, r.WithContext(ctx))
}

// rewrite targets the remote path and swaps the inbound cookies for the
// forwarded credentials, so Trinetra's own cookies never leave the host.
func (h *Handler) rewrite(pr *httputil.ProxyRequest) {
	remotePath, _ := pr.In.Context().Value(remotePathKey{}).(string)

	pr.Out.URL.Scheme = h.base.Scheme
	pr.Out.URL.Host = h.base.Host
	pr.Out.URL.Path = strings.TrimRight(h.base.Path, "/") + remotePath
	pr.Out.URL.RawPath = ""
	pr.Out.URL.RawQuery = pr.In.URL.RawQuery
	pr.Out.Host = h.base.Host
	pr.SetXForwarded()

	pr.Out.Header.Del("Cookie")
	for _, ck := range wakapi.CredentialsFrom(pr.In.Context()) {
		pr.Out.AddCookie(ck)
	}
	if pr.Out.Header.Get(wakapi.RequestIDHeader) == "" {
		pr.Out.Header.Set(wakapi.RequestIDHeader, uuid.NewString())
	}
}

// modifyResponse re-scopes remote cookies to this host and turns redirects
// that point back at the remote service into local paths.
func (h *Handler) modifyResponse(resp *http.Response) error {
	cookies := resp.Cookies()
	if len(cookies) > 0 {
		resp.Header.Del("Set-Cookie")
		for _, ck := range cookies {
			if v := wakapi.Rescope(ck, h.secure).String(); v != "" {
				resp.Header.Add("Set-Cookie", v)
			}
		}
	}

	if loc := resp.Header.Get("Location"); loc != "" {
		if u, err := url.Parse(loc); err == nil && u.Host == h.base.Host {
			local := u.Path
			if u.RawQuery != "" {
				local += "?" + u.RawQuery
			}
			resp.Header.Set("Location", local)
		}
	}
	return nil
}

func (h *Handler) errorHandler(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	h.logger.Warn("proxy request failed",
		zap.Error(err),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method))
	jsonutil.BadGateway(w, "Cannot connect to the time-tracking service.")
}
