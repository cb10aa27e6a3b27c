// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings: ports, TLS, logging, CORS, and timeouts.
type AppConfig struct {
	// Remote time-tracking service
	WakapiURL           string        // Base URL of the Wakapi server (no trailing slash)
	WakapiTimeout       time.Duration // Per-request timeout for Wakapi calls (default: 10s)
	WakapiSessionCookie string        // Wakapi's session cookie name (default: wakapi_auth)
	ProxyPrefix         string        // Path prefix for proxied Wakapi routes (default: /api/wakapi)

	// Flash message cookie. No authentication state is kept locally.
	SessionKey    string        // Secret key for signing the flash cookie
	SessionName   string        // Flash cookie name (default: trinetra-flash)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Flash cookie lifetime (default: 24h)

	// CSRF protection
	CSRFKey string // Secret key for CSRF tokens (32+ chars in production)

	// Audit storage. A blank MongoURI keeps audit events in the log only.
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64
	AuditLogAuth     string // "all", "db", "log", or "off"

	// BaseURL is the public URL of this server.
	BaseURL string
}

// AuditStorageEnabled reports whether audit events are written to MongoDB.
func (c AppConfig) AuditStorageEnabled() bool {
	return c.MongoURI != ""
}
