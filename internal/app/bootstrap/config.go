// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/trinetra/internal/app/features/proxy"
	"github.com/dalemusser/trinetra/internal/app/system/auditlog"
	"github.com/dalemusser/trinetra/internal/app/system/inputval"
	"github.com/dalemusser/trinetra/internal/app/system/wakapi"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// EnvVarPrefix is the prefix for environment variables.
const EnvVarPrefix = "TRINETRA"

// appConfigKeys defines the configuration keys for this application.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: wakapi_url, session_name, etc.
//   - Environment variables: TRINETRA_WAKAPI_URL, TRINETRA_SESSION_NAME, etc.
//   - Command-line flags: --wakapi_url, --session_name, etc.
var appConfigKeys = []config.AppKey{
	// Remote time-tracking service
	{Name: "wakapi_url", Default: "http://localhost:8080", Desc: "Base URL of the Wakapi server"},
	{Name: "wakapi_timeout", Default: "10s", Desc: "Timeout for each request to Wakapi (e.g., 10s, 30s)"},
	{Name: "wakapi_session_cookie", Default: wakapi.DefaultSessionCookie, Desc: "Name of Wakapi's session cookie"},
	{Name: "proxy_prefix", Default: proxy.DefaultPrefix, Desc: "Path prefix under which Wakapi routes are proxied"},

	// Flash messages
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Flash cookie signing key (must be strong in production)"},
	{Name: "session_name", Default: "trinetra-flash", Desc: "Flash cookie name"},
	{Name: "session_domain", Default: "", Desc: "Cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "24h", Desc: "Flash cookie max age (e.g., 24h, 30m)"},

	{Name: "csrf_key", Default: "dev-only-csrf-key-please-change-0123456789", Desc: "CSRF token signing key (32+ chars in production)"},

	// Audit storage (optional)
	{Name: "mongo_uri", Default: "", Desc: "MongoDB connection URI for audit events (blank disables storage)"},
	{Name: "mongo_database", Default: "trinetra", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 20, Desc: "MongoDB max connection pool size (default: 20)"},
	{Name: "mongo_min_pool_size", Default: 0, Desc: "MongoDB min connection pool size (default: 0)"},
	{Name: "audit_log_auth", Default: auditlog.ModeLog, Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	{Name: "base_url", Default: "http://localhost:3000", Desc: "Public URL of this server"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvVarPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		WakapiURL:           strings.TrimRight(appValues.String("wakapi_url"), "/"),
		WakapiTimeout:       appValues.Duration("wakapi_timeout", 10*time.Second),
		WakapiSessionCookie: appValues.String("wakapi_session_cookie"),
		ProxyPrefix:         strings.TrimRight(appValues.String("proxy_prefix"), "/"),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 24*time.Hour),

		CSRFKey: appValues.String("csrf_key"),

		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		AuditLogAuth:     appValues.String("audit_log_auth"),

		BaseURL: appValues.String("base_url"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if !inputval.IsValidHTTPURL(appCfg.WakapiURL) {
		logger.Error("invalid wakapi_url", zap.String("wakapi_url", appCfg.WakapiURL))
		return fmt.Errorf("invalid wakapi_url %q: must be an http or https URL", appCfg.WakapiURL)
	}
	if appCfg.ProxyPrefix == "" || !strings.HasPrefix(appCfg.ProxyPrefix, "/") {
		return fmt.Errorf("invalid proxy_prefix %q: must start with /", appCfg.ProxyPrefix)
	}
	switch appCfg.AuditLogAuth {
	case auditlog.ModeAll, auditlog.ModeDB, auditlog.ModeLog, auditlog.ModeOff:
	default:
		return fmt.Errorf("invalid audit_log_auth %q: want all, db, log, or off", appCfg.AuditLogAuth)
	}
	if appCfg.MongoURI != "" {
		if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
			logger.Error("invalid MongoDB URI", zap.Error(err))
			return fmt.Errorf("invalid MongoDB URI: %w", err)
		}
	} else if appCfg.AuditLogAuth == auditlog.ModeDB || appCfg.AuditLogAuth == auditlog.ModeAll {
		logger.Warn("audit_log_auth wants database storage but mongo_uri is blank; audit events go to the log only",
			zap.String("audit_log_auth", appCfg.AuditLogAuth))
	}
	return nil
}
