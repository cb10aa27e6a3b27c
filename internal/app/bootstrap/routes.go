// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"strings"
	"time"

	dashboardfeature "github.com/dalemusser/trinetra/internal/app/features/dashboard"
	devtestfeature "github.com/dalemusser/trinetra/internal/app/features/devtest"
	errorsfeature "github.com/dalemusser/trinetra/internal/app/features/errors"
	healthfeature "github.com/dalemusser/trinetra/internal/app/features/health"
	homefeature "github.com/dalemusser/trinetra/internal/app/features/home"
	loginfeature "github.com/dalemusser/trinetra/internal/app/features/login"
	logoutfeature "github.com/dalemusser/trinetra/internal/app/features/logout"
	proxyfeature "github.com/dalemusser/trinetra/internal/app/features/proxy"
	statsapifeature "github.com/dalemusser/trinetra/internal/app/features/statsapi"
	appresources "github.com/dalemusser/trinetra/internal/app/resources"
	"github.com/dalemusser/trinetra/internal/app/store/audit"
	"github.com/dalemusser/trinetra/internal/app/store/wakapiauth"
	"github.com/dalemusser/trinetra/internal/app/store/wakapistats"
	"github.com/dalemusser/trinetra/internal/app/system/auditlog"
	"github.com/dalemusser/trinetra/internal/app/system/flash"
	"github.com/dalemusser/trinetra/internal/app/system/navigate"
	"github.com/dalemusser/trinetra/internal/app/system/timeouts"
	"github.com/dalemusser/trinetra/internal/app/system/viewdata"
	"github.com/dalemusser/trinetra/internal/app/system/wakapi"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// csrfCookieName is the CSRF cookie. It is local to Trinetra and never
// forwarded to Wakapi.
const csrfCookieName = "trinetra_csrf"

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// Every page is rendered here from data fetched from Wakapi on the request
// that needs it. The browser's Wakapi cookies are forwarded on each call;
// Trinetra itself holds no authentication state.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	devTools := coreCfg.Env != "prod"

	flashStore, err := flash.New(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("flash store init failed", zap.Error(err))
		return nil, err
	}

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	viewdata.Init(flashStore, devTools)

	// One client for the whole process. A 401 from Wakapi sends the
	// current request to the login page. Startup applied wakapi_timeout
	// to timeouts.Remote.
	client, err := wakapi.New(wakapi.Config{
		BaseURL:       appCfg.WakapiURL,
		Timeout:       timeouts.Remote(),
		LocalCookies:  []string{csrfCookieName, flashStore.Name()},
		SessionCookie: appCfg.WakapiSessionCookie,
		UserAgent:     "trinetra",
	}, navigate.ToLogin, logger)
	if err != nil {
		logger.Error("wakapi client init failed", zap.Error(err))
		return nil, err
	}

	authStore := wakapiauth.New(client, logger)
	statsStore := wakapistats.New(client, logger)

	var auditStore *audit.Store
	if deps.MongoDatabase != nil {
		auditStore = audit.New(deps.MongoDatabase)
	}
	auditLogger := auditlog.New(auditStore, logger, auditlog.Config{Auth: appCfg.AuditLogAuth})

	errLog := errorsfeature.NewErrorLogger(logger)
	errorsHandler := errorsfeature.NewHandler()

	r := chi.NewRouter()

	// ─────────────────────────────────────────────────────────────────────────────
	// Global Middleware (applies to ALL routes)
	// ─────────────────────────────────────────────────────────────────────────────

	// Request timeout middleware: prevents requests from hanging indefinitely.
	r.Use(chimw.Timeout(30 * time.Second))

	// CORS middleware: must be early in the chain to handle preflight requests.
	r.Use(middleware.CORSFromConfig(coreCfg))

	// Security headers middleware: adds X-Frame-Options, X-Content-Type-Options, etc.
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	// Navigation state, so a 401 deep in a store call can redirect the request.
	r.Use(navigate.Middleware)

	// Collects the browser's Wakapi cookies for outbound calls.
	r.Use(client.ForwardCredentials)

	// CSRF protection for every form. The proxy prefix is exempt: it carries
	// Wakapi's own API calls, which are guarded by Wakapi's SameSite cookie.
	csrfOpts := []csrf.Option{
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.CookieName(csrfCookieName),
		csrf.FieldName("csrf_token"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			logger.Warn("CSRF validation failed",
				zap.String("path", req.URL.Path),
				zap.String("method", req.Method),
				zap.String("reason", csrf.FailureReason(req).Error()),
			)
			if req.Header.Get("HX-Request") == "true" {
				w.Header().Set("HX-Redirect", navigate.LoginPath)
				w.WriteHeader(http.StatusForbidden)
				return
			}
			http.Error(w, "CSRF token invalid or missing", http.StatusForbidden)
		})),
	}
	// In dev mode, trust localhost origins for CSRF validation.
	trustedOrigins := []string{
		"localhost:8080",
		"localhost:3000",
		"127.0.0.1:8080",
		"127.0.0.1:3000",
	}
	if !secure {
		csrfOpts = append(csrfOpts, csrf.TrustedOrigins(trustedOrigins))
	}
	if appCfg.SessionDomain != "" {
		csrfOpts = append(csrfOpts, csrf.Domain(appCfg.SessionDomain))
	}
	csrfProtect := csrf.Protect([]byte(appCfg.CSRFKey), csrfOpts...)

	proxyPrefix := appCfg.ProxyPrefix
	csrfMiddleware := func(next http.Handler) http.Handler {
		csrfHandler := csrfProtect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if req.URL.Path == proxyPrefix || strings.HasPrefix(req.URL.Path, proxyPrefix+"/") {
				next.ServeHTTP(w, req)
				return
			}
			csrfHandler.ServeHTTP(w, req)
		})
	}
	r.Use(csrfMiddleware)

	// ─────────────────────────────────────────────────────────────────────────────
	// Infrastructure
	// ─────────────────────────────────────────────────────────────────────────────

	healthHandler := healthfeature.NewHandler(client, deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	// Static files from disk and embedded assets.
	r.Handle("/static/*", fileserver.Handler("/static", "static"))
	r.Handle("/assets/*", appresources.AssetsHandler("/assets"))

	// ─────────────────────────────────────────────────────────────────────────────
	// Pages
	// ─────────────────────────────────────────────────────────────────────────────

	r.Mount("/", homefeature.Routes(homefeature.NewHandler(logger)))

	loginHandler := loginfeature.NewHandler(authStore, flashStore, auditLogger, errLog, client.SessionCookie(), secure, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))
	r.Get("/signup", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/login/signup", http.StatusMovedPermanently)
	})

	logoutHandler := logoutfeature.NewHandler(authStore, auditLogger, client.SessionCookie(), secure, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	dashboardHandler := dashboardfeature.NewHandler(authStore, statsStore, errLog, logger)
	r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler))

	// ─────────────────────────────────────────────────────────────────────────────
	// JSON endpoints and the Wakapi proxy
	// ─────────────────────────────────────────────────────────────────────────────

	statsapiHandler := statsapifeature.NewHandler(authStore, statsStore, errLog, logger)
	r.Mount("/api", statsapifeature.Routes(statsapiHandler))

	proxyHandler := proxyfeature.NewHandler(client.BaseURL(), secure, logger)
	r.Mount(proxyPrefix, proxyfeature.Routes(proxyHandler))

	// Developer test page; never mounted in production.
	if devTools {
		devtestHandler := devtestfeature.NewHandler(authStore, statsStore, auditStore, errLog, secure, logger)
		r.Mount("/test", devtestfeature.Routes(devtestHandler))
	}

	r.NotFound(errorsHandler.NotFound)

	logger.Info("routes built",
		zap.String("wakapi_url", appCfg.WakapiURL),
		zap.String("proxy_prefix", proxyPrefix),
		zap.Bool("dev_tools", devTools),
	)

	return r, nil
}
