// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/trinetra/internal/app/resources"
	"github.com/dalemusser/trinetra/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs once after DB connections and schema/index setup are complete,
// but before the HTTP handler is built and requests are served.
//
// Returning a non-nil error aborts startup.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	resources.LoadSharedTemplates()

	timeouts.Configure(timeouts.Config{Remote: appCfg.WakapiTimeout})
	logger.Info("configured timeouts",
		zap.Duration("ping", timeouts.Ping()),
		zap.Duration("short", timeouts.Short()),
		zap.Duration("remote", timeouts.Remote()),
		zap.String("wakapi_url", appCfg.WakapiURL),
		zap.Bool("audit_storage", deps.MongoDatabase != nil),
	)

	return nil
}
