// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections
// and schema setup are complete, but before the HTTP handler is built.
//
// CircleHub has no caches or templates to warm; this just records the
// effective runtime configuration so deployments are easy to diagnose.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	logger.Info("circlehub starting",
		zap.String("env", coreCfg.Env),
		zap.String("storage", appCfg.StorageType),
		zap.Bool("remove_on_empty_drop", appCfg.RemoveOnEmptyDrop))
	return nil
}
