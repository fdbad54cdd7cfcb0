package logger

import (
	"github.com/railzway/billing/internal/config"
	"go.uber.org/fx"
)

// Module provides the process-wide *zap.Logger, deriving Config from the
// application's own Config so callers never construct logger.Config by hand.
var Module = fx.Module("logger",
	fx.Provide(func(cfg config.Config) Config {
		return Config{
			ServiceName:   cfg.AppName,
			Environment:   cfg.Environment,
			Level:         cfg.LogLevel,
			Format:        cfg.LogFormat,
			IncludeCaller: true,
		}
	}),
	fx.Provide(New),
)
