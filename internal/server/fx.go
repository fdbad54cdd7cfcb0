package server

import (
	"github.com/railzway/billing/internal/config"
	"go.uber.org/fx"
)

// Module wires the HTTP surface: gin.Engine construction, route
// registration, and the lifecycle-hooked http.Server.
var Module = fx.Module("server",
	fx.Provide(func(cfg config.Config) Config {
		addr := cfg.HTTPAddr
		if addr == "" {
			addr = ":8080"
		}
		return Config{
			Addr:     addr,
			APIToken: cfg.APIToken,
			ShowDocs: cfg.ShowDocs,
			APITitle: cfg.APITitle,
		}
	}),
	fx.Provide(NewServer),
	fx.Invoke(run),
)
