package catalog

import (
	"github.com/railzway/billing/internal/catalog/repository"
	"github.com/railzway/billing/internal/catalog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
