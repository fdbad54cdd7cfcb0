package identity

import (
	"github.com/railzway/billing/internal/identity/repository"
	"github.com/railzway/billing/internal/identity/service"
	"go.uber.org/fx"
)

var Module = fx.Module("identity.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
