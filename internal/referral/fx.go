package referral

import (
	"github.com/railzway/billing/internal/referral/repository"
	"github.com/railzway/billing/internal/referral/service"
	"go.uber.org/fx"
)

var Module = fx.Module("referral.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
