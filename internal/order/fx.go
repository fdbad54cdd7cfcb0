package order

import (
	"github.com/railzway/billing/internal/order/repository"
	"github.com/railzway/billing/internal/order/service"
	"go.uber.org/fx"
)

var Module = fx.Module("order.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
