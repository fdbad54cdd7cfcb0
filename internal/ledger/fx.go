package ledger

import (
	"github.com/railzway/billing/internal/ledger/repository"
	"github.com/railzway/billing/internal/ledger/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ledger.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
