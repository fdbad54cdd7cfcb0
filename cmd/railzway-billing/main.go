package main

import (
	"context"
	"time"

	"github.com/railzway/billing/internal/cache"
	"github.com/railzway/billing/internal/catalog"
	catalogdomain "github.com/railzway/billing/internal/catalog/domain"
	"github.com/railzway/billing/internal/clock"
	"github.com/railzway/billing/internal/config"
	"github.com/railzway/billing/internal/customer"
	"github.com/railzway/billing/internal/events"
	"github.com/railzway/billing/internal/identity"
	identitydomain "github.com/railzway/billing/internal/identity/domain"
	"github.com/railzway/billing/internal/ledger"
	ledgerdomain "github.com/railzway/billing/internal/ledger/domain"
	"github.com/railzway/billing/internal/migration"
	"github.com/railzway/billing/internal/observability/logger"
	"github.com/railzway/billing/internal/observability/metrics"
	"github.com/railzway/billing/internal/observability/tracing"
	"github.com/railzway/billing/internal/order"
	orderdomain "github.com/railzway/billing/internal/order/domain"
	"github.com/railzway/billing/internal/referral"
	referraldomain "github.com/railzway/billing/internal/referral/domain"
	"github.com/railzway/billing/internal/server"
	"github.com/railzway/billing/pkg/db"
	"github.com/railzway/billing/pkg/idgen"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var version = "dev"

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		metrics.Module,
		tracing.Module,
		idgen.Module,
		clock.Module,
		cache.Module,
		events.Module,
		db.Module,
		fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
			if cfg.DBType == "postgres" {
				sqlDB, err := conn.DB()
				if err != nil {
					return err
				}
				return migration.RunMigrations(sqlDB)
			}
			return conn.AutoMigrate(
				&identitydomain.User{},
				&identitydomain.ExternalIdentity{},
				&catalogdomain.Product{},
				&catalogdomain.Offer{},
				&catalogdomain.OfferItem{},
				&ledgerdomain.QuotaBatch{},
				&ledgerdomain.Transaction{},
				&orderdomain.Order{},
				&orderdomain.OrderItem{},
				&referraldomain.Referral{},
				&referraldomain.TrialHistory{},
			)
		}),
		identity.Module,
		catalog.Module,
		ledger.Module,
		order.Module,
		referral.Module,
		customer.Module,
		server.Module,
		fx.Invoke(runExpirySweeper),
	)
	app.Run()
}

// runExpirySweeper ticks EXPIRY_SWEEP_INTERVAL_SECONDS and sweeps expired
// quota batches in the background, the long-running counterpart of the
// teacher's own scheduler.RunForever invocation hook.
func runExpirySweeper(lc fx.Lifecycle, log *zap.Logger, cfg config.Config, svc ledgerdomain.Service) {
	interval := time.Duration(cfg.ExpirySweepInterval) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())
			go sweepForever(ctx, log, svc, interval)

			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})
			return nil
		},
	})
}

func sweepForever(ctx context.Context, log *zap.Logger, svc ledgerdomain.Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.Expire(ctx)
			if err != nil {
				log.Warn("expiry sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("expiry sweep", zap.Int64("batches_expired", n))
			}
		}
	}
}
