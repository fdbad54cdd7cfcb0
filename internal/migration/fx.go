package migration

import (
	"github.com/railzway/billing/internal/config"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Module applies schema migrations at startup. Postgres deployments run the
// embedded golang-migrate set; other backends rely on gorm.AutoMigrate
// (invoked alongside domain model registration in main).
var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			return nil
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}

		return RunMigrations(sqlDB)
	}),
)
