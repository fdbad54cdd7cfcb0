package db

import (
	"time"

	"github.com/railzway/billing/internal/config"
	"github.com/railzway/billing/internal/observability/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormprometheus "gorm.io/plugin/prometheus"
)

// Module opens the configured database connection and registers it for
// the rest of the fx graph.
var Module = fx.Module("db", fx.Provide(Open))

// Open dials the configured backend, tunes the underlying connection pool,
// and, for postgres and mysql only, attaches the GORM Prometheus plugin so
// pool/query metrics surface next to the rest of the service's
// observability stack.
func Open(cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	dialector, err := Dialect(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.NewGormLogger(logger.DefaultGormLoggerConfig()),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConn)
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConn)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetime) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.DBConnMaxIdleTime) * time.Second)

	if cfg.DBType == "postgres" || cfg.DBType == "mysql" {
		if err := conn.Use(gormprometheus.New(gormprometheus.Config{
			DBName: cfg.DBName,
		})); err != nil {
			log.Warn("gorm prometheus plugin not registered", zap.Error(err))
		}
	}

	return conn, nil
}
