// Package cache provides the optional read-through Redis client used by
// the catalog service (spec §5: catalog tables are read-mostly and sit
// on the hot path of every ledger operation). When REDIS_ADDR is unset
// no client is constructed and dependents fall back to the database.
package cache

import (
	"github.com/railzway/billing/internal/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var Module = fx.Module("cache", fx.Provide(New))

// New returns nil, nil when no Redis address is configured so optional
// fx dependents simply receive a nil *redis.Client.
func New(cfg config.Config) (*redis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}
	return redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}), nil
}
