package reporting

import (
	"callsync/internal/calls"
	"callsync/internal/config"

	"github.com/redis/go-redis/v9"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (StatsCache, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if cfg.Booking.StatsCacheTTL <= 0 {
			return NopStatsCache{}, nil
		}
		rdb := do.MustInvoke[*redis.Client](i)
		return NewRedisStatsCache(rdb, cfg.Booking.StatsCacheTTL), nil
	})
	do.Provide(injector, func(i do.Injector) (*Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		store := do.MustInvoke[calls.Store](i)
		cache := do.MustInvoke[StatsCache](i)
		return NewService(store, cache, BookingRules{
			Keywords:          cfg.Booking.Keywords,
			AverageOrderValue: cfg.Booking.AverageOrderValue,
		}), nil
	})
}
