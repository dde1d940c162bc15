package callsync

import (
	"time"

	"callsync/internal/audit"
	"callsync/internal/calls"
	"callsync/internal/config"
	"callsync/internal/reporting"
	"callsync/internal/source"

	"github.com/redis/go-redis/v9"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (Locker, error) {
		cfg := do.MustInvoke[*config.Config](i)
		rdb := do.MustInvoke[*redis.Client](i)
		return NewRedisLocker(rdb, DefaultLockKey, cfg.Sync.LockTTL), nil
	})
	do.Provide(injector, func(i do.Injector) (*Engine, error) {
		cfg := do.MustInvoke[*config.Config](i)
		// The source applies its own request timeout; the extra margin also
		// bounds time spent behind a half-open breaker.
		return NewEngine(do.MustInvoke[calls.Store](i), Options{
			Source:       do.MustInvoke[source.Source](i),
			Locker:       do.MustInvoke[Locker](i),
			Auditor:      do.MustInvoke[*audit.Service](i),
			Invalidator:  do.MustInvoke[*reporting.Service](i),
			FetchTimeout: cfg.Vapi.Timeout + 5*time.Second,
			LockTTL:      cfg.Sync.LockTTL,
		}), nil
	})
}
