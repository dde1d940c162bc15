package reporting

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// StatsCache holds the last computed Stats between syncs.
//
// Every Invalidate bumps a generation. Get reports the generation current at
// read time and Set stores only while it is unchanged, so stats computed
// before an invalidation can never be written after it.
type StatsCache interface {
	// Get reports ok=false on a miss; gen is valid either way.
	Get(ctx context.Context) (s Stats, gen int64, ok bool, err error)
	Set(ctx context.Context, gen int64, s Stats) error
	Invalidate(ctx context.Context) error
}

const (
	statsCacheKey = "callsync:stats:v2"
	statsGenKey   = "callsync:stats:gen"
)

var statsSetScript = redis.NewScript(`
-- KEYS[1] = generation key
-- KEYS[2] = stats key
-- ARGV[1] = generation observed before computing
-- ARGV[2] = encoded stats
-- ARGV[3] = ttl_ms
local gen = redis.call('GET', KEYS[1]) or '0'
if gen ~= ARGV[1] then
  return 0
end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

var statsInvalidateScript = redis.NewScript(`
-- KEYS[1] = generation key
-- KEYS[2] = stats key
redis.call('INCR', KEYS[1])
redis.call('DEL', KEYS[2])
return 1
`)

// RedisStatsCache shares the cached stats across API replicas.
type RedisStatsCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStatsCache(rdb *redis.Client, ttl time.Duration) *RedisStatsCache {
	return &RedisStatsCache{rdb: rdb, ttl: ttl}
}

func (c *RedisStatsCache) Get(ctx context.Context) (Stats, int64, bool, error) {
	vals, err := c.rdb.MGet(ctx, statsGenKey, statsCacheKey).Result()
	if err != nil {
		return Stats{}, 0, false, err
	}

	var gen int64
	if v, ok := vals[0].(string); ok {
		if gen, err = strconv.ParseInt(v, 10, 64); err != nil {
			return Stats{}, 0, false, fmt.Errorf("stats generation: %w", err)
		}
	}
	raw, ok := vals[1].(string)
	if !ok {
		return Stats{}, gen, false, nil
	}
	var s Stats
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return Stats{}, gen, false, err
	}
	return s, gen, true, nil
}

func (c *RedisStatsCache) Set(ctx context.Context, gen int64, s Stats) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	keys := []string{statsGenKey, statsCacheKey}
	return statsSetScript.Run(ctx, c.rdb, keys, strconv.FormatInt(gen, 10), b, c.ttl.Milliseconds()).Err()
}

func (c *RedisStatsCache) Invalidate(ctx context.Context) error {
	return statsInvalidateScript.Run(ctx, c.rdb, []string{statsGenKey, statsCacheKey}).Err()
}

// NopStatsCache never hits. Used when caching is disabled (STATS_CACHE_TTL=0).
type NopStatsCache struct{}

func (NopStatsCache) Get(context.Context) (Stats, int64, bool, error) { return Stats{}, 0, false, nil }
func (NopStatsCache) Set(context.Context, int64, Stats) error         { return nil }
func (NopStatsCache) Invalidate(context.Context) error                { return nil }
