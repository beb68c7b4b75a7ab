package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"maintenance-copilot/internal/common/logger"
	"maintenance-copilot/internal/common/metrics"
	"maintenance-copilot/internal/models"
)

const machineCacheName = "machine"

// CachedMachineDirectory memoizes exact identifier lookups in redis. Searches are not cached.
type CachedMachineDirectory struct {
	next   MachineDirectory
	redis  redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedMachineDirectory(next MachineDirectory, rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *CachedMachineDirectory {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedMachineDirectory{
		next:   next,
		redis:  rdb,
		ttl:    ttl,
		logger: log.With(map[string]interface{}{"cache": machineCacheName}),
	}
}

func machineCacheKey(id string) string {
	return "copilot:machine:" + id
}

func (c *CachedMachineDirectory) GetByIdentifier(ctx context.Context, id string) (*models.Machine, error) {
	key := machineCacheKey(id)

	if cached, err := c.redis.Get(ctx, key).Result(); err == nil {
		var m models.Machine
		if jsonErr := json.Unmarshal([]byte(cached), &m); jsonErr == nil {
			metrics.CacheLookups.WithLabelValues(machineCacheName, "hit").Inc()
			return &m, nil
		}
	} else if err != redis.Nil {
		c.logger.Warn("machine cache read failed", map[string]interface{}{"error": err.Error()})
	}
	metrics.CacheLookups.WithLabelValues(machineCacheName, "miss").Inc()

	m, err := c.next.GetByIdentifier(ctx, id)
	if err != nil || m == nil {
		return m, err
	}

	if data, err := json.Marshal(m); err == nil {
		if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("machine cache write failed", map[string]interface{}{"error": err.Error()})
		}
	}
	return m, nil
}

func (c *CachedMachineDirectory) Search(ctx context.Context, filter models.MachineFilter) ([]models.Machine, error) {
	return c.next.Search(ctx, filter)
}
