package redis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/storelytic/storetwin-backend/internal/platform/logger"
)

// RuleCache is a thin byte cache over Redis used for mined association
// rules. The engine treats it as best-effort only.
type RuleCache struct {
	log *logger.Logger
	rdb *goredis.Client
}

func NewRuleCache(log *logger.Logger) (*RuleCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RuleCache{
		log: log.With("service", "RedisRuleCache"),
		rdb: rdb,
	}, nil
}

func (c *RuleCache) Get(ctx context.Context, key string) ([]byte, error) {
	if c == nil || c.rdb == nil {
		return nil, fmt.Errorf("rule cache not initialized")
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	return raw, err
}

func (c *RuleCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if c == nil || c.rdb == nil {
		return fmt.Errorf("rule cache not initialized")
	}
	return c.rdb.Set(ctx, key, val, ttl).Err()
}

func (c *RuleCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
