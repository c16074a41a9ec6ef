package assoc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/storelytic/storetwin-backend/internal/engine/config"
	"github.com/storelytic/storetwin-backend/internal/platform/logger"
)

// Cache is the rule-cache contract. Mined rules are cache-only, never
// authoritative: any cache failure degrades to recomputation.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

type CachedMiner struct {
	cache Cache
	cfg   config.AssociationConfig
	log   *logger.Logger
}

func NewCachedMiner(cache Cache, cfg config.AssociationConfig, log *logger.Logger) *CachedMiner {
	return &CachedMiner{cache: cache, cfg: cfg, log: log.With("service", "AssociationMiner")}
}

func (m *CachedMiner) Mine(ctx context.Context, storeID uuid.UUID, in Input) *Result {
	key := fmt.Sprintf("assoc:%s:%dd", storeID, m.cfg.WindowDays)

	if m.cache != nil {
		if raw, err := m.cache.Get(ctx, key); err == nil && len(raw) > 0 {
			var cached Result
			if err := json.Unmarshal(raw, &cached); err == nil {
				m.log.Debug("association rules served from cache", "store_id", storeID)
				return &cached
			}
		}
	}

	res := Mine(in, m.cfg, m.log)

	if m.cache != nil {
		if raw, err := json.Marshal(res); err == nil {
			ttl := time.Duration(m.cfg.CacheTTLMinutes) * time.Minute
			if err := m.cache.Set(ctx, key, raw, ttl); err != nil {
				m.log.Warn("association rule cache write failed", "error", err)
			}
		}
	}
	return res
}
