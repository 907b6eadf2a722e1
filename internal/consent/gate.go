package consent

import (
	"context"
	"log/slog"

	"nestsync/internal/consent/metrics"
	"nestsync/internal/platform/config"
	platformredis "nestsync/internal/platform/redis"
	"nestsync/pkg/domain"

	dErrors "nestsync/pkg/domain-errors"
)

// GateConfig selects the snapshot backend for one subject's gate. Redis wins
// when configured so decisions follow the subject across devices, then the
// local snapshot file, then process memory.
type GateConfig struct {
	SubjectID    string
	SnapshotPath string
	Redis        config.RedisConfig
}

// Gate is the assembled client-side consent machinery for one session: the
// loaded cache and the broker wired over it.
type Gate struct {
	Cache  *Cache
	Broker *Broker

	redis *platformredis.Client
}

// NewGate wires cache, broker, and snapshot backend from configuration, using
// the standard cache TTL and remote-record timeout. Call Close when the
// session ends.
func NewGate(ctx context.Context, cfg GateConfig, recorder Recorder, prompter Prompter, logger *slog.Logger, m *metrics.Metrics) (*Gate, error) {
	gate := &Gate{}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "connect consent snapshot backend")
	}

	var persist Persistence
	switch {
	case redisClient != nil:
		gate.redis = redisClient
		persist = NewRedisStore(redisClient.Client, cfg.SubjectID)
	case cfg.SnapshotPath != "":
		persist = NewFileStore(cfg.SnapshotPath)
	default:
		persist = NewMemoryStore()
	}

	cache := NewCache(persist, config.ConsentCacheTTL, domain.CatalogVersion, logger)
	if err := cache.Load(ctx); err != nil {
		_ = gate.Close()
		return nil, err
	}

	gate.Cache = cache
	gate.Broker = NewBroker(cache, recorder, prompter, config.RecordTimeout, logger, m)
	return gate, nil
}

// Close releases the snapshot backend connection, if any.
func (g *Gate) Close() error {
	if g.redis != nil {
		return g.redis.Close()
	}
	return nil
}
