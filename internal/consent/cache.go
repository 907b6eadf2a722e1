package consent

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"nestsync/pkg/domain"
	"nestsync/pkg/platform/sentinel"

	dErrors "nestsync/pkg/domain-errors"
)

// Cache is the durable, versioned, TTL-bounded store of prior consent
// decisions. Absence of a valid entry always means "ask the user again",
// never "assume granted".
type Cache struct {
	mu      sync.RWMutex
	records map[domain.ConsentType]ConsentRecord

	persist Persistence
	ttl     time.Duration
	version string
	logger  *slog.Logger
	now     func() time.Time
}

// NewCache builds an empty cache over the given persistence backend. Call
// Load before first use to pick up prior sessions' decisions.
func NewCache(persist Persistence, ttl time.Duration, version string, logger *slog.Logger) *Cache {
	return &Cache{
		records: make(map[domain.ConsentType]ConsentRecord),
		persist: persist,
		ttl:     ttl,
		version: version,
		logger:  logger,
		now:     time.Now,
	}
}

// Load reads the persisted snapshot, dropping entries that fail the validity
// check eagerly rather than lazily. Corrupt persisted data is treated as an
// empty cache: the failure is logged, never surfaced to callers.
func (c *Cache) Load(ctx context.Context) error {
	loaded, err := c.persist.LoadAll(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrCorrupt) {
			c.logger.WarnContext(ctx, "consent cache corrupt, starting empty", "error", err)
			loaded = nil
		} else {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "load consent cache")
		}
	}

	now := c.now()
	records := make(map[domain.ConsentType]ConsentRecord, len(loaded))
	for t, r := range loaded {
		if err := r.Validate(now, c.ttl, c.version); err != nil {
			c.logger.DebugContext(ctx, "dropping cached consent record",
				"consent_type", t.String(),
				"reason", err,
			)
			continue
		}
		records[t] = r
	}

	c.mu.Lock()
	c.records = records
	c.mu.Unlock()
	return nil
}

// Get returns the cached record for a type. The second return is false when
// no entry exists, the entry has expired, or it was granted under a
// superseded schema version.
func (c *Cache) Get(t domain.ConsentType) (ConsentRecord, bool) {
	c.mu.RLock()
	record, ok := c.records[t]
	c.mu.RUnlock()
	if !ok || !record.Valid(c.now(), c.ttl, c.version) {
		return ConsentRecord{}, false
	}
	return record, true
}

// Put overwrites the entry for a type and persists the full snapshot before
// returning. On persistence failure the in-memory state is left unchanged.
func (c *Cache) Put(ctx context.Context, t domain.ConsentType, granted bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := make(map[domain.ConsentType]ConsentRecord, len(c.records)+1)
	for k, v := range c.records {
		next[k] = v
	}
	next[t] = ConsentRecord{
		Type:      t,
		Granted:   granted,
		Timestamp: c.now(),
		Version:   c.version,
	}

	if err := c.persist.SaveAll(ctx, next); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "persist consent cache")
	}
	c.records = next
	return nil
}
