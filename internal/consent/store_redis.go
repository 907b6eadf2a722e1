package consent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"nestsync/pkg/domain"
	"nestsync/pkg/platform/sentinel"
)

// RedisStore keeps the consent snapshot in a Redis hash keyed by subject, for
// deployments where a parent's decisions follow them across devices. One hash
// field per consent type, JSON-encoded record as the value.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, subjectID string) *RedisStore {
	return &RedisStore{
		client: client,
		key:    "consent:snapshot:" + subjectID,
	}
}

func (s *RedisStore) LoadAll(ctx context.Context) (map[domain.ConsentType]ConsentRecord, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("load consent hash: %w", err)
	}

	records := make(map[domain.ConsentType]ConsentRecord, len(fields))
	for field, raw := range fields {
		var record ConsentRecord
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			return nil, fmt.Errorf("decode consent field %q: %w", field, sentinel.ErrCorrupt)
		}
		records[domain.ConsentType(field)] = record
	}
	return records, nil
}

func (s *RedisStore) SaveAll(ctx context.Context, records map[domain.ConsentType]ConsentRecord) error {
	// DEL plus HSET in one transaction so readers never observe a partial
	// snapshot.
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key)
	if len(records) > 0 {
		fields := make(map[string]any, len(records))
		for t, record := range records {
			raw, err := json.Marshal(record)
			if err != nil {
				return fmt.Errorf("encode consent record: %w", err)
			}
			fields[t.String()] = raw
		}
		pipe.HSet(ctx, s.key, fields)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save consent hash: %w", err)
	}
	return nil
}
