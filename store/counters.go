// Package store persists counter-memory snapshots in redis so that a
// new session starts from what earlier sessions learned
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const DefaultCounterKey = "royale:counters"

// CounterStore keeps one hash per table: enemy type -> JSON array of
// per-card scores
type CounterStore struct {
	client *redis.Client
	key    string
}

func NewCounterStore(addr, key string) *CounterStore {
	if key == "" {
		key = DefaultCounterKey
	}
	return &CounterStore{
		client: redis.NewClient(&redis.Options{
			Addr: addr,
		}),
		key: key,
	}
}

func (s *CounterStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Save replaces the stored table with the snapshot
func (s *CounterStore) Save(ctx context.Context, snapshot map[string][]float64) error {
	fields, err := encodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, s.key)
		if len(fields) > 0 {
			p.HSet(ctx, s.key, fields)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save counters: %w", err)
	}
	return nil
}

// Load returns the stored table, empty when nothing was saved yet
func (s *CounterStore) Load(ctx context.Context) (map[string][]float64, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load counters: %w", err)
	}
	return decodeSnapshot(fields)
}

func (s *CounterStore) Close() error {
	return s.client.Close()
}

func encodeSnapshot(snapshot map[string][]float64) (map[string]interface{}, error) {
	fields := make(map[string]interface{}, len(snapshot))
	for unit, scores := range snapshot {
		bs, err := json.Marshal(scores)
		if err != nil {
			return nil, fmt.Errorf("failed to encode scores of %s: %w", unit, err)
		}
		fields[unit] = string(bs)
	}
	return fields, nil
}

func decodeSnapshot(fields map[string]string) (map[string][]float64, error) {
	snapshot := make(map[string][]float64, len(fields))
	for unit, raw := range fields {
		var scores []float64
		if err := json.Unmarshal([]byte(raw), &scores); err != nil {
			return nil, fmt.Errorf("bad scores for %s: %w", unit, err)
		}
		snapshot[unit] = scores
	}
	return snapshot, nil
}
