// Package state persists the live loop's checkpoint — open quotes,
// inventory, and the replay clock — to Redis, so a restarted process
// can resume from its last reconciled step instead of re-quoting cold.
package state

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nikolaydubina/fpdecimal"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/orderflow/matchingo/pkg/strategy"
)

// Store checkpoints one live session's state under keyPrefix.
type Store struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string
}

// New constructs a Store over an existing Redis client.
func New(client *redis.Client, keyPrefix string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{client: client, logger: logger, keyPrefix: keyPrefix}
}

func (s *Store) quotesKey() string    { return fmt.Sprintf("%s:quotes", s.keyPrefix) }
func (s *Store) inventoryKey() string { return fmt.Sprintf("%s:inventory", s.keyPrefix) }
func (s *Store) clockKey() string     { return fmt.Sprintf("%s:clock", s.keyPrefix) }

// Checkpoint is one atomically-saved snapshot of live-loop state.
type Checkpoint struct {
	Quotes    []strategy.OpenQuote
	Inventory fpdecimal.Decimal
	ClockNanos int64
}

// Save writes cp's three fields in a single MULTI/EXEC transaction: no
// Redis command runs between the three writes, so no single read sees
// old quotes alongside a new clock.
func (s *Store) Save(ctx context.Context, cp Checkpoint) error {
	quotesJSON, err := json.Marshal(cp.Quotes)
	if err != nil {
		return fmt.Errorf("state: marshal quotes: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.quotesKey(), quotesJSON, 0)
	pipe.Set(ctx, s.inventoryKey(), cp.Inventory.String(), 0)
	pipe.Set(ctx, s.clockKey(), cp.ClockNanos, 0)

	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Error("checkpoint save failed", zap.String("prefix", s.keyPrefix), zap.Error(err))
		return fmt.Errorf("state: save checkpoint: %w", err)
	}
	return nil
}

// Load reads back the last saved checkpoint. found is false if no
// checkpoint has ever been saved under keyPrefix.
func (s *Store) Load(ctx context.Context) (cp Checkpoint, found bool, err error) {
	quotesJSON, err := s.client.Get(ctx, s.quotesKey()).Bytes()
	if err == redis.Nil {
		return Checkpoint{}, false, nil
	}
	if err != nil {
		return Checkpoint{}, false, fmt.Errorf("state: load quotes: %w", err)
	}
	if err := json.Unmarshal(quotesJSON, &cp.Quotes); err != nil {
		return Checkpoint{}, false, fmt.Errorf("state: unmarshal quotes: %w", err)
	}

	invStr, err := s.client.Get(ctx, s.inventoryKey()).Result()
	if err != nil && err != redis.Nil {
		return Checkpoint{}, false, fmt.Errorf("state: load inventory: %w", err)
	}
	if invStr != "" {
		inv, err := fpdecimal.FromString(invStr)
		if err != nil {
			return Checkpoint{}, false, fmt.Errorf("state: parse inventory: %w", err)
		}
		cp.Inventory = inv
	}

	clock, err := s.client.Get(ctx, s.clockKey()).Int64()
	if err != nil && err != redis.Nil {
		return Checkpoint{}, false, fmt.Errorf("state: load clock: %w", err)
	}
	cp.ClockNanos = clock

	return cp, true, nil
}

// Clear removes the checkpoint under keyPrefix, e.g. at the start of a
// fresh session that should not resume from prior state.
func (s *Store) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.quotesKey(), s.inventoryKey(), s.clockKey()).Err()
}

// Close closes the underlying Redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
