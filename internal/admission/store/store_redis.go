package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"guestpass/internal/admission/models"
)

const redemptionKeyPrefix = "adm:code:"

// maxCASRetries bounds optimistic-transaction retries under contention.
const maxCASRetries = 64

// RedisStore is a Redis-backed redemption store for deployments where
// multiple instances share scan state. The per-code critical section uses
// WATCH-based optimistic transactions: a concurrent write to the same key
// fails the EXEC and the operation retries against fresh state.
type RedisStore struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed redemption store.
func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Redeem(ctx context.Context, code string, capacity int, scannedBy string, at time.Time) (*models.RedemptionRecord, bool, error) {
	key := redemptionKeyPrefix + code

	var record models.RedemptionRecord
	var applied bool

	txn := func(tx *redis.Tx) error {
		current, err := s.load(ctx, tx, key)
		if err != nil {
			return err
		}
		if current == nil {
			current = &models.RedemptionRecord{
				CredentialCode: code,
				Capacity:       capacity,
				Status:         models.StatusNotRedeemed,
			}
		}

		if current.ScanCount >= current.Capacity {
			record = *current
			applied = false
			// Still persist lazily-initialized records so Get sees them.
			if current.ScanCount == 0 {
				return s.save(ctx, tx, key, *current)
			}
			return nil
		}

		current.ScanCount++
		current.LastScannedBy = scannedBy
		current.LastScannedAt = at
		if current.ScanCount >= current.Capacity {
			current.Status = models.StatusRedeemed
		}

		record = *current
		applied = true
		return s.save(ctx, tx, key, *current)
	}

	for i := 0; i < maxCASRetries; i++ {
		err := s.client.Watch(ctx, txn, key)
		if err == nil {
			return &record, applied, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, false, fmt.Errorf("redeem: %w", err)
	}
	return nil, false, fmt.Errorf("redeem: contention on %s exceeded %d retries", code, maxCASRetries)
}

func (s *RedisStore) Get(ctx context.Context, code string) (*models.RedemptionRecord, error) {
	raw, err := s.client.Get(ctx, redemptionKeyPrefix+code).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get redemption record: %w", err)
	}

	var record models.RedemptionRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decode redemption record: %w", err)
	}
	return &record, nil
}

func (s *RedisStore) load(ctx context.Context, tx *redis.Tx, key string) (*models.RedemptionRecord, error) {
	raw, err := tx.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var record models.RedemptionRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *RedisStore) save(ctx context.Context, tx *redis.Tx, key string, record models.RedemptionRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, raw, 0)
		return nil
	})
	return err
}
