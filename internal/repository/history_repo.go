package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/nexoraai/nexora_server/internal/model"
)

const historyKeyPrefix = "history:"

// HistoryRepository keeps each user's generation history as one JSON list in Redis.
type HistoryRepository struct {
	rdb   *redis.Client
	limit int
}

func NewHistoryRepository(rdb *redis.Client, limit int) *HistoryRepository {
	if limit <= 0 {
		limit = model.DefaultHistoryLimit
	}
	return &HistoryRepository{rdb: rdb, limit: limit}
}

func historyKey(userID string) string {
	return historyKeyPrefix + userID
}

func (r *HistoryRepository) List(ctx context.Context, userID string) ([]model.GenerationRecord, error) {
	return r.read(ctx, r.rdb, historyKey(userID))
}

// Append puts record first and trims the list. Concurrent appends retry on
// a WATCH conflict.
func (r *HistoryRepository) Append(ctx context.Context, userID string, record model.GenerationRecord) ([]model.GenerationRecord, error) {
	key := historyKey(userID)

	var result []model.GenerationRecord
	txf := func(tx *redis.Tx) error {
		current, err := r.read(ctx, tx, key)
		if err != nil {
			return err
		}

		next := model.TrimHistory(append([]model.GenerationRecord{record}, current...), r.limit)
		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("failed to marshal history: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		if err == nil {
			result = next
		}
		return err
	}

	for attempt := 0; attempt < 5; attempt++ {
		err := r.rdb.Watch(ctx, txf, key)
		if err == redis.TxFailedErr {
			continue
		}
		return result, err
	}
	return nil, fmt.Errorf("history append for %s: too many concurrent writers", userID)
}

func (r *HistoryRepository) Clear(ctx context.Context, userID string) error {
	return r.rdb.Del(ctx, historyKey(userID)).Err()
}

func (r *HistoryRepository) read(ctx context.Context, c redis.Cmdable, key string) ([]model.GenerationRecord, error) {
	data, err := c.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return []model.GenerationRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	var records []model.GenerationRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return records, nil
}
