package repository

import (
	"context"
	"encoding/json"
	"time"

	"tillpos/internal/cart"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const suspendedKeyPrefix = "suspended:"

// SuspendedOrder is a parked cart plus the context of who parked it and why.
// It lives only between suspend and resume/cancel.
type SuspendedOrder struct {
	ID          uuid.UUID     `json:"id"`
	Terminal    int           `json:"terminal"`
	Snapshot    cart.Snapshot `json:"snapshot"`
	Reason      string        `json:"reason"`
	SuspendedBy uuid.UUID     `json:"suspended_by"`
	SuspendedAt time.Time     `json:"suspended_at"`
}

// SuspendedOrderRepository stores parked carts. TakeByID must be atomic:
// the record is removed in the same operation that reads it, so a record can
// be resumed at most once.
type SuspendedOrderRepository interface {
	Save(ctx context.Context, so *SuspendedOrder) error
	TakeByID(ctx context.Context, id uuid.UUID) (*SuspendedOrder, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	ListAll(ctx context.Context) ([]SuspendedOrder, error)
}

// suspendedRedisRepo keeps each record as a JSON value under its own key.
// GETDEL gives the take-exactly-once semantics without any locking.
type suspendedRedisRepo struct {
	rdb *redis.Client
	ttl time.Duration // 0 = no expiry
}

func NewSuspendedOrderRepository(rdb *redis.Client, ttl time.Duration) SuspendedOrderRepository {
	return &suspendedRedisRepo{rdb: rdb, ttl: ttl}
}

func (r *suspendedRedisRepo) key(id uuid.UUID) string { return suspendedKeyPrefix + id.String() }

func (r *suspendedRedisRepo) Save(ctx context.Context, so *SuspendedOrder) error {
	data, err := json.Marshal(so)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, r.key(so.ID), data, r.ttl).Err()
}

func (r *suspendedRedisRepo) TakeByID(ctx context.Context, id uuid.UUID) (*SuspendedOrder, error) {
	data, err := r.rdb.GetDel(ctx, r.key(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var so SuspendedOrder
	if err := json.Unmarshal(data, &so); err != nil {
		return nil, err
	}
	return &so, nil
}

func (r *suspendedRedisRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	n, err := r.rdb.Del(ctx, r.key(id)).Result()
	return n > 0, err
}

func (r *suspendedRedisRepo) ListAll(ctx context.Context) ([]SuspendedOrder, error) {
	var result []SuspendedOrder
	iter := r.rdb.Scan(ctx, 0, suspendedKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := r.rdb.Get(ctx, iter.Val()).Bytes()
		if err == redis.Nil {
			continue // expired or resumed between SCAN and GET
		}
		if err != nil {
			return nil, err
		}
		var so SuspendedOrder
		if err := json.Unmarshal(data, &so); err != nil {
			continue
		}
		result = append(result, so)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
