package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	goredis "github.com/redis/go-redis/v9"
)

// RedisStore keeps State as JSON so attempts survive a restart.
type RedisStore struct {
	client goredis.UniversalClient
	prefix string
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client goredis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) key(chatID int64) string {
	return r.prefix + strconv.FormatInt(chatID, 10)
}

func (r *RedisStore) Get(ctx context.Context, chatID int64) (State, error) {
	raw, err := r.client.Get(ctx, r.key(chatID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return Idle(), nil
	}
	if err != nil {
		return State{}, fmt.Errorf("redis get state %d: %w", chatID, err)
	}

	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return State{}, fmt.Errorf("decode state %d: %w", chatID, err)
	}
	return st, nil
}

func (r *RedisStore) Put(ctx context.Context, chatID int64, st State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state %d: %w", chatID, err)
	}
	// No expiry: an attempt in progress has no timeout.
	if err := r.client.Set(ctx, r.key(chatID), raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set state %d: %w", chatID, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, chatID int64) error {
	if err := r.client.Del(ctx, r.key(chatID)).Err(); err != nil {
		return fmt.Errorf("redis del state %d: %w", chatID, err)
	}
	return nil
}
