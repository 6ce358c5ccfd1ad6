package docstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisStore keeps each document in a hash with "data" and "version" fields.
// Conditional writes use WATCH/MULTI optimistic transactions.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

func NewRedisStore(addr, password, keyPrefix string) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:       addr,
		Password:   password,
		MaxRetries: 3,
	})
	if keyPrefix == "" {
		keyPrefix = "campsite"
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix}
}

func (s *RedisStore) key(collection, id string) string {
	return s.keyPrefix + ":" + collection + ":" + id
}

func (s *RedisStore) Get(ctx context.Context, collection, id string) ([]byte, int64, error) {
	vals, err := s.client.HGetAll(ctx, s.key(collection, id)).Result()
	if err != nil {
		return nil, 0, redisErr("get", collection, id, err)
	}
	if len(vals) == 0 {
		return nil, 0, fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	var version int64
	fmt.Sscan(vals["version"], &version)
	return []byte(vals["data"]), version, nil
}

func (s *RedisStore) Set(ctx context.Context, collection, id string, data []byte) error {
	key := s.key(collection, id)
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		version, err := tx.HGet(ctx, key, "version").Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, "data", string(data), "version", version+1)
			return nil
		})
		return err
	}, key)
	if err != nil {
		return redisErr("set", collection, id, err)
	}
	return nil
}

func (s *RedisStore) SetIf(ctx context.Context, collection, id string, data []byte, expectedVersion int64) error {
	key := s.key(collection, id)
	conflict := false
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		version, err := tx.HGet(ctx, key, "version").Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if version != expectedVersion {
			conflict = true
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, "data", string(data), "version", version+1)
			return nil
		})
		return err
	}, key)
	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return fmt.Errorf("%w: %s/%s written concurrently", ErrConflict, collection, id)
		}
		return redisErr("setif", collection, id, err)
	}
	if conflict {
		return fmt.Errorf("%w: %s/%s expected version %d", ErrConflict, collection, id, expectedVersion)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, collection, id string) error {
	n, err := s.client.Del(ctx, s.key(collection, id)).Result()
	if err != nil {
		return redisErr("delete", collection, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	return nil
}

func (s *RedisStore) ListIDs(ctx context.Context, collection string) ([]string, error) {
	prefix := s.key(collection, "")
	var ids []string
	iter := s.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, redisErr("list", collection, "", err)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *RedisStore) Reconnect(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: ping: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func redisErr(op, collection, id string, err error) error {
	log.Error().Err(err).Str("op", op).Str("collection", collection).Str("doc_id", id).
		Msg("redis document store operation failed")
	return fmt.Errorf("%w: %s %s/%s: %v", ErrUnavailable, op, collection, id, err)
}
