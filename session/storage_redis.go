package session

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const redisOpTimeout = 3 * time.Second

// RedisStorage keeps the session keys in a Redis hash under the
// auth-storage key. Useful when the gateway runs somewhere its local disk
// does not survive restarts.
type RedisStorage struct {
	client *redis.Client
	key    string
}

// NewRedisStorage verifies connectivity and returns a Redis-backed Storage.
func NewRedisStorage(ctx context.Context, addr string) (*RedisStorage, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "[NewRedisStorage] ping "+addr)
	}
	return &RedisStorage{client: client, key: StorageName}, nil
}

// Get implements Storage.
func (rs *RedisStorage) Get(key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	v, err := rs.client.HGet(ctx, rs.key, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "[RedisStorage.Get] HGET "+key)
	}
	return v, true, nil
}

// Set implements Storage.
func (rs *RedisStorage) Set(key string, value []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := rs.client.HSet(ctx, rs.key, key, value).Err(); err != nil {
		return errors.Wrap(err, "[RedisStorage.Set] HSET "+key)
	}
	return nil
}

// Delete implements Storage.
func (rs *RedisStorage) Delete(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := rs.client.HDel(ctx, rs.key, keys...).Err(); err != nil {
		return errors.Wrap(err, "[RedisStorage.Delete] HDEL")
	}
	return nil
}

// Close releases the underlying Redis connection.
func (rs *RedisStorage) Close() error {
	return rs.client.Close()
}
