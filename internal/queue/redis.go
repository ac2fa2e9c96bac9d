package queue

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisQueue is a WorkQueue backed by a redis list. Producers LPUSH ids,
// the worker RPOPs them, so items come out roughly FIFO.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue connects using a redis URL (redis://host:port/db).
func NewRedisQueue(redisURL, key string) (*RedisQueue, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisQueue{client: redis.NewClient(opt), key: key}, nil
}

func (q *RedisQueue) Enqueue(ctx context.Context, id string) error {
	return q.client.LPush(ctx, q.key, id).Err()
}

func (q *RedisQueue) Dequeue(ctx context.Context) (string, error) {
	val, err := q.client.RPop(ctx, q.key).Result()
	if err == redis.Nil {
		return "", ErrEmpty
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (q *RedisQueue) Length(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}
