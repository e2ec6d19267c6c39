package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"camwatch/internal/domain"
)

// RedisCheckQueue реализует очередь задач на базе Redis lists.
type RedisCheckQueue struct {
	client *redis.Client
	key    string
}

// NewRedisCheckQueue создаёт очередь по указанному ключу.
func NewRedisCheckQueue(client *redis.Client, key string) *RedisCheckQueue {
	return &RedisCheckQueue{client: client, key: key}
}

// Enqueue публикует задачу в очередь.
func (q *RedisCheckQueue) Enqueue(ctx context.Context, job domain.CheckJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("push job: %w", err)
	}
	return nil
}

// Receive блокирующе читает задачу из очереди. При ack(false) задача
// возвращается в очередь.
func (q *RedisCheckQueue) Receive(ctx context.Context) (domain.CheckJob, domain.CheckAckFunc, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.CheckJob{}, nil, err
		}

		res, err := q.client.BRPop(ctx, time.Second, q.key).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if ctx.Err() != nil {
					return domain.CheckJob{}, nil, ctx.Err()
				}
				continue
			}
			if errors.Is(err, redis.Nil) {
				continue
			}
			return domain.CheckJob{}, nil, err
		}
		if len(res) != 2 {
			return domain.CheckJob{}, nil, errors.New("redis queue: unexpected response")
		}
		payload := res[1]
		var job domain.CheckJob
		if err := json.Unmarshal([]byte(payload), &job); err != nil {
			return domain.CheckJob{}, nil, fmt.Errorf("decode job: %w", err)
		}
		ack := func(success bool) error {
			if success {
				return nil
			}
			return q.client.LPush(context.Background(), q.key, payload).Err()
		}
		return job, ack, nil
	}
}
