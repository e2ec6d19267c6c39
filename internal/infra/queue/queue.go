package queue

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"camwatch/internal/domain"
)

// New создаёт очередь задач с указанным бэкендом ("redis" или "rabbitmq").
func New(backend, redisAddr, rabbitURL, name string) (domain.CheckQueue, error) {
	switch backend {
	case "redis":
		if redisAddr == "" {
			return nil, fmt.Errorf("queue: не указан адрес Redis")
		}
		client := redis.NewClient(&redis.Options{Addr: redisAddr})
		return NewRedisCheckQueue(client, name), nil
	case "rabbitmq":
		return NewRabbitCheckQueue(rabbitURL, name)
	default:
		return nil, fmt.Errorf("queue: неизвестный бэкенд %q", backend)
	}
}
