package analytics

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const DefaultQueueName = "kanakerpark:funnel_events"

// RedisQueue pushes screen events as JSON onto a Redis list for downstream CRM workers.
type RedisQueue struct {
	client *redis.Client
	queue  string
}

var _ Publisher = (*RedisQueue)(nil)

// NewRedisQueue connects to addr and pings it once.
func NewRedisQueue(ctx context.Context, addr, queue string) (*RedisQueue, error) {
	if addr == "" {
		return nil, fmt.Errorf("analytics: redis address is empty")
	}
	if queue == "" {
		queue = DefaultQueueName
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s failed: %w", addr, err)
	}
	return &RedisQueue{client: client, queue: queue}, nil
}

func (q *RedisQueue) Publish(ctx context.Context, event ScreenEvent) error {
	data, err := encodeEvent(event)
	if err != nil {
		return err
	}
	if err := q.client.RPush(ctx, q.queue, data).Err(); err != nil {
		return fmt.Errorf("redis enqueue to %s failed: %w", q.queue, err)
	}
	return nil
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}

func encodeEvent(event ScreenEvent) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("failed to marshal screen event: %w", err)
	}
	return string(data), nil
}
