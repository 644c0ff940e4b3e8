package notify

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/shadwattai/miniwallet/internal/core/domain"
)

// RedisNotifier publishes events on the Redis pub/sub channel user.<key>.
type RedisNotifier struct {
	client redis.UniversalClient
}

func NewRedisNotifier(client redis.UniversalClient) *RedisNotifier {
	return &RedisNotifier{client: client}
}

func (n *RedisNotifier) Notify(ctx context.Context, event domain.MoneyEvent) error {
	payload, err := Payload(event)
	if err != nil {
		return err
	}
	if err := n.client.Publish(ctx, event.Channel(), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish %s to %s: %w", event.Name, event.Channel(), err)
	}
	return nil
}
