package chat

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisConfig defines fields used to reach the Redis instance backing the
// change feed.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// NewRedisClient connects to Redis and verifies the connection with a ping
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return client, nil
}

// RedisNotifier implements Notifier over Redis pub/sub, so change
// announcements reach subscriptions held by any server instance.
type RedisNotifier struct {
	logger *zap.SugaredLogger
	client *redis.Client
}

func NewRedisNotifier(logger *zap.SugaredLogger, client *redis.Client) *RedisNotifier {
	return &RedisNotifier{
		logger: logger,
		client: client,
	}
}

func (n *RedisNotifier) Publish(ctx context.Context, topic string) error {
	return n.client.Publish(ctx, topic, "1").Err()
}

// Subscribe opens a pub/sub channel on topic. Announcements are coalesced
// into a buffered tick channel: a pending tick already forces a full
// re-query, so stacking further ticks behind it buys nothing.
func (n *RedisNotifier) Subscribe(topic string) (<-chan struct{}, func()) {
	pubsub := n.client.Subscribe(context.Background(), topic)
	ticks := make(chan struct{}, 1)

	go func() {
		defer close(ticks)
		for range pubsub.Channel() {
			select {
			case ticks <- struct{}{}:
			default:
			}
		}
	}()

	return ticks, func() {
		if err := pubsub.Close(); err != nil {
			n.logger.Errorf("closing pubsub on %s: %v", topic, err)
		}
	}
}
