package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	tokendomain "github.com/R3E-Network/ledger_layer/internal/app/domain/token"
)

// RedisPublisher publishes event records as JSON on a Redis channel so
// off-process consumers (indexers, notifiers) can follow the ledger.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

var _ Publisher = (*RedisPublisher)(nil)

// RedisConfig configures the Redis publisher.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// NewRedisPublisher connects to Redis and verifies the connection.
func NewRedisPublisher(cfg RedisConfig) (*RedisPublisher, error) {
	if cfg.Channel == "" {
		cfg.Channel = "ledger.events"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &RedisPublisher{client: client, channel: cfg.Channel}, nil
}

// Publish sends the event to the configured channel.
func (p *RedisPublisher) Publish(ctx context.Context, ev tokendomain.EventRecord) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.client.Publish(ctx, p.channel, payload).Err()
}

// Close releases the Redis connection.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
