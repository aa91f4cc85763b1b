package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	Channel    = "printshop:notifications"
	RecentKey  = "printshop:notifications:recent"
	RecentSize = 100
)

// RedisPublisher publishes on a Redis channel and mirrors each event into a capped list.
type RedisPublisher struct {
	client *redis.Client
	log    *zap.Logger
}

// NewRedisClient parses a redis:// URL and checks the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func NewRedisPublisher(client *redis.Client, log *zap.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, log: log}
}

func (p *RedisPublisher) Publish(ctx context.Context, n Notification) error {
	n = stamp(n)
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Publish(ctx, Channel, payload)
		pipe.LPush(ctx, RecentKey, payload)
		pipe.LTrim(ctx, RecentKey, 0, RecentSize-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

func (p *RedisPublisher) Recent(ctx context.Context, limit int) ([]Notification, error) {
	if limit <= 0 || limit > RecentSize {
		limit = RecentSize
	}
	raw, err := p.client.LRange(ctx, RecentKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read recent notifications: %w", err)
	}
	out := make([]Notification, 0, len(raw))
	for _, r := range raw {
		var n Notification
		if err := json.Unmarshal([]byte(r), &n); err != nil {
			p.log.Warn("skipping malformed notification", zap.Error(err))
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (p *RedisPublisher) Subscribe(ctx context.Context) (<-chan Notification, func(), error) {
	pubsub := p.client.Subscribe(ctx, Channel)
	// Wait for the subscription confirmation so nothing published after return is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe %s: %w", Channel, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	out := make(chan Notification, 16)
	go func() {
		defer close(out)
		defer pubsub.Close()
		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var n Notification
				if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
					p.log.Warn("dropping malformed notification", zap.Error(err))
					continue
				}
				select {
				case out <- n:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, cancel, nil
}
