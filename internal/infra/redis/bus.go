package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fundgrove/relevance/internal/engine"
)

const (
	// ChannelInvalidated carries invalidation events published after every
	// cache invalidation, so other services can react.
	ChannelInvalidated = "relevance:invalidated"
	// ChannelRequests carries inbound invalidation and refresh requests.
	ChannelRequests = "relevance:requests"
)

// Config holds Redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// Bus publishes engine events to Redis and relays inbound requests.
type Bus struct {
	rdb *redis.Client
}

// NewBus creates a new Redis event bus.
func NewBus(cfg Config) (*Bus, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Bus{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (b *Bus) Close() error {
	return b.rdb.Close()
}

// Publish sends an invalidation event to the invalidated channel. It
// implements engine.Sink.
func (b *Bus) Publish(ev engine.InvalidationEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode invalidation event: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := b.rdb.Publish(ctx, ChannelInvalidated, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish invalidation event: %w", err)
	}
	return nil
}

// Subscribe consumes invalidation and refresh requests until the context is
// cancelled, dispatching each to the handler.
func (b *Bus) Subscribe(ctx context.Context, handler func(engine.Request)) error {
	sub := b.rdb.Subscribe(ctx, ChannelRequests)
	defer func() { _ = sub.Close() }()

	// Fail fast if the subscription could not be established.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", ChannelRequests, err)
	}
	slog.Info("Listening for invalidation requests", "channel", ChannelRequests)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("request subscription closed")
			}
			var req engine.Request
			if err := json.Unmarshal([]byte(msg.Payload), &req); err != nil {
				slog.Warn("dropping malformed request", "error", err)
				continue
			}
			handler(req)
		}
	}
}
