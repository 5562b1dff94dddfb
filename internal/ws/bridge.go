package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"pairchat-service/internal/config"
	"pairchat-service/internal/logger"
)

type change struct {
	Origin string   `json:"origin"`
	Topics []string `json:"topics"`
}

// RedisBridge shares topic changes between service instances over a Redis channel.
// Local subscribers are notified directly; remote ones through the channel.
type RedisBridge struct {
	rdb      *redis.Client
	channel  string
	hub      *Hub
	log      *zap.Logger
	instance string
}

// NewRedisClient connects to Redis, retrying while it starts up.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	const op = "ws.NewRedisClient"

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(500*time.Millisecond), 5), ctx)
	if err := backoff.Retry(func() error { return rdb.Ping(ctx).Err() }, policy); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rdb, nil
}

func NewRedisBridge(rdb *redis.Client, channel string, hub *Hub, log *zap.Logger) *RedisBridge {
	return &RedisBridge{
		rdb:      rdb,
		channel:  channel,
		hub:      hub,
		log:      log,
		instance: uuid.NewString(),
	}
}

// Notify refreshes local subscribers and tells the other instances.
func (b *RedisBridge) Notify(ctx context.Context, topics ...string) {
	if len(topics) == 0 {
		return
	}
	b.hub.Notify(ctx, topics...)

	payload, err := json.Marshal(change{Origin: b.instance, Topics: topics})
	if err != nil {
		return
	}
	if err := b.rdb.Publish(ctx, b.channel, payload).Err(); err != nil {
		logger.FromContext(ctx).Warn("redis publish failed", zap.Strings("topics", topics), zap.Error(err))
	}
}

// Run feeds changes published by other instances into the local hub until ctx is done.
func (b *RedisBridge) Run(ctx context.Context) error {
	sub := b.rdb.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("ws.RedisBridge.Run: %w", err)
	}
	b.log.Info("redis bridge subscribed", zap.String("channel", b.channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.handle(ctx, msg.Payload)
		}
	}
}

func (b *RedisBridge) handle(ctx context.Context, payload string) {
	var c change
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		b.log.Warn("bad change payload", zap.Error(err))
		return
	}
	if c.Origin == b.instance || len(c.Topics) == 0 {
		return
	}
	b.hub.Notify(ctx, c.Topics...)
}
