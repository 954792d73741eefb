package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"songservice/config"

	"github.com/redis/go-redis/v9"
)

// 歌曲变更事件类型
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// SongEvent 是发布到 Redis 频道的变更通知
type SongEvent struct {
	Type string      `json:"type"`
	ID   interface{} `json:"id"`
	At   time.Time   `json:"at"`
}

// NewSongEvent stamps an event with the current UTC time.
func NewSongEvent(eventType string, id interface{}) SongEvent {
	return SongEvent{Type: eventType, ID: id, At: time.Now().UTC()}
}

// ConnectRedis 初始化Redis连接
func ConnectRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// RedisEventPublisher 把歌曲变更事件发布到 Redis 频道
type RedisEventPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisEventPublisher creates a publisher on the given channel.
func NewRedisEventPublisher(client *redis.Client, channel string) *RedisEventPublisher {
	return &RedisEventPublisher{client: client, channel: channel}
}

// Publish 序列化并发布事件
func (p *RedisEventPublisher) Publish(ctx context.Context, event SongEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal song event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish song event: %w", err)
	}
	return nil
}

// Close 关闭Redis连接
func (p *RedisEventPublisher) Close() error {
	return p.client.Close()
}

// CheckRedis 测试Redis连接和基本操作：订阅频道后发布一条测试事件并确认收到
func CheckRedis(ctx context.Context, client *redis.Client, channel string) error {
	sub := client.Subscribe(ctx, channel)
	defer sub.Close()

	// 等待订阅确认
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	publisher := NewRedisEventPublisher(client, channel)
	if err := publisher.Publish(ctx, NewSongEvent("ping", 0)); err != nil {
		return err
	}

	msg, err := sub.ReceiveMessage(ctx)
	if err != nil {
		return fmt.Errorf("failed to receive test event: %w", err)
	}

	var event SongEvent
	if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
		return fmt.Errorf("unexpected payload from Redis: %w", err)
	}
	if event.Type != "ping" {
		return fmt.Errorf("unexpected event type from Redis: got %s", event.Type)
	}
	return nil
}
