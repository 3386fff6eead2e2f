package mail

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Baaaki/yamdb/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisMailer pushes messages onto a Redis list consumed by an external
// sender.
type RedisMailer struct {
	client   *redis.Client
	queueKey string
}

func NewRedisMailer(client *redis.Client, queueKey string) *RedisMailer {
	return &RedisMailer{client: client, queueKey: queueKey}
}

// NewRedisClient parses redisURL and verifies the server answers.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (m *RedisMailer) Send(ctx context.Context, msg Message) error {
	msg = stamp(msg)

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	if err := m.client.RPush(ctx, m.queueKey, data).Err(); err != nil {
		logger.Log.Error("Mail queue: failed to enqueue message",
			zap.String("message_id", msg.ID),
			zap.String("queue", m.queueKey),
			zap.Error(err),
		)
		return err
	}

	logger.Log.Debug("Mail queue: message enqueued",
		zap.String("message_id", msg.ID),
		zap.String("queue", m.queueKey),
	)
	return nil
}

// Pending returns up to limit queued messages without removing them.
func (m *RedisMailer) Pending(ctx context.Context, limit int64) ([]Message, error) {
	raw, err := m.client.LRange(ctx, m.queueKey, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}

	messages := make([]Message, 0, len(raw))
	for _, item := range raw {
		var msg Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}
