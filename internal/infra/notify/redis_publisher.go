package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"gigmarket/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

type publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// ユーザーごとのチャンネルに通知を流す（画面側の通知一覧の更新用）
type RedisPublisher struct {
	client publisher
}

func NewRedisPublisher(client publisher) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func UserChannel(userID int64) string {
	return fmt.Sprintf("user:%d:events", userID)
}

func (p *RedisPublisher) Notify(ctx context.Context, note model.Notification) error {
	msg, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := p.client.Publish(ctx, UserChannel(note.Recipient.UserID), msg).Err(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}
