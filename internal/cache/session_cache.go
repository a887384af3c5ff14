package cache

import (
	"context"
	"encoding/json"
	"feedbackbot/internal/model"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionCache keeps recently active chat sessions in Redis
type SessionCache interface {
	Set(ctx context.Context, session *model.Session) error
	Get(ctx context.Context, chatID int64) (*model.Session, error)
	Delete(ctx context.Context, chatID int64) error
}

type sessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionCache creates a new session cache
func NewSessionCache(client *redis.Client, ttl time.Duration) SessionCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &sessionCache{
		client: client,
		ttl:    ttl,
	}
}

func sessionKey(chatID int64) string {
	return fmt.Sprintf("session:%d", chatID)
}

func (c *sessionCache) Set(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, sessionKey(session.ChatID), data, c.ttl).Err()
}

func (c *sessionCache) Get(ctx context.Context, chatID int64) (*model.Session, error) {
	data, err := c.client.Get(ctx, sessionKey(chatID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var session model.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *sessionCache) Delete(ctx context.Context, chatID int64) error {
	return c.client.Del(ctx, sessionKey(chatID)).Err()
}
