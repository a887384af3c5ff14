package service

import (
	"context"
	"feedbackbot/internal/cache"
	"feedbackbot/internal/logger"
	"feedbackbot/internal/model"
	"feedbackbot/internal/repository"
	"fmt"
)

// SessionStore reads sessions through the Redis cache and writes them to
// MongoDB first, then refreshes the cache.
type SessionStore struct {
	repo  repository.SessionRepo
	cache cache.SessionCache
	log   *logger.Logger
}

// NewSessionStore creates a session store; cache may be nil
func NewSessionStore(repo repository.SessionRepo, c cache.SessionCache, log *logger.Logger) *SessionStore {
	return &SessionStore{
		repo:  repo,
		cache: c,
		log:   log.With("component", "session_store"),
	}
}

// Get returns the session for chatID, or nil if the chat has never been seen
func (s *SessionStore) Get(ctx context.Context, chatID int64) (*model.Session, error) {
	if s.cache != nil {
		session, err := s.cache.Get(ctx, chatID)
		if err != nil {
			s.log.Warn("session cache read failed", "chat_id", chatID, "error", err)
		} else if session != nil {
			return session, nil
		}
	}

	session, err := s.repo.GetByChatID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session != nil && s.cache != nil {
		if err := s.cache.Set(ctx, session); err != nil {
			s.log.Warn("session cache fill failed", "chat_id", chatID, "error", err)
		}
	}
	return session, nil
}

// Upsert persists the session. The cache is only updated after the durable
// write succeeds; on cache failure the stale entry is dropped.
func (s *SessionStore) Upsert(ctx context.Context, session *model.Session) error {
	if err := s.repo.Upsert(ctx, session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Set(ctx, session); err != nil {
		s.log.Warn("session cache write failed", "chat_id", session.ChatID, "error", err)
		if delErr := s.cache.Delete(ctx, session.ChatID); delErr != nil {
			s.log.Error("session cache invalidate failed", "chat_id", session.ChatID, "error", delErr)
		}
	}
	return nil
}
