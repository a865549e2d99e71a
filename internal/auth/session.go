package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrSessionNotFound 刷新令牌不存在或已失效
	ErrSessionNotFound = errors.New("session not found")
)

// SessionStore 刷新令牌会话存储，令牌只存服务端，
// 刷新时整体轮换，旧令牌立即作废
type SessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSessionStore 创建会话存储
func NewSessionStore(rdb *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{rdb: rdb, ttl: ttl}
}

func sessionKey(token string) string {
	return "session:" + token
}

// Create 为用户创建新会话，返回刷新令牌
func (s *SessionStore) Create(ctx context.Context, userID uint) (string, error) {
	token := uuid.NewString()
	if err := s.rdb.Set(ctx, sessionKey(token), strconv.FormatUint(uint64(userID), 10), s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	return token, nil
}

// Rotate 校验刷新令牌并轮换，返回用户ID和新令牌
func (s *SessionStore) Rotate(ctx context.Context, token string) (uint, string, error) {
	val, err := s.rdb.GetDel(ctx, sessionKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, "", ErrSessionNotFound
	}
	if err != nil {
		return 0, "", fmt.Errorf("failed to load session: %w", err)
	}

	userID, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0, "", fmt.Errorf("corrupt session value %q: %w", val, err)
	}

	newToken, err := s.Create(ctx, uint(userID))
	if err != nil {
		return 0, "", err
	}
	return uint(userID), newToken, nil
}

// Delete 注销会话
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if err := s.rdb.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
