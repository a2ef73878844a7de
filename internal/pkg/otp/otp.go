package otp

import (
	"context"
	"errors"
	"fmt"
	"seafood_shop/pkg/security"
	"time"

	"github.com/redis/go-redis/v9"
)

// Purpose 令牌用途，决定 Redis key 前缀
type Purpose string

const (
	PurposeLogin  Purpose = "login"  // 员工首次登录的临时令牌
	PurposeVerify Purpose = "verify" // 注册邮箱验证
)

var ErrTokenNotFound = errors.New("token not found or expired")

// TokenStore 一次性令牌，消费后立即删除，防止重放
type TokenStore interface {
	Issue(ctx context.Context, purpose Purpose, subject string, ttl time.Duration) (string, error)
	Consume(ctx context.Context, purpose Purpose, token string) (string, error)
	Peek(ctx context.Context, purpose Purpose, token string) (string, error)
}

type redisTokenStore struct {
	rdb *redis.Client
}

func NewTokenStore(rdb *redis.Client) TokenStore {
	return &redisTokenStore{rdb: rdb}
}

func key(purpose Purpose, token string) string {
	return fmt.Sprintf("otp:%s:%s", purpose, token)
}

// Issue 生成 20 字节随机令牌（hex 编码）并绑定 subject
func (s *redisTokenStore) Issue(ctx context.Context, purpose Purpose, subject string, ttl time.Duration) (string, error) {
	token, err := security.RandomHex(20)
	if err != nil {
		return "", err
	}

	if err := s.rdb.Set(ctx, key(purpose, token), subject, ttl).Err(); err != nil {
		return "", fmt.Errorf("store %s token: %w", purpose, err)
	}
	return token, nil
}

func (s *redisTokenStore) Consume(ctx context.Context, purpose Purpose, token string) (string, error) {
	subject, err := s.rdb.GetDel(ctx, key(purpose, token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	return subject, err
}

// Peek 只读校验，不删除
func (s *redisTokenStore) Peek(ctx context.Context, purpose Purpose, token string) (string, error) {
	subject, err := s.rdb.Get(ctx, key(purpose, token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	return subject, err
}
