package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter é um rate limiter por usuário/ação em janela fixa no Redis
// (INCR + EXPIRE na primeira contagem)
type Limiter struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Limiter { return &Limiter{rdb: rdb} }

// Allow conta a tentativa e responde se ela cabe no limite da janela
// Erro de Redis nega a tentativa; apostas não passam sem contagem
func (l *Limiter) Allow(ctx context.Context, userID, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf("ratelimit:%s:%s", userID, action)

	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}

	if count == 1 {
		l.rdb.Expire(ctx, key, window)
	}

	return count <= int64(limit), nil
}
