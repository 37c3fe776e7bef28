package repository

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"lodge_archive/internal/common"
	"lodge_archive/internal/domain/model"
)

// ResetTokenRepository holds single-use, time-boxed password-reset tokens.
// At most one live token per email; issuing a new one replaces the old.
type ResetTokenRepository interface {
	Save(ctx context.Context, email, token string, ttl time.Duration) error
	// Peek reports whether the token is currently valid without consuming it.
	Peek(ctx context.Context, email, token string) error
	// Consume atomically invalidates the token; a second consume fails.
	Consume(ctx context.Context, email, token string) error
}

type redisResetTokenRepository struct {
	rdb *redis.Client
}

func NewRedisResetTokenRepository(rdb *redis.Client) ResetTokenRepository {
	return &redisResetTokenRepository{rdb: rdb}
}

func resetKey(email string) string {
	return "reset_token:" + model.NormalizeEmail(email)
}

func (r *redisResetTokenRepository) Save(ctx context.Context, email, token string, ttl time.Duration) error {
	if err := r.rdb.Set(ctx, resetKey(email), token, ttl).Err(); err != nil {
		return fmt.Errorf("redisResetTokenRepository.Save: %w", err)
	}
	return nil
}

func (r *redisResetTokenRepository) Peek(ctx context.Context, email, token string) error {
	stored, err := r.rdb.Get(ctx, resetKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return common.ErrBadRequest
		}
		return fmt.Errorf("redisResetTokenRepository.Peek: %w", err)
	}
	return compareToken(stored, token)
}

// consumeScript deletes the key only when the stored token matches, so a
// wrong guess cannot invalidate the real token and only one caller can ever
// consume it.
var consumeScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (r *redisResetTokenRepository) Consume(ctx context.Context, email, token string) error {
	n, err := consumeScript.Run(ctx, r.rdb, []string{resetKey(email)}, token).Int()
	if err != nil {
		return fmt.Errorf("redisResetTokenRepository.Consume: %w", err)
	}
	if n == 0 {
		return common.ErrBadRequest
	}
	return nil
}

func compareToken(stored, candidate string) error {
	if subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) != 1 {
		return common.ErrBadRequest
	}
	return nil
}
