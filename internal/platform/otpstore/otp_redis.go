// Package otpstore keeps live OTP challenges in Redis.
package otpstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"auth_backend/internal/feature/auth/domain"
	"auth_backend/internal/feature/auth/domain/entity"
	"auth_backend/internal/feature/auth/usecase"
)

// DefaultPrefix is the key prefix used when none is configured.
const DefaultPrefix = "otp"

// OTPRedis implements usecase.OTPRepository using Redis.
// Each phone has a single key whose TTL is the challenge lifetime.
type OTPRedis struct {
	client *redis.Client
	prefix string
}

var _ usecase.OTPRepository = (*OTPRedis)(nil)

// NewOTPRedis creates a new OTPRedis instance.
func NewOTPRedis(client *redis.Client, prefix string) *OTPRedis {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &OTPRedis{
		client: client,
		prefix: prefix,
	}
}

// challengeKey returns the Redis key for a phone's challenge.
func (r *OTPRedis) challengeKey(phone string) string {
	return fmt.Sprintf("%s:%s", r.prefix, phone)
}

// Replace stores the challenge, overwriting any previous one for the phone.
func (r *OTPRedis) Replace(ctx context.Context, c *entity.OTPChallenge) error {
	if c == nil || c.Phone == "" {
		return domain.Validation("challenge phone is required")
	}
	ttl := c.TTL()
	if ttl <= 0 {
		return domain.Validation("challenge already expired")
	}

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal challenge: %w", err)
	}
	if err := r.client.Set(ctx, r.challengeKey(c.Phone), data, ttl).Err(); err != nil {
		return domain.Transient("replace otp challenge", err)
	}
	return nil
}

// Consume deletes the challenge if code matches and it is live at now.
// The key is watched between the read and the delete, so a concurrent
// consume or replace makes this call fail with domain.ErrChallengeNotFound.
func (r *OTPRedis) Consume(ctx context.Context, phone, code string, now time.Time) error {
	key := r.challengeKey(phone)

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return domain.ErrChallengeNotFound
			}
			return err
		}

		var c entity.OTPChallenge
		if err := json.Unmarshal(data, &c); err != nil {
			return fmt.Errorf("failed to unmarshal challenge: %w", err)
		}
		if c.IsExpired(now) || !c.Matches(code) {
			return domain.ErrChallengeNotFound
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		return err
	}, key)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrChallengeNotFound), errors.Is(err, redis.TxFailedErr):
		return domain.ErrChallengeNotFound
	default:
		return domain.Transient("consume otp challenge", err)
	}
}
