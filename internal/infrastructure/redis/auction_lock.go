package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lot-auction/internal/domain"
	"lot-auction/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var _ domain.Locker = (*AuctionLocker)(nil)

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
else
    return 0
end
`)

// AuctionLocker is a domain.Locker shared by every instance using the same
// Redis. Each lock is a key holding a random token with a TTL; only the
// holder of the token can release it.
type AuctionLocker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
	log    logger.Logger
}

func NewAuctionLocker(client *redis.Client, ttl, retry time.Duration, log logger.Logger) *AuctionLocker {
	if retry <= 0 {
		retry = 25 * time.Millisecond
	}
	return &AuctionLocker{client: client, ttl: ttl, retry: retry, log: log}
}

func lockKey(key string) string {
	return fmt.Sprintf("lock:%s", key)
}

// Lock polls until the key is acquired or ctx is done.
func (l *AuctionLocker) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	redisKey := lockKey(key)

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("acquire %s: %w", redisKey, err)
		}
		if ok {
			return l.unlocker(redisKey, token), nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *AuctionLocker) unlocker(redisKey, token string) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		released, err := unlockScript.Run(ctx, l.client, []string{redisKey}, token).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			l.log.Error("Failed to release lock", "key", redisKey, "error", err)
			return
		}
		if released == 0 {
			l.log.Warn("Lock expired before release", "key", redisKey)
		}
	}
}
