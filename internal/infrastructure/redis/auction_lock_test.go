package redis

import (
	"context"
	"testing"
	"time"

	"lot-auction/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocker(t *testing.T, ttl time.Duration) (*AuctionLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewAuctionLocker(client, ttl, 5*time.Millisecond, logger.NewNop()), mr
}

func TestAuctionLocker_LockUnlock(t *testing.T) {
	l, mr := newLocker(t, 10*time.Second)

	unlock, err := l.Lock(context.Background(), "auction-1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("lock:auction-1"))
	assert.Equal(t, 10*time.Second, mr.TTL("lock:auction-1"))

	unlock()
	assert.False(t, mr.Exists("lock:auction-1"))
}

func TestAuctionLocker_WaitsForHolder(t *testing.T) {
	l, _ := newLocker(t, 10*time.Second)

	unlock, err := l.Lock(context.Background(), "auction-1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "auction-1")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	other, err := l.Lock(context.Background(), "auction-2")
	require.NoError(t, err, "other keys are independent")
	other()

	acquired := make(chan struct{})
	go func() {
		second, err := l.Lock(context.Background(), "auction-1")
		if err == nil {
			second()
		}
		close(acquired)
	}()

	unlock()
	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("waiter never acquired the released lock")
	}
}

func TestAuctionLocker_ExpiredLockNotStolen(t *testing.T) {
	l, mr := newLocker(t, time.Second)

	unlock, err := l.Lock(context.Background(), "auction-1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	next, err := l.Lock(context.Background(), "auction-1")
	require.NoError(t, err)
	token, err := mr.Get("lock:auction-1")
	require.NoError(t, err)

	unlock() // stale holder must not delete the new owner's key
	got, err := mr.Get("lock:auction-1")
	require.NoError(t, err)
	assert.Equal(t, token, got)

	next()
	assert.False(t, mr.Exists("lock:auction-1"))
}

func TestAuctionLocker_RedisDown(t *testing.T) {
	l, mr := newLocker(t, time.Second)
	mr.Close()

	_, err := l.Lock(context.Background(), "auction-1")
	assert.Error(t, err)
}
