package leader

import (
	"context"
	"errors"
	"sync"
	"time"

	"lot-auction/internal/domain"

	"github.com/go-redis/redis/v8"
)

const DefaultKey = "lot_auction:sweep_leader"

var _ domain.LeaderElection = (*RedisLeaderElection)(nil)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
else
    return 0
end
`)

var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("PEXPIRE", KEYS[1], ARGV[2])
else
    return 0
end
`)

// RedisLeaderElection holds leadership as a key with a TTL. The holder keeps
// it alive with a heartbeat at a third of the TTL.
type RedisLeaderElection struct {
	client *redis.Client
	key    string
	ttl    time.Duration

	mu        sync.Mutex
	heartbeat map[string]chan struct{}
}

func NewRedisLeaderElection(client *redis.Client, key string, ttl time.Duration) *RedisLeaderElection {
	if key == "" {
		key = DefaultKey
	}
	return &RedisLeaderElection{
		client:    client,
		key:       key,
		ttl:       ttl,
		heartbeat: make(map[string]chan struct{}),
	}
}

func (r *RedisLeaderElection) BecomeLeader(ctx context.Context, instanceID string) (bool, error) {
	result, err := r.client.SetNX(ctx, r.key, instanceID, r.ttl).Result()
	if err != nil {
		return false, err
	}

	if result {
		r.startHeartbeat(instanceID)
	}

	return result, nil
}

func (r *RedisLeaderElection) IsLeader(ctx context.Context, instanceID string) (bool, error) {
	currentLeader, err := r.client.Get(ctx, r.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}

	return currentLeader == instanceID, nil
}

func (r *RedisLeaderElection) ReleaseLeadership(ctx context.Context, instanceID string) error {
	r.stopHeartbeat(instanceID)
	return releaseScript.Run(ctx, r.client, []string{r.key}, instanceID).Err()
}

func (r *RedisLeaderElection) startHeartbeat(instanceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, running := r.heartbeat[instanceID]; running {
		return
	}
	stop := make(chan struct{})
	r.heartbeat[instanceID] = stop
	go r.maintainLeadership(instanceID, stop)
}

func (r *RedisLeaderElection) stopHeartbeat(instanceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stop, running := r.heartbeat[instanceID]; running {
		close(stop)
		delete(r.heartbeat, instanceID)
	}
}

func (r *RedisLeaderElection) maintainLeadership(instanceID string, stop <-chan struct{}) {
	ticker := time.NewTicker(r.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		result, err := extendScript.Run(ctx, r.client, []string{r.key},
			instanceID, r.ttl.Milliseconds()).Int64()
		cancel()

		if err != nil || result == 0 {
			// Lost leadership
			r.mu.Lock()
			if r.heartbeat[instanceID] == stop {
				delete(r.heartbeat, instanceID)
			}
			r.mu.Unlock()
			return
		}
	}
}

// Standalone is the election used when Redis is disabled: the single
// instance always leads.
type Standalone struct{}

func (Standalone) BecomeLeader(context.Context, string) (bool, error) { return true, nil }
func (Standalone) IsLeader(context.Context, string) (bool, error)     { return true, nil }
func (Standalone) ReleaseLeadership(context.Context, string) error    { return nil }
