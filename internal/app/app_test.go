package app

import (
	"context"
	"testing"
	"time"

	"lot-auction/internal/config"
	"lot-auction/internal/domain"
	"lot-auction/internal/infrastructure/leader"
	"lot-auction/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Store:     config.StoreConfig{Driver: "memory"},
		Instance:  config.InstanceConfig{ID: "test-1"},
		Scheduler: config.SchedulerConfig{SweepInterval: time.Minute},
		Lock:      config.LockConfig{TTL: 10 * time.Second, RetryInterval: 5 * time.Millisecond, WaitTimeout: time.Second},
		Leader:    config.LeaderConfig{TTL: 30 * time.Second},
		Auth: config.AuthConfig{
			JWTSecret:     "secret",
			TokenTTL:      time.Hour,
			AdminUsername: "root",
			AdminPassword: "toor",
		},
	}
}

func TestNew_MemoryStandalone(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(), logger.NewNop())
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, leader.Standalone{}, a.Leader)

	admin, err := a.Service.Authenticate(ctx, "root", "toor")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)

	token, err := a.Tokens.Issue(admin)
	require.NoError(t, err)
	caller, err := a.Tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, caller.UserID)

	require.NoError(t, a.seedAdmin(ctx), "seeding twice is a no-op")
	users, err := a.Service.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestNew_WithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.Redis = config.RedisConfig{Enabled: true, Address: mr.Addr()}

	ctx := context.Background()
	a, err := New(ctx, cfg, logger.NewNop())
	require.NoError(t, err)
	defer a.Close()

	root, err := a.Service.GetUserByUsername(ctx, "root")
	require.NoError(t, err)
	cat, err := a.Service.AddCategory(ctx, root.Caller(), &domain.Category{Name: "Books"})
	require.NoError(t, err)
	assert.NotEmpty(t, cat.ID)
	assert.False(t, mr.Exists("lock:categories"), "distributed lock released after use")

	result := a.Scheduler.Tick(ctx)
	require.NotNil(t, result)
	assert.True(t, mr.Exists(leader.DefaultKey))
	require.NoError(t, a.Scheduler.Stop())
}

func TestNew_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig()
	cfg.Redis = config.RedisConfig{Enabled: true, Address: addr}
	_, err := New(context.Background(), cfg, logger.NewNop())
	assert.Error(t, err)
}
