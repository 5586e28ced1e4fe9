// Package app wires the store, locking, leader election and services shared
// by both HTTP entry points.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lot-auction/internal/auth"
	"lot-auction/internal/config"
	"lot-auction/internal/domain"
	"lot-auction/internal/infrastructure/leader"
	"lot-auction/internal/infrastructure/memory"
	"lot-auction/internal/infrastructure/mysql"
	"lot-auction/internal/infrastructure/redis"
	"lot-auction/internal/services"
	"lot-auction/pkg/logger"
	"lot-auction/pkg/utils"

	redisClient "github.com/go-redis/redis/v8"
	"golang.org/x/crypto/bcrypt"
)

type App struct {
	Config    *config.Config
	Store     domain.Store
	Leader    domain.LeaderElection
	Manager   *services.AuctionManager
	Service   *services.AuctionService
	Scheduler *services.CronAuctionScheduler
	Tokens    *auth.TokenIssuer

	log     logger.Logger
	closers []func() error
}

// New builds the application graph from cfg. Close releases everything it
// opened, also when New fails halfway.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	a := &App{Config: cfg, log: log}

	store, err := a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Store = store

	local := services.NewKeyedMutex()
	var locker domain.Locker = local
	a.Leader = leader.Standalone{}

	if cfg.Redis.Enabled {
		rdb := redisClient.NewClient(&redisClient.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.closers = append(a.closers, rdb.Close)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		log.Info("Connected to Redis", "address", cfg.Redis.Address)

		locker = services.ChainLocker{local, redis.NewAuctionLocker(rdb, cfg.Lock.TTL, cfg.Lock.RetryInterval, log)}
		a.Leader = leader.NewRedisLeaderElection(rdb, leader.DefaultKey, cfg.Leader.TTL)
	}

	clock := utils.SystemClock{}
	hasher := auth.BcryptHasher{Cost: bcrypt.DefaultCost}

	a.Manager = services.NewAuctionManager(store, locker, clock, cfg.Lock.WaitTimeout, log)
	a.Service = services.NewAuctionService(store, a.Manager, locker, hasher, clock, cfg.Lock.WaitTimeout, log)
	a.Scheduler = services.NewCronAuctionScheduler(a.Manager, a.Leader, cfg.Instance.ID, cfg.Scheduler.SweepInterval, log)
	a.Tokens = auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	if err := a.seedAdmin(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) openStore(ctx context.Context) (domain.Store, error) {
	switch a.Config.Store.Driver {
	case "mysql":
		db, err := utils.InitializeMysql(ctx, a.Config, a.log)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)

		if a.Config.MySQL.Migrate {
			if err := mysql.RunMigrations(ctx, db); err != nil {
				return nil, fmt.Errorf("migrate mysql: %w", err)
			}
			a.log.Info("Applied MySQL migrations")
		}
		return mysql.NewStore(db), nil
	default:
		a.log.Info("Using in-memory store")
		return memory.NewStore(), nil
	}
}

func (a *App) seedAdmin(ctx context.Context) error {
	name := a.Config.Auth.AdminUsername
	if name == "" {
		return nil
	}

	_, err := a.Service.GetUserByUsername(ctx, name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("seed admin: %w", err)
	}

	u, err := a.Service.AddUser(ctx, domain.System(), name, a.Config.Auth.AdminPassword, domain.RoleAdmin)
	if err != nil && !errors.Is(err, domain.ErrConflict) {
		return fmt.Errorf("seed admin: %w", err)
	}
	if u != nil {
		a.log.Info("Seeded admin user", "user_id", u.ID, "username", u.Username)
	}
	return nil
}

// Close releases connections in reverse order of opening.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Error("Failed to close resource", "error", err)
		}
	}
	a.closers = nil
}
