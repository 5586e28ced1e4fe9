package services

import (
	"context"
	"sync"
	"time"

	"lot-auction/internal/domain"
	"lot-auction/pkg/logger"

	"github.com/robfig/cron/v3"
)

const DefaultSweepInterval = 60 * time.Second

// CronAuctionScheduler fires the close sweep on a fixed interval. When a
// LeaderElection is configured only the current leader sweeps.
type CronAuctionScheduler struct {
	cron       *cron.Cron
	auctionMgr *AuctionManager
	leader     domain.LeaderElection
	instanceID string
	interval   time.Duration
	log        logger.Logger

	mu      sync.Mutex
	entryID cron.EntryID
	cancel  context.CancelFunc
}

func NewCronAuctionScheduler(auctionMgr *AuctionManager, leader domain.LeaderElection, instanceID string,
	interval time.Duration, log logger.Logger) *CronAuctionScheduler {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &CronAuctionScheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		auctionMgr: auctionMgr,
		leader:     leader,
		instanceID: instanceID,
		interval:   interval,
		log:        log,
	}
}

func (s *CronAuctionScheduler) Start(ctx context.Context) error {
	s.log.Info("Starting auction scheduler", "interval", s.interval.String(), "instance_id", s.instanceID)

	s.mu.Lock()
	defer s.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	id, err := s.cron.AddFunc("@every "+s.interval.String(), func() {
		s.Tick(runCtx)
	})
	if err != nil {
		cancel()
		return err
	}

	s.entryID = id
	s.cancel = cancel
	s.cron.Start()
	return nil
}

// Stop halts the timer and waits for a running sweep to return.
func (s *CronAuctionScheduler) Stop() error {
	s.log.Info("Stopping auction scheduler")

	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	if cancel != nil {
		cancel()
	}

	if s.leader != nil {
		ctx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := s.leader.ReleaseLeadership(ctx, s.instanceID); err != nil {
			s.log.Warn("Failed to release leadership", "instance_id", s.instanceID, "error", err)
		}
	}
	return nil
}

// Tick runs one sweep if this instance holds, or can take, leadership. It
// returns nil when the sweep was skipped.
func (s *CronAuctionScheduler) Tick(ctx context.Context) *domain.SweepResult {
	if !s.isLeader(ctx) {
		s.log.Debug("Skipping sweep, not leader", "instance_id", s.instanceID)
		return nil
	}

	started := time.Now()
	result, err := s.auctionMgr.Sweep(ctx)
	if err != nil {
		s.log.Error("Sweep failed", "error", err)
		return nil
	}

	s.log.Info("Sweep finished", "checked", result.Checked, "closed", result.Closed,
		"failed", len(result.Failed), "took", time.Since(started).String())
	return result
}

func (s *CronAuctionScheduler) isLeader(ctx context.Context) bool {
	if s.leader == nil {
		return true
	}

	ok, err := s.leader.IsLeader(ctx, s.instanceID)
	if err != nil {
		s.log.Warn("Leader check failed", "instance_id", s.instanceID, "error", err)
		return false
	}
	if ok {
		return true
	}

	ok, err = s.leader.BecomeLeader(ctx, s.instanceID)
	if err != nil {
		s.log.Warn("Leader election failed", "instance_id", s.instanceID, "error", err)
		return false
	}
	if ok {
		s.log.Info("Became sweep leader", "instance_id", s.instanceID)
	}
	return ok
}
