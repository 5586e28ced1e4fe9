package services

import (
	"context"
	"fmt"
	"time"

	"lot-auction/internal/domain"
	"lot-auction/pkg/logger"

	"github.com/shopspring/decimal"
)

// AuctionService is the surface exposed to callers. Every mutating method
// takes the caller explicitly and checks it against the permission table
// before touching the store.
type AuctionService struct {
	store       domain.Store
	manager     *AuctionManager
	locker      domain.Locker
	hasher      domain.PasswordHasher
	clock       domain.Clock
	lockTimeout time.Duration
	log         logger.Logger
}

func NewAuctionService(
	store domain.Store,
	manager *AuctionManager,
	locker domain.Locker,
	hasher domain.PasswordHasher,
	clock domain.Clock,
	lockTimeout time.Duration,
	log logger.Logger,
) *AuctionService {
	if lockTimeout <= 0 {
		lockTimeout = defaultLockTimeout
	}
	return &AuctionService{
		store:       store,
		manager:     manager,
		locker:      locker,
		hasher:      hasher,
		clock:       clock,
		lockTimeout: lockTimeout,
		log:         log,
	}
}

// withLock serializes fn against other writers using the same key. Used for
// invariants spanning several rows: username uniqueness, the category tree and
// one live auction per lot.
func (s *AuctionService) withLock(ctx context.Context, key string, fn func() error) error {
	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	unlock, err := s.locker.Lock(lockCtx, key)
	cancel()
	if err != nil {
		return domain.StoreFailure("lock "+key, err)
	}
	defer unlock()
	return fn()
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, fmt.Sprintf(format, args...))
}

func conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrConflict, fmt.Sprintf(format, args...))
}

// Auctions

func (s *AuctionService) CreateAuction(ctx context.Context, caller domain.Caller, in *domain.Auction) (*domain.Auction, error) {
	if err := Authorize(caller.Role, domain.ActionCreateAuction); err != nil {
		return nil, err
	}
	if in.LotID == "" {
		return nil, invalid("lot id is required")
	}
	if !in.EndTime.After(in.StartTime) {
		return nil, invalid("end time must be after start time")
	}

	var created *domain.Auction
	err := s.withLock(ctx, "lot:"+in.LotID, func() error {
		return s.store.Atomic(ctx, func(ctx context.Context, tx domain.Repositories) error {
			lot, err := tx.Lots().FindByID(ctx, in.LotID)
			if err != nil {
				return err
			}
			if lot.Confirmed {
				return conflict("lot %s is already sold", in.LotID)
			}
			existing, err := tx.Auctions().FindByLot(ctx, in.LotID)
			if err != nil {
				return err
			}
			for _, a := range existing {
				if !a.Completed {
					return conflict("lot %s already has live auction %s", in.LotID, a.ID)
				}
			}

			now := s.clock.Now()
			created, err = tx.Auctions().Save(ctx, &domain.Auction{
				LotID:     in.LotID,
				StartTime: in.StartTime.UTC(),
				EndTime:   in.EndTime.UTC(),
				CreatedAt: now,
				UpdatedAt: now,
			})
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Auction created", "auction_id", created.ID, "lot_id", created.LotID,
		"start_time", created.StartTime, "end_time", created.EndTime)
	return created, nil
}

func (s *AuctionService) GetAuction(ctx context.Context, id string) (*domain.Auction, error) {
	return s.store.Auctions().FindByID(ctx, id)
}

func (s *AuctionService) ListAuctions(ctx context.Context) ([]*domain.Auction, error) {
	return s.store.Auctions().FindAll(ctx)
}

// GetAuctionState returns the derived status, floor and leading bid.
func (s *AuctionService) GetAuctionState(ctx context.Context, id string) (*domain.AuctionState, error) {
	return s.manager.State(ctx, id)
}

// UpdateAuction reschedules an auction that has not completed. The lot and
// the completed flag are not editable.
func (s *AuctionService) UpdateAuction(ctx context.Context, caller domain.Caller, in *domain.Auction) (*domain.Auction, error) {
	if err := Authorize(caller.Role, domain.ActionUpdateAuction); err != nil {
		return nil, err
	}
	if !in.EndTime.After(in.StartTime) {
		return nil, invalid("end time must be after start time")
	}

	var updated *domain.Auction
	err := s.manager.Exclusive(ctx, in.ID, func(ctx context.Context, tx domain.Repositories, current *domain.Auction) error {
		if current.Completed {
			return conflict("auction %s is completed", current.ID)
		}
		if current.DueForClose(s.clock.Now()) {
			return conflict("auction %s has ended and is awaiting close", current.ID)
		}
		if in.LotID != "" && in.LotID != current.LotID {
			return invalid("lot of auction %s cannot be changed", current.ID)
		}

		current.StartTime = in.StartTime.UTC()
		current.EndTime = in.EndTime.UTC()
		current.UpdatedAt = s.clock.Now()

		var err error
		updated, err = tx.Auctions().Save(ctx, current)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Auction updated", "auction_id", updated.ID, "end_time", updated.EndTime)
	return updated, nil
}

// DeleteAuction removes the auction together with its bids.
func (s *AuctionService) DeleteAuction(ctx context.Context, caller domain.Caller, id string) error {
	if err := Authorize(caller.Role, domain.ActionDeleteAuction); err != nil {
		return err
	}

	err := s.manager.Exclusive(ctx, id, func(ctx context.Context, tx domain.Repositories, auction *domain.Auction) error {
		bids, err := tx.Bids().FindByAuction(ctx, auction.ID)
		if err != nil {
			return err
		}
		if auction.Completed && len(bids) > 0 {
			return conflict("auction %s is completed with a winning bid", auction.ID)
		}
		for _, b := range bids {
			if err := tx.Bids().DeleteByID(ctx, b.ID); err != nil {
				return err
			}
		}
		return tx.Auctions().DeleteByID(ctx, auction.ID)
	})
	if err != nil {
		return err
	}

	s.log.Info("Auction deleted", "auction_id", id, "caller_id", caller.UserID)
	return nil
}

// CloseAuction triggers the close transition by hand. It is a no-op for an
// auction that is completed or has not ended.
func (s *AuctionService) CloseAuction(ctx context.Context, caller domain.Caller, id string) (*domain.CloseResult, error) {
	if err := Authorize(caller.Role, domain.ActionUpdateAuction); err != nil {
		return nil, err
	}
	return s.manager.CloseAuction(ctx, id)
}

// Bids

// PlaceBid places in on behalf of the caller. Whatever bidder the input
// names is replaced by the caller's id.
func (s *AuctionService) PlaceBid(ctx context.Context, caller domain.Caller, in *domain.Bid) (*domain.Bid, error) {
	if err := Authorize(caller.Role, domain.ActionPlaceBid); err != nil {
		return nil, err
	}
	if caller.UserID == "" {
		return nil, &domain.UnauthorizedActionError{Action: domain.ActionPlaceBid, Role: caller.Role}
	}
	if in.AuctionID == "" {
		return nil, invalid("auction id is required")
	}

	bid, _, err := s.manager.AcceptBid(ctx, caller.UserID, in.AuctionID, in.Amount)
	if err != nil {
		return nil, err
	}
	return bid, nil
}

func (s *AuctionService) GetBid(ctx context.Context, id string) (*domain.Bid, error) {
	return s.store.Bids().FindByID(ctx, id)
}

func (s *AuctionService) ListBids(ctx context.Context) ([]*domain.Bid, error) {
	return s.store.Bids().FindAll(ctx)
}

func (s *AuctionService) ListBidsByAuction(ctx context.Context, auctionID string) ([]*domain.Bid, error) {
	if _, err := s.store.Auctions().FindByID(ctx, auctionID); err != nil {
		return nil, err
	}
	return s.store.Bids().FindByAuction(ctx, auctionID)
}

// GetWinningBid returns the auction's top bid, or a NotFoundError when it has none.
func (s *AuctionService) GetWinningBid(ctx context.Context, auctionID string) (*domain.Bid, error) {
	bids, err := s.ListBidsByAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	winner := domain.WinningBid(bids)
	if winner == nil {
		return nil, domain.NewNotFound("winning bid", auctionID)
	}
	return winner, nil
}

func (s *AuctionService) DeleteBid(ctx context.Context, caller domain.Caller, id string) error {
	if err := Authorize(caller.Role, domain.ActionDeleteBid); err != nil {
		return err
	}

	bid, err := s.store.Bids().FindByID(ctx, id)
	if err != nil {
		return err
	}

	err = s.manager.Exclusive(ctx, bid.AuctionID, func(ctx context.Context, tx domain.Repositories, auction *domain.Auction) error {
		if auction.Completed {
			return conflict("auction %s is completed", auction.ID)
		}
		return tx.Bids().DeleteByID(ctx, id)
	})
	if err != nil {
		return err
	}

	s.log.Info("Bid deleted", "bid_id", id, "auction_id", bid.AuctionID, "caller_id", caller.UserID)
	return nil
}

func positive(d decimal.Decimal) bool {
	return d.GreaterThan(decimal.Zero)
}
