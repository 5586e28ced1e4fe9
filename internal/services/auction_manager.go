package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lot-auction/internal/domain"
	"lot-auction/pkg/logger"

	"github.com/shopspring/decimal"
)

const defaultLockTimeout = 5 * time.Second

// AuctionManager owns everything that mutates an auction's bid set and
// completion state. All of it runs inside the per-auction critical section:
// the Locker keyed by auction id plus a store transaction holding the auction
// row.
type AuctionManager struct {
	store       domain.Store
	locker      domain.Locker
	clock       domain.Clock
	lockTimeout time.Duration
	log         logger.Logger
}

func NewAuctionManager(
	store domain.Store,
	locker domain.Locker,
	clock domain.Clock,
	lockTimeout time.Duration,
	log logger.Logger,
) *AuctionManager {
	if lockTimeout <= 0 {
		lockTimeout = defaultLockTimeout
	}
	return &AuctionManager{
		store:       store,
		locker:      locker,
		clock:       clock,
		lockTimeout: lockTimeout,
		log:         log,
	}
}

// Exclusive runs fn in the critical section of auctionID with the auction
// freshly loaded inside the transaction.
func (am *AuctionManager) Exclusive(ctx context.Context, auctionID string,
	fn func(ctx context.Context, tx domain.Repositories, auction *domain.Auction) error) error {
	lockCtx, cancel := context.WithTimeout(ctx, am.lockTimeout)
	unlock, err := am.locker.Lock(lockCtx, auctionID)
	cancel()
	if err != nil {
		return domain.StoreFailure("lock auction "+auctionID, err)
	}
	defer unlock()

	return am.store.Atomic(ctx, func(ctx context.Context, tx domain.Repositories) error {
		auction, err := tx.Auctions().FindForUpdate(ctx, auctionID)
		if err != nil {
			return err
		}
		return fn(ctx, tx, auction)
	})
}

// AcceptBid validates and persists a bid from bidderID. If the deadline has
// passed by the time the bid is stored, the auction is closed in the same
// critical section.
func (am *AuctionManager) AcceptBid(ctx context.Context, bidderID, auctionID string, amount decimal.Decimal) (*domain.Bid, *domain.CloseResult, error) {
	var (
		saved  *domain.Bid
		closed *domain.CloseResult
	)

	err := am.Exclusive(ctx, auctionID, func(ctx context.Context, tx domain.Repositories, auction *domain.Auction) error {
		lot, err := tx.Lots().FindByID(ctx, auction.LotID)
		if err != nil {
			return err
		}
		history, err := tx.Bids().FindByAuction(ctx, auction.ID)
		if err != nil {
			return err
		}

		now := am.clock.Now()
		if err := ValidateBid(auction, lot, history, amount, now); err != nil {
			return err
		}

		saved, err = tx.Bids().Save(ctx, &domain.Bid{
			AuctionID: auction.ID,
			BidderID:  bidderID,
			Amount:    amount,
			Time:      now,
		})
		if err != nil {
			return err
		}

		if after := am.clock.Now(); auction.DueForClose(after) {
			closed, err = am.complete(ctx, tx, auction, lot, after)
			return err
		}
		return nil
	})
	if err != nil {
		am.logRejected(auctionID, bidderID, amount, err)
		return nil, nil, err
	}

	am.log.Info("Bid accepted", "auction_id", auctionID, "bid_id", saved.ID,
		"bidder_id", bidderID, "amount", amount.String())
	if closed != nil {
		am.logClosed(closed, "inline")
	}
	return saved, closed, nil
}

func (am *AuctionManager) logRejected(auctionID, bidderID string, amount decimal.Decimal, err error) {
	var tooLow *domain.BidTooLowError
	switch {
	case errors.As(err, &tooLow):
		am.log.Info("Bid rejected", "auction_id", auctionID, "bidder_id", bidderID,
			"amount", amount.String(), "reason", "bid_too_low", "floor", tooLow.Floor.String())
	case errors.Is(err, domain.ErrAuctionNotActive):
		am.log.Info("Bid rejected", "auction_id", auctionID, "bidder_id", bidderID,
			"amount", amount.String(), "reason", "auction_not_active")
	case errors.Is(err, domain.ErrNotFound):
		am.log.Info("Bid rejected", "auction_id", auctionID, "bidder_id", bidderID, "error", err)
	default:
		am.log.Error("Failed to place bid", "auction_id", auctionID, "bidder_id", bidderID, "error", err)
	}
}

// CloseAuction applies the open->completed transition if it is due. Calling it
// on a completed auction, or one whose end time has not passed, is a no-op.
func (am *AuctionManager) CloseAuction(ctx context.Context, auctionID string) (*domain.CloseResult, error) {
	var result *domain.CloseResult

	err := am.Exclusive(ctx, auctionID, func(ctx context.Context, tx domain.Repositories, auction *domain.Auction) error {
		now := am.clock.Now()
		if auction.Completed {
			result = &domain.CloseResult{AuctionID: auction.ID, Reason: "already completed"}
			return nil
		}
		if !auction.DueForClose(now) {
			result = &domain.CloseResult{AuctionID: auction.ID, Reason: "not ended"}
			return nil
		}

		lot, err := tx.Lots().FindByID(ctx, auction.LotID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if lot == nil {
			am.log.Warn("Closing auction without lot", "auction_id", auction.ID, "lot_id", auction.LotID)
		}

		result, err = am.complete(ctx, tx, auction, lot, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	if result.Closed {
		am.logClosed(result, "close")
	}
	return result, nil
}

// complete marks the auction completed and, when it has bids, confirms the
// lot. Caller holds the critical section.
func (am *AuctionManager) complete(ctx context.Context, tx domain.Repositories,
	auction *domain.Auction, lot *domain.Lot, now time.Time) (*domain.CloseResult, error) {
	bids, err := tx.Bids().FindByAuction(ctx, auction.ID)
	if err != nil {
		return nil, err
	}

	auction.Completed = true
	auction.UpdatedAt = now
	if _, err := tx.Auctions().Save(ctx, auction); err != nil {
		return nil, err
	}

	winner := domain.WinningBid(bids)
	if winner != nil && lot != nil {
		lot.Confirmed = true
		if _, err := tx.Lots().Save(ctx, lot); err != nil {
			return nil, err
		}
	}

	return &domain.CloseResult{AuctionID: auction.ID, Closed: true, WinningBid: winner}, nil
}

func (am *AuctionManager) logClosed(result *domain.CloseResult, trigger string) {
	if result.WinningBid == nil {
		am.log.Info("Auction completed without bids", "auction_id", result.AuctionID, "trigger", trigger)
		return
	}
	am.log.Info("Auction completed", "auction_id", result.AuctionID, "trigger", trigger,
		"winning_bid", result.WinningBid.ID, "winner_id", result.WinningBid.BidderID,
		"amount", result.WinningBid.Amount.String())
}

// Sweep closes every auction that is due. Each auction is handled on its own;
// a failure is recorded and the batch continues.
func (am *AuctionManager) Sweep(ctx context.Context) (*domain.SweepResult, error) {
	due, err := am.store.Auctions().FindDue(ctx, am.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("sweep: %w", domain.StoreFailure("find due auctions", err))
	}

	result := &domain.SweepResult{Checked: len(due)}
	for _, auction := range due {
		closed, err := am.closeIsolated(ctx, auction.ID)
		if err != nil {
			am.log.Error("Failed to close auction", "auction_id", auction.ID, "error", err)
			result.Failed = append(result.Failed, domain.SweepFailure{AuctionID: auction.ID, Err: err})
			continue
		}
		if closed.Closed {
			result.Closed++
		}
	}

	return result, nil
}

func (am *AuctionManager) closeIsolated(ctx context.Context, auctionID string) (result *domain.CloseResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("close auction %s: panic: %v", auctionID, p)
		}
	}()
	return am.CloseAuction(ctx, auctionID)
}

// State reports the auction's derived status, floor and leading bid.
func (am *AuctionManager) State(ctx context.Context, auctionID string) (*domain.AuctionState, error) {
	auction, err := am.store.Auctions().FindByID(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	lot, err := am.store.Lots().FindByID(ctx, auction.LotID)
	if err != nil {
		return nil, err
	}
	bids, err := am.store.Bids().FindByAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	return &domain.AuctionState{
		Auction:  auction,
		Status:   auction.Status(am.clock.Now()).String(),
		Floor:    Floor(lot, bids),
		BidCount: len(bids),
		Leading:  domain.WinningBid(bids),
	}, nil
}
