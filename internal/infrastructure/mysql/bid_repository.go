package mysql

import (
	"context"

	"lot-auction/internal/domain"
	"lot-auction/pkg/utils"
)

const bidColumns = `id, auction_id, bidder_id, amount, placed_at`

type BidRepository struct {
	db DBTX
}

func NewBidRepository(db DBTX) *BidRepository {
	return &BidRepository{db: db}
}

func scanBid(s scanner) (*domain.Bid, error) {
	var b domain.Bid
	if err := s.Scan(&b.ID, &b.AuctionID, &b.BidderID, &b.Amount, &b.Time); err != nil {
		return nil, err
	}
	return &b, nil
}

// Save inserts a bid. Bids are immutable, so saving an existing id fails.
func (r *BidRepository) Save(ctx context.Context, bid *domain.Bid) (*domain.Bid, error) {
	b := *bid
	if b.ID == "" {
		b.ID = utils.GenerateID("bid")
	}

	query := `
        INSERT INTO bids (id, auction_id, bidder_id, amount, placed_at)
        VALUES (?, ?, ?, ?, ?)
    `
	if err := exec(ctx, r.db, "save bid", query, b.ID, b.AuctionID, b.BidderID, b.Amount, b.Time); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BidRepository) FindByID(ctx context.Context, id string) (*domain.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE id = ?`
	return queryOne(ctx, r.db, "bid", id, scanBid, query, id)
}

func (r *BidRepository) FindAll(ctx context.Context) ([]*domain.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids ORDER BY seq`
	return queryAll(ctx, r.db, "bid", scanBid, query)
}

func (r *BidRepository) FindByAuction(ctx context.Context, auctionID string) ([]*domain.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE auction_id = ? ORDER BY seq`
	return queryAll(ctx, r.db, "bid", scanBid, query, auctionID)
}

func (r *BidRepository) FindByBidder(ctx context.Context, bidderID string) ([]*domain.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE bidder_id = ? ORDER BY seq`
	return queryAll(ctx, r.db, "bid", scanBid, query, bidderID)
}

func (r *BidRepository) DeleteByID(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "bids", "bid", id)
}
