package mysql

import (
	"context"
	"time"

	"lot-auction/internal/domain"
	"lot-auction/pkg/utils"
)

const auctionColumns = `id, lot_id, start_time, end_time, completed, created_at, updated_at`

type AuctionRepository struct {
	db DBTX
}

func NewAuctionRepository(db DBTX) *AuctionRepository {
	return &AuctionRepository{db: db}
}

func scanAuction(s scanner) (*domain.Auction, error) {
	var a domain.Auction
	err := s.Scan(&a.ID, &a.LotID, &a.StartTime, &a.EndTime, &a.Completed, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AuctionRepository) Save(ctx context.Context, auction *domain.Auction) (*domain.Auction, error) {
	a := *auction
	if a.ID == "" {
		a.ID = utils.GenerateID("auction")
	}

	query := `
        INSERT INTO auctions (id, lot_id, start_time, end_time, completed, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        ON DUPLICATE KEY UPDATE start_time = VALUES(start_time), end_time = VALUES(end_time),
            completed = VALUES(completed), updated_at = VALUES(updated_at)
    `
	err := exec(ctx, r.db, "save auction", query,
		a.ID, a.LotID, a.StartTime, a.EndTime, a.Completed, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AuctionRepository) FindByID(ctx context.Context, id string) (*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = ?`
	return queryOne(ctx, r.db, "auction", id, scanAuction, query, id)
}

// FindForUpdate takes the row lock; outside a transaction it behaves like
// FindByID.
func (r *AuctionRepository) FindForUpdate(ctx context.Context, id string) (*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = ? FOR UPDATE`
	return queryOne(ctx, r.db, "auction", id, scanAuction, query, id)
}

func (r *AuctionRepository) FindAll(ctx context.Context) ([]*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions ORDER BY seq`
	return queryAll(ctx, r.db, "auction", scanAuction, query)
}

func (r *AuctionRepository) FindByLot(ctx context.Context, lotID string) ([]*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE lot_id = ? ORDER BY seq`
	return queryAll(ctx, r.db, "auction", scanAuction, query, lotID)
}

func (r *AuctionRepository) FindDue(ctx context.Context, now time.Time) ([]*domain.Auction, error) {
	query := `
        SELECT ` + auctionColumns + `
        FROM auctions
        WHERE completed = FALSE AND end_time <= ?
        ORDER BY end_time, seq
    `
	return queryAll(ctx, r.db, "auction", scanAuction, query, now)
}

func (r *AuctionRepository) DeleteByID(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "auctions", "auction", id)
}
