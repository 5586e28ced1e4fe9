package handlers

import (
	"errors"
	"time"

	"lot-auction/internal/domain"

	"github.com/shopspring/decimal"
)

type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

type UserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type CategoryRequest struct {
	Name     string `json:"name"`
	ParentID string `json:"parent_id"`
}

type LotRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	StartPrice  decimal.Decimal `json:"start_price"`
	CategoryID  string          `json:"category_id"`
}

func (r LotRequest) lot(id string) *domain.Lot {
	return &domain.Lot{
		ID:          id,
		Title:       r.Title,
		Description: r.Description,
		StartPrice:  r.StartPrice,
		CategoryID:  r.CategoryID,
	}
}

type AuctionRequest struct {
	LotID     string    `json:"lot_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

func (r AuctionRequest) auction(id string) *domain.Auction {
	return &domain.Auction{ID: id, LotID: r.LotID, StartTime: r.StartTime, EndTime: r.EndTime}
}

// BidRequest may name a bidder, but the bid is always placed as the caller.
type BidRequest struct {
	AuctionID string          `json:"auction_id"`
	BidderID  string          `json:"bidder_id,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
}

func (r BidRequest) validate() error {
	if r.AuctionID == "" {
		return errors.New("auction_id is required")
	}
	if !r.Amount.IsPositive() {
		return errors.New("amount must be positive")
	}
	return nil
}

func (r BidRequest) bid() *domain.Bid {
	return &domain.Bid{AuctionID: r.AuctionID, BidderID: r.BidderID, Amount: r.Amount}
}
