package services

import (
	"time"

	"lot-auction/internal/domain"

	"github.com/shopspring/decimal"
)

// currencyScale is the number of decimal places money amounts may carry.
const currencyScale = 2

// atCurrencyScale reports whether d has no digits below the smallest currency unit.
func atCurrencyScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(currencyScale))
}

// Floor is the amount a new bid must exceed: the highest accepted bid, or the
// lot's start price while there are none.
func Floor(lot *domain.Lot, history []*domain.Bid) decimal.Decimal {
	floor := lot.StartPrice
	for i, b := range history {
		if i == 0 || b.Amount.GreaterThan(floor) {
			floor = b.Amount
		}
	}
	return floor
}

// ValidateBid decides whether amount may be accepted on auction at now. It
// must run inside the auction's critical section so history is current.
func ValidateBid(auction *domain.Auction, lot *domain.Lot, history []*domain.Bid, amount decimal.Decimal, now time.Time) error {
	if !atCurrencyScale(amount) {
		return invalid("bid amount %s has more than %d decimal places", amount.String(), currencyScale)
	}
	if !auction.AcceptsBids(now) {
		return &domain.AuctionNotActiveError{
			AuctionID: auction.ID,
			Status:    auction.Status(now),
			EndTime:   auction.EndTime,
		}
	}

	floor := Floor(lot, history)
	if amount.LessThanOrEqual(floor) {
		return &domain.BidTooLowError{AuctionID: auction.ID, Amount: amount, Floor: floor}
	}

	return nil
}
