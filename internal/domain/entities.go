package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Caller returns the identity a request made by this user carries.
func (u *User) Caller() Caller {
	return Caller{UserID: u.ID, Role: u.Role}
}

// Category forms a tree through ParentID. Children are never stored on the
// parent; they are looked up by ParentID.
type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parent_id,omitempty"`
}

type Lot struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	StartPrice  decimal.Decimal `json:"start_price"`
	Confirmed   bool            `json:"confirmed"`
	CategoryID  string          `json:"category_id"`
	OwnerID     string          `json:"owner_id"`
	CreatedAt   time.Time       `json:"created_at"`
}

type Auction struct {
	ID        string    `json:"id"`
	LotID     string    `json:"lot_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AuctionStatus int

const (
	AuctionPending AuctionStatus = iota
	AuctionActive
	AuctionExpired
	AuctionCompleted
)

func (s AuctionStatus) String() string {
	switch s {
	case AuctionPending:
		return "pending"
	case AuctionActive:
		return "active"
	case AuctionExpired:
		return "expired"
	case AuctionCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Status derives the lifecycle state at now. Expired means the end time has
// passed but nothing has closed the auction yet.
func (a *Auction) Status(now time.Time) AuctionStatus {
	switch {
	case a.Completed:
		return AuctionCompleted
	case !now.Before(a.EndTime):
		return AuctionExpired
	case now.Before(a.StartTime):
		return AuctionPending
	default:
		return AuctionActive
	}
}

// AcceptsBids reports whether a bid may be placed at now.
func (a *Auction) AcceptsBids(now time.Time) bool {
	return a.Status(now) == AuctionActive
}

// DueForClose reports whether the open->completed transition should fire at now.
func (a *Auction) DueForClose(now time.Time) bool {
	return a.Status(now) == AuctionExpired
}

// Bid is immutable once persisted.
type Bid struct {
	ID        string          `json:"id"`
	AuctionID string          `json:"auction_id"`
	BidderID  string          `json:"bidder_id"`
	Amount    decimal.Decimal `json:"amount"`
	Time      time.Time       `json:"time"`
}

// Outranks reports whether b beats other: higher amount first, then the
// earlier timestamp, then the smaller id so the order is total.
func (b *Bid) Outranks(other *Bid) bool {
	if c := b.Amount.Cmp(other.Amount); c != 0 {
		return c > 0
	}
	if !b.Time.Equal(other.Time) {
		return b.Time.Before(other.Time)
	}
	return b.ID < other.ID
}

// WinningBid returns the top-ranked bid or nil when there are none.
func WinningBid(bids []*Bid) *Bid {
	var winner *Bid
	for _, b := range bids {
		if winner == nil || b.Outranks(winner) {
			winner = b
		}
	}
	return winner
}

// CloseResult describes what a close attempt did.
type CloseResult struct {
	AuctionID string `json:"auction_id"`
	// Closed is true only for the attempt that performed the transition.
	Closed     bool   `json:"closed"`
	WinningBid *Bid   `json:"winning_bid,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

type SweepFailure struct {
	AuctionID string `json:"auction_id"`
	Err       error  `json:"-"`
}

type SweepResult struct {
	Checked int            `json:"checked"`
	Closed  int            `json:"closed"`
	Failed  []SweepFailure `json:"failed,omitempty"`
}

// AuctionState is the read model returned to callers asking about one auction.
type AuctionState struct {
	Auction  *Auction        `json:"auction"`
	Status   string          `json:"status"`
	Floor    decimal.Decimal `json:"floor"`
	BidCount int             `json:"bid_count"`
	Leading  *Bid            `json:"leading_bid,omitempty"`
}
