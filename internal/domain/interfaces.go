package domain

import (
	"context"
	"time"
)

// Repository is the generic store contract shared by every entity. FindByID
// and DeleteByID return a NotFoundError for unknown ids; Save assigns an id on
// first save and returns the persisted copy.
type Repository[T any] interface {
	Save(ctx context.Context, entity *T) (*T, error)
	FindByID(ctx context.Context, id string) (*T, error)
	FindAll(ctx context.Context) ([]*T, error)
	DeleteByID(ctx context.Context, id string) error
}

type CategoryRepository interface {
	Repository[Category]
	FindChildren(ctx context.Context, parentID string) ([]*Category, error)
}

type UserRepository interface {
	Repository[User]
	FindByUsername(ctx context.Context, username string) (*User, error)
}

type LotRepository interface {
	Repository[Lot]
	FindByCategory(ctx context.Context, categoryID string) ([]*Lot, error)
	FindByOwner(ctx context.Context, ownerID string) ([]*Lot, error)
}

type AuctionRepository interface {
	Repository[Auction]
	// FindForUpdate loads the auction and, inside Store.Atomic, holds its row
	// lock until the transaction ends.
	FindForUpdate(ctx context.Context, id string) (*Auction, error)
	FindByLot(ctx context.Context, lotID string) ([]*Auction, error)
	// FindDue returns auctions not completed whose end time is at or before now.
	FindDue(ctx context.Context, now time.Time) ([]*Auction, error)
}

type BidRepository interface {
	Repository[Bid]
	// FindByAuction returns the auction's bids in acceptance order.
	FindByAuction(ctx context.Context, auctionID string) ([]*Bid, error)
	FindByBidder(ctx context.Context, bidderID string) ([]*Bid, error)
}

// Repositories groups the per-entity repositories, either bound to the
// store directly or to a running transaction.
type Repositories interface {
	Categories() CategoryRepository
	Users() UserRepository
	Lots() LotRepository
	Auctions() AuctionRepository
	Bids() BidRepository
}

// Store is the persistence façade. Atomic runs fn against transactional
// repositories; if fn returns an error none of its writes are kept.
type Store interface {
	Repositories
	Atomic(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error
	Close() error
}

// Locker provides the per-auction critical section. Locks on different keys
// never contend.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

type Clock interface {
	Now() time.Time
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// Leader election interface
type LeaderElection interface {
	BecomeLeader(ctx context.Context, instanceID string) (bool, error)
	IsLeader(ctx context.Context, instanceID string) (bool, error)
	ReleaseLeadership(ctx context.Context, instanceID string) error
}

// Scheduler interface
type AuctionScheduler interface {
	Start(ctx context.Context) error
	Stop() error
}
