// Package mysql is the MySQL-backed store. Every repository works against a
// DBTX so the same code serves plain reads and Store.Atomic transactions.
package mysql

import (
	"context"
	"database/sql"

	"lot-auction/internal/domain"
)

var _ domain.Store = (*Store)(nil)

type repos struct {
	categories *CategoryRepository
	users      *UserRepository
	lots       *LotRepository
	auctions   *AuctionRepository
	bids       *BidRepository
}

func newRepos(db DBTX) *repos {
	return &repos{
		categories: NewCategoryRepository(db),
		users:      NewUserRepository(db),
		lots:       NewLotRepository(db),
		auctions:   NewAuctionRepository(db),
		bids:       NewBidRepository(db),
	}
}

func (r *repos) Categories() domain.CategoryRepository { return r.categories }
func (r *repos) Users() domain.UserRepository          { return r.users }
func (r *repos) Lots() domain.LotRepository            { return r.lots }
func (r *repos) Auctions() domain.AuctionRepository    { return r.auctions }
func (r *repos) Bids() domain.BidRepository            { return r.bids }

type Store struct {
	*repos
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{repos: newRepos(db), db: db}
}

// Atomic runs fn in a READ COMMITTED transaction. Rows read through
// FindForUpdate stay locked until fn returns.
func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, tx domain.Repositories) error) error {
	opts := &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	err := WithTx(ctx, s.db, opts, func(ctx context.Context, tx DBTX) error {
		return fn(ctx, newRepos(tx))
	})
	return domain.StoreFailure("transaction", err)
}

func (s *Store) Close() error {
	return s.db.Close()
}
