// Package memory is a concurrency-safe in-memory implementation of the
// domain.Store façade. Transactions buffer their writes and publish them under
// a short store lock on commit, so a failed transaction leaves nothing behind.
package memory

import (
	"context"
	"sync"
	"sync/atomic"

	"lot-auction/internal/domain"
)

type Store struct {
	*repos

	mu  sync.RWMutex
	seq atomic.Uint64

	categoryRows *committed[domain.Category]
	userRows     *committed[domain.User]
	lotRows      *committed[domain.Lot]
	auctionRows  *committed[domain.Auction]
	bidRows      *committed[domain.Bid]
}

func NewStore() *Store {
	s := &Store{}
	s.categoryRows = &committed[domain.Category]{mu: &s.mu, seq: s.nextSeq, t: newTable[domain.Category]()}
	s.userRows = &committed[domain.User]{mu: &s.mu, seq: s.nextSeq, t: newTable[domain.User]()}
	s.lotRows = &committed[domain.Lot]{mu: &s.mu, seq: s.nextSeq, t: newTable[domain.Lot]()}
	s.auctionRows = &committed[domain.Auction]{mu: &s.mu, seq: s.nextSeq, t: newTable[domain.Auction]()}
	s.bidRows = &committed[domain.Bid]{mu: &s.mu, seq: s.nextSeq, t: newTable[domain.Bid]()}
	s.repos = newRepos(s.categoryRows, s.userRows, s.lotRows, s.auctionRows, s.bidRows)
	return s
}

func (s *Store) nextSeq() uint64 {
	return s.seq.Add(1)
}

func newRepos(
	categories rowSet[domain.Category],
	users rowSet[domain.User],
	lots rowSet[domain.Lot],
	auctions rowSet[domain.Auction],
	bids rowSet[domain.Bid],
) *repos {
	return &repos{
		categories: categoryRepo{crud[domain.Category]{rows: categories, entity: "category", idOf: func(c *domain.Category) *string { return &c.ID }}},
		users:      userRepo{crud[domain.User]{rows: users, entity: "user", idOf: func(u *domain.User) *string { return &u.ID }}},
		lots:       lotRepo{crud[domain.Lot]{rows: lots, entity: "lot", idOf: func(l *domain.Lot) *string { return &l.ID }}},
		auctions:   auctionRepo{crud[domain.Auction]{rows: auctions, entity: "auction", idOf: func(a *domain.Auction) *string { return &a.ID }}},
		bids:       bidRepo{crud[domain.Bid]{rows: bids, entity: "bid", idOf: func(b *domain.Bid) *string { return &b.ID }}},
	}
}

type tx struct {
	categories *overlay[domain.Category]
	users      *overlay[domain.User]
	lots       *overlay[domain.Lot]
	auctions   *overlay[domain.Auction]
	bids       *overlay[domain.Bid]
}

func (s *Store) begin() (*tx, *repos) {
	t := &tx{
		categories: newOverlay(s.categoryRows),
		users:      newOverlay(s.userRows),
		lots:       newOverlay(s.lotRows),
		auctions:   newOverlay(s.auctionRows),
		bids:       newOverlay(s.bidRows),
	}
	return t, newRepos(t.categories, t.users, t.lots, t.auctions, t.bids)
}

func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, tx domain.Repositories) error) error {
	t, r := s.begin()
	if err := fn(ctx, r); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return domain.StoreFailure("commit", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t.categories.apply()
	t.users.apply()
	t.lots.apply()
	t.auctions.apply()
	t.bids.apply()
	return nil
}

func (s *Store) Close() error {
	return nil
}
