package memory

import (
	"context"
	"time"

	"lot-auction/internal/domain"
	"lot-auction/pkg/utils"
)

// crud implements domain.Repository[T] over a rowSet.
type crud[T any] struct {
	rows   rowSet[T]
	entity string
	idOf   func(*T) *string
}

func (c crud[T]) Save(ctx context.Context, entity *T) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.StoreFailure("save "+c.entity, err)
	}
	val := *entity
	id := c.idOf(&val)
	if *id == "" {
		*id = utils.GenerateID(c.entity)
	}
	c.rows.put(*id, val)
	return &val, nil
}

func (c crud[T]) FindByID(ctx context.Context, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.StoreFailure("find "+c.entity, err)
	}
	val, ok := c.rows.get(id)
	if !ok {
		return nil, domain.NewNotFound(c.entity, id)
	}
	return &val, nil
}

func (c crud[T]) FindAll(ctx context.Context) ([]*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.StoreFailure("list "+c.entity, err)
	}
	return c.filter(nil), nil
}

func (c crud[T]) DeleteByID(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return domain.StoreFailure("delete "+c.entity, err)
	}
	if !c.rows.remove(id) {
		return domain.NewNotFound(c.entity, id)
	}
	return nil
}

func (c crud[T]) filter(keep func(*T) bool) []*T {
	all := c.rows.list()
	out := make([]*T, 0, len(all))
	for i := range all {
		v := all[i]
		if keep == nil || keep(&v) {
			out = append(out, &v)
		}
	}
	return out
}

type categoryRepo struct{ crud[domain.Category] }

func (r categoryRepo) FindChildren(ctx context.Context, parentID string) ([]*domain.Category, error) {
	return r.filter(func(c *domain.Category) bool { return c.ParentID == parentID }), nil
}

type userRepo struct{ crud[domain.User] }

func (r userRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	found := r.filter(func(u *domain.User) bool { return u.Username == username })
	if len(found) == 0 {
		return nil, domain.NewNotFound("user", username)
	}
	return found[0], nil
}

type lotRepo struct{ crud[domain.Lot] }

func (r lotRepo) FindByCategory(ctx context.Context, categoryID string) ([]*domain.Lot, error) {
	return r.filter(func(l *domain.Lot) bool { return l.CategoryID == categoryID }), nil
}

func (r lotRepo) FindByOwner(ctx context.Context, ownerID string) ([]*domain.Lot, error) {
	return r.filter(func(l *domain.Lot) bool { return l.OwnerID == ownerID }), nil
}

type auctionRepo struct{ crud[domain.Auction] }

// FindForUpdate is a plain read; the in-process Locker provides exclusion.
func (r auctionRepo) FindForUpdate(ctx context.Context, id string) (*domain.Auction, error) {
	return r.FindByID(ctx, id)
}

func (r auctionRepo) FindByLot(ctx context.Context, lotID string) ([]*domain.Auction, error) {
	return r.filter(func(a *domain.Auction) bool { return a.LotID == lotID }), nil
}

func (r auctionRepo) FindDue(ctx context.Context, now time.Time) ([]*domain.Auction, error) {
	return r.filter(func(a *domain.Auction) bool { return a.DueForClose(now) }), nil
}

type bidRepo struct{ crud[domain.Bid] }

func (r bidRepo) FindByAuction(ctx context.Context, auctionID string) ([]*domain.Bid, error) {
	return r.filter(func(b *domain.Bid) bool { return b.AuctionID == auctionID }), nil
}

func (r bidRepo) FindByBidder(ctx context.Context, bidderID string) ([]*domain.Bid, error) {
	return r.filter(func(b *domain.Bid) bool { return b.BidderID == bidderID }), nil
}

type repos struct {
	categories categoryRepo
	users      userRepo
	lots       lotRepo
	auctions   auctionRepo
	bids       bidRepo
}

func (r *repos) Categories() domain.CategoryRepository { return r.categories }
func (r *repos) Users() domain.UserRepository          { return r.users }
func (r *repos) Lots() domain.LotRepository            { return r.lots }
func (r *repos) Auctions() domain.AuctionRepository    { return r.auctions }
func (r *repos) Bids() domain.BidRepository            { return r.bids }
