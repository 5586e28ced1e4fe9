package services

import (
	"context"
	"testing"
	"time"

	"lot-auction/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuctionService_UnauthorizedCallsDoNotMutate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller := f.user(t, "seller", domain.RoleRegistered)
	cat := f.category(t, "Clocks", "")
	lot, err := f.svc.AddLot(ctx, seller, &domain.Lot{Title: "Cuckoo", StartPrice: dec("10"), CategoryID: cat.ID})
	require.NoError(t, err)

	tests := []struct {
		name string
		call func() error
	}{
		{"guest adds lot", func() error {
			_, err := f.svc.AddLot(ctx, domain.Guest(), &domain.Lot{Title: "x", StartPrice: dec("1"), CategoryID: cat.ID})
			return err
		}},
		{"registered creates auction", func() error {
			_, err := f.svc.CreateAuction(ctx, seller, &domain.Auction{LotID: lot.ID, StartTime: epoch, EndTime: epoch.Add(time.Hour)})
			return err
		}},
		{"registered adds category", func() error {
			_, err := f.svc.AddCategory(ctx, seller, &domain.Category{Name: "x"})
			return err
		}},
		{"manager deletes lot", func() error {
			return f.svc.DeleteLot(ctx, domain.Caller{UserID: "m", Role: domain.RoleManager}, lot.ID)
		}},
		{"guest places bid", func() error {
			_, err := f.svc.PlaceBid(ctx, domain.Guest(), &domain.Bid{AuctionID: "any", Amount: dec("5")})
			return err
		}},
		{"admin places bid", func() error {
			_, err := f.svc.PlaceBid(ctx, f.admin, &domain.Bid{AuctionID: "any", Amount: dec("5")})
			return err
		}},
		{"registered grants admin", func() error {
			_, err := f.svc.AddUser(ctx, seller, "mallory", "pw", domain.RoleAdmin)
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.call(), domain.ErrUnauthorizedAction)
		})
	}

	lots, _ := f.store.Lots().FindAll(ctx)
	auctions, _ := f.store.Auctions().FindAll(ctx)
	categories, _ := f.store.Categories().FindAll(ctx)
	users, _ := f.store.Users().FindAll(ctx)
	assert.Len(t, lots, 1)
	assert.Empty(t, auctions)
	assert.Len(t, categories, 1)
	assert.Len(t, users, 1)
}

func TestAuctionService_PlaceBidUsesCaller(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, _ := f.auction(t, "50", time.Hour)
	alice := f.user(t, "alice", domain.RoleRegistered)

	bid, err := f.svc.PlaceBid(ctx, alice, &domain.Bid{AuctionID: a.ID, BidderID: "someone-else", Amount: dec("60")})
	require.NoError(t, err)
	assert.Equal(t, alice.UserID, bid.BidderID)

	_, err = f.svc.PlaceBid(ctx, domain.Caller{Role: domain.RoleRegistered}, &domain.Bid{AuctionID: a.ID, Amount: dec("70")})
	assert.ErrorIs(t, err, domain.ErrUnauthorizedAction, "anonymous REGISTERED caller")

	_, err = f.svc.PlaceBid(ctx, alice, &domain.Bid{Amount: dec("70")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	winner, err := f.svc.GetWinningBid(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, bid.ID, winner.ID)
}

func TestAuctionService_WinningBidNoBids(t *testing.T) {
	f := newFixture(t)
	a, _ := f.auction(t, "50", time.Hour)

	_, err := f.svc.GetWinningBid(context.Background(), a.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.ListBidsByAuction(context.Background(), "auction-missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAuctionService_CreateAuction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, lot := f.auction(t, "50", time.Minute)

	tests := []struct {
		name    string
		in      *domain.Auction
		wantErr error
	}{
		{"missing lot id", &domain.Auction{StartTime: epoch, EndTime: epoch.Add(time.Hour)}, domain.ErrInvalidInput},
		{"end before start", &domain.Auction{LotID: lot.ID, StartTime: epoch, EndTime: epoch}, domain.ErrInvalidInput},
		{"unknown lot", &domain.Auction{LotID: "lot-missing", StartTime: epoch, EndTime: epoch.Add(time.Hour)}, domain.ErrNotFound},
		{"lot already live", &domain.Auction{LotID: lot.ID, StartTime: epoch, EndTime: epoch.Add(time.Hour)}, domain.ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateAuction(ctx, f.admin, tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	f.clock.Advance(time.Minute)
	_, err := f.svc.CloseAuction(ctx, f.admin, a.ID)
	require.NoError(t, err)

	next, err := f.svc.CreateAuction(ctx, f.admin, &domain.Auction{
		LotID: lot.ID, StartTime: f.clock.Now(), EndTime: f.clock.Now().Add(time.Hour),
	})
	require.NoError(t, err, "a completed auction frees the lot")
	assert.NotEqual(t, a.ID, next.ID)
}

func TestAuctionService_UpdateAndDeleteAuction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, _ := f.auction(t, "50", time.Minute)
	alice := f.user(t, "alice", domain.RoleRegistered)
	_, err := f.svc.PlaceBid(ctx, alice, &domain.Bid{AuctionID: a.ID, Amount: dec("55")})
	require.NoError(t, err)

	extended, err := f.svc.UpdateAuction(ctx, f.admin, &domain.Auction{ID: a.ID, StartTime: a.StartTime, EndTime: a.EndTime.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, a.EndTime.Add(time.Hour), extended.EndTime)

	_, err = f.svc.UpdateAuction(ctx, f.admin, &domain.Auction{ID: a.ID, LotID: "lot-other", StartTime: a.StartTime, EndTime: a.EndTime})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	require.NoError(t, f.svc.DeleteAuction(ctx, f.admin, a.ID))

	_, err = f.svc.GetAuction(ctx, a.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	bids, err := f.store.Bids().FindByAuction(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, bids)
}

func TestAuctionService_UpdateCompletedAuction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, _ := f.auction(t, "50", time.Minute)
	f.clock.Advance(time.Minute)
	_, err := f.manager.Sweep(ctx)
	require.NoError(t, err)

	_, err = f.svc.UpdateAuction(ctx, f.admin, &domain.Auction{ID: a.ID, StartTime: epoch, EndTime: epoch.Add(time.Hour)})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestAuctionService_SoldLotCannotBeReauctioned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, lot := f.auction(t, "50", time.Minute)
	alice := f.user(t, "alice", domain.RoleRegistered)
	_, err := f.svc.PlaceBid(ctx, alice, &domain.Bid{AuctionID: a.ID, Amount: dec("60")})
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	res, err := f.svc.CloseAuction(ctx, f.admin, a.ID)
	require.NoError(t, err)
	require.True(t, res.Closed)

	_, err = f.svc.CreateAuction(ctx, f.admin, &domain.Auction{
		LotID: lot.ID, StartTime: f.clock.Now(), EndTime: f.clock.Now().Add(time.Hour),
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	auctions, err := f.store.Auctions().FindByLot(ctx, lot.ID)
	require.NoError(t, err)
	assert.Len(t, auctions, 1)
}

func TestAuctionService_CompletedAuctionIsImmutable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, lot := f.auction(t, "50", time.Minute)
	alice := f.user(t, "alice", domain.RoleRegistered)
	bid, err := f.svc.PlaceBid(ctx, alice, &domain.Bid{AuctionID: a.ID, Amount: dec("75.50")})
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	_, err = f.manager.Sweep(ctx)
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.DeleteBid(ctx, f.admin, bid.ID), domain.ErrConflict)
	assert.ErrorIs(t, f.svc.DeleteAuction(ctx, f.admin, a.ID), domain.ErrConflict)

	winner, err := f.svc.GetWinningBid(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, bid.ID, winner.ID)
	sold, err := f.svc.GetLot(ctx, lot.ID)
	require.NoError(t, err)
	assert.True(t, sold.Confirmed)
	closed, err := f.svc.GetAuction(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, closed.Completed)
}

func TestAuctionService_DeleteCompletedAuctionWithoutBids(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, _ := f.auction(t, "50", time.Minute)
	f.clock.Advance(time.Minute)
	_, err := f.manager.Sweep(ctx)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteAuction(ctx, f.admin, a.ID))
	_, err = f.svc.GetAuction(ctx, a.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAuctionService_UpdateEndedAuctionBeforeClose(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, _ := f.auction(t, "50", time.Minute)
	f.clock.Advance(2 * time.Minute)

	_, err := f.svc.UpdateAuction(ctx, f.admin, &domain.Auction{ID: a.ID, StartTime: a.StartTime, EndTime: f.clock.Now().Add(time.Hour)})
	assert.ErrorIs(t, err, domain.ErrConflict)

	stored, err := f.svc.GetAuction(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.EndTime, stored.EndTime)
	assert.False(t, stored.Completed)

	res, err := f.manager.CloseAuction(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, res.Closed)
}

func TestAuctionService_CategoryTree(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mgr := f.user(t, "manager", domain.RoleManager)

	root := f.category(t, "Furniture", "")
	child, err := f.svc.AddCategory(ctx, mgr, &domain.Category{Name: "Chairs", ParentID: root.ID})
	require.NoError(t, err)
	leaf := f.category(t, "Stools", child.ID)

	_, err = f.svc.AddCategory(ctx, mgr, &domain.Category{Name: "Orphan", ParentID: "category-missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	subs, err := f.svc.ListSubcategories(ctx, root.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, child.ID, subs[0].ID)

	tests := []struct {
		name   string
		parent string
	}{
		{"own parent", root.ID},
		{"under child", child.ID},
		{"under grandchild", leaf.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.UpdateCategory(ctx, mgr, &domain.Category{ID: root.ID, Name: "Furniture", ParentID: tt.parent})
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}

	moved, err := f.svc.UpdateCategory(ctx, mgr, &domain.Category{ID: leaf.ID, Name: "Bar stools", ParentID: root.ID})
	require.NoError(t, err)
	assert.Equal(t, root.ID, moved.ParentID)

	err = f.svc.DeleteCategory(ctx, mgr, root.ID)
	assert.ErrorIs(t, err, domain.ErrConflict, "has children")

	seller := f.user(t, "seller", domain.RoleRegistered)
	_, err = f.svc.AddLot(ctx, seller, &domain.Lot{Title: "Chair", StartPrice: dec("5"), CategoryID: child.ID})
	require.NoError(t, err)
	err = f.svc.DeleteCategory(ctx, mgr, child.ID)
	assert.ErrorIs(t, err, domain.ErrConflict, "has lots")

	require.NoError(t, f.svc.DeleteCategory(ctx, mgr, leaf.ID))
}

func TestAuctionService_Lots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller := f.user(t, "seller", domain.RoleRegistered)
	cat := f.category(t, "Art", "")

	tests := []struct {
		name string
		in   *domain.Lot
		want error
	}{
		{"no title", &domain.Lot{StartPrice: dec("1"), CategoryID: cat.ID}, domain.ErrInvalidInput},
		{"zero price", &domain.Lot{Title: "x", StartPrice: dec("0"), CategoryID: cat.ID}, domain.ErrInvalidInput},
		{"negative price", &domain.Lot{Title: "x", StartPrice: dec("-1"), CategoryID: cat.ID}, domain.ErrInvalidInput},
		{"sub-cent price", &domain.Lot{Title: "x", StartPrice: dec("1.005"), CategoryID: cat.ID}, domain.ErrInvalidInput},
		{"unknown category", &domain.Lot{Title: "x", StartPrice: dec("1"), CategoryID: "category-missing"}, domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.AddLot(ctx, seller, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	lot, err := f.svc.AddLot(ctx, seller, &domain.Lot{Title: " Painting ", StartPrice: dec("300"), CategoryID: cat.ID, Confirmed: true, OwnerID: "x"})
	require.NoError(t, err)
	assert.Equal(t, "Painting", lot.Title)
	assert.Equal(t, seller.UserID, lot.OwnerID)
	assert.False(t, lot.Confirmed)

	updated, err := f.svc.UpdateLot(ctx, seller, &domain.Lot{ID: lot.ID, Title: "Oil painting", StartPrice: dec("350"), CategoryID: cat.ID, OwnerID: "x"})
	require.NoError(t, err)
	assert.Equal(t, "Oil painting", updated.Title)
	assert.Equal(t, seller.UserID, updated.OwnerID)

	now := f.clock.Now()
	_, err = f.svc.CreateAuction(ctx, f.admin, &domain.Auction{LotID: lot.ID, StartTime: now, EndTime: now.Add(time.Hour)})
	require.NoError(t, err)

	updated, err = f.svc.UpdateLot(ctx, seller, &domain.Lot{ID: lot.ID, Title: "Oil on canvas", StartPrice: dec("350"), CategoryID: cat.ID})
	require.NoError(t, err, "update runs inside the live auction")
	assert.Equal(t, "Oil on canvas", updated.Title)

	err = f.svc.DeleteLot(ctx, f.admin, lot.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestAuctionService_Users(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice, err := f.svc.Register(ctx, "alice", "wonderland")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleRegistered, alice.Role)
	assert.NotEqual(t, "wonderland", alice.PasswordHash)

	_, err = f.svc.Register(ctx, " alice ", "other")
	assert.ErrorIs(t, err, domain.ErrConflict)
	_, err = f.svc.Register(ctx, "", "pw")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	got, err := f.svc.Authenticate(ctx, "alice", "wonderland")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)
	_, err = f.svc.Authenticate(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = f.svc.Authenticate(ctx, "nobody", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	bob, err := f.svc.Register(ctx, "bob", "builder")
	require.NoError(t, err)

	_, err = f.svc.UpdateUser(ctx, alice.Caller(), UserUpdate{ID: bob.ID, Username: "bobby"})
	assert.ErrorIs(t, err, domain.ErrUnauthorizedAction, "editing someone else")
	_, err = f.svc.UpdateUser(ctx, alice.Caller(), UserUpdate{ID: alice.ID, Username: "bob"})
	assert.ErrorIs(t, err, domain.ErrConflict)
	_, err = f.svc.UpdateUser(ctx, alice.Caller(), UserUpdate{ID: alice.ID, Role: domain.RoleManager})
	assert.ErrorIs(t, err, domain.ErrUnauthorizedAction)

	_, err = f.svc.UpdateUser(ctx, alice.Caller(), UserUpdate{ID: alice.ID, Password: "looking-glass"})
	require.NoError(t, err)
	_, err = f.svc.Authenticate(ctx, "alice", "looking-glass")
	require.NoError(t, err)

	promoted, err := f.svc.UpdateUser(ctx, f.admin, UserUpdate{ID: bob.ID, Role: domain.RoleManager})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleManager, promoted.Role)

	a, _ := f.auction(t, "10", time.Hour)
	_, err = f.svc.PlaceBid(ctx, alice.Caller(), &domain.Bid{AuctionID: a.ID, Amount: dec("11")})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.DeleteUser(ctx, f.admin, alice.ID), domain.ErrConflict, "user has bids")
	require.NoError(t, f.svc.DeleteUser(ctx, f.admin, bob.ID))
	_, err = f.svc.GetUser(ctx, bob.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
