package services

import (
	"context"
	"testing"
	"time"

	"lot-auction/internal/auth"
	"lot-auction/internal/domain"
	"lot-auction/internal/infrastructure/memory"
	"lot-auction/pkg/logger"
	"lot-auction/pkg/utils"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var epoch = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store   *memory.Store
	clock   *utils.ManualClock
	manager *AuctionManager
	svc     *AuctionService

	admin domain.Caller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.NewNop()
	store := memory.NewStore()
	clock := utils.NewManualClock(epoch)
	locker := NewKeyedMutex()
	manager := NewAuctionManager(store, locker, clock, time.Second, log)
	svc := NewAuctionService(store, manager, locker, auth.BcryptHasher{Cost: bcrypt.MinCost}, clock, time.Second, log)

	return &fixture{store: store, clock: clock, manager: manager, svc: svc, admin: domain.System()}
}

func (f *fixture) user(t *testing.T, name string, role domain.Role) domain.Caller {
	t.Helper()
	u, err := f.svc.AddUser(context.Background(), f.admin, name, "secret", role)
	require.NoError(t, err)
	return u.Caller()
}

func (f *fixture) category(t *testing.T, name, parent string) *domain.Category {
	t.Helper()
	c, err := f.svc.AddCategory(context.Background(), f.admin, &domain.Category{Name: name, ParentID: parent})
	require.NoError(t, err)
	return c
}

func (f *fixture) lot(t *testing.T, owner domain.Caller, price string) *domain.Lot {
	t.Helper()
	c := f.category(t, "cat-"+price, "")
	l, err := f.svc.AddLot(context.Background(), owner, &domain.Lot{Title: "lot", StartPrice: dec(price), CategoryID: c.ID})
	require.NoError(t, err)
	return l
}

// auction opens a lot auction that runs from the current clock for d.
func (f *fixture) auction(t *testing.T, price string, d time.Duration) (*domain.Auction, *domain.Lot) {
	t.Helper()
	seller := f.user(t, "seller-"+price+"-"+d.String(), domain.RoleRegistered)
	l := f.lot(t, seller, price)
	now := f.clock.Now()
	a, err := f.svc.CreateAuction(context.Background(), f.admin, &domain.Auction{LotID: l.ID, StartTime: now, EndTime: now.Add(d)})
	require.NoError(t, err)
	return a, l
}
