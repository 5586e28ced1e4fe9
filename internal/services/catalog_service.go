package services

import (
	"context"
	"errors"
	"strings"

	"lot-auction/internal/domain"
)

const categoryTreeKey = "categories"

// Categories

func (s *AuctionService) AddCategory(ctx context.Context, caller domain.Caller, in *domain.Category) (*domain.Category, error) {
	if err := Authorize(caller.Role, domain.ActionCreateCategory); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("category name is required")
	}

	var created *domain.Category
	err := s.withLock(ctx, categoryTreeKey, func() error {
		if in.ParentID != "" {
			if _, err := s.store.Categories().FindByID(ctx, in.ParentID); err != nil {
				return err
			}
		}
		var err error
		created, err = s.store.Categories().Save(ctx, &domain.Category{Name: name, ParentID: in.ParentID})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Category created", "category_id", created.ID, "parent_id", created.ParentID)
	return created, nil
}

func (s *AuctionService) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	return s.store.Categories().FindByID(ctx, id)
}

func (s *AuctionService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.store.Categories().FindAll(ctx)
}

func (s *AuctionService) ListSubcategories(ctx context.Context, id string) ([]*domain.Category, error) {
	if _, err := s.store.Categories().FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.store.Categories().FindChildren(ctx, id)
}

// UpdateCategory renames or re-parents a category. A parent that would make
// the category its own ancestor is rejected.
func (s *AuctionService) UpdateCategory(ctx context.Context, caller domain.Caller, in *domain.Category) (*domain.Category, error) {
	if err := Authorize(caller.Role, domain.ActionUpdateCategory); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("category name is required")
	}
	if in.ParentID == in.ID {
		return nil, invalid("category %s cannot be its own parent", in.ID)
	}

	var updated *domain.Category
	err := s.withLock(ctx, categoryTreeKey, func() error {
		current, err := s.store.Categories().FindByID(ctx, in.ID)
		if err != nil {
			return err
		}
		if err := s.checkAncestry(ctx, in.ID, in.ParentID); err != nil {
			return err
		}

		current.Name = name
		current.ParentID = in.ParentID
		updated, err = s.store.Categories().Save(ctx, current)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Category updated", "category_id", updated.ID, "parent_id", updated.ParentID)
	return updated, nil
}

// checkAncestry walks up from parentID and fails if it reaches id.
func (s *AuctionService) checkAncestry(ctx context.Context, id, parentID string) error {
	seen := make(map[string]bool)
	for cur := parentID; cur != ""; {
		if cur == id {
			return invalid("category %s cannot be moved under its descendant %s", id, parentID)
		}
		if seen[cur] {
			return invalid("category tree already contains a cycle at %s", cur)
		}
		seen[cur] = true

		c, err := s.store.Categories().FindByID(ctx, cur)
		if err != nil {
			return err
		}
		cur = c.ParentID
	}
	return nil
}

// DeleteCategory refuses to remove a category that still has children or lots.
func (s *AuctionService) DeleteCategory(ctx context.Context, caller domain.Caller, id string) error {
	if err := Authorize(caller.Role, domain.ActionDeleteCategory); err != nil {
		return err
	}

	err := s.withLock(ctx, categoryTreeKey, func() error {
		if _, err := s.store.Categories().FindByID(ctx, id); err != nil {
			return err
		}
		children, err := s.store.Categories().FindChildren(ctx, id)
		if err != nil {
			return err
		}
		if len(children) > 0 {
			return conflict("category %s has %d subcategories", id, len(children))
		}
		lots, err := s.store.Lots().FindByCategory(ctx, id)
		if err != nil {
			return err
		}
		if len(lots) > 0 {
			return conflict("category %s has %d lots", id, len(lots))
		}
		return s.store.Categories().DeleteByID(ctx, id)
	})
	if err != nil {
		return err
	}

	s.log.Info("Category deleted", "category_id", id, "caller_id", caller.UserID)
	return nil
}

// Lots

// AddLot creates a lot owned by the caller. Confirmed always starts false.
func (s *AuctionService) AddLot(ctx context.Context, caller domain.Caller, in *domain.Lot) (*domain.Lot, error) {
	if err := Authorize(caller.Role, domain.ActionCreateLot); err != nil {
		return nil, err
	}
	if err := validateLot(in); err != nil {
		return nil, err
	}
	if _, err := s.store.Categories().FindByID(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	created, err := s.store.Lots().Save(ctx, &domain.Lot{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		StartPrice:  in.StartPrice,
		CategoryID:  in.CategoryID,
		OwnerID:     caller.UserID,
		CreatedAt:   s.clock.Now(),
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Lot created", "lot_id", created.ID, "owner_id", created.OwnerID,
		"start_price", created.StartPrice.String())
	return created, nil
}

func validateLot(in *domain.Lot) error {
	if strings.TrimSpace(in.Title) == "" {
		return invalid("lot title is required")
	}
	if in.CategoryID == "" {
		return invalid("lot category is required")
	}
	if !positive(in.StartPrice) {
		return invalid("start price must be positive, got %s", in.StartPrice.String())
	}
	if !atCurrencyScale(in.StartPrice) {
		return invalid("start price %s has more than %d decimal places", in.StartPrice.String(), currencyScale)
	}
	return nil
}

func (s *AuctionService) GetLot(ctx context.Context, id string) (*domain.Lot, error) {
	return s.store.Lots().FindByID(ctx, id)
}

func (s *AuctionService) ListLots(ctx context.Context) ([]*domain.Lot, error) {
	return s.store.Lots().FindAll(ctx)
}

// UpdateLot edits the descriptive fields of a lot. Owner and confirmed are
// kept from the stored row. While the lot has a live auction the write runs in
// that auction's critical section so it cannot interleave with a close.
func (s *AuctionService) UpdateLot(ctx context.Context, caller domain.Caller, in *domain.Lot) (*domain.Lot, error) {
	if err := Authorize(caller.Role, domain.ActionUpdateLot); err != nil {
		return nil, err
	}
	if err := validateLot(in); err != nil {
		return nil, err
	}
	if _, err := s.store.Categories().FindByID(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	apply := func(ctx context.Context, lots domain.LotRepository) (*domain.Lot, error) {
		current, err := lots.FindByID(ctx, in.ID)
		if err != nil {
			return nil, err
		}
		current.Title = strings.TrimSpace(in.Title)
		current.Description = in.Description
		current.StartPrice = in.StartPrice
		current.CategoryID = in.CategoryID
		return lots.Save(ctx, current)
	}

	live, err := s.liveAuction(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	var updated *domain.Lot
	if live == nil {
		updated, err = apply(ctx, s.store.Lots())
	} else {
		err = s.manager.Exclusive(ctx, live.ID, func(ctx context.Context, tx domain.Repositories, _ *domain.Auction) error {
			var err error
			updated, err = apply(ctx, tx.Lots())
			return err
		})
	}
	if err != nil {
		return nil, err
	}

	s.log.Info("Lot updated", "lot_id", updated.ID, "caller_id", caller.UserID)
	return updated, nil
}

func (s *AuctionService) liveAuction(ctx context.Context, lotID string) (*domain.Auction, error) {
	if _, err := s.store.Lots().FindByID(ctx, lotID); err != nil {
		return nil, err
	}
	auctions, err := s.store.Auctions().FindByLot(ctx, lotID)
	if err != nil {
		return nil, err
	}
	for _, a := range auctions {
		if !a.Completed {
			return a, nil
		}
	}
	return nil, nil
}

// DeleteLot refuses to remove a lot that any auction still references.
func (s *AuctionService) DeleteLot(ctx context.Context, caller domain.Caller, id string) error {
	if err := Authorize(caller.Role, domain.ActionDeleteLot); err != nil {
		return err
	}

	err := s.withLock(ctx, "lot:"+id, func() error {
		if _, err := s.store.Lots().FindByID(ctx, id); err != nil {
			return err
		}
		auctions, err := s.store.Auctions().FindByLot(ctx, id)
		if err != nil {
			return err
		}
		if len(auctions) > 0 {
			return conflict("lot %s is referenced by auction %s", id, auctions[0].ID)
		}
		return s.store.Lots().DeleteByID(ctx, id)
	})
	if err != nil {
		return err
	}

	s.log.Info("Lot deleted", "lot_id", id, "caller_id", caller.UserID)
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
