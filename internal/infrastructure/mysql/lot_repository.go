package mysql

import (
	"context"

	"lot-auction/internal/domain"
	"lot-auction/pkg/utils"
)

const lotColumns = `id, title, description, start_price, confirmed, category_id, owner_id, created_at`

type LotRepository struct {
	db DBTX
}

func NewLotRepository(db DBTX) *LotRepository {
	return &LotRepository{db: db}
}

func scanLot(s scanner) (*domain.Lot, error) {
	var l domain.Lot
	err := s.Scan(&l.ID, &l.Title, &l.Description, &l.StartPrice, &l.Confirmed,
		&l.CategoryID, &l.OwnerID, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LotRepository) Save(ctx context.Context, lot *domain.Lot) (*domain.Lot, error) {
	l := *lot
	if l.ID == "" {
		l.ID = utils.GenerateID("lot")
	}

	query := `
        INSERT INTO lots (id, title, description, start_price, confirmed, category_id, owner_id, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON DUPLICATE KEY UPDATE title = VALUES(title), description = VALUES(description),
            start_price = VALUES(start_price), confirmed = VALUES(confirmed),
            category_id = VALUES(category_id)
    `
	err := exec(ctx, r.db, "save lot", query,
		l.ID, l.Title, l.Description, l.StartPrice, l.Confirmed, l.CategoryID, l.OwnerID, l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LotRepository) FindByID(ctx context.Context, id string) (*domain.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE id = ?`
	return queryOne(ctx, r.db, "lot", id, scanLot, query, id)
}

func (r *LotRepository) FindAll(ctx context.Context) ([]*domain.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots ORDER BY seq`
	return queryAll(ctx, r.db, "lot", scanLot, query)
}

func (r *LotRepository) FindByCategory(ctx context.Context, categoryID string) ([]*domain.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE category_id = ? ORDER BY seq`
	return queryAll(ctx, r.db, "lot", scanLot, query, categoryID)
}

func (r *LotRepository) FindByOwner(ctx context.Context, ownerID string) ([]*domain.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE owner_id = ? ORDER BY seq`
	return queryAll(ctx, r.db, "lot", scanLot, query, ownerID)
}

func (r *LotRepository) DeleteByID(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "lots", "lot", id)
}
