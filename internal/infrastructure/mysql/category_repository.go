package mysql

import (
	"context"
	"database/sql"

	"lot-auction/internal/domain"
	"lot-auction/pkg/utils"
)

const categoryColumns = `id, name, parent_id`

type CategoryRepository struct {
	db DBTX
}

func NewCategoryRepository(db DBTX) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func scanCategory(s scanner) (*domain.Category, error) {
	var c domain.Category
	var parent sql.NullString
	if err := s.Scan(&c.ID, &c.Name, &parent); err != nil {
		return nil, err
	}
	c.ParentID = parent.String
	return &c, nil
}

func (r *CategoryRepository) Save(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	c := *category
	if c.ID == "" {
		c.ID = utils.GenerateID("category")
	}

	query := `
        INSERT INTO categories (id, name, parent_id)
        VALUES (?, ?, ?)
        ON DUPLICATE KEY UPDATE name = VALUES(name), parent_id = VALUES(parent_id)
    `
	if err := exec(ctx, r.db, "save category", query, c.ID, c.Name, nullString(c.ParentID)); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CategoryRepository) FindByID(ctx context.Context, id string) (*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = ?`
	return queryOne(ctx, r.db, "category", id, scanCategory, query, id)
}

func (r *CategoryRepository) FindAll(ctx context.Context) ([]*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories ORDER BY seq`
	return queryAll(ctx, r.db, "category", scanCategory, query)
}

func (r *CategoryRepository) FindChildren(ctx context.Context, parentID string) ([]*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE parent_id = ? ORDER BY seq`
	return queryAll(ctx, r.db, "category", scanCategory, query, parentID)
}

func (r *CategoryRepository) DeleteByID(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "categories", "category", id)
}
