package mysql

import (
	"context"

	"lot-auction/internal/domain"
	"lot-auction/pkg/utils"
)

const userColumns = `id, username, password_hash, role, created_at`

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(s scanner) (*domain.User, error) {
	var u domain.User
	var role string
	if err := s.Scan(&u.ID, &u.Username, &u.PasswordHash, &role, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	return &u, nil
}

func (r *UserRepository) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	u := *user
	if u.ID == "" {
		u.ID = utils.GenerateID("user")
	}

	query := `
        INSERT INTO users (id, username, password_hash, role, created_at)
        VALUES (?, ?, ?, ?, ?)
        ON DUPLICATE KEY UPDATE username = VALUES(username),
            password_hash = VALUES(password_hash), role = VALUES(role)
    `
	err := exec(ctx, r.db, "save user", query,
		u.ID, u.Username, u.PasswordHash, string(u.Role), u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return queryOne(ctx, r.db, "user", id, scanUser, query, id)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	return queryOne(ctx, r.db, "user", username, scanUser, query, username)
}

func (r *UserRepository) FindAll(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY seq`
	return queryAll(ctx, r.db, "user", scanUser, query)
}

func (r *UserRepository) DeleteByID(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "users", "user", id)
}
