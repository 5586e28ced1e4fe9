package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"lot-auction/internal/domain"

	mysqldrv "github.com/go-sql-driver/mysql"
)

const errDuplicateEntry = 1062

type scanner interface {
	Scan(dest ...any) error
}

func queryOne[T any](ctx context.Context, db DBTX, entity, id string, scan func(scanner) (*T, error),
	query string, args ...any) (*T, error) {
	v, err := scan(db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFound(entity, id)
	}
	if err != nil {
		return nil, domain.StoreFailure("find "+entity, err)
	}
	return v, nil
}

func queryAll[T any](ctx context.Context, db DBTX, entity string, scan func(scanner) (*T, error),
	query string, args ...any) ([]*T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.StoreFailure("list "+entity, err)
	}
	defer rows.Close()

	out := make([]*T, 0)
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, domain.StoreFailure("scan "+entity, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StoreFailure("list "+entity, err)
	}
	return out, nil
}

func exec(ctx context.Context, db DBTX, op string, query string, args ...any) error {
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		var myErr *mysqldrv.MySQLError
		if errors.As(err, &myErr) && myErr.Number == errDuplicateEntry {
			return fmt.Errorf("%w: %s: %s", domain.ErrConflict, op, myErr.Message)
		}
		return domain.StoreFailure(op, err)
	}
	return nil
}

func deleteByID(ctx context.Context, db DBTX, table, entity, id string) error {
	res, err := db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return domain.StoreFailure("delete "+entity, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.StoreFailure("delete "+entity, err)
	}
	if n == 0 {
		return domain.NewNotFound(entity, id)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
