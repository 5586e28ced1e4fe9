package utils

import (
	"context"
	"database/sql"
	"fmt"

	"lot-auction/internal/config"
	"lot-auction/pkg/logger"

	_ "github.com/go-sql-driver/mysql"
)

// InitializeMysql opens and pings the pool described by cfg.MySQL.
func InitializeMysql(ctx context.Context, cfg *config.Config, log logger.Logger) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	log.Info("Connected to MySQL", "max_open_conns", cfg.MySQL.MaxOpenConns)
	return db, nil
}
