package catalog

import (
	"context"
	"fmt"
)

// schema is portable between PostgreSQL and SQLite.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS brands (
		id   BIGINT PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id          BIGINT PRIMARY KEY,
		name        TEXT NOT NULL,
		brand_id    BIGINT REFERENCES brands(id),
		status      TEXT,
		rating      DOUBLE PRECISION,
		description TEXT,
		created_at  TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS prices (
		id         BIGINT PRIMARY KEY,
		product_id BIGINT NOT NULL REFERENCES products(id),
		amount     BIGINT NOT NULL,
		is_active  BOOLEAN NOT NULL DEFAULT FALSE,
		start_date TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_prices_product ON prices (product_id)`,
	`CREATE TABLE IF NOT EXISTS specifications (
		product_id   BIGINT PRIMARY KEY REFERENCES products(id),
		screen       TEXT,
		rear_camera  TEXT,
		front_camera TEXT,
		chipset      TEXT,
		ram          TEXT,
		storage      TEXT,
		battery      TEXT,
		os           TEXT,
		weight       TEXT
	)`,
}

// Migrate creates the catalog tables when they are missing.
func Migrate(ctx context.Context, db DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i, err)
		}
	}
	return nil
}
