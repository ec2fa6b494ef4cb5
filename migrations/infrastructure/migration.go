package infrastructure

import (
	"database/sql"
	"fmt"
	"log"

	"tcgsearch_api/pkg/dbconnect/migration"
)

const (
	InventorySchemaMigration    = "inventory.schema"
	InventoryItemsMigration     = "inventory.items"
	InventoryNameIndexMigration = "inventory.items_name_idx"
)

// All returns the migrations in the order they must be applied.
func All() []migration.MigrationInterface {
	return []migration.MigrationInterface{
		&MigrationsSchema{},
		&InventorySchema{},
		&InventoryItems{},
		&InventoryNameIndex{},
	}
}

// MigrationsSchema creates the bookkeeping table itself, so it is not recorded in it.
type MigrationsSchema struct{}

func (m *MigrationsSchema) UpMigration(db *sql.DB) error {
	query := `
		CREATE SCHEMA IF NOT EXISTS migrations;
		CREATE TABLE IF NOT EXISTS migrations.migrations (
			name VARCHAR(255) PRIMARY KEY,
			time TIMESTAMP NOT NULL
		);
	`
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

type InventorySchema struct{}

func (m *InventorySchema) UpMigration(db *sql.DB) error {
	return applyOnce(db, InventorySchemaMigration, `CREATE SCHEMA IF NOT EXISTS inventory;`)
}

type InventoryItems struct{}

func (m *InventoryItems) UpMigration(db *sql.DB) error {
	return applyOnce(db, InventoryItemsMigration, `
		CREATE TABLE IF NOT EXISTS inventory.items (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			product_id TEXT,
			language VARCHAR(64) NOT NULL DEFAULT 'EN',
			is_foil BOOLEAN NOT NULL DEFAULT FALSE,
			price_minor BIGINT NOT NULL DEFAULT 0 CHECK (price_minor >= 0),
			stock_count INT NOT NULL DEFAULT 0,
			image_url TEXT NOT NULL DEFAULT '',
			set_name TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMP NOT NULL DEFAULT current_timestamp
		);
	`)
}

type InventoryNameIndex struct{}

func (m *InventoryNameIndex) UpMigration(db *sql.DB) error {
	return applyOnce(db, InventoryNameIndexMigration, `
		CREATE INDEX IF NOT EXISTS inventory_items_lower_name_idx ON inventory.items (lower(name));
		CREATE INDEX IF NOT EXISTS inventory_items_product_id_idx ON inventory.items (product_id);
	`)
}

func applyOnce(db *sql.DB, name, query string) error {
	var migrationExists bool
	err := db.QueryRow("SELECT EXISTS (SELECT 1 FROM migrations.migrations WHERE name = $1)", name).Scan(&migrationExists)
	if err != nil {
		return fmt.Errorf("failed to check migration status: %w", err)
	}
	if migrationExists {
		log.Printf("Migration '%s' already completed. Skipping.", name)
		return nil
	}

	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to apply %s: %w", name, err)
	}
	if _, err := db.Exec("INSERT INTO migrations.migrations (name, time) VALUES ($1, current_timestamp)", name); err != nil {
		return fmt.Errorf("failed to mark '%s' migration as complete: %w", name, err)
	}

	log.Printf("Migration '%s' completed successfully.", name)
	return nil
}
