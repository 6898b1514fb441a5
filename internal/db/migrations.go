package db

import (
	"database/sql"
	"fmt"
)

// migrations is an ordered list of SQL statements to run.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS buildings (
		id         INTEGER PRIMARY KEY,
		name       TEXT    NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS apartments (
		id          INTEGER NOT NULL,
		building_id INTEGER NOT NULL REFERENCES buildings(id) ON DELETE CASCADE,
		position    INTEGER NOT NULL,
		status      TEXT    NOT NULL DEFAULT 'available',
		book_price  REAL    NOT NULL DEFAULT 0,
		buy_price   REAL    NOT NULL DEFAULT 0,
		PRIMARY KEY (building_id, id)
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id           INTEGER PRIMARY KEY,
		building_id  INTEGER NOT NULL,
		apartment_id INTEGER NOT NULL,
		start_date   TEXT    NOT NULL,
		end_date     TEXT    NOT NULL,
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_apartment ON bookings (apartment_id)`,
}

// migrate runs all migrations in order.
func migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
