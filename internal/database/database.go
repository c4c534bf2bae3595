package database

import (
	"database/sql"

	_ "modernc.org/sqlite" // SQLite driver
)

// New creates a new database connection pool.
func New(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dataSourceName+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate runs the SQL statements to set up the database schema.
func Migrate(db *sql.DB) error {
	const sqlStmt = `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT NOT NULL PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		phone TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS pets (
		id TEXT NOT NULL PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		breed TEXT,
		age INTEGER,
		color TEXT,
		description TEXT,
		microchip TEXT,
		photo TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS alerts (
		id TEXT NOT NULL PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		pet_id TEXT NOT NULL REFERENCES pets(id),
		lost_date TEXT NOT NULL,
		location TEXT,
		latitude REAL,
		longitude REAL,
		description TEXT,
		contact_phone TEXT,
		contact_email TEXT,
		status TEXT NOT NULL DEFAULT 'active', -- 'active' or 'closed'
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME
	);

	-- At most one active alert per pet, enforced by the store itself so that
	-- concurrent creations cannot race past the application-level check.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_alerts_one_active_per_pet
		ON alerts(pet_id) WHERE status = 'active';

	CREATE INDEX IF NOT EXISTS idx_pets_user ON pets(user_id);
	CREATE INDEX IF NOT EXISTS idx_alerts_user ON alerts(user_id);
	`
	_, err := db.Exec(sqlStmt)
	return err
}
