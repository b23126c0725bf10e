// backend/src/database/database.go
package database

import (
	"database/sql"
	"fmt"
	stdlog "log"

	"github.com/username/finentry/backend/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

// schemaStatements creates every table the application needs. The schema is
// additive only: CREATE TABLE IF NOT EXISTS, no versioned migrations.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS movement_types (
		id   INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id   INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS payment_methods (
		id   INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS product_types (
		id   INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		transaction_date  TEXT NOT NULL,
		created_at        TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
		movement_type_id  INTEGER NOT NULL REFERENCES movement_types(id),
		amount            NUMERIC NOT NULL,
		currency          TEXT NOT NULL DEFAULT 'EUR',
		category_id       INTEGER NOT NULL REFERENCES categories(id),
		payment_method_id INTEGER REFERENCES payment_methods(id),
		source            TEXT,
		notes             TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS investments (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		investment_date TEXT NOT NULL,
		created_at      TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
		ticker          TEXT NOT NULL,
		product_type_id INTEGER NOT NULL REFERENCES product_types(id),
		unit_price      NUMERIC NOT NULL,
		quantity        NUMERIC NOT NULL,
		total_value     NUMERIC NOT NULL,
		currency        TEXT NOT NULL DEFAULT 'EUR',
		notes           TEXT
	)`,
}

func InitDB(databasePath string) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(on)", databasePath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	// Limit open connections to 1 for SQLite to avoid locking issues
	db.SetMaxOpenConns(1)

	if err = db.Ping(); err != nil {
		stdlog.Fatalf("failed to ping database: %v", err)
	}
	DB = db
	logger.L.Info("Database connection established with WAL mode, busy_timeout, and foreign_keys enabled.")
}

// EnsureSchema creates any missing tables on the given connection.
// Safe to call on every startup.
func EnsureSchema(db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

// InitSchema applies the schema to the global connection, terminating the
// process on failure. Mirrors the startup contract of InitDB.
func InitSchema() {
	if DB == nil {
		stdlog.Fatalf("database connection is not initialized before schema creation")
	}
	if err := EnsureSchema(DB); err != nil {
		logger.L.Error("Failed to create database schema", "error", err)
		stdlog.Fatalf("failed to create database schema: %v", err)
	}
	logger.L.Info("Database schema ensured.")
}
