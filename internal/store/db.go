package store

import (
	"database/sql"
	"log/slog"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

type Store struct {
	DB *sql.DB
}

func NewStore(dataSourceName string) (*Store, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, err
	}

	// A single connection keeps the foreign_keys pragma in force for every
	// statement and sidesteps SQLITE_BUSY on concurrent writes.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		return nil, err
	}

	return &Store{DB: db}, nil
}

// InitSchema creates all tables directly. The server normally applies the
// .sql migrations instead; this is for the CLI and tests, which may run
// against a database the server has never touched.
func (s *Store) InitSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		address TEXT NOT NULL,
		payment_token TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		image TEXT NOT NULL,
		description TEXT,
		price REAL NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_ref TEXT NOT NULL,
		name TEXT NOT NULL,
		address TEXT NOT NULL,
		total REAL NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS order_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id INTEGER NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		item_id INTEGER NOT NULL REFERENCES items(id),
		quantity INTEGER NOT NULL
	);
	`
	if _, err := s.DB.Exec(query); err != nil {
		slog.Error("Error creating schema", "error", err)
		return err
	}
	return nil
}
