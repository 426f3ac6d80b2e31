// ABOUTME: Database connection management and initialization
// ABOUTME: Opens the SQLite contact store, in memory unless a file path is given
package db

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// MemoryPath opens a store that lives only as long as the process.
const MemoryPath = ":memory:"

func OpenDatabase(path string) (*sql.DB, error) {
	dsn := MemoryPath
	if path != "" && path != MemoryPath {
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, errors.Wrap(err, "failed to create database directory")
		}
		dsn = path + "?_journal_mode=WAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	// One connection: every :memory: connection is its own database, and a
	// single connection serialises all writes.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Initialize schema
	if err := InitSchema(db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to initialize schema")
	}

	return db, nil
}

// OpenSeeded opens the store and loads the bundled contact fixture into it.
// A file-backed store that already holds contacts is left as is.
func OpenSeeded(path string) (*sql.DB, error) {
	database, err := OpenDatabase(path)
	if err != nil {
		return nil, err
	}

	existing, err := CountContacts(database)
	if err != nil {
		database.Close()
		return nil, err
	}
	if existing > 0 {
		return database, nil
	}

	contacts, err := LoadFixture()
	if err != nil {
		database.Close()
		return nil, err
	}

	if err := SeedContacts(database, contacts); err != nil {
		database.Close()
		return nil, err
	}

	return database, nil
}
