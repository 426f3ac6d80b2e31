package db

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenDatabase(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := OpenDatabase(dbPath)
	if err != nil {
		t.Fatalf("OpenDatabase failed: %v", err)
	}
	defer db.Close()

	// Verify database file exists
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}

	// Verify WAL mode
	var mode string
	err = db.QueryRow("PRAGMA journal_mode").Scan(&mode)
	if err != nil {
		t.Fatalf("Failed to query journal mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("Expected WAL mode, got %s", mode)
	}
}

func TestOpenDatabaseInMemory(t *testing.T) {
	db, err := OpenDatabase(MemoryPath)
	if err != nil {
		t.Fatalf("OpenDatabase failed: %v", err)
	}
	defer db.Close()

	var name string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='contacts'").Scan(&name)
	if err != nil {
		t.Fatalf("contacts table not found: %v", err)
	}
}

func TestOpenDatabaseInvalidPath(t *testing.T) {
	dbPath := "/invalid/nonexistent/path/that/cannot/be/created/test.db"

	_, err := OpenDatabase(dbPath)
	if err == nil {
		t.Errorf("Expected error for invalid path, but OpenDatabase succeeded")
	}
}

func TestOpenDatabaseReinitialize(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := OpenDatabase(dbPath)
	if err != nil {
		t.Fatalf("Initial OpenDatabase failed: %v", err)
	}
	db.Close()

	// CREATE TABLE IF NOT EXISTS must tolerate an existing schema
	db, err = OpenDatabase(dbPath)
	if err != nil {
		t.Fatalf("OpenDatabase should handle re-initialization gracefully, but got error: %v", err)
	}
	defer db.Close()
}

func TestOpenSeeded(t *testing.T) {
	db, err := OpenSeeded(MemoryPath)
	if err != nil {
		t.Fatalf("OpenSeeded failed: %v", err)
	}
	defer db.Close()

	fixture, err := LoadFixture()
	if err != nil {
		t.Fatalf("LoadFixture failed: %v", err)
	}

	n, err := CountContacts(db)
	if err != nil {
		t.Fatalf("CountContacts failed: %v", err)
	}
	if n != len(fixture) {
		t.Errorf("Expected %d seeded contacts, got %d", len(fixture), n)
	}
}

func TestOpenSeededKeepsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crm.db")

	db, err := OpenSeeded(path)
	if err != nil {
		t.Fatalf("OpenSeeded failed: %v", err)
	}
	if err := DeleteContact(db, 1); err != nil {
		t.Fatalf("DeleteContact failed: %v", err)
	}
	db.Close()

	db, err = OpenSeeded(path)
	if err != nil {
		t.Fatalf("second OpenSeeded failed: %v", err)
	}
	defer db.Close()

	n, err := CountContacts(db)
	if err != nil {
		t.Fatalf("CountContacts failed: %v", err)
	}
	if n != 11 {
		t.Errorf("Expected 11 contacts after reopening, got %d", n)
	}
}
