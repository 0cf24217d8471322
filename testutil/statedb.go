package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

// CreateInMemoryStateDB creates an in-memory SQLite database with the
// client_state table for testing the local state store
func CreateInMemoryStateDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to create in-memory database: %v", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS client_state (
		key TEXT PRIMARY KEY,
		value TEXT
	)`
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		t.Fatalf("Failed to create client_state table: %v", err)
	}

	return db
}

// PutState inserts or replaces a raw key/value pair in the state table
func PutState(t *testing.T, db *sql.DB, key, value string) {
	t.Helper()
	upsertSQL := "INSERT INTO client_state (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value"
	if _, err := db.Exec(upsertSQL, key, value); err != nil {
		t.Fatalf("Failed to insert state: %v", err)
	}
}

// GetState reads a raw value from the state table, "" when absent
func GetState(t *testing.T, db *sql.DB, key string) string {
	t.Helper()
	var value sql.NullString
	err := db.QueryRow("SELECT value FROM client_state WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return ""
	}
	if err != nil {
		t.Fatalf("Failed to read state: %v", err)
	}
	return value.String
}
