package internal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const (
	draftKey      = "onboarding_draft"
	watermarksKey = "thread_watermarks"
)

// StateStore is a durable local key/value mirror for in-progress onboarding
// fields and per-thread read watermarks. Durability is best-effort: every
// read, write or parse failure is logged and treated as "absent" rather
// than propagated, so the store never fails its caller.
type StateStore struct {
	db *sql.DB
}

// OpenStateStore opens (or creates) the local state database at path
func OpenStateStore(path string) (*StateStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("state database ping failed: %w", err)
	}
	store := &StateStore{db: db}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewStateStore wraps an already opened database, creating the KV table
func NewStateStore(db *sql.DB) (*StateStore, error) {
	store := &StateStore{db: db}
	if err := store.init(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *StateStore) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS client_state (
		key TEXT PRIMARY KEY,
		value TEXT
	)`)
	if err != nil {
		return fmt.Errorf("failed to create client_state table: %w", err)
	}
	return nil
}

// Close closes the underlying database
func (s *StateStore) Close() error {
	return s.db.Close()
}

func (s *StateStore) get(key string) (string, bool) {
	var value sql.NullString
	err := s.db.QueryRow("SELECT value FROM client_state WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false
	}
	if err != nil {
		LogWarn("State store read failed for %s: %v", key, err)
		return "", false
	}
	if !value.Valid {
		return "", false
	}
	return value.String, true
}

func (s *StateStore) put(key, value string) {
	_, err := s.db.Exec(
		"INSERT INTO client_state (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		LogWarn("State store write failed for %s: %v", key, err)
	}
}

func (s *StateStore) delete(key string) {
	if _, err := s.db.Exec("DELETE FROM client_state WHERE key = ?", key); err != nil {
		LogWarn("State store delete failed for %s: %v", key, err)
	}
}

// LoadDraft returns the persisted onboarding draft, or an empty draft when
// none exists or the stored value cannot be parsed
func (s *StateStore) LoadDraft() OnboardingDraft {
	raw, ok := s.get(draftKey)
	if !ok {
		return OnboardingDraft{}
	}
	var draft OnboardingDraft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		LogWarn("Corrupted onboarding draft, resetting: %v", err)
		s.delete(draftKey)
		return OnboardingDraft{}
	}
	return draft
}

// SaveDraft persists the onboarding draft
func (s *StateStore) SaveDraft(draft OnboardingDraft) {
	data, err := json.Marshal(draft)
	if err != nil {
		LogWarn("Failed to marshal onboarding draft: %v", err)
		return
	}
	s.put(draftKey, string(data))
}

// ClearDraft removes the persisted draft. Called only after profile
// creation succeeds.
func (s *StateStore) ClearDraft() {
	s.delete(draftKey)
}

// watermarks loads the threadID -> lastSeen map. A corrupted map is reset
// to empty rather than propagated.
func (s *StateStore) watermarks() map[int64]int64 {
	raw, ok := s.get(watermarksKey)
	if !ok {
		return map[int64]int64{}
	}
	marks := map[int64]int64{}
	if err := json.Unmarshal([]byte(raw), &marks); err != nil {
		LogWarn("Corrupted watermark map, resetting: %v", err)
		s.delete(watermarksKey)
		return map[int64]int64{}
	}
	return marks
}

// MarkThreadSeen records that thread activity up to ts has been seen locally
func (s *StateStore) MarkThreadSeen(threadID, ts int64) {
	marks := s.watermarks()
	if ts <= marks[threadID] {
		return
	}
	marks[threadID] = ts
	data, err := json.Marshal(marks)
	if err != nil {
		LogWarn("Failed to marshal watermark map: %v", err)
		return
	}
	s.put(watermarksKey, string(data))
}

// Watermark returns the last-seen timestamp for a thread, 0 when never seen
func (s *StateStore) Watermark(threadID int64) int64 {
	return s.watermarks()[threadID]
}

// IsUnread reports whether a thread has activity newer than its watermark
func (s *StateStore) IsUnread(threadID, updatedAt int64) bool {
	return updatedAt > s.Watermark(threadID)
}
