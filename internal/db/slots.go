package db

import (
	"context"
	"database/sql"
	"time"
)

// Slot names used by the application.
const (
	SlotHistory       = "history"
	SlotCurrent       = "current"
	SlotLastGenerated = "last_generated"
)

// SlotStore is durable key-value storage backed by the slots table.
// Each slot holds one value that is always written and read as a whole.
type SlotStore struct {
	db *sql.DB
}

// NewSlotStore wraps an initialized database.
func NewSlotStore(db *sql.DB) *SlotStore {
	return &SlotStore{db: db}
}

// Get returns the value stored under name.
// The boolean is false (with a nil error) when the slot has never been written.
func (s *SlotStore) Get(ctx context.Context, name string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM slots WHERE name = ?", name).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Put replaces the value stored under name in a single statement.
func (s *SlotStore) Put(ctx context.Context, name string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO slots (name, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, name, value, time.Now().Unix())
	return err
}

// Delete removes the slot. Deleting a missing slot is not an error.
func (s *SlotStore) Delete(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM slots WHERE name = ?", name)
	return err
}
