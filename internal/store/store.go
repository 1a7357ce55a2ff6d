// Package store persists completed time entries and the single
// active-session slot. The Store interface is the storage abstraction the
// session state machine is parameterized over; FileStore backs the
// authoritative server, SQLiteStore backs fully local operation.
package store

import (
	"context"

	"github.com/dstreuter/zeitlog/internal/domain"
)

type Store interface {
	// ListEntries returns all entries in insertion order.
	ListEntries(ctx context.Context) ([]*domain.TimeEntry, error)
	// AppendEntry validates and appends a completed entry.
	AppendEntry(ctx context.Context, e *domain.TimeEntry) error
	// UpdateEntry applies a shallow patch to the entry with the given id
	// and returns the updated entry. Returns domain.ErrNotFound if no
	// entry has that id.
	UpdateEntry(ctx context.Context, id string, patch *domain.EntryPatch) (*domain.TimeEntry, error)
	// DeleteEntry removes the entry with the given id. Returns
	// domain.ErrNotFound if no entry has that id.
	DeleteEntry(ctx context.Context, id string) error

	// GetActive returns the active session, or nil when none exists.
	GetActive(ctx context.Context) (*domain.ActiveSession, error)
	// SetActive replaces the active-session slot; nil clears it.
	SetActive(ctx context.Context, a *domain.ActiveSession) error
}
