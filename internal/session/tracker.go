// Package session implements the active-session state machine: one slot,
// no history, transitions among idle, running and paused. The machine is
// written once and parameterized over a store.Store; the server drives it
// against the JSON file store and the client's local mode drives the same
// code against the SQLite store, so the two backends cannot drift.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dstreuter/zeitlog/internal/domain"
	"github.com/dstreuter/zeitlog/internal/store"
)

// Tracker owns the active-session slot of one backend and converts
// finished sessions into stored time entries.
type Tracker struct {
	store store.Store
	now   func() time.Time
}

// NewTracker creates a Tracker over the given store. A nil clock defaults
// to time.Now; tests inject a fake to drive pause arithmetic.
func NewTracker(st store.Store, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{store: st, now: now}
}

func (t *Tracker) nowMs() int64 {
	return t.now().UnixMilli()
}

// Get returns the current active session, or nil when idle.
func (t *Tracker) Get(ctx context.Context) (*domain.ActiveSession, error) {
	return t.store.GetActive(ctx)
}

// Start creates a new session. Fails with domain.ErrAlreadyActive while a
// session exists; it never replaces one.
func (t *Tracker) Start(ctx context.Context) (*domain.ActiveSession, error) {
	cur, err := t.store.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	if cur != nil {
		return nil, fmt.Errorf("starting session: %w", domain.ErrAlreadyActive)
	}
	a := &domain.ActiveSession{
		ID:     uuid.New().String(),
		Start:  t.nowMs(),
		Skills: []string{},
	}
	if err := t.store.SetActive(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// require loads the active session or fails with domain.ErrNoActiveSession.
func (t *Tracker) require(ctx context.Context, op string) (*domain.ActiveSession, error) {
	a, err := t.store.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrNoActiveSession)
	}
	return a, nil
}

// Pause marks the start of a pause interval. A no-op while already paused,
// so repeated pause calls never inflate the accumulated pause time.
func (t *Tracker) Pause(ctx context.Context) (*domain.ActiveSession, error) {
	a, err := t.require(ctx, "pausing session")
	if err != nil {
		return nil, err
	}
	if a.PauseStartedAt == nil {
		now := t.nowMs()
		a.PauseStartedAt = &now
		if err := t.store.SetActive(ctx, a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Resume folds the open pause interval into PauseMs. A no-op while running.
func (t *Tracker) Resume(ctx context.Context) (*domain.ActiveSession, error) {
	a, err := t.require(ctx, "resuming session")
	if err != nil {
		return nil, err
	}
	if a.PauseStartedAt != nil {
		a.PauseMs += t.nowMs() - *a.PauseStartedAt
		a.PauseStartedAt = nil
		if err := t.store.SetActive(ctx, a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Update merges the supplied subset of annotation fields into the session.
func (t *Tracker) Update(ctx context.Context, patch *domain.SessionPatch) (*domain.ActiveSession, error) {
	a, err := t.require(ctx, "updating session")
	if err != nil {
		return nil, err
	}
	patch.Apply(a)
	if err := t.store.SetActive(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// AckBreak marks the long-session warning as dismissed. Sticky until the
// session ends.
func (t *Tracker) AckBreak(ctx context.Context) (*domain.ActiveSession, error) {
	a, err := t.require(ctx, "acknowledging break")
	if err != nil {
		return nil, err
	}
	a.AcknowledgedBreak = true
	if err := t.store.SetActive(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Cancel discards the session without producing an entry.
func (t *Tracker) Cancel(ctx context.Context) error {
	if _, err := t.require(ctx, "cancelling session"); err != nil {
		return err
	}
	return t.store.SetActive(ctx, nil)
}

// Finish folds any open pause, converts the session into a time entry with
// end = now, persists it and clears the slot.
func (t *Tracker) Finish(ctx context.Context) (*domain.TimeEntry, error) {
	a, err := t.require(ctx, "finishing session")
	if err != nil {
		return nil, err
	}
	now := t.nowMs()
	if a.PauseStartedAt != nil {
		a.PauseMs += now - *a.PauseStartedAt
		a.PauseStartedAt = nil
	}
	entry := &domain.TimeEntry{
		ID:                uuid.New().String(),
		Client:            a.Client,
		Skills:            a.Skills,
		Tasks:             a.Tasks,
		Start:             a.Start,
		End:               now,
		PauseMs:           a.PauseMs,
		AcknowledgedBreak: a.AcknowledgedBreak,
	}
	if err := t.store.AppendEntry(ctx, entry); err != nil {
		return nil, err
	}
	if err := t.store.SetActive(ctx, nil); err != nil {
		return nil, err
	}
	return entry, nil
}

// Entries returns all stored entries in insertion order.
func (t *Tracker) Entries(ctx context.Context) ([]*domain.TimeEntry, error) {
	return t.store.ListEntries(ctx)
}

// CreateEntry persists a manually constructed entry, assigning an id when
// missing. Used for legacy/manual edits outside the session lifecycle.
func (t *Tracker) CreateEntry(ctx context.Context, e *domain.TimeEntry) (*domain.TimeEntry, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Skills == nil {
		e.Skills = []string{}
	}
	if err := t.store.AppendEntry(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// UpdateEntry applies a field-level patch to a stored entry.
func (t *Tracker) UpdateEntry(ctx context.Context, id string, patch *domain.EntryPatch) (*domain.TimeEntry, error) {
	return t.store.UpdateEntry(ctx, id, patch)
}

// DeleteEntry removes a stored entry by id.
func (t *Tracker) DeleteEntry(ctx context.Context, id string) error {
	return t.store.DeleteEntry(ctx, id)
}
