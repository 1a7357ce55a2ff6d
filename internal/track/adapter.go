// Package track is the client core: one uniform operation set over either
// the networked backend or a fully local emulation of the same state
// machine, with sticky fallback, periodic reconciliation of canonical
// pause state, and debounced batching of annotation edits.
package track

import (
	"context"
	"log"
	"sync"

	"github.com/dstreuter/zeitlog/internal/domain"
	"github.com/dstreuter/zeitlog/internal/session"
)

// Backend is the uniform operation set both transports implement.
type Backend interface {
	Active(ctx context.Context) (*domain.ActiveSession, error)
	Start(ctx context.Context) (*domain.ActiveSession, error)
	Pause(ctx context.Context) (*domain.ActiveSession, error)
	Resume(ctx context.Context) (*domain.ActiveSession, error)
	UpdateActive(ctx context.Context, patch *domain.SessionPatch) (*domain.ActiveSession, error)
	AckBreak(ctx context.Context) (*domain.ActiveSession, error)
	Cancel(ctx context.Context) error
	Finish(ctx context.Context) (*domain.TimeEntry, error)

	Entries(ctx context.Context) ([]*domain.TimeEntry, error)
	CreateEntry(ctx context.Context, e *domain.TimeEntry) (*domain.TimeEntry, error)
	UpdateEntry(ctx context.Context, id string, patch *domain.EntryPatch) (*domain.TimeEntry, error)
	DeleteEntry(ctx context.Context, id string) error
}

// LocalBackend adapts a session.Tracker to the Backend surface, so local
// mode runs the very same state machine the server runs.
type LocalBackend struct {
	Tracker *session.Tracker
}

func (l *LocalBackend) Active(ctx context.Context) (*domain.ActiveSession, error) {
	return l.Tracker.Get(ctx)
}

func (l *LocalBackend) Start(ctx context.Context) (*domain.ActiveSession, error) {
	return l.Tracker.Start(ctx)
}

func (l *LocalBackend) Pause(ctx context.Context) (*domain.ActiveSession, error) {
	return l.Tracker.Pause(ctx)
}

func (l *LocalBackend) Resume(ctx context.Context) (*domain.ActiveSession, error) {
	return l.Tracker.Resume(ctx)
}

func (l *LocalBackend) UpdateActive(ctx context.Context, patch *domain.SessionPatch) (*domain.ActiveSession, error) {
	return l.Tracker.Update(ctx, patch)
}

func (l *LocalBackend) AckBreak(ctx context.Context) (*domain.ActiveSession, error) {
	return l.Tracker.AckBreak(ctx)
}

func (l *LocalBackend) Cancel(ctx context.Context) error {
	return l.Tracker.Cancel(ctx)
}

func (l *LocalBackend) Finish(ctx context.Context) (*domain.TimeEntry, error) {
	return l.Tracker.Finish(ctx)
}

func (l *LocalBackend) Entries(ctx context.Context) ([]*domain.TimeEntry, error) {
	return l.Tracker.Entries(ctx)
}

func (l *LocalBackend) CreateEntry(ctx context.Context, e *domain.TimeEntry) (*domain.TimeEntry, error) {
	return l.Tracker.CreateEntry(ctx, e)
}

func (l *LocalBackend) UpdateEntry(ctx context.Context, id string, patch *domain.EntryPatch) (*domain.TimeEntry, error) {
	return l.Tracker.UpdateEntry(ctx, id, patch)
}

func (l *LocalBackend) DeleteEntry(ctx context.Context, id string) error {
	return l.Tracker.DeleteEntry(ctx, id)
}

var _ Backend = (*LocalBackend)(nil)

// Adapter routes every call to the backend selected by the current mode.
// A transport failure while networked flips to local for good, persists
// that preference, and replays the failed call against the local backend.
type Adapter struct {
	remote Backend
	local  Backend
	// persist records a mode change so a restart keeps using it. May be
	// nil in tests.
	persist func(Mode) error
	log     *log.Logger

	mu   sync.Mutex
	mode Mode
}

// NewAdapter starts in the given mode. remote may be nil when the caller
// is local-only from the outset.
func NewAdapter(remote, local Backend, mode Mode, persist func(Mode) error, logger *log.Logger) *Adapter {
	if logger == nil {
		logger = log.Default()
	}
	if remote == nil {
		mode = ModeLocalOnly
	}
	return &Adapter{remote: remote, local: local, persist: persist, log: logger, mode: mode}
}

// Mode returns the currently selected mode.
func (a *Adapter) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// SetMode switches mode explicitly and persists the choice. This is the
// only way back to ModeNetworked after a fallback.
func (a *Adapter) SetMode(m Mode) error {
	a.mu.Lock()
	a.mode = m
	a.mu.Unlock()
	if a.persist != nil {
		return a.persist(m)
	}
	return nil
}

func (a *Adapter) backend() Backend {
	if a.Mode() == ModeNetworked {
		return a.remote
	}
	return a.local
}

// observe applies the fallback transition for err. Reports whether the
// call should be replayed against the local backend.
func (a *Adapter) observe(err error) bool {
	if err == nil {
		return false
	}
	a.mu.Lock()
	next := nextMode(a.mode, err)
	changed := next != a.mode
	a.mode = next
	a.mu.Unlock()

	if !changed {
		return false
	}
	a.log.Printf("backend unreachable, switching to local mode: %v", err)
	if a.persist != nil {
		if pErr := a.persist(next); pErr != nil {
			a.log.Printf("persisting mode preference: %v", pErr)
		}
	}
	return true
}

// call1 runs fn against the selected backend, replaying once against the
// local backend after a sticky fallback.
func call1[T any](ctx context.Context, a *Adapter, fn func(context.Context, Backend) (T, error)) (T, error) {
	v, err := fn(ctx, a.backend())
	if a.observe(err) {
		return fn(ctx, a.local)
	}
	return v, err
}

func call0(ctx context.Context, a *Adapter, fn func(context.Context, Backend) error) error {
	err := fn(ctx, a.backend())
	if a.observe(err) {
		return fn(ctx, a.local)
	}
	return err
}

func (a *Adapter) Active(ctx context.Context) (*domain.ActiveSession, error) {
	return call1(ctx, a, func(ctx context.Context, b Backend) (*domain.ActiveSession, error) {
		return b.Active(ctx)
	})
}

func (a *Adapter) Start(ctx context.Context) (*domain.ActiveSession, error) {
	return call1(ctx, a, func(ctx context.Context, b Backend) (*domain.ActiveSession, error) {
		return b.Start(ctx)
	})
}

func (a *Adapter) Pause(ctx context.Context) (*domain.ActiveSession, error) {
	return call1(ctx, a, func(ctx context.Context, b Backend) (*domain.ActiveSession, error) {
		return b.Pause(ctx)
	})
}

func (a *Adapter) Resume(ctx context.Context) (*domain.ActiveSession, error) {
	return call1(ctx, a, func(ctx context.Context, b Backend) (*domain.ActiveSession, error) {
		return b.Resume(ctx)
	})
}

func (a *Adapter) UpdateActive(ctx context.Context, patch *domain.SessionPatch) (*domain.ActiveSession, error) {
	return call1(ctx, a, func(ctx context.Context, b Backend) (*domain.ActiveSession, error) {
		return b.UpdateActive(ctx, patch)
	})
}

func (a *Adapter) AckBreak(ctx context.Context) (*domain.ActiveSession, error) {
	return call1(ctx, a, func(ctx context.Context, b Backend) (*domain.ActiveSession, error) {
		return b.AckBreak(ctx)
	})
}

func (a *Adapter) Cancel(ctx context.Context) error {
	return call0(ctx, a, func(ctx context.Context, b Backend) error {
		return b.Cancel(ctx)
	})
}

func (a *Adapter) Finish(ctx context.Context) (*domain.TimeEntry, error) {
	return call1(ctx, a, func(ctx context.Context, b Backend) (*domain.TimeEntry, error) {
		return b.Finish(ctx)
	})
}

func (a *Adapter) Entries(ctx context.Context) ([]*domain.TimeEntry, error) {
	return call1(ctx, a, func(ctx context.Context, b Backend) ([]*domain.TimeEntry, error) {
		return b.Entries(ctx)
	})
}

func (a *Adapter) CreateEntry(ctx context.Context, e *domain.TimeEntry) (*domain.TimeEntry, error) {
	return call1(ctx, a, func(ctx context.Context, b Backend) (*domain.TimeEntry, error) {
		return b.CreateEntry(ctx, e)
	})
}

func (a *Adapter) UpdateEntry(ctx context.Context, id string, patch *domain.EntryPatch) (*domain.TimeEntry, error) {
	return call1(ctx, a, func(ctx context.Context, b Backend) (*domain.TimeEntry, error) {
		return b.UpdateEntry(ctx, id, patch)
	})
}

func (a *Adapter) DeleteEntry(ctx context.Context, id string) error {
	return call0(ctx, a, func(ctx context.Context, b Backend) error {
		return b.DeleteEntry(ctx, id)
	})
}

var _ Backend = (*Adapter)(nil)
