package track

import (
	"sync"

	"github.com/dstreuter/zeitlog/internal/domain"
)

// SessionView is the client's in-memory copy of the active session. The
// reconciler and batcher operate on one shared view instead of ambient
// globals; the UI reads snapshots from it.
//
// Between batched flushes the local client and tasks fields are
// authoritative; only the server-computed pause and acknowledgement state
// is folded back in.
type SessionView struct {
	mu     sync.RWMutex
	active *domain.ActiveSession
}

// NewSessionView starts empty (idle).
func NewSessionView() *SessionView {
	return &SessionView{}
}

// Get returns a copy of the held session, or nil when idle.
func (v *SessionView) Get() *domain.ActiveSession {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return cloneSession(v.active)
}

// Active reports whether a session is held.
func (v *SessionView) Active() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.active != nil
}

// Set replaces the held session wholesale.
func (v *SessionView) Set(a *domain.ActiveSession) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.active = cloneSession(a)
}

// Clear drops the held session.
func (v *SessionView) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.active = nil
}

// Mutate applies fn to the held session, if any.
func (v *SessionView) Mutate(fn func(*domain.ActiveSession)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.active != nil {
		fn(v.active)
	}
}

// FoldCanonical overwrites only the server-authoritative fields (pause
// accumulation, open-pause marker, acknowledgement) from latest. A nil
// latest clears the view: the session was finished or cancelled elsewhere.
// A response for a different session id is stale and is discarded.
func (v *SessionView) FoldCanonical(latest *domain.ActiveSession) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.active == nil {
		return
	}
	if latest == nil {
		v.active = nil
		return
	}
	if latest.ID != v.active.ID {
		return
	}
	v.active.PauseMs = latest.PauseMs
	v.active.PauseStartedAt = cloneInt64(latest.PauseStartedAt)
	v.active.AcknowledgedBreak = latest.AcknowledgedBreak
}

func cloneSession(a *domain.ActiveSession) *domain.ActiveSession {
	if a == nil {
		return nil
	}
	c := *a
	c.PauseStartedAt = cloneInt64(a.PauseStartedAt)
	if a.Skills != nil {
		c.Skills = append([]string(nil), a.Skills...)
	}
	return &c
}

func cloneInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	val := *p
	return &val
}
