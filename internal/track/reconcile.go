package track

import (
	"context"
	"log"
	"time"
)

// DefaultReconcileInterval matches the reference behavior of one canonical
// pull per minute while a session is active.
const DefaultReconcileInterval = time.Minute

// Reconciler keeps a SessionView close to canonical truth. It is purely
// corrective: it only ever folds state back into the view, never triggers
// a transition. Run it as a background task tied to the client lifetime;
// cancelling the context stops it.
type Reconciler struct {
	view     *SessionView
	backend  Backend
	interval time.Duration
	log      *log.Logger

	wake chan struct{}
}

// NewReconciler creates a reconciler over view and backend. A
// non-positive interval selects the default.
func NewReconciler(view *SessionView, backend Backend, interval time.Duration, logger *log.Logger) *Reconciler {
	if interval <= 0 {
		interval = DefaultReconcileInterval
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Reconciler{
		view:     view,
		backend:  backend,
		interval: interval,
		log:      logger,
		wake:     make(chan struct{}, 1),
	}
}

// Notify requests one immediate reconciliation, the analog of the tab
// becoming visible again. Safe from any goroutine; coalesces while one is
// already pending.
func (r *Reconciler) Notify() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Run loops until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// The periodic pull only corrects a held session; an idle
			// view has nothing to fold into.
			if r.view.Active() {
				r.reconcile(ctx, false)
			}
		case <-r.wake:
			r.reconcile(ctx, true)
		}
	}
}

// reconcile performs one canonical pull. Fetch failures are logged and
// skipped; the next tick retries. Only a wake-triggered pull may clear
// the view on a nil canonical session: a periodic tick that races a
// just-started session must not wipe it.
func (r *Reconciler) reconcile(ctx context.Context, clearOnNil bool) {
	latest, err := r.backend.Active(ctx)
	if err != nil {
		if ctx.Err() == nil {
			r.log.Printf("reconcile: %v", err)
		}
		return
	}
	if latest == nil && !clearOnNil {
		return
	}
	r.view.FoldCanonical(latest)
}
