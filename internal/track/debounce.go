package track

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/dstreuter/zeitlog/internal/domain"
)

// DefaultDebounceDelay is the edit-coalescing window.
const DefaultDebounceDelay = 600 * time.Millisecond

// Batcher coalesces rapid annotation edits into one outbound update per
// delay window instead of one request per keystroke. Fields merge
// last-write-wins; each edit restarts the window.
//
// Task notes are deliberately not batchable: they are append-only and
// order-sensitive, so AddTask sends immediately, and the batched patch can
// never carry a tasks replacement that would overwrite an appended note.
type Batcher struct {
	backend Backend
	view    *SessionView
	delay   time.Duration
	log     *log.Logger

	mu      sync.Mutex
	pending domain.SessionPatch
	timer   *time.Timer
}

// NewBatcher creates a batcher flushing through backend into view. A
// non-positive delay selects the default.
func NewBatcher(backend Backend, view *SessionView, delay time.Duration, logger *log.Logger) *Batcher {
	if delay <= 0 {
		delay = DefaultDebounceDelay
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Batcher{backend: backend, view: view, delay: delay, log: logger}
}

// SetClient schedules a client-name change. The view is updated
// optimistically; the local copy stays authoritative for this field
// between flushes.
func (b *Batcher) SetClient(client string) {
	b.view.Mutate(func(a *domain.ActiveSession) { a.Client = client })
	b.schedule(func(p *domain.SessionPatch) { p.Client = &client })
}

// SetSkills schedules a skills replacement.
func (b *Batcher) SetSkills(skills []string) {
	skills = append([]string(nil), skills...)
	b.view.Mutate(func(a *domain.ActiveSession) { a.Skills = skills })
	b.schedule(func(p *domain.SessionPatch) { p.Skills = &skills })
}

// SetAckBreak schedules the acknowledgement flag.
func (b *Batcher) SetAckBreak(ack bool) {
	b.view.Mutate(func(a *domain.ActiveSession) { a.AcknowledgedBreak = ack })
	b.schedule(func(p *domain.SessionPatch) { p.AcknowledgedBreak = &ack })
}

// AddTask appends one task note immediately, out of band from the batch,
// so two rapid submissions cannot race each other through the window.
func (b *Batcher) AddTask(ctx context.Context, line string) error {
	b.view.Mutate(func(a *domain.ActiveSession) { a.AppendTask(line) })
	_, err := b.backend.UpdateActive(ctx, &domain.SessionPatch{AddTask: line})
	return err
}

func (b *Batcher) schedule(merge func(*domain.SessionPatch)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	merge(&b.pending)
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.delay, func() { b.Flush(context.Background()) })
}

// Flush sends the accumulated patch now. A patch accumulated for a
// session that has since gone away is discarded, not sent.
func (b *Batcher) Flush(ctx context.Context) {
	b.mu.Lock()
	patch := b.pending
	b.pending = domain.SessionPatch{}
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.mu.Unlock()

	if patch.Empty() {
		return
	}
	if !b.view.Active() {
		return
	}
	if _, err := b.backend.UpdateActive(ctx, &patch); err != nil {
		b.log.Printf("flushing batched update: %v", err)
	}
}

// Stop cancels any pending window without sending.
func (b *Batcher) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.pending = domain.SessionPatch{}
}
