package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/dstreuter/zeitlog/internal/domain"
)

// EntryOption mutates a fixture entry.
type EntryOption func(*domain.TimeEntry)

func WithClient(client string) EntryOption {
	return func(e *domain.TimeEntry) { e.Client = client }
}

func WithSkills(skills ...string) EntryOption {
	return func(e *domain.TimeEntry) { e.Skills = skills }
}

func WithTasks(tasks string) EntryOption {
	return func(e *domain.TimeEntry) { e.Tasks = tasks }
}

func WithPauseMs(ms int64) EntryOption {
	return func(e *domain.TimeEntry) { e.PauseMs = ms }
}

func WithInterval(start, end int64) EntryOption {
	return func(e *domain.TimeEntry) {
		e.Start = start
		e.End = end
	}
}

// NewTestEntry returns a valid one-hour entry ending now, modified by opts.
func NewTestEntry(opts ...EntryOption) *domain.TimeEntry {
	end := time.Now().UnixMilli()
	e := &domain.TimeEntry{
		ID:    uuid.New().String(),
		Start: end - time.Hour.Milliseconds(),
		End:   end,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FakeClock is a manually advanced clock for driving pause arithmetic in
// state-machine tests.
type FakeClock struct {
	ms int64
}

// NewFakeClock starts at the given epoch-millisecond instant.
func NewFakeClock(startMs int64) *FakeClock {
	return &FakeClock{ms: startMs}
}

// Now satisfies the session service's clock parameter.
func (c *FakeClock) Now() time.Time {
	return time.UnixMilli(c.ms)
}

// Advance moves the clock forward by ms milliseconds.
func (c *FakeClock) Advance(ms int64) {
	c.ms += ms
}

// Set jumps the clock to an absolute epoch-millisecond instant.
func (c *FakeClock) Set(ms int64) {
	c.ms = ms
}
