package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dstreuter/zeitlog/internal/domain"
	"github.com/dstreuter/zeitlog/internal/store"
	"github.com/dstreuter/zeitlog/internal/testutil"
)

// forEachBackend runs the test once against the file store and once against
// the local SQLite store. Both drive the same machine; the contract must
// hold on each.
func forEachBackend(t *testing.T, fn func(t *testing.T, tr *Tracker, clock *testutil.FakeClock)) {
	t.Helper()

	t.Run("file", func(t *testing.T) {
		st, err := store.NewFileStore(t.TempDir())
		require.NoError(t, err)
		clock := testutil.NewFakeClock(0)
		fn(t, NewTracker(st, clock.Now), clock)
	})

	t.Run("sqlite", func(t *testing.T) {
		st := store.NewSQLiteStore(testutil.NewTestDB(t))
		clock := testutil.NewFakeClock(0)
		fn(t, NewTracker(st, clock.Now), clock)
	})
}

func TestTracker_StartCreatesRunningSession(t *testing.T) {
	forEachBackend(t, func(t *testing.T, tr *Tracker, clock *testutil.FakeClock) {
		ctx := context.Background()
		clock.Set(1234)

		a, err := tr.Start(ctx)
		require.NoError(t, err)
		assert.NotEmpty(t, a.ID)
		assert.Equal(t, int64(1234), a.Start)
		assert.Equal(t, int64(0), a.PauseMs)
		assert.Nil(t, a.PauseStartedAt)
		assert.False(t, a.AcknowledgedBreak)

		got, err := tr.Get(ctx)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, a.ID, got.ID)
	})
}

func TestTracker_StartWhileActiveFails(t *testing.T) {
	forEachBackend(t, func(t *testing.T, tr *Tracker, clock *testutil.FakeClock) {
		ctx := context.Background()

		first, err := tr.Start(ctx)
		require.NoError(t, err)

		clock.Advance(500)
		_, err = tr.Start(ctx)
		assert.ErrorIs(t, err, domain.ErrAlreadyActive)

		// The existing session must be left unmodified.
		got, err := tr.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, first.ID, got.ID)
		assert.Equal(t, first.Start, got.Start)
	})
}

func TestTracker_OperationsWithoutSessionFail(t *testing.T) {
	forEachBackend(t, func(t *testing.T, tr *Tracker, clock *testutil.FakeClock) {
		ctx := context.Background()

		_, err := tr.Pause(ctx)
		assert.ErrorIs(t, err, domain.ErrNoActiveSession)
		_, err = tr.Resume(ctx)
		assert.ErrorIs(t, err, domain.ErrNoActiveSession)
		_, err = tr.Update(ctx, &domain.SessionPatch{AddTask: "x"})
		assert.ErrorIs(t, err, domain.ErrNoActiveSession)
		_, err = tr.AckBreak(ctx)
		assert.ErrorIs(t, err, domain.ErrNoActiveSession)
		assert.ErrorIs(t, tr.Cancel(ctx), domain.ErrNoActiveSession)
		_, err = tr.Finish(ctx)
		assert.ErrorIs(t, err, domain.ErrNoActiveSession)
	})
}

func TestTracker_PauseIsIdempotent(t *testing.T) {
	forEachBackend(t, func(t *testing.T, tr *Tracker, clock *testutil.FakeClock) {
		ctx := context.Background()

		_, err := tr.Start(ctx)
		require.NoError(t, err)

		clock.Set(1000)
		_, err = tr.Pause(ctx)
		require.NoError(t, err)

		// A second pause must not move the pause start.
		clock.Set(2000)
		a, err := tr.Pause(ctx)
		require.NoError(t, err)
		require.NotNil(t, a.PauseStartedAt)
		assert.Equal(t, int64(1000), *a.PauseStartedAt)

		clock.Set(4000)
		a, err = tr.Resume(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3000), a.PauseMs)
		assert.Nil(t, a.PauseStartedAt)

		// Resume while running is a no-op.
		clock.Set(9000)
		a, err = tr.Resume(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3000), a.PauseMs)
	})
}

func TestTracker_FullLifecycleScenario(t *testing.T) {
	// start at t=0, client=Acme, pause at 1000, resume at 4000, finish at
	// 5000: the entry must read start=0, end=5000, pauseMs=3000.
	forEachBackend(t, func(t *testing.T, tr *Tracker, clock *testutil.FakeClock) {
		ctx := context.Background()

		clock.Set(0)
		_, err := tr.Start(ctx)
		require.NoError(t, err)

		client := "Acme"
		_, err = tr.Update(ctx, &domain.SessionPatch{Client: &client})
		require.NoError(t, err)

		clock.Set(1000)
		_, err = tr.Pause(ctx)
		require.NoError(t, err)

		clock.Set(4000)
		_, err = tr.Resume(ctx)
		require.NoError(t, err)

		clock.Set(5000)
		entry, err := tr.Finish(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), entry.Start)
		assert.Equal(t, int64(5000), entry.End)
		assert.Equal(t, int64(3000), entry.PauseMs)
		assert.Equal(t, "Acme", entry.Client)

		// Slot cleared, entry persisted.
		active, err := tr.Get(ctx)
		require.NoError(t, err)
		assert.Nil(t, active)

		entries, err := tr.Entries(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, entry.ID, entries[0].ID)
	})
}

func TestTracker_FinishWhilePausedFoldsOpenPause(t *testing.T) {
	forEachBackend(t, func(t *testing.T, tr *Tracker, clock *testutil.FakeClock) {
		ctx := context.Background()

		clock.Set(0)
		_, err := tr.Start(ctx)
		require.NoError(t, err)

		clock.Set(2000)
		_, err = tr.Pause(ctx)
		require.NoError(t, err)

		clock.Set(6000)
		entry, err := tr.Finish(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(6000), entry.End)
		assert.Equal(t, int64(4000), entry.PauseMs)
	})
}

func TestTracker_UpdateAndAddTask(t *testing.T) {
	forEachBackend(t, func(t *testing.T, tr *Tracker, clock *testutil.FakeClock) {
		ctx := context.Background()

		_, err := tr.Start(ctx)
		require.NoError(t, err)

		client := "Globex"
		skills := []string{"go", "sql"}
		a, err := tr.Update(ctx, &domain.SessionPatch{Client: &client, Skills: &skills})
		require.NoError(t, err)
		assert.Equal(t, "Globex", a.Client)
		assert.Equal(t, []string{"go", "sql"}, a.Skills)

		_, err = tr.Update(ctx, &domain.SessionPatch{AddTask: "call with legal"})
		require.NoError(t, err)
		a, err = tr.Update(ctx, &domain.SessionPatch{AddTask: "draft invoice"})
		require.NoError(t, err)
		assert.Equal(t, "call with legal\ndraft invoice", a.Tasks)
	})
}

func TestTracker_AckBreakIsSticky(t *testing.T) {
	forEachBackend(t, func(t *testing.T, tr *Tracker, clock *testutil.FakeClock) {
		ctx := context.Background()

		_, err := tr.Start(ctx)
		require.NoError(t, err)

		a, err := tr.AckBreak(ctx)
		require.NoError(t, err)
		assert.True(t, a.AcknowledgedBreak)

		clock.Set(10000)
		entry, err := tr.Finish(ctx)
		require.NoError(t, err)
		assert.True(t, entry.AcknowledgedBreak)
	})
}

func TestTracker_CancelDiscardsWithoutEntry(t *testing.T) {
	forEachBackend(t, func(t *testing.T, tr *Tracker, clock *testutil.FakeClock) {
		ctx := context.Background()

		_, err := tr.Start(ctx)
		require.NoError(t, err)
		require.NoError(t, tr.Cancel(ctx))

		active, err := tr.Get(ctx)
		require.NoError(t, err)
		assert.Nil(t, active)

		entries, err := tr.Entries(ctx)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestTracker_CreateEntryValidates(t *testing.T) {
	forEachBackend(t, func(t *testing.T, tr *Tracker, clock *testutil.FakeClock) {
		ctx := context.Background()

		_, err := tr.CreateEntry(ctx, &domain.TimeEntry{Start: 10, End: 5})
		assert.True(t, domain.IsValidation(err))

		e, err := tr.CreateEntry(ctx, &domain.TimeEntry{Start: 5, End: 10, Client: "Acme"})
		require.NoError(t, err)
		assert.NotEmpty(t, e.ID)

		entries, err := tr.Entries(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "Acme", entries[0].Client)
	})
}
