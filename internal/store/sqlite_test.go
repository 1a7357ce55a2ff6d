package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dstreuter/zeitlog/internal/domain"
	"github.com/dstreuter/zeitlog/internal/testutil"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	return NewSQLiteStore(testutil.NewTestDB(t))
}

func TestSQLiteStore_AppendAndListRoundTrip(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	e := testutil.NewTestEntry(
		testutil.WithClient("Acme"),
		testutil.WithSkills("go", "sql"),
		testutil.WithTasks("migrate\nbackfill"),
		testutil.WithPauseMs(120000),
	)
	require.NoError(t, s.AppendEntry(ctx, e))

	entries, err := s.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, e, entries[0])
}

func TestSQLiteStore_ListPreservesInsertionOrder(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	// Insertion order, not timestamp order, is the display order.
	first := testutil.NewTestEntry(testutil.WithInterval(5000, 6000))
	second := testutil.NewTestEntry(testutil.WithInterval(1000, 2000))
	require.NoError(t, s.AppendEntry(ctx, first))
	require.NoError(t, s.AppendEntry(ctx, second))

	entries, err := s.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, first.ID, entries[0].ID)
	assert.Equal(t, second.ID, entries[1].ID)
}

func TestSQLiteStore_UpdateNotFound(t *testing.T) {
	s := newSQLiteStore(t)
	client := "x"
	_, err := s.UpdateEntry(context.Background(), "missing", &domain.EntryPatch{Client: &client})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSQLiteStore_DeleteNotFoundLeavesCollection(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendEntry(ctx, testutil.NewTestEntry()))
	assert.ErrorIs(t, s.DeleteEntry(ctx, "missing"), domain.ErrNotFound)

	entries, err := s.ListEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSQLiteStore_ActiveSlotRoundTrip(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	a, err := s.GetActive(ctx)
	require.NoError(t, err)
	assert.Nil(t, a)

	want := &domain.ActiveSession{ID: "s1", Start: 1000, Client: "Acme", Skills: []string{}}
	require.NoError(t, s.SetActive(ctx, want))

	got, err := s.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, s.SetActive(ctx, nil))
	got, err = s.GetActive(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteStore_AuditTrail(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	e := testutil.NewTestEntry(testutil.WithClient("Acme"))
	require.NoError(t, s.AppendEntry(ctx, e))

	client := "Globex"
	_, err := s.UpdateEntry(ctx, e.ID, &domain.EntryPatch{Client: &client})
	require.NoError(t, err)
	require.NoError(t, s.DeleteEntry(ctx, e.ID))

	require.NoError(t, s.SetActive(ctx, &domain.ActiveSession{ID: "s1", Start: 1}))
	require.NoError(t, s.SetActive(ctx, nil))

	records, err := s.AuditLog(ctx)
	require.NoError(t, err)
	require.Len(t, records, 5)

	actions := make([]string, len(records))
	for i, r := range records {
		actions[i] = r.Action
	}
	assert.Equal(t, []string{"entry.create", "entry.update", "entry.delete", "active.set", "active.clear"}, actions)
	assert.Equal(t, e.ID, records[0].EntryID)
	assert.Contains(t, records[1].Detail, "Globex")
}

func TestSQLiteStore_FailedUpdateRollsBack(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	e := testutil.NewTestEntry(testutil.WithClient("Acme"))
	require.NoError(t, s.AppendEntry(ctx, e))

	// A patch that fails validation must leave the row untouched.
	start, end := int64(100), int64(50)
	_, err := s.UpdateEntry(ctx, e.ID, &domain.EntryPatch{Start: &start, End: &end})
	assert.True(t, domain.IsValidation(err))

	entries, err := s.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Acme", entries[0].Client)
	assert.Equal(t, e.Start, entries[0].Start)
}

func TestSQLiteStore_ConcurrentPatchesBothApplied(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	e := testutil.NewTestEntry()
	require.NoError(t, s.AppendEntry(ctx, e))

	client := "Acme"
	tasks := "deploy"
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := s.UpdateEntry(ctx, e.ID, &domain.EntryPatch{Client: &client})
		assert.NoError(t, err)
	}()
	go func() {
		defer wg.Done()
		_, err := s.UpdateEntry(ctx, e.ID, &domain.EntryPatch{Tasks: &tasks})
		assert.NoError(t, err)
	}()
	wg.Wait()

	entries, err := s.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Acme", entries[0].Client)
	assert.Equal(t, "deploy", entries[0].Tasks)
}
