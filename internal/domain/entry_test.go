package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeEntry_Durations(t *testing.T) {
	e := &TimeEntry{Start: 1000, End: 61000, PauseMs: 10000}
	assert.Equal(t, int64(60000), e.GrossMs())
	assert.Equal(t, int64(50000), e.NetMs())
}

func TestTimeEntry_TaskLines(t *testing.T) {
	e := &TimeEntry{Tasks: "review PR\n\nwrite invoice"}
	assert.Equal(t, []string{"review PR", "write invoice"}, e.TaskLines())

	empty := &TimeEntry{}
	assert.Nil(t, empty.TaskLines())
}

func TestTimeEntry_Validate(t *testing.T) {
	valid := &TimeEntry{Start: 1, End: 2}
	require.NoError(t, valid.Validate())

	zeroStart := &TimeEntry{Start: 0, End: 5000}
	require.NoError(t, zeroStart.Validate())

	inverted := &TimeEntry{Start: 5, End: 5}
	err := inverted.Validate()
	assert.Error(t, err)
	assert.True(t, IsValidation(err))

	negativePause := &TimeEntry{Start: 1, End: 2, PauseMs: -1}
	assert.Error(t, negativePause.Validate())
}

func TestEntryPatch_Apply_PreservesUnsetFields(t *testing.T) {
	e := &TimeEntry{ID: "a", Client: "Acme", Tasks: "x", Start: 1, End: 2, PauseMs: 0}
	client := "Globex"
	pause := int64(500)
	p := &EntryPatch{Client: &client, PauseMs: &pause}
	p.Apply(e)

	assert.Equal(t, "Globex", e.Client)
	assert.Equal(t, int64(500), e.PauseMs)
	assert.Equal(t, "x", e.Tasks)
	assert.Equal(t, int64(1), e.Start)
	assert.Equal(t, int64(2), e.End)
}

func TestEntryPatch_Validate(t *testing.T) {
	start, end := int64(100), int64(50)
	p := &EntryPatch{Start: &start, End: &end}
	assert.Error(t, p.Validate())

	end = 200
	require.NoError(t, p.Validate())
}

func TestActiveSession_EffectivePauseMs(t *testing.T) {
	a := &ActiveSession{PauseMs: 1000}
	assert.Equal(t, int64(1000), a.EffectivePauseMs(9999))

	startedAt := int64(5000)
	a.PauseStartedAt = &startedAt
	assert.Equal(t, int64(3000), a.EffectivePauseMs(7000))
	assert.True(t, a.Paused())
}

func TestActiveSession_AppendTask(t *testing.T) {
	a := &ActiveSession{}
	a.AppendTask("  first  ")
	a.AppendTask("second")
	a.AppendTask("   ")
	assert.Equal(t, "first\nsecond", a.Tasks)
}

func TestSessionPatch_Apply_AddTaskAfterReplace(t *testing.T) {
	a := &ActiveSession{Tasks: "old"}
	tasks := "replaced"
	p := &SessionPatch{Tasks: &tasks, AddTask: "appended"}
	p.Apply(a)
	assert.Equal(t, "replaced\nappended", a.Tasks)
}
