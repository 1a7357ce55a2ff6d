package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dstreuter/zeitlog/internal/config"
	"github.com/dstreuter/zeitlog/internal/session"
	"github.com/dstreuter/zeitlog/internal/store"
	"github.com/dstreuter/zeitlog/internal/track"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	backend := &track.LocalBackend{Tracker: session.NewTracker(st, nil)}
	cfg := config.DefaultConfig()
	return &App{
		Backend:       backend,
		Adapter:       track.NewAdapter(nil, backend, track.ModeLocalOnly, nil, nil),
		Config:        &cfg,
		IsInteractive: func() bool { return false },
	}
}

// runCmd executes args against a fresh command tree and captures stdout,
// since handlers print with fmt.Printf.
func runCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()

	orig := os.Stdout
	pr, pw, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = pw

	root := NewRootCmd(app)
	root.SetOut(pw)
	root.SetErr(pw)
	root.SetArgs(args)
	root.SilenceUsage = true
	root.SilenceErrors = true

	var out strings.Builder
	done := make(chan struct{})
	go func() {
		io.Copy(&out, pr)
		close(done)
	}()

	execErr := root.Execute()
	pw.Close()
	os.Stdout = orig
	<-done

	return out.String(), execErr
}

func TestStartStatusFinishFlow(t *testing.T) {
	app := newTestApp(t)

	out, err := runCmd(t, app, "start", "--client", "Acme", "--skills", "go,sql")
	require.NoError(t, err)
	assert.Contains(t, out, "Started session")

	out, err = runCmd(t, app, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "RUNNING")
	assert.Contains(t, out, "Acme")
	assert.Contains(t, out, "go, sql")

	_, err = runCmd(t, app, "pause")
	require.NoError(t, err)
	out, err = runCmd(t, app, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "PAUSED")

	_, err = runCmd(t, app, "resume")
	require.NoError(t, err)

	out, err = runCmd(t, app, "finish")
	require.NoError(t, err)
	assert.Contains(t, out, "Finished:")
	assert.Contains(t, out, "Acme")

	out, err = runCmd(t, app, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "No active session")
}

func TestStartTwiceFails(t *testing.T) {
	app := newTestApp(t)

	_, err := runCmd(t, app, "start")
	require.NoError(t, err)
	_, err = runCmd(t, app, "start")
	require.Error(t, err)
}

func TestNoteAppendsTaskLines(t *testing.T) {
	app := newTestApp(t)

	_, err := runCmd(t, app, "start")
	require.NoError(t, err)

	out, err := runCmd(t, app, "note", "reviewed", "the", "deploy")
	require.NoError(t, err)
	assert.Contains(t, out, "Noted (1 lines)")

	out, err = runCmd(t, app, "note", "second")
	require.NoError(t, err)
	assert.Contains(t, out, "Noted (2 lines)")

	out, err = runCmd(t, app, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "reviewed the deploy")
	assert.Contains(t, out, "second")
}

func TestNoteWithoutSessionFails(t *testing.T) {
	app := newTestApp(t)
	_, err := runCmd(t, app, "note", "orphan")
	require.Error(t, err)
}

func TestEntryLifecycle(t *testing.T) {
	app := newTestApp(t)

	out, err := runCmd(t, app, "entry", "add",
		"--client", "Acme",
		"--start", "2026-03-09 09:00",
		"--end", "2026-03-09 12:00",
		"--pause", "30",
		"--tasks", "migration")
	require.NoError(t, err)
	assert.Contains(t, out, "Added entry")
	assert.Contains(t, out, "150min")

	out, err = runCmd(t, app, "entry", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Acme")
	assert.Contains(t, out, "migration")
	assert.Contains(t, out, "1 entries")

	// Grab the full id for the edit.
	entries, err := app.Backend.Entries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	id := entries[0].ID

	out, err = runCmd(t, app, "entry", "edit", id, "--client", "Globex")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated entry")

	out, err = runCmd(t, app, "entry", "list", "--client", "Globex")
	require.NoError(t, err)
	assert.Contains(t, out, "Globex")

	out, err = runCmd(t, app, "entry", "rm", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed entry")

	out, err = runCmd(t, app, "entry", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No entries found")
}

func TestEntryAddRejectsBadInterval(t *testing.T) {
	app := newTestApp(t)
	_, err := runCmd(t, app, "entry", "add",
		"--start", "2026-03-09 12:00",
		"--end", "2026-03-09 09:00")
	require.Error(t, err)
}

func TestExportCsvToFile(t *testing.T) {
	app := newTestApp(t)
	_, err := runCmd(t, app, "entry", "add",
		"--client", "Acme",
		"--start", "2026-03-09 09:00",
		"--end", "2026-03-09 10:00")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.csv")
	out, err := runCmd(t, app, "export", "csv", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 1 entries")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "\uFEFFID;Client;"))
	assert.Contains(t, string(data), `"Acme"`)
}

func TestExportMail(t *testing.T) {
	app := newTestApp(t)

	out, err := runCmd(t, app, "export", "mail")
	require.NoError(t, err)
	assert.Contains(t, out, "No entries to report")

	_, err = runCmd(t, app, "entry", "add",
		"--client", "Acme",
		"--start", "2026-03-09 09:00",
		"--end", "2026-03-09 10:00")
	require.NoError(t, err)

	out, err = runCmd(t, app, "export", "mail", "--to", "me@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "net:60min (Acme)")
	assert.Contains(t, out, "mailto:me@example.com?")
}

func TestStatsCommand(t *testing.T) {
	app := newTestApp(t)

	out, err := runCmd(t, app, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "No entries found")

	_, err = runCmd(t, app, "entry", "add",
		"--client", "Acme",
		"--start", "2026-03-09 09:00",
		"--end", "2026-03-09 12:00",
		"--pause", "30")
	require.NoError(t, err)
	_, err = runCmd(t, app, "entry", "add",
		"--client", "Acme",
		"--start", "2026-03-10 09:00",
		"--end", "2026-03-10 10:00")
	require.NoError(t, err)
	_, err = runCmd(t, app, "entry", "add",
		"--start", "2026-03-11 09:00",
		"--end", "2026-03-11 09:30")
	require.NoError(t, err)

	out, err = runCmd(t, app, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "CLIENT")
	assert.Contains(t, out, "Acme")
	// Two Acme entries: 4h gross, 30min pause, 3h30 net, 1h45 average.
	assert.Contains(t, out, "04:00:00")
	assert.Contains(t, out, "03:30:00")
	assert.Contains(t, out, "01:45:00")
	// Entries without a client are grouped under a dash.
	assert.Contains(t, out, "—")
	// Busiest client sorts first.
	assert.Less(t, strings.Index(out, "Acme"), strings.Index(out, "—"))
}

func TestModeCommand(t *testing.T) {
	app := newTestApp(t)

	out, err := runCmd(t, app, "mode")
	require.NoError(t, err)
	assert.Contains(t, out, "local")

	// No server configured, so network is refused.
	_, err = runCmd(t, app, "mode", "network")
	require.Error(t, err)

	_, err = runCmd(t, app, "mode", "sideways")
	require.Error(t, err)
}

func TestAuditWithoutSQLiteStore(t *testing.T) {
	app := newTestApp(t)
	_, err := runCmd(t, app, "audit")
	require.Error(t, err)
}

func TestLoginWithoutServer(t *testing.T) {
	app := newTestApp(t)
	_, err := runCmd(t, app, "login", "--password", "secret")
	require.Error(t, err)
}

func TestKnownClients(t *testing.T) {
	app := newTestApp(t)
	for _, c := range []string{"Acme", "Globex", "Acme"} {
		_, err := runCmd(t, app, "entry", "add",
			"--client", c,
			"--start", "2026-03-09 09:00",
			"--end", "2026-03-09 10:00")
		require.NoError(t, err)
	}

	clients, err := knownClients(context.Background(), app)
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme", "Globex"}, clients)
}
