package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dstreuter/zeitlog/internal/domain"
	"github.com/dstreuter/zeitlog/internal/server"
	"github.com/dstreuter/zeitlog/internal/session"
	"github.com/dstreuter/zeitlog/internal/store"
)

func newClientAgainstServer(t *testing.T) *Client {
	t.Helper()

	st, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)

	srv, err := server.New(session.NewTracker(st, nil), server.Options{
		User:          "admin",
		PasswordHash:  string(hash),
		SessionSecret: []byte("secret"),
		SessionsDir:   t.TempDir(),
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	c := NewClient(ts.URL, time.Second)
	require.NoError(t, c.Login(context.Background(), "admin", "pw"))
	return c
}

func TestClient_ActiveLifecycleRoundTrip(t *testing.T) {
	c := newClientAgainstServer(t)
	ctx := context.Background()

	a, err := c.Active(ctx)
	require.NoError(t, err)
	assert.Nil(t, a)

	a, err = c.Start(ctx)
	require.NoError(t, err)
	require.NotNil(t, a)

	client := "Acme"
	a, err = c.UpdateActive(ctx, &domain.SessionPatch{Client: &client, AddTask: "kickoff"})
	require.NoError(t, err)
	assert.Equal(t, "Acme", a.Client)
	assert.Equal(t, "kickoff", a.Tasks)

	a, err = c.Pause(ctx)
	require.NoError(t, err)
	assert.True(t, a.Paused())

	a, err = c.Resume(ctx)
	require.NoError(t, err)
	assert.False(t, a.Paused())

	entry, err := c.Finish(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Acme", entry.Client)

	entries, err := c.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entry.ID, entries[0].ID)
}

func TestClient_DecodesDomainErrors(t *testing.T) {
	c := newClientAgainstServer(t)
	ctx := context.Background()

	// No active session yet.
	_, err := c.Pause(ctx)
	assert.ErrorIs(t, err, domain.ErrNoActiveSession)
	assert.False(t, IsTransport(err))

	_, err = c.Start(ctx)
	require.NoError(t, err)
	_, err = c.Start(ctx)
	assert.ErrorIs(t, err, domain.ErrAlreadyActive)

	err = c.DeleteEntry(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClient_UnauthenticatedIsAuthError(t *testing.T) {
	st, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	srv, err := server.New(session.NewTracker(st, nil), server.Options{
		User:          "admin",
		PasswordHash:  "$2a$04$invalid",
		SessionSecret: []byte("secret"),
		SessionsDir:   t.TempDir(),
	})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	c := NewClient(ts.URL, time.Second)
	_, err = c.Entries(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.False(t, IsTransport(err))
}

func TestClient_UnreachableBackendIsTransportError(t *testing.T) {
	// Grab a port that is guaranteed closed.
	dead := httptest.NewServer(http.NotFoundHandler())
	base := dead.URL
	dead.Close()

	c := NewClient(base, 200*time.Millisecond)
	_, err := c.Active(context.Background())
	require.Error(t, err)
	assert.True(t, IsTransport(err))
}

func TestClient_ValidationErrorSurfaced(t *testing.T) {
	c := newClientAgainstServer(t)

	_, err := c.CreateEntry(context.Background(), &domain.TimeEntry{Start: 100, End: 50})
	assert.True(t, domain.IsValidation(err))
	assert.False(t, IsTransport(err))
}
