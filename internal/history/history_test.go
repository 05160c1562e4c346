package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uibridge/internal/db"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "nested", "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, database.Migrate())
	require.NoError(t, database.Migrate(), "migrate is idempotent")

	s := NewStore(database)
	clock := time.UnixMilli(1_700_000_000_000)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return s
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.BeginRun(ctx, "surface-1", "run-a", ProtocolA2UI))
	require.NoError(t, s.FinishRun(ctx, "run-a", 4, nil))
	require.NoError(t, s.BeginRun(ctx, "surface-1", "run-b", ProtocolA2UI))
	require.NoError(t, s.FinishRun(ctx, "run-b", 1, errors.New("overloaded")))
	require.NoError(t, s.BeginRun(ctx, "surface-1", "run-c", ProtocolA2UI))

	sess, err := s.GetSession(ctx, "surface-1")
	require.NoError(t, err)
	assert.Equal(t, ProtocolA2UI, sess.Protocol)
	assert.Equal(t, 3, sess.RunCount)
	require.Len(t, sess.Runs, 3)

	a, b, c := sess.Runs[0], sess.Runs[1], sess.Runs[2]
	assert.Equal(t, "run-a", a.ID)
	assert.Equal(t, StatusFinished, a.Status)
	assert.Equal(t, 4, a.MessageCount)
	assert.Empty(t, a.Error)
	require.NotNil(t, a.FinishedAt)
	assert.True(t, a.FinishedAt.After(a.StartedAt))

	assert.Equal(t, StatusError, b.Status)
	assert.Equal(t, "overloaded", b.Error)

	assert.Equal(t, StatusRunning, c.Status)
	assert.Nil(t, c.FinishedAt)
	assert.True(t, sess.UpdatedAt.After(sess.CreatedAt))
}

func TestBeginRunResetsExistingRun(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.BeginRun(ctx, "thread-1", "run-1", ProtocolAGUI))
	require.NoError(t, s.FinishRun(ctx, "run-1", 9, errors.New("boom")))
	require.NoError(t, s.BeginRun(ctx, "thread-1", "run-1", ProtocolAGUI))

	sess, err := s.GetSession(ctx, "thread-1")
	require.NoError(t, err)
	require.Len(t, sess.Runs, 1)
	assert.Equal(t, StatusRunning, sess.Runs[0].Status)
	assert.Zero(t, sess.Runs[0].MessageCount)
	assert.Empty(t, sess.Runs[0].Error)
}

func TestFinishUnknownRun(t *testing.T) {
	s := newTestStore(t)
	assert.Error(t, s.FinishRun(context.Background(), "missing", 0, nil))
}

func TestGetSessionNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetSession(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListSessions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.BeginRun(ctx, "old", "r1", ProtocolA2UI))
	require.NoError(t, s.BeginRun(ctx, "new", "r2", ProtocolAGUI))
	require.NoError(t, s.BeginRun(ctx, "new", "r3", ProtocolAGUI))

	all, err := s.ListSessions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "new", all[0].ID, "most recently updated first")
	assert.Equal(t, 2, all[0].RunCount)
	assert.Equal(t, ProtocolAGUI, all[0].Protocol)
	assert.Equal(t, "old", all[1].ID)
	assert.Equal(t, 1, all[1].RunCount)
	assert.Nil(t, all[0].Runs)

	limited, err := s.ListSessions(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestListSessionsEmpty(t *testing.T) {
	sessions, err := newTestStore(t).ListSessions(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}
