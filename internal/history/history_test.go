package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twistedxcom/woodeye/internal/status"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), DBFileName))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordAndRecent(t *testing.T) {
	db := openTestDB(t)

	base := time.Now().Add(-time.Hour)
	require.NoError(t, db.Record(Transition{
		ProjectPath: "/p/a",
		SessionKey:  "k1",
		FromState:   status.StateUnknown,
		ToState:     status.StateWorking,
		At:          base,
	}))
	require.NoError(t, db.Record(Transition{
		ProjectPath: "/p/a",
		SessionKey:  "k1",
		FromState:   status.StateWorking,
		ToState:     status.StateWaitingForInput,
		LastTool:    "Bash",
		At:          base.Add(time.Minute),
	}))
	require.NoError(t, db.Record(Transition{
		ProjectPath: "/p/b",
		SessionKey:  "k2",
		FromState:   status.StateUnknown,
		ToState:     status.StateWorking,
		At:          base.Add(2 * time.Minute),
	}))

	all, err := db.Recent("", 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "/p/b", all[0].ProjectPath, "newest first")

	forA, err := db.Recent("/p/a", 10)
	require.NoError(t, err)
	require.Len(t, forA, 2)
	assert.Equal(t, status.StateWaitingForInput, forA[0].ToState)
	assert.Equal(t, "Bash", forA[0].LastTool)
	assert.Equal(t, status.StateWorking, forA[1].ToState)
}

func TestRecentLimit(t *testing.T) {
	db := openTestDB(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, db.Record(Transition{
			ProjectPath: "/p/a",
			FromState:   status.StateWorking,
			ToState:     status.StateIdle,
			At:          time.Now().Add(time.Duration(i) * time.Second),
		}))
	}

	got, err := db.Recent("", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestPrune(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Record(Transition{
		ProjectPath: "/p/a",
		FromState:   status.StateUnknown,
		ToState:     status.StateWorking,
		At:          time.Now().Add(-48 * time.Hour),
	}))
	require.NoError(t, db.Record(Transition{
		ProjectPath: "/p/a",
		FromState:   status.StateWorking,
		ToState:     status.StateIdle,
		At:          time.Now(),
	}))

	n, err := db.Prune(24 * time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	left, err := db.Recent("", 10)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, status.StateIdle, left[0].ToState)
}

func TestRecordDefaultsTimestamp(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Record(Transition{
		ProjectPath: "/p/a",
		FromState:   status.StateUnknown,
		ToState:     status.StateWorking,
	}))

	got, err := db.Recent("", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.WithinDuration(t, time.Now(), got[0].At, 5*time.Second)
}
