package history

import (
	"testing"
	"time"

	"github.com/airchains-network/state-conformance/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	database, err := db.NewMemLevelDB()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestRunIDIsStable(t *testing.T) {
	at := time.Unix(1700000000, 0)
	id := RunID("a", "http://node", at)
	assert.Len(t, id, 16)
	assert.Equal(t, id, RunID("a", "http://node", at))
	assert.NotEqual(t, id, RunID("b", "http://node", at))
	assert.NotEqual(t, id, RunID("a", "http://node", at.Add(time.Nanosecond)))
}

func TestSaveAndGet(t *testing.T) {
	store := newStore(t)
	rec := &Record{
		Scenario:    "c",
		Node:        "simulated",
		Differences: 1,
		Report:      "table",
		StartedAt:   time.Unix(1700000000, 0).UTC(),
		Duration:    time.Second,
	}
	require.NoError(t, store.Save(rec))
	require.NotEmpty(t, rec.ID)

	got, err := store.Get(rec.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.Scenario, got.Scenario)
	assert.Equal(t, rec.Report, got.Report)
	assert.True(t, rec.StartedAt.Equal(got.StartedAt))
	assert.Equal(t, rec.Duration, got.Duration)

	missing, err := store.Get("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListNewestFirst(t *testing.T) {
	store := newStore(t)
	base := time.Unix(1700000000, 0)
	for i, name := range []string{"a", "b", "c"} {
		require.NoError(t, store.Save(&Record{Scenario: name, Passed: true, StartedAt: base.Add(time.Duration(i) * time.Minute)}))
	}

	all, err := store.List(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].Scenario)
	assert.Equal(t, "a", all[2].Scenario)

	limited, err := store.List(2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "b", limited[1].Scenario)
}

func TestListEmpty(t *testing.T) {
	records, err := newStore(t).List(5)
	require.NoError(t, err)
	assert.Empty(t, records)
}
