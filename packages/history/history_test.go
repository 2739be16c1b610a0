package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/volley/packages/core/runner"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "volley.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_SaveAndLoadRun(t *testing.T) {
	store := openTestStore(t)

	result := &runner.Result{
		Records: []*runner.Record{
			{Status: 200, StatusText: "OK", Method: "GET", URL: "http://localhost:1234/a", ServerResponseTimeMS: 5, ResponseBody: "one"},
			{Status: 404, StatusText: "Not Found", Method: "DELETE", URL: "http://localhost:1234/b", ServerResponseTimeMS: 7},
		},
		Skipped:  1,
		Duration: 42 * time.Millisecond,
	}
	run := NewRun("requests.yml", time.Now(), result)
	require.NotEmpty(t, run.ID)

	require.NoError(t, store.SaveRun(run, result.Records))

	runs, err := store.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	assert.Equal(t, "requests.yml", runs[0].Source)
	assert.Equal(t, 3, runs[0].Total)
	assert.Equal(t, 1, runs[0].Skipped)
	assert.Equal(t, 42*time.Millisecond, runs[0].Duration)

	records, err := store.Records(run.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, result.Records[0], records[0])
	assert.Equal(t, result.Records[1], records[1])
}

func TestStore_ListRuns_NewestFirstWithLimit(t *testing.T) {
	store := openTestStore(t)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		run := NewRun("requests.yml", base.Add(time.Duration(i)*time.Minute), &runner.Result{})
		require.NoError(t, store.SaveRun(run, nil))
	}

	runs, err := store.ListRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.True(t, runs[0].StartedAt.After(runs[1].StartedAt))
}

func TestStore_DistinctRunIDs(t *testing.T) {
	a := NewRun("a.yml", time.Now(), &runner.Result{})
	b := NewRun("a.yml", time.Now(), &runner.Result{})

	assert.NotEqual(t, a.ID, b.ID)
}

func TestStore_RecordsOfUnknownRun(t *testing.T) {
	store := openTestStore(t)

	records, err := store.Records("no-such-run")

	require.NoError(t, err)
	assert.Empty(t, records)
}
