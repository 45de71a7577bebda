package store

import (
	"testing"
	"time"

	"github.com/grovetools/runwatch/errors"
	"github.com/grovetools/runwatch/internal/publish"
	"github.com/grovetools/runwatch/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRecordsAndBroadcasts(t *testing.T) {
	st := New("/repo", "/repo/results", "main")
	ch := st.Subscribe()
	defer st.Unsubscribe(ch)

	st.SetPending([]string{"01.15/a.csv"}, true)
	u := <-ch
	assert.Equal(t, UpdatePending, u.Type)

	st.SetSession(&session.Session{BranchID: "run-data/x", CumulativeFiles: []string{"a"}})
	assert.Equal(t, UpdateSession, (<-ch).Type)

	st.RecordOutcome(publish.Outcome{Kind: publish.Created, Branch: "run-data/x", At: time.Now()})
	assert.Equal(t, UpdateOutcome, (<-ch).Type)

	st.RecordProblem(errors.ManifestIncomplete("furnace_setpoint"))
	u = <-ch
	assert.Equal(t, UpdateProblem, u.Type)

	got := st.Get()
	assert.Equal(t, []string{"01.15/a.csv"}, got.Pending)
	assert.True(t, got.Armed)
	require.NotNil(t, got.Session)
	assert.Equal(t, "run-data/x", got.Session.BranchID)
	require.NotNil(t, got.LastResult)
	assert.Equal(t, publish.Created, got.LastResult.Kind)
	require.NotNil(t, got.LastError)
	assert.Equal(t, "MANIFEST_INCOMPLETE", got.LastError.Code)
	assert.Equal(t, map[string]int{"created": 1, "unresolved": 1}, got.Counts)
}

func TestFailedOutcomeSetsLastError(t *testing.T) {
	st := New("/repo", "/repo/results", "main")
	err := errors.CommandFailed("git push", 128, "remote hung up")
	st.RecordOutcome(publish.Outcome{Kind: publish.Failed, Stage: "git push", Err: err, Error: err.Error()})

	got := st.Get()
	require.NotNil(t, got.LastError)
	assert.Equal(t, "COMMAND_FAILED", got.LastError.Code)
	assert.Equal(t, 1, got.Counts["failed"])
}

func TestGetReturnsCopy(t *testing.T) {
	st := New("/repo", "/repo/results", "main")
	st.SetPending([]string{"a"}, false)
	st.SetSession(&session.Session{CumulativeFiles: []string{"a"}})

	got := st.Get()
	got.Pending[0] = "mutated"
	got.Session.CumulativeFiles[0] = "mutated"
	got.Counts["x"] = 1

	again := st.Get()
	assert.Equal(t, "a", again.Pending[0])
	assert.Equal(t, "a", again.Session.CumulativeFiles[0])
	assert.NotContains(t, again.Counts, "x")
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	st := New("/repo", "/repo/results", "main")
	ch := st.Subscribe()
	for i := 0; i < 150; i++ {
		st.SetPending(nil, false)
	}
	assert.Len(t, ch, 100)
	st.Unsubscribe(ch)
	st.Unsubscribe(ch)
}
