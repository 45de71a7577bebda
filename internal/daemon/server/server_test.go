package server

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/grovetools/runwatch/internal/daemon/store"
	"github.com/grovetools/runwatch/internal/publish"
	"github.com/grovetools/runwatch/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, flush FlushFunc) (*store.Store, *httptest.Server) {
	t.Helper()
	st := store.New("/repo", "/repo/results", "main")
	srv := New(st, flush, logging.NewLogger("server"))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return st, ts
}

func TestHealthAndStatus(t *testing.T) {
	st, ts := newTestServer(t, nil)
	st.SetPending([]string{"01.15/a.csv"}, true)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got store.State
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "/repo/results", got.WatchRoot)
	assert.Equal(t, []string{"01.15/a.csv"}, got.Pending)
	assert.True(t, got.Armed)

	resp, err = http.Post(ts.URL+"/api/status", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestFlush(t *testing.T) {
	var calls int32
	_, ts := newTestServer(t, func() bool {
		atomic.AddInt32(&calls, 1)
		return true
	})

	resp, err := http.Get(ts.URL + "/api/flush")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.Post(ts.URL+"/api/flush", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var body map[string]bool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body["pending"])
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFlushUnavailable(t *testing.T) {
	_, ts := newTestServer(t, nil)
	resp, err := http.Post(ts.URL+"/api/flush", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestStream(t *testing.T) {
	st, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/api/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string, 10)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if line := scanner.Text(); strings.HasPrefix(line, "data: ") {
				lines <- strings.TrimPrefix(line, "data: ")
			}
		}
	}()

	next := func() map[string]interface{} {
		select {
		case line := <-lines:
			var msg map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(line), &msg))
			return msg
		case <-time.After(5 * time.Second):
			t.Fatal("no SSE message")
			return nil
		}
	}

	assert.Equal(t, "status", next()["type"])

	st.RecordOutcome(publish.Outcome{Kind: publish.Updated, Branch: "run-data/x"})
	msg := next()
	assert.Equal(t, "outcome", msg["type"])
	payload, ok := msg["payload"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "updated", payload["kind"])
	assert.Equal(t, "run-data/x", payload["branch"])
}
