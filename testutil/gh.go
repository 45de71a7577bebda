package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// FakeGH is a shell stand-in for the gh CLI. It records every invocation,
// answers "pr list" from its own state, and "pr create" stores a request
// keyed by head branch.
type FakeGH struct {
	Path string
	Dir  string
}

const fakeGHScript = `#!/bin/sh
state="__STATE__"
echo "$*" >> "$state/calls.log"
sub="$1 $2"
shift 2
head=""
title=""
body=""
while [ $# -gt 0 ]; do
  case "$1" in
    --head) head="$2"; shift ;;
    --title) title="$2"; shift ;;
    --body-file) body="$2"; shift ;;
  esac
  shift
done
key=$(echo "$head" | tr '/' '_')
case "$sub" in
  "pr list")
    if [ -f "$state/prs/$key" ]; then cat "$state/prs/$key"; else echo "[]"; fi
    ;;
  "pr create")
    if [ -f "$state/fail_create" ]; then
      echo "GraphQL: could not create pull request" >&2
      exit 1
    fi
    n=$(ls "$state/prs" | wc -l)
    n=$((n + 1))
    url="https://github.com/example/furnace-data/pull/$n"
    echo "[{\"number\":$n,\"url\":\"$url\"}]" > "$state/prs/$key"
    printf '%s' "$title" > "$state/title"
    cp "$body" "$state/body"
    echo "$url"
    ;;
  *)
    echo "unknown command: $sub" >&2
    exit 2
    ;;
esac
`

// NewFakeGH writes the stub into a fresh temp directory.
func NewFakeGH(t *testing.T) *FakeGH {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "prs"), 0755))
	path := filepath.Join(dir, "gh")
	script := strings.ReplaceAll(fakeGHScript, "__STATE__", dir)
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))

	return &FakeGH{Path: path, Dir: dir}
}

// Calls returns the recorded argument lines.
func (f *FakeGH) Calls(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.Dir, "calls.log"))
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

// CountCalls counts invocations starting with prefix, e.g. "pr create".
func (f *FakeGH) CountCalls(t *testing.T, prefix string) int {
	t.Helper()
	n := 0
	for _, c := range f.Calls(t) {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// Title is the title of the last created request.
func (f *FakeGH) Title(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.Dir, "title"))
	require.NoError(t, err)
	return string(data)
}

// Body is the body of the last created request.
func (f *FakeGH) Body(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.Dir, "body"))
	require.NoError(t, err)
	return string(data)
}

// FailCreate makes "pr create" fail until called again with false.
func (f *FakeGH) FailCreate(t *testing.T, fail bool) {
	t.Helper()
	marker := filepath.Join(f.Dir, "fail_create")
	if fail {
		require.NoError(t, os.WriteFile(marker, nil, 0644))
		return
	}
	require.NoError(t, os.RemoveAll(marker))
}

// SeedRequest pretends a request for branch already exists.
func (f *FakeGH) SeedRequest(t *testing.T, branch string) {
	t.Helper()
	key := strings.ReplaceAll(branch, "/", "_")
	content := `[{"number":99,"url":"https://github.com/example/furnace-data/pull/99"}]`
	require.NoError(t, os.WriteFile(filepath.Join(f.Dir, "prs", key), []byte(content), 0644))
}
