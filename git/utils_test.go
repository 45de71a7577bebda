package git

import (
	"testing"

	"github.com/grovetools/runwatch/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractRepoName(t *testing.T) {
	testCases := []struct {
		name     string
		url      string
		expected string
	}{
		{"SSH URL with .git", "git@github.com:lab/furnace-data.git", "furnace-data"},
		{"HTTPS URL with .git", "https://github.com/lab/furnace-data.git", "furnace-data"},
		{"HTTPS URL without .git", "https://github.com/lab/furnace-data", "furnace-data"},
		{"GitLab nested groups", "https://gitlab.com/group/subgroup/project.git", "project"},
		{"local bare path", "/srv/git/remote.git", "remote"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, extractRepoName(tc.url))
		})
	}
}

func TestRepoInfo(t *testing.T) {
	work, _ := testutil.InitRepoWithRemote(t)

	assert.True(t, IsGitRepo(work))
	assert.False(t, IsGitRepo(t.TempDir()))

	root, err := GetGitRoot(work)
	require.NoError(t, err)
	assert.NotEmpty(t, root)

	assert.Equal(t, "remote", RepoName(work, "origin"))
}
