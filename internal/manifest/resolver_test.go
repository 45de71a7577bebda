package manifest

import (
	"path/filepath"
	"testing"

	"github.com/grovetools/runwatch/errors"
	"github.com/grovetools/runwatch/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResolver(t *testing.T) (*Resolver, string) {
	t.Helper()
	root := t.TempDir()
	r, err := New(Options{
		Root:           root,
		Manifest:       "run_metadata.json",
		RequiredFields: []string{"run_type", "date", "furnace_setpoint"},
		DatePattern:    `^\d{2}\.\d{2}$`,
		RunPattern:     `^run_\d+_\d{2}h\d{2}$`,
	})
	require.NoError(t, err)
	return r, root
}

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	testutil.WriteFile(t, filepath.Join(root, filepath.FromSlash(rel)), content)
}

func TestResolve(t *testing.T) {
	r, root := newResolver(t)
	write(t, root, "01.15/run_3_09h30/run_metadata.json",
		`{"run_info": {"run_type": "anneal", "date": "01.15", "furnace_setpoint": 900, "operator": "kim"}}`)

	paths := []string{
		"01.15/run_3_09h30/temps.csv",
		"01.15/run_3_09h30/run_metadata.json",
		"01.15/run_3_09h30/log.txt",
	}
	meta, err := r.Resolve(paths)
	require.NoError(t, err)

	assert.Equal(t, "01.15", meta.DateFolder)
	assert.Equal(t, "run_3_09h30", meta.RunFolder)
	assert.Equal(t, "01.15-run_3_09h30", meta.Label())
	assert.Equal(t, "01.15/run_3_09h30/run_metadata.json", meta.ManifestPath)
	assert.Equal(t, 3, meta.TotalFiles)
	assert.Equal(t, []string{
		"01.15/run_3_09h30/log.txt",
		"01.15/run_3_09h30/run_metadata.json",
		"01.15/run_3_09h30/temps.csv",
	}, meta.Files)

	info := meta.Manifest.RunInfo
	assert.Equal(t, "anneal", info.RunType)
	assert.Equal(t, "01.15", info.Date)
	assert.Equal(t, Setpoint("900"), info.FurnaceSetpoint)
	assert.Equal(t, []string{"operator"}, info.ExtraKeys())

	assert.Equal(t, "01.15/run_3_09h30/temps.csv", paths[0], "input is not reordered")
}

func TestResolveSetpointForms(t *testing.T) {
	tests := []struct {
		raw  string
		want Setpoint
	}{
		{`900`, "900"},
		{`900.5`, "900.5"},
		{`"1173"`, "1173"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			r, root := newResolver(t)
			write(t, root, "01.15/run_1_08h00/run_metadata.json", testutil.Manifest("melt", "01.15", tt.raw))

			meta, err := r.Resolve([]string{"01.15/run_1_08h00/run_metadata.json"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, meta.Manifest.RunInfo.FurnaceSetpoint)
		})
	}
}

func TestResolveFailures(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		paths    []string
		code     errors.ErrorCode
		detail   string
		expected string
	}{
		{
			name:  "no manifest in batch",
			paths: []string{"01.15/run_3_09h30/temps.csv"},
			code:  errors.ErrCodeManifestMissing,
		},
		{
			name:  "malformed json",
			files: map[string]string{"01.15/run_3_09h30/run_metadata.json": `{"run_info": `},
			paths: []string{"01.15/run_3_09h30/run_metadata.json"},
			code:  errors.ErrCodeManifestInvalid,
		},
		{
			name:  "manifest deleted before pass",
			paths: []string{"01.15/run_3_09h30/run_metadata.json"},
			code:  errors.ErrCodeManifestInvalid,
		},
		{
			name:  "array document",
			files: map[string]string{"01.15/run_3_09h30/run_metadata.json": `[1, 2]`},
			paths: []string{"01.15/run_3_09h30/run_metadata.json"},
			code:  errors.ErrCodeManifestInvalid,
		},
		{
			name:     "missing run_info",
			files:    map[string]string{"01.15/run_3_09h30/run_metadata.json": `{"other": 1}`},
			paths:    []string{"01.15/run_3_09h30/run_metadata.json"},
			code:     errors.ErrCodeManifestIncomplete,
			detail:   "field",
			expected: "run_info",
		},
		{
			name:     "missing setpoint",
			files:    map[string]string{"01.15/run_3_09h30/run_metadata.json": `{"run_info": {"run_type": "anneal", "date": "01.15"}}`},
			paths:    []string{"01.15/run_3_09h30/run_metadata.json"},
			code:     errors.ErrCodeManifestIncomplete,
			detail:   "field",
			expected: "furnace_setpoint",
		},
		{
			name:     "null field",
			files:    map[string]string{"01.15/run_3_09h30/run_metadata.json": `{"run_info": {"run_type": null, "date": "01.15", "furnace_setpoint": 1}}`},
			paths:    []string{"01.15/run_3_09h30/run_metadata.json"},
			code:     errors.ErrCodeManifestIncomplete,
			detail:   "field",
			expected: "run_type",
		},
		{
			name:  "wrong type",
			files: map[string]string{"01.15/run_3_09h30/run_metadata.json": `{"run_info": {"run_type": 7, "date": "01.15", "furnace_setpoint": 1}}`},
			paths: []string{"01.15/run_3_09h30/run_metadata.json"},
			code:  errors.ErrCodeManifestInvalid,
		},
		{
			name:     "no date folder",
			files:    map[string]string{"misc/run_3_09h30/run_metadata.json": testutil.Manifest("anneal", "01.15", "900")},
			paths:    []string{"misc/run_3_09h30/run_metadata.json"},
			code:     errors.ErrCodeStructureUnrecognized,
			detail:   "which",
			expected: "date",
		},
		{
			name:     "no run folder",
			files:    map[string]string{"01.15/scratch/run_metadata.json": testutil.Manifest("anneal", "01.15", "900")},
			paths:    []string{"01.15/scratch/run_metadata.json"},
			code:     errors.ErrCodeStructureUnrecognized,
			detail:   "which",
			expected: "run",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, root := newResolver(t)
			for rel, content := range tt.files {
				write(t, root, rel, content)
			}

			meta, err := r.Resolve(tt.paths)
			require.Error(t, err)
			assert.Nil(t, meta)
			assert.Equal(t, tt.code, errors.GetCode(err), err.Error())
			if tt.detail != "" {
				e, _ := errors.As(err)
				assert.Equal(t, tt.expected, e.Detail(tt.detail))
			}
		})
	}
}

func TestResolvePicksFirstManifest(t *testing.T) {
	r, root := newResolver(t)
	write(t, root, "01.15/run_2_08h00/run_metadata.json", testutil.Manifest("quench", "01.15", "700"))
	write(t, root, "01.15/run_3_09h30/run_metadata.json", testutil.Manifest("anneal", "01.15", "900"))

	meta, err := r.Resolve([]string{
		"01.15/run_3_09h30/run_metadata.json",
		"01.15/run_2_08h00/run_metadata.json",
	})
	require.NoError(t, err)
	assert.Equal(t, "run_2_08h00", meta.RunFolder)
	assert.Equal(t, "quench", meta.Manifest.RunInfo.RunType)
}

func TestResolveRetryAfterManifestArrives(t *testing.T) {
	r, root := newResolver(t)
	paths := []string{"01.15/run_3_09h30/temps.csv"}

	_, err := r.Resolve(paths)
	assert.True(t, errors.Is(err, errors.ErrCodeManifestMissing))

	write(t, root, "01.15/run_3_09h30/run_metadata.json", testutil.Manifest("anneal", "01.15", "900"))
	paths = append(paths, "01.15/run_3_09h30/run_metadata.json")

	meta, err := r.Resolve(paths)
	require.NoError(t, err)
	assert.Equal(t, 2, meta.TotalFiles)
}

func TestResolveYAMLManifest(t *testing.T) {
	root := t.TempDir()
	r, err := New(Options{
		Root:           root,
		Manifest:       "run.yaml",
		RequiredFields: []string{"run_type"},
		DatePattern:    `^\d{2}\.\d{2}$`,
		RunPattern:     `^run_\d+_\d{2}h\d{2}$`,
	})
	require.NoError(t, err)
	write(t, root, "02.01/run_1_10h15/run.yaml", "run_info:\n  run_type: sinter\n  furnace_setpoint: 1200\n")

	meta, err := r.Resolve([]string{"02.01/run_1_10h15/run.yaml"})
	require.NoError(t, err)
	assert.Equal(t, "sinter", meta.Manifest.RunInfo.RunType)
	assert.Equal(t, Setpoint("1200"), meta.Manifest.RunInfo.FurnaceSetpoint)
}

func TestResolveDir(t *testing.T) {
	r, root := newResolver(t)
	write(t, root, "01.15/run_3_09h30/run_metadata.json", testutil.Manifest("anneal", "01.15", "900"))
	write(t, root, "01.15/run_3_09h30/temps.csv", "1\n")

	meta, err := r.ResolveDir(filepath.Join(root, "01.15", "run_3_09h30"))
	require.NoError(t, err)
	assert.Equal(t, 2, meta.TotalFiles)
}

func TestNewRejectsBadPatterns(t *testing.T) {
	_, err := New(Options{DatePattern: "(", RunPattern: "x"})
	assert.Error(t, err)
}
