package rundir_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/robert-malhotra/h5dict/rundir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2026, 3, 5, 14, 2, 7, 0, time.Local)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestDirLayouts(t *testing.T) {
	t.Parallel()
	base := t.TempDir()

	tests := []struct {
		name  string
		namer rundir.Namer
		run   string
		want  string
	}{
		{"flat", rundir.Namer{Base: base}, "rabi", base},
		{"date", *rundir.New(base), "rabi", filepath.Join(base, "20260305")},
		{"time", rundir.Namer{Base: base, DateSubdir: true, TimeSubdir: true}, "rabi", filepath.Join(base, "20260305", "140207_rabi")},
		{"time unnamed", rundir.Namer{Base: base, TimeSubdir: true}, "", filepath.Join(base, "140207")},
	}
	for _, tc := range tests {
		got, err := tc.namer.Dir(tc.run, start)
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.want, got, tc.name)
	}
}

func TestDirProbesCollisions(t *testing.T) {
	t.Parallel()
	base := t.TempDir()
	day := filepath.Join(base, "20260305")
	require.NoError(t, os.MkdirAll(filepath.Join(day, "140207_other"), 0o755))
	touch(t, filepath.Join(day, "140208"))
	touch(t, filepath.Join(day, "14020"))

	n := rundir.Namer{Base: base, DateSubdir: true, TimeSubdir: true}
	got, err := n.Dir("rabi", start)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(day, "140209_rabi"), got)
}

func TestFile(t *testing.T) {
	t.Parallel()
	base := t.TempDir()

	n := rundir.New(base)
	got, err := n.File("rabi", start)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "20260305", "rabi.hdf5"), got)

	n.TimeFilename = true
	touch(t, filepath.Join(base, "20260305", "140207_rabi.hdf5"))
	got, err = n.File("rabi", start)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "20260305", "140208_rabi.hdf5"), got)
}

func TestZeroTimeUsesClock(t *testing.T) {
	t.Parallel()
	n := rundir.Namer{Base: "/data", DateSubdir: true, TimeSubdir: true, Clock: func() time.Time { return start }}
	got, err := n.Dir("x", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/data", "20260305", "140207_x"), got)
}

func TestProbeExhausted(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	ts := time.Date(2026, 3, 5, 10, 0, 0, 0, time.Local)
	for i := range rundir.MaxAttempts - 1 {
		touch(t, filepath.Join(dir, ts.Add(time.Duration(i)*time.Second).Format(rundir.TimeLayout)))
	}

	free, err := rundir.Probe(dir, ts)
	require.NoError(t, err)
	assert.Equal(t, "105959", free.Format(rundir.TimeLayout))

	touch(t, filepath.Join(dir, "105959.hdf5"))
	_, err = rundir.Probe(dir, ts)
	var pe *rundir.ProbeError
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, rundir.ErrProbeExhausted)
	assert.Equal(t, "105959", pe.Prefix)
	assert.Equal(t, rundir.MaxAttempts, pe.Attempts)
}

func TestProbeMissingDir(t *testing.T) {
	t.Parallel()
	free, err := rundir.Probe(filepath.Join(t.TempDir(), "nope"), start)
	require.NoError(t, err)
	assert.True(t, free.Equal(start))
}
