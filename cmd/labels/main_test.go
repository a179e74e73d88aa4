package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/gesture.report/internal/conditioning"
	"github.com/banshee-data/gesture.report/internal/config"
	"github.com/banshee-data/gesture.report/internal/db"
	"github.com/banshee-data/gesture.report/internal/labels"
	"github.com/banshee-data/gesture.report/internal/recording"
)

func writeRecording(t *testing.T, dir string, trajectory, recognized []float64) string {
	t.Helper()
	index := make([]float64, len(trajectory))
	emg := make([]float64, len(trajectory))
	for i := range index {
		index[i] = float64(i) * 0.01
		emg[i] = float64(i)
	}
	table := conditioning.Table{
		Index: index,
		Columns: []conditioning.Column{
			{Name: "EMG_1", Values: emg},
			{Name: "TRAJ_1", Values: trajectory},
			{Name: "TRAJ_GT", Values: recognized},
		},
	}
	path := filepath.Join(dir, "rec.csv")
	require.NoError(t, recording.WriteFile(path, table))
	return path
}

func baseOptions(dir, in string) options {
	return options{
		in:         in,
		out:        filepath.Join(dir, "labeled.csv"),
		policy:     policyTransitions,
		trajectory: "TRAJ_1",
		recognized: "TRAJ_GT",
		column:     "output_0",
	}
}

func TestRun_Transitions(t *testing.T) {
	dir := t.TempDir()
	traj := []float64{0, 0, 3, 3, -1, -1, 3, 0}
	o := baseOptions(dir, writeRecording(t, dir, traj, make([]float64, len(traj))))
	o.chart = filepath.Join(dir, "timeline.html")
	o.db = filepath.Join(dir, "runs.db")
	require.NoError(t, run(o))

	out, err := recording.ReadFile(o.out)
	require.NoError(t, err)
	assert.Equal(t, []string{"EMG_1", "TRAJ_1", "TRAJ_GT", "output_0"}, out.Names())
	got, err := recording.IntColumn(out, "output_0")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 3, 3, -6, -6, 3, 0}, got)

	html, err := os.ReadFile(o.chart)
	require.NoError(t, err)
	assert.Contains(t, string(html), "output_0")
	assert.NotContains(t, string(html), "TRAJ_GT", "transitions chart has no recognized series")

	store, err := db.Open(o.db)
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	stats, err := store.LabelStats(runs[0].RunID)
	require.NoError(t, err)
	want := []db.LabelStat{
		{RunID: runs[0].RunID, Policy: policyTransitions, Label: -6, Frames: 2},
		{RunID: runs[0].RunID, Policy: policyTransitions, Label: 0, Frames: 3},
		{RunID: runs[0].RunID, Policy: policyTransitions, Label: 3, Frames: 3},
	}
	assert.Equal(t, want, stats)
}

func TestRun_DropNegative(t *testing.T) {
	dir := t.TempDir()
	traj := []float64{0, 0, 3, 3, -1, -1, 3, 0}
	o := baseOptions(dir, writeRecording(t, dir, traj, make([]float64, len(traj))))
	o.dropNegative = true
	require.NoError(t, run(o))

	out, err := recording.ReadFile(o.out)
	require.NoError(t, err)
	assert.Equal(t, 6, out.Rows())
	var wantIndex []float64
	for _, i := range []int{0, 1, 2, 3, 6, 7} {
		wantIndex = append(wantIndex, float64(i)*0.01)
	}
	assert.Equal(t, wantIndex, out.Index)
	emg, ok := out.Column("EMG_1")
	require.True(t, ok)
	assert.Equal(t, []float64{0, 1, 2, 3, 6, 7}, emg.Values)
}

func TestRun_Smart(t *testing.T) {
	dir := t.TempDir()
	n := 20
	o := baseOptions(dir, writeRecording(t, dir, make([]float64, n), make([]float64, n)))
	o.policy = policySmart
	o.chart = filepath.Join(dir, "timeline.html")
	require.NoError(t, run(o))

	out, err := recording.ReadFile(o.out)
	require.NoError(t, err)
	got, err := recording.IntColumn(out, "output_0")
	require.NoError(t, err)
	assert.Equal(t, make([]int, n), got)

	html, err := os.ReadFile(o.chart)
	require.NoError(t, err)
	assert.Contains(t, string(html), "TRAJ_GT")
}

func TestRelabel(t *testing.T) {
	cfg := config.EmptyConfig()
	traj := []int{0, 2, 2, 0}
	rec := []int{0, 2, 2, 0}

	for _, p := range []string{policySmart, policyVGG} {
		_, _, err := relabel(options{policy: p}, cfg, traj, rec)
		assert.NoError(t, err, p)
	}

	_, _, err := relabel(options{policy: policyRecognition}, cfg, traj, rec)
	assert.ErrorContains(t, err, "-gestures")

	seq, params, err := relabel(options{policy: policyRecognition, gestures: []int{2}}, cfg, traj, rec)
	require.NoError(t, err)
	assert.Len(t, seq, 4)
	assert.NotNil(t, params)

	_, _, err = relabel(options{policy: "median"}, cfg, traj, rec)
	assert.ErrorContains(t, err, "unknown policy")

	_, _, err = relabel(options{policy: policySmart}, cfg, traj, rec[:2])
	assert.ErrorIs(t, err, labels.ErrShapeMismatch)
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()
	in := writeRecording(t, dir, []float64{0, 1.5}, []float64{0, 0})

	err := run(baseOptions(dir, in))
	assert.ErrorIs(t, err, recording.ErrFormat, "non-integer trajectory")

	o := baseOptions(dir, in)
	o.trajectory = "TRAJ_9"
	assert.ErrorContains(t, run(o), "TRAJ_9")

	o = baseOptions(dir, in)
	o.config = filepath.Join(dir, "missing.json")
	assert.Error(t, run(o))
}

func TestParseGestures(t *testing.T) {
	got, err := parseGestures("1, 2,3")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, got)

	got, err = parseGestures("  ")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = parseGestures("1,x")
	assert.Error(t, err)
}

func TestFlagDefaults(t *testing.T) {
	if *policy != policyTransitions {
		t.Errorf("expected default policy %q, got %q", policyTransitions, *policy)
	}
	if *trajectoryCol != "" || *recognizedCol != "TRAJ_GT" || *outputCol != "output_0" {
		t.Errorf("unexpected column defaults %q %q %q", *trajectoryCol, *recognizedCol, *outputCol)
	}
	if *dropNegative {
		t.Error("expected drop-negative to default to false")
	}
}

func TestTrajectoryColumn(t *testing.T) {
	tests := []struct {
		policy, col, want string
	}{
		{policyTransitions, "", "TRAJ_GT"},
		{policySmart, "", "TRAJ_1"},
		{policyVGG, "", "TRAJ_1"},
		{policyRecognition, "", "TRAJ_1"},
		{policyTransitions, "TRAJ_2", "TRAJ_2"},
		{policySmart, "TRAJ_GT", "TRAJ_GT"},
	}
	for _, tt := range tests {
		if got := trajectoryColumn(tt.policy, tt.col); got != tt.want {
			t.Errorf("trajectoryColumn(%q, %q) = %q, want %q", tt.policy, tt.col, got, tt.want)
		}
	}
}
