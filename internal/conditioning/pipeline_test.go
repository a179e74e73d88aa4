package conditioning

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/gesture.report/internal/dsp"
	"github.com/banshee-data/gesture.report/internal/testutil"
	"github.com/banshee-data/gesture.report/internal/timeutil"
	"github.com/banshee-data/gesture.report/internal/window"
)

const testRate = 1000.0

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.SampleRate = testRate
	cfg.WindowSeconds = 1
	cfg.NotchFrequencies = []float64{50}
	cfg.LowCut = 20
	cfg.HighCut = 200
	cfg.FilterOrder = 4
	return cfg
}

func quiet(string, ...interface{}) {}

// synthetic returns a channel with mains hum, an in-band tone, DC offset and
// noise, plus its time axis.
func synthetic(n int, seed uint64) (x, times []float64) {
	times = testutil.Times(n, testRate, 0)
	offset := make([]float64, n)
	for i := range offset {
		offset[i] = 1
	}
	x = testutil.Add(
		testutil.Tone(times, 50, 2, 0.5),
		testutil.Tone(times, 100, 0.5, 0),
		offset,
		testutil.Noise(n, 0.3, seed),
	)
	return x, times
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	assert.Equal(t, dsp.DefaultSampleRate, cfg.SampleRate)
	assert.Equal(t, 10.0, cfg.WindowSeconds)
	assert.Equal(t, []float64{30, 49.99, 60, 90, 150}, cfg.NotchFrequencies)
	assert.Equal(t, 20.0, cfg.LowCut)
	assert.Equal(t, 700.0, cfg.HighCut)
	assert.Equal(t, 5, cfg.FilterOrder)
	assert.Equal(t, "EMG", cfg.ChannelMarker)
	assert.Equal(t, []StageKind{StageNotch, StageBandpass}, cfg.Stages)

	p, err := New(cfg, WithLogger(quiet))
	require.NoError(t, err)
	assert.Len(t, p.Bandpass().A, 11)
	assert.Equal(t, DefaultStages(), p.Stages())
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		target error
	}{
		{"zero rate", func(c *Config) { c.SampleRate = 0 }, ErrInvalidConfig},
		{"empty window", func(c *Config) { c.WindowSeconds = 0.0001 }, ErrInvalidConfig},
		{"empty marker", func(c *Config) { c.ChannelMarker = "" }, ErrInvalidConfig},
		{"unknown stage", func(c *Config) { c.Stages = []StageKind{StageNotch, StageKind(7)} }, ErrInvalidConfig},
		{"cutoff above nyquist", func(c *Config) { c.HighCut = 600 }, dsp.ErrFilterDesign},
		{"unordered cutoffs", func(c *Config) { c.LowCut, c.HighCut = 200, 20 }, dsp.ErrFilterDesign},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			_, err := New(cfg)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
		})
	}
}

func TestCondition(t *testing.T) {
	t.Parallel()

	p, err := New(testConfig(), WithLogger(quiet))
	require.NoError(t, err)

	x, times := synthetic(4000, 1)
	orig := append([]float64(nil), x...)
	y, rep, err := p.Condition(x, times)
	require.NoError(t, err)
	require.Len(t, y, len(x))
	assert.Equal(t, orig, x, "input modified")

	assert.Equal(t, 4, rep.Windows)
	assert.Less(t, rep.RMSAfter, rep.RMSBefore)

	hum := testutil.BandEnergy(y, testRate, 50, 1) / testutil.BandEnergy(x, testRate, 50, 1)
	assert.Less(t, hum, 0.1, "50 Hz energy ratio")

	tone := testutil.BandEnergy(y, testRate, 100, 1) / testutil.BandEnergy(x, testRate, 100, 1)
	assert.InDelta(t, 1, tone, 0.2, "100 Hz energy ratio")

	// DC is outside the pass band.
	mid := y[1000:3000]
	assert.InDelta(t, 0, floats.Sum(mid)/float64(len(mid)), 0.05)
}

func TestCondition_Idempotence(t *testing.T) {
	t.Parallel()

	p, err := New(testConfig(), WithLogger(quiet))
	require.NoError(t, err)

	x, times := synthetic(4000, 2)
	once, _, err := p.Condition(x, times)
	require.NoError(t, err)
	twice, _, err := p.Condition(once, times)
	require.NoError(t, err)

	first := floats.Distance(once, x, 2)
	second := floats.Distance(twice, once, 2)
	assert.Greater(t, second, 0.0)
	assert.Less(t, second, 0.1*first, "first change %g, second change %g", first, second)
}

func TestCondition_BandpassOnly(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Stages = []StageKind{StageBandpass}
	p, err := New(cfg, WithLogger(quiet))
	require.NoError(t, err)

	x, times := synthetic(2000, 3)
	y, rep, err := p.Condition(x, times)
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Windows)

	want, err := dsp.FiltFilt(p.Bandpass(), x)
	require.NoError(t, err)
	assert.Equal(t, want, y)
}

func TestCondition_TooShort(t *testing.T) {
	t.Parallel()

	p, err := New(testConfig(), WithLogger(quiet))
	require.NoError(t, err)
	_, _, err = p.Condition(make([]float64, 500), nil)
	assert.True(t, errors.Is(err, window.ErrInvalidWindow), "got %v", err)
}

func testTable() Table {
	emg1, times := synthetic(2000, 4)
	emg2, _ := synthetic(2000, 5)
	traj := make([]float64, 2000)
	for i := 800; i < 1200; i++ {
		traj[i] = 3
	}
	return Table{
		Index: times,
		Columns: []Column{
			{Name: "EMG_8", Values: emg1},
			{Name: "TRAJ_1", Values: traj},
			{Name: "EMG_2", Values: emg2},
			{Name: "emg_lower", Values: append([]float64(nil), emg2...)},
		},
	}
}

func cloneTable(t Table) Table {
	out := Table{Index: append([]float64(nil), t.Index...)}
	for _, c := range t.Columns {
		out.Columns = append(out.Columns, Column{Name: c.Name, Values: append([]float64(nil), c.Values...)})
	}
	return out
}

func TestApplyToTable(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var logs []string
	logf := func(format string, v ...interface{}) {
		mu.Lock()
		defer mu.Unlock()
		logs = append(logs, fmt.Sprintf(format, v...))
	}
	clock := timeutil.NewMockClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	clock.SetStep(1500 * time.Millisecond)

	p, err := New(testConfig(), WithLogger(logf), WithClock(clock))
	require.NoError(t, err)

	in := testTable()
	orig := cloneTable(in)
	out, rep, err := p.ApplyToTable(context.Background(), in)
	require.NoError(t, err)

	if diff := cmp.Diff(orig, in); diff != "" {
		t.Errorf("input table modified (-want +got):\n%s", diff)
	}
	assert.Equal(t, in.Names(), out.Names())
	assert.Equal(t, in.Columns[1].Values, out.Columns[1].Values, "trajectory passes through")
	assert.Equal(t, in.Columns[3].Values, out.Columns[3].Values, "marker match is case-sensitive")
	assert.NotEqual(t, in.Columns[0].Values, out.Columns[0].Values)
	assert.NotEqual(t, in.Columns[2].Values, out.Columns[2].Values)

	want, _, err := p.Condition(in.Columns[0].Values, in.Index)
	require.NoError(t, err)
	assert.Equal(t, want, out.Columns[0].Values)

	require.Len(t, rep.Channels, 2)
	assert.Equal(t, "EMG_8", rep.Channels[0].Name)
	assert.Equal(t, "EMG_2", rep.Channels[1].Name)
	assert.Equal(t, 2, rep.Channels[0].Windows)
	assert.Equal(t, 1500*time.Millisecond, rep.Elapsed)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, logs, "channel EMG_8 (1/2)")
	assert.Contains(t, logs, "channel EMG_2 (2/2)")
	assert.Contains(t, logs, "conditioned 2 channels in 1.50s")
}

func TestApplyToTable_ParallelMatchesSequential(t *testing.T) {
	t.Parallel()

	seq, err := New(testConfig(), WithLogger(quiet))
	require.NoError(t, err)
	cfg := testConfig()
	cfg.Parallelism = 4
	par, err := New(cfg, WithLogger(quiet))
	require.NoError(t, err)

	in := testTable()
	a, ra, err := seq.ApplyToTable(context.Background(), in)
	require.NoError(t, err)
	b, rb, err := par.ApplyToTable(context.Background(), in)
	require.NoError(t, err)

	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("parallel table differs (-seq +par):\n%s", diff)
	}
	assert.Equal(t, ra.Channels, rb.Channels)
}

func TestApplyToTable_NoMarkedChannels(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.ChannelMarker = "FORCE"
	p, err := New(cfg, WithLogger(quiet))
	require.NoError(t, err)

	in := testTable()
	out, rep, err := p.ApplyToTable(context.Background(), in)
	require.NoError(t, err)
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("table changed (-want +got):\n%s", diff)
	}
	assert.Empty(t, rep.Channels)
}

func TestApplyToTable_Errors(t *testing.T) {
	t.Parallel()

	p, err := New(testConfig(), WithLogger(quiet))
	require.NoError(t, err)

	ragged := testTable()
	ragged.Columns[1].Values = ragged.Columns[1].Values[:10]
	_, _, err = p.ApplyToTable(context.Background(), ragged)
	assert.True(t, errors.Is(err, ErrRaggedTable), "got %v", err)

	short := Table{Columns: []Column{{Name: "EMG_1", Values: make([]float64, 100)}}}
	_, _, err = p.ApplyToTable(context.Background(), short)
	assert.True(t, errors.Is(err, window.ErrInvalidWindow), "got %v", err)
	assert.Contains(t, err.Error(), "EMG_1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = p.ApplyToTable(ctx, testTable())
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestStageKind(t *testing.T) {
	t.Parallel()

	for _, k := range DefaultStages() {
		got, err := ParseStageKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseStageKind("lowpass")
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.Equal(t, "StageKind(9)", StageKind(9).String())
}
