package conditioning

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/gesture.report/internal/dsp"
	"github.com/banshee-data/gesture.report/internal/monitoring"
	"github.com/banshee-data/gesture.report/internal/timeutil"
)

// Config holds the conditioning parameters.
type Config struct {
	SampleRate       float64
	WindowSeconds    float64
	NotchFrequencies []float64
	LowCut           float64
	HighCut          float64
	FilterOrder      int
	// ChannelMarker selects signal columns by case-sensitive substring.
	ChannelMarker string
	// Parallelism bounds concurrently conditioned channels and, within a
	// channel, concurrently fitted notch frequencies.
	Parallelism       int
	FreqTolerance     float64
	GradientTolerance float64
	MaxIterations     int
	Stages            []StageKind
}

// DefaultConfig returns the conditioning defaults for putEMG recordings.
func DefaultConfig() Config {
	return Config{
		SampleRate:        dsp.DefaultSampleRate,
		WindowSeconds:     dsp.DefaultWindowSeconds,
		NotchFrequencies:  append([]float64(nil), dsp.DefaultNotchFrequencies...),
		LowCut:            20,
		HighCut:           700,
		FilterOrder:       dsp.DefaultFilterOrder,
		ChannelMarker:     "EMG",
		Parallelism:       1,
		FreqTolerance:     dsp.DefaultFreqTolerance,
		GradientTolerance: dsp.DefaultGradientTolerance,
		MaxIterations:     dsp.DefaultMaxIterations,
		Stages:            DefaultStages(),
	}
}

// ChannelReport summarises the conditioning of one channel.
type ChannelReport struct {
	Name      string
	RMSBefore float64
	RMSAfter  float64
	// Windows is the number of notch windows fitted per frequency.
	Windows int
	// Nonconverged counts notch window fits that stopped early.
	Nonconverged int
}

// Report summarises a table conditioning run.
type Report struct {
	Channels []ChannelReport
	Elapsed  time.Duration
}

// Pipeline conditions signal channels. It is safe for concurrent use.
type Pipeline struct {
	cfg      Config
	stages   []StageKind
	notch    *dsp.AdaptiveNotch
	bandpass dsp.Coefficients
	clock    timeutil.Clock
	logf     func(format string, v ...interface{})
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock sets the clock used to measure elapsed time.
func WithClock(c timeutil.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// WithLogger sets the progress logger. It defaults to monitoring.Logf with a
// "[conditioning]" prefix.
func WithLogger(logf func(format string, v ...interface{})) Option {
	return func(p *Pipeline) { p.logf = logf }
}

// New validates cfg, designs the bandpass filter and returns a pipeline.
func New(cfg Config, opts ...Option) (*Pipeline, error) {
	if !(cfg.SampleRate > 0) {
		return nil, fmt.Errorf("%w: sample rate %g must be positive", ErrInvalidConfig, cfg.SampleRate)
	}
	if !(cfg.WindowSeconds > 0) || int(cfg.WindowSeconds*cfg.SampleRate) < 1 {
		return nil, fmt.Errorf("%w: window of %gs holds no samples", ErrInvalidConfig, cfg.WindowSeconds)
	}
	if cfg.ChannelMarker == "" {
		return nil, fmt.Errorf("%w: channel marker must not be empty", ErrInvalidConfig)
	}
	stages := cfg.Stages
	if len(stages) == 0 {
		stages = DefaultStages()
	}
	for _, k := range stages {
		if k != StageNotch && k != StageBandpass {
			return nil, fmt.Errorf("%w: unknown stage %v", ErrInvalidConfig, k)
		}
	}

	band, err := dsp.DesignBandpass(cfg.LowCut, cfg.HighCut, cfg.SampleRate, cfg.FilterOrder)
	if err != nil {
		return nil, err
	}

	notch := dsp.NewAdaptiveNotch(cfg.SampleRate)
	notch.WindowSeconds = cfg.WindowSeconds
	notch.Frequencies = append([]float64(nil), cfg.NotchFrequencies...)
	notch.Parallelism = cfg.Parallelism
	notch.Fitter = dsp.HarmonicFitter{
		FreqTolerance:     cfg.FreqTolerance,
		GradientTolerance: cfg.GradientTolerance,
		MaxIterations:     cfg.MaxIterations,
	}

	p := &Pipeline{
		cfg:      cfg,
		stages:   append([]StageKind(nil), stages...),
		notch:    notch,
		bandpass: band,
		clock:    timeutil.RealClock{},
		logf:     monitoring.Tagged("conditioning"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Stages returns the stage order of the pipeline.
func (p *Pipeline) Stages() []StageKind {
	return append([]StageKind(nil), p.stages...)
}

// Bandpass returns the designed bandpass coefficients.
func (p *Pipeline) Bandpass() dsp.Coefficients {
	return p.bandpass
}

// Condition returns bandpass(samples - notch(samples)) for one channel.
// times gives the timestamp of each sample and may be nil.
func (p *Pipeline) Condition(samples, times []float64) ([]float64, ChannelReport, error) {
	rep := ChannelReport{RMSBefore: rms(samples)}
	x := samples
	for _, kind := range p.stages {
		switch kind {
		case StageNotch:
			est, err := p.notch.Suppress(x, times)
			if err != nil {
				return nil, ChannelReport{}, fmt.Errorf("%s stage: %w", kind, err)
			}
			clean := make([]float64, len(x))
			floats.SubTo(clean, x, est.Interference)
			x = clean
			rep.Windows = est.Windows
			rep.Nonconverged += est.Nonconverged
		case StageBandpass:
			y, err := dsp.FiltFilt(p.bandpass, x)
			if err != nil {
				return nil, ChannelReport{}, fmt.Errorf("%s stage: %w", kind, err)
			}
			x = y
		}
	}
	rep.RMSAfter = rms(x)
	return x, rep, nil
}

// ApplyToTable conditions every column whose name contains the channel
// marker and returns a new table with those columns replaced. Other columns
// are passed through. Cancelling ctx stops channels that have not started.
func (p *Pipeline) ApplyToTable(ctx context.Context, t Table) (Table, Report, error) {
	if err := t.Validate(); err != nil {
		return Table{}, Report{}, err
	}
	start := p.clock.Now()

	marked := t.Marked(p.cfg.ChannelMarker)
	out := Table{Index: t.Index, Columns: make([]Column, len(t.Columns))}
	copy(out.Columns, t.Columns)
	reports := make([]ChannelReport, len(marked))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, p.cfg.Parallelism))
	for slot, ci := range marked {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			col := t.Columns[ci]
			p.logf("channel %s (%d/%d)", col.Name, slot+1, len(marked))
			y, rep, err := p.Condition(col.Values, t.Index)
			if err != nil {
				return fmt.Errorf("channel %s: %w", col.Name, err)
			}
			rep.Name = col.Name
			out.Columns[ci] = Column{Name: col.Name, Values: y}
			reports[slot] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Table{}, Report{}, err
	}

	rep := Report{Channels: reports, Elapsed: p.clock.Since(start)}
	p.logf("conditioned %d channels in %.2fs", len(marked), rep.Elapsed.Seconds())
	return out, rep, nil
}

func rms(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return math.Sqrt(floats.Dot(x, x) / float64(len(x)))
}
