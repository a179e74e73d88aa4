package dsp

import (
	"fmt"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/gesture.report/internal/monitoring"
	"github.com/banshee-data/gesture.report/internal/window"
)

// Conditioning defaults for putEMG-style recordings.
const (
	DefaultSampleRate    = 5124.07211903
	DefaultWindowSeconds = 10.0
)

// DefaultNotchFrequencies are the mains harmonics and calibration tone that
// are fitted and removed from every channel.
var DefaultNotchFrequencies = []float64{30, 49.99, 60, 90, 150}

// AdaptiveNotch estimates narrow-band interference at a set of fixed
// frequencies by fitting a Harmonic to consecutive non-overlapping windows.
type AdaptiveNotch struct {
	SampleRate    float64
	WindowSeconds float64
	Frequencies   []float64
	Fitter        HarmonicFitter
	// Parallelism bounds how many frequencies are fitted concurrently.
	// Values below 2 run sequentially.
	Parallelism int
}

// NewAdaptiveNotch returns a notch estimator with the default window,
// fitter and frequency set at the given sample rate.
func NewAdaptiveNotch(rate float64) *AdaptiveNotch {
	return &AdaptiveNotch{
		SampleRate:    rate,
		WindowSeconds: DefaultWindowSeconds,
		Frequencies:   append([]float64(nil), DefaultNotchFrequencies...),
		Fitter:        NewHarmonicFitter(),
	}
}

// Estimate is the interference found by Suppress.
type Estimate struct {
	// Interference has the length of the input. Samples after the last
	// full window are zero.
	Interference []float64
	// Windows is the number of windows fitted per frequency.
	Windows int
	// Nonconverged counts window fits, across all frequencies, that stopped
	// before reaching the gradient tolerance.
	Nonconverged int
}

// WindowLength returns the number of samples per fitting window.
func (n *AdaptiveNotch) WindowLength() int {
	return int(n.WindowSeconds * n.SampleRate)
}

// Suppress returns the summed harmonic interference in samples. times gives
// the timestamp in seconds of each sample; when nil, sample i is at i/rate.
// The caller subtracts the estimate from the signal.
//
// Within a window the fit starts from the previous window's amplitudes but
// always from the nominal frequency, so frequency refinement never drifts
// across windows.
func (n *AdaptiveNotch) Suppress(samples, times []float64) (Estimate, error) {
	if !(n.SampleRate > 0) {
		return Estimate{}, fmt.Errorf("%w: sample rate %g must be positive", window.ErrInvalidWindow, n.SampleRate)
	}
	if times != nil && len(times) != len(samples) {
		return Estimate{}, fmt.Errorf("%w: %d samples, %d times", ErrShapeMismatch, len(samples), len(times))
	}
	length := n.WindowLength()
	view, err := window.Strided(samples, length, length)
	if err != nil {
		return Estimate{}, fmt.Errorf("notch window of %gs at %g Hz: %w", n.WindowSeconds, n.SampleRate, err)
	}

	// Per-window time axes are shared by every frequency.
	axes := make([][]float64, view.Len())
	for i := range view.Windows {
		start := view.Start(i)
		t0 := float64(start) / n.SampleRate
		if times != nil {
			t0 = times[start]
		}
		axis := make([]float64, length)
		for k := range axis {
			axis[k] = float64(k)/n.SampleRate + t0
		}
		axes[i] = axis
	}

	parts := make([][]float64, len(n.Frequencies))
	misses := make([]int, len(n.Frequencies))

	var g errgroup.Group
	if n.Parallelism > 1 {
		g.SetLimit(n.Parallelism)
	} else {
		g.SetLimit(1)
	}
	for fi, freq := range n.Frequencies {
		g.Go(func() error {
			part, missed, err := n.track(view, axes, len(samples), freq)
			if err != nil {
				return fmt.Errorf("notch %g Hz: %w", freq, err)
			}
			parts[fi] = part
			misses[fi] = missed
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Estimate{}, err
	}

	est := Estimate{
		Interference: make([]float64, len(samples)),
		Windows:      view.Len(),
	}
	for fi := range parts {
		floats.Add(est.Interference, parts[fi])
		est.Nonconverged += misses[fi]
	}
	return est, nil
}

// track fits one frequency across every window and returns its
// reconstructed interference.
func (n *AdaptiveNotch) track(view window.View[float64], axes [][]float64, total int, freq float64) ([]float64, int, error) {
	out := make([]float64, total)
	seed := Harmonic{Freq: freq}
	missed := 0

	for i, w := range view.Windows {
		res, err := n.Fitter.Fit(w, axes[i], seed, true)
		if err != nil {
			return nil, 0, fmt.Errorf("window %d: %w", i, err)
		}
		if !res.Converged {
			missed++
			monitoring.Logf("[notch] %g Hz window %d: %v (using best iterate)", freq, i, res.Diagnostic)
		}
		start := view.Start(i)
		for k, t := range axes[i] {
			out[start+k] += res.Harmonic.Eval(t)
		}
		seed = Harmonic{Sin: res.Sin, Cos: res.Cos, Freq: freq}
	}
	return out, missed, nil
}
