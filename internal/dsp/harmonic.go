package dsp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// Harmonic is a sinusoid at Freq Hz written as Sin·sin(2πft) + Cos·cos(2πft).
type Harmonic struct {
	Sin  float64
	Cos  float64
	Freq float64
}

// Eval returns the value of the harmonic at time t (seconds).
func (h Harmonic) Eval(t float64) float64 {
	s, c := math.Sincos(2 * math.Pi * h.Freq * t)
	return h.Sin*s + h.Cos*c
}

// Amplitude returns the peak amplitude of the harmonic.
func (h Harmonic) Amplitude() float64 {
	return math.Hypot(h.Sin, h.Cos)
}

// FitResult is the outcome of a single window fit.
type FitResult struct {
	Harmonic
	// Cost is the mean squared residual at Harmonic.
	Cost       float64
	Iterations int
	Converged  bool
	// Diagnostic wraps ErrNonconvergence when the minimiser stopped early.
	// The fit is still usable.
	Diagnostic error
}

// Default fitter settings.
const (
	DefaultFreqTolerance     = 0.01
	DefaultGradientTolerance = 1e-6
	DefaultMaxIterations     = 15000
)

// stallSlack scales the gradient tolerance for fits that stop on a flat
// cost instead of the gradient threshold.
const stallSlack = 10

// HarmonicFitter fits a Harmonic to a window of samples by minimising the
// mean squared residual with limited-memory BFGS and the exact gradient.
// When the frequency is free it is box-constrained to
// [seed.Freq - FreqTolerance, seed.Freq + FreqTolerance].
type HarmonicFitter struct {
	FreqTolerance     float64
	GradientTolerance float64
	MaxIterations     int
}

// NewHarmonicFitter returns a fitter with the default settings.
func NewHarmonicFitter() HarmonicFitter {
	return HarmonicFitter{
		FreqTolerance:     DefaultFreqTolerance,
		GradientTolerance: DefaultGradientTolerance,
		MaxIterations:     DefaultMaxIterations,
	}
}

func (f HarmonicFitter) withDefaults() HarmonicFitter {
	if f.FreqTolerance <= 0 {
		f.FreqTolerance = DefaultFreqTolerance
	}
	if f.GradientTolerance <= 0 {
		f.GradientTolerance = DefaultGradientTolerance
	}
	if f.MaxIterations <= 0 {
		f.MaxIterations = DefaultMaxIterations
	}
	return f
}

// residual caches the basis functions of one window at a given frequency.
type residual struct {
	signal []float64
	times  []float64
	sin    []float64
	cos    []float64
	freq   float64
	valid  bool
}

func newResidual(signal, times []float64) *residual {
	return &residual{
		signal: signal,
		times:  times,
		sin:    make([]float64, len(signal)),
		cos:    make([]float64, len(signal)),
	}
}

func (r *residual) basis(freq float64) {
	if r.valid && r.freq == freq {
		return
	}
	w := 2 * math.Pi * freq
	for i, t := range r.times {
		r.sin[i], r.cos[i] = math.Sincos(w * t)
	}
	r.freq = freq
	r.valid = true
}

// cost returns Q = mean((x0·s + x1·c - signal)²).
func (r *residual) cost(x0, x1, freq float64) float64 {
	r.basis(freq)
	var sum float64
	for i, v := range r.signal {
		e := x0*r.sin[i] + x1*r.cos[i] - v
		sum += e * e
	}
	return sum / float64(len(r.signal))
}

// grad returns dQ/dx0, dQ/dx1 and dQ/df.
func (r *residual) grad(x0, x1, freq float64) (g0, g1, gf float64) {
	r.basis(freq)
	for i, v := range r.signal {
		s, c := r.sin[i], r.cos[i]
		e := x0*s + x1*c - v
		g0 += s * e
		g1 += c * e
		w := 2 * math.Pi * r.times[i]
		gf += (w*x0*c - w*x1*s) * e
	}
	scale := 2 / float64(len(r.signal))
	return g0 * scale, g1 * scale, gf * scale
}

// Fit estimates the harmonic in samples taken at times, starting from seed.
// With freqFree the frequency is refined within the tolerance box around
// seed.Freq, otherwise it stays fixed at seed.Freq.
//
// A minimiser that stops before the gradient tolerance is not an error: the
// best iterate is returned with Converged false and Diagnostic set.
func (f HarmonicFitter) Fit(samples, times []float64, seed Harmonic, freqFree bool) (FitResult, error) {
	if len(samples) != len(times) {
		return FitResult{}, fmt.Errorf("%w: %d samples, %d times", ErrShapeMismatch, len(samples), len(times))
	}
	if len(samples) == 0 {
		return FitResult{}, fmt.Errorf("%w: empty window", ErrShapeMismatch)
	}
	f = f.withDefaults()
	r := newResidual(samples, times)

	var problem optimize.Problem
	var x0 []float64
	var decode func(x []float64) Harmonic

	if freqFree {
		// f = center + tol·sin(u) maps every u into the box, so the
		// unconstrained minimiser never leaves it.
		center, tol := seed.Freq, f.FreqTolerance
		decode = func(x []float64) Harmonic {
			return Harmonic{Sin: x[0], Cos: x[1], Freq: center + tol*math.Sin(x[2])}
		}
		problem = optimize.Problem{
			Func: func(x []float64) float64 {
				h := decode(x)
				return r.cost(h.Sin, h.Cos, h.Freq)
			},
			Grad: func(grad, x []float64) {
				h := decode(x)
				g0, g1, gf := r.grad(h.Sin, h.Cos, h.Freq)
				grad[0] = g0
				grad[1] = g1
				grad[2] = gf * tol * math.Cos(x[2])
			},
		}
		x0 = []float64{seed.Sin, seed.Cos, 0}
	} else {
		freq := seed.Freq
		decode = func(x []float64) Harmonic {
			return Harmonic{Sin: x[0], Cos: x[1], Freq: freq}
		}
		problem = optimize.Problem{
			Func: func(x []float64) float64 {
				return r.cost(x[0], x[1], freq)
			},
			Grad: func(grad, x []float64) {
				g0, g1, _ := r.grad(x[0], x[1], freq)
				grad[0] = g0
				grad[1] = g1
			},
		}
		x0 = []float64{seed.Sin, seed.Cos}
	}

	settings := &optimize.Settings{
		GradientThreshold: f.GradientTolerance,
		MajorIterations:   f.MaxIterations,
		FuncEvaluations:   f.MaxIterations,
	}
	result, err := optimize.Minimize(problem, x0, settings, &optimize.LBFGS{})
	if result == nil {
		// Minimize only returns no result on invalid input, which the
		// checks above rule out; fall back to the seed.
		h := decode(x0)
		return FitResult{
			Harmonic:   h,
			Cost:       r.cost(h.Sin, h.Cos, h.Freq),
			Diagnostic: fmt.Errorf("%w: %v", ErrNonconvergence, err),
		}, nil
	}

	h := decode(result.X)
	out := FitResult{
		Harmonic:   h,
		Cost:       result.F,
		Iterations: result.MajorIterations,
		Converged:  err == nil && converged(result.Status, result.Gradient, f.GradientTolerance),
	}
	if !out.Converged {
		if err != nil {
			out.Diagnostic = fmt.Errorf("%w: %s: %v", ErrNonconvergence, result.Status, err)
		} else {
			out.Diagnostic = fmt.Errorf("%w: %s", ErrNonconvergence, result.Status)
		}
	}
	return out, nil
}

// converged reports whether a minimiser that stopped with status at the
// given gradient found the optimum. A FunctionConvergence stop counts when
// the gradient is still within stallSlack times tol.
func converged(status optimize.Status, grad []float64, tol float64) bool {
	switch status {
	case optimize.GradientThreshold:
		return true
	case optimize.FunctionConvergence:
		return len(grad) > 0 && floats.Norm(grad, math.Inf(1)) <= stallSlack*tol
	default:
		return false
	}
}
