package report

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrInvalidSpectrum is returned when a spectrum cannot be estimated from
// the given samples and parameters.
var ErrInvalidSpectrum = errors.New("invalid spectrum parameters")

// DefaultSegment is the Welch segment length in samples.
const DefaultSegment = 1024

// PSD is a one-sided power spectral density in units²/Hz.
type PSD struct {
	Freqs []float64
	Power []float64
	// Segments is the number of averaged segments.
	Segments int
}

// Welch estimates the power spectral density of x sampled at rate using
// Hann-windowed segments of the given length with 50% overlap. Each segment
// has its mean removed before the transform.
func Welch(x []float64, rate float64, segment int) (PSD, error) {
	if !(rate > 0) {
		return PSD{}, fmt.Errorf("%w: sample rate %g must be positive", ErrInvalidSpectrum, rate)
	}
	if segment < 2 {
		return PSD{}, fmt.Errorf("%w: segment %d must be at least 2", ErrInvalidSpectrum, segment)
	}
	if len(x) < segment {
		return PSD{}, fmt.Errorf("%w: %d samples shorter than segment %d", ErrInvalidSpectrum, len(x), segment)
	}

	taper := make([]float64, segment)
	for i := range taper {
		taper[i] = 1
	}
	taper = window.Hann(taper)
	norm := floats.Dot(taper, taper)

	fft := fourier.NewFFT(segment)
	bins := segment/2 + 1
	power := make([]float64, bins)
	buf := make([]float64, segment)
	coeffs := make([]complex128, bins)

	hop := segment / 2
	var segments int
	for start := 0; start+segment <= len(x); start += hop {
		seg := x[start : start+segment]
		mean := stat.Mean(seg, nil)
		for i, v := range seg {
			buf[i] = (v - mean) * taper[i]
		}
		coeffs = fft.Coefficients(coeffs, buf)
		for k, c := range coeffs {
			re, im := real(c), imag(c)
			power[k] += re*re + im*im
		}
		segments++
	}

	floats.Scale(1/(rate*norm*float64(segments)), power)
	// Fold negative frequencies; DC and an even-length Nyquist bin appear once.
	last := bins
	if segment%2 == 0 {
		last = bins - 1
	}
	for k := 1; k < last; k++ {
		power[k] *= 2
	}

	freqs := make([]float64, bins)
	for k := range freqs {
		freqs[k] = fft.Freq(k) * rate
	}
	return PSD{Freqs: freqs, Power: power, Segments: segments}, nil
}

// Resolution returns the bin spacing in Hz.
func (p PSD) Resolution() float64 {
	if len(p.Freqs) < 2 {
		return 0
	}
	return p.Freqs[1] - p.Freqs[0]
}

// Peak returns the frequency and power of the strongest bin within
// [lo, hi] Hz. ok is false when no bin falls in the range.
func (p PSD) Peak(lo, hi float64) (freq, power float64, ok bool) {
	best := -1
	for k, f := range p.Freqs {
		if f < lo || f > hi {
			continue
		}
		if best < 0 || p.Power[k] > p.Power[best] {
			best = k
		}
	}
	if best < 0 {
		return 0, 0, false
	}
	return p.Freqs[best], p.Power[best], true
}

// BandPower integrates the density over [lo, hi] Hz.
func (p PSD) BandPower(lo, hi float64) float64 {
	var sum float64
	for k, f := range p.Freqs {
		if f >= lo && f <= hi {
			sum += p.Power[k]
		}
	}
	return sum * p.Resolution()
}

// Decibels returns 10·log10 of the density, floored at floor dB.
func (p PSD) Decibels(floor float64) []float64 {
	out := make([]float64, len(p.Power))
	for k, v := range p.Power {
		db := floor
		if v > 0 {
			db = math.Max(10*math.Log10(v), floor)
		}
		out[k] = db
	}
	return out
}
