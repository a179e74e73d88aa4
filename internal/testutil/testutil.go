// Package testutil provides shared test utilities and synthetic signal
// fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"math"
	"math/cmplx"
	"math/rand/v2"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Times returns n timestamps in seconds spaced 1/rate apart starting at t0.
func Times(n int, rate, t0 float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = t0 + float64(i)/rate
	}
	return out
}

// Tone returns sinAmp·sin(2πft) + cosAmp·cos(2πft) sampled at times.
func Tone(times []float64, freq, sinAmp, cosAmp float64) []float64 {
	out := make([]float64, len(times))
	for i, t := range times {
		s, c := math.Sincos(2 * math.Pi * freq * t)
		out[i] = sinAmp*s + cosAmp*c
	}
	return out
}

// Noise returns n samples of zero-mean Gaussian noise with the given
// standard deviation. The same seed always yields the same samples.
func Noise(n int, sigma float64, seed uint64) []float64 {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.NormFloat64() * sigma
	}
	return out
}

// Add returns the element-wise sum of the given equal-length signals.
func Add(signals ...[]float64) []float64 {
	if len(signals) == 0 {
		return nil
	}
	out := make([]float64, len(signals[0]))
	for _, s := range signals {
		for i := range out {
			out[i] += s[i]
		}
	}
	return out
}

// BandEnergy returns the spectral energy of x within halfWidth Hz of freq,
// summing |X[k]|² over the matching FFT bins.
func BandEnergy(x []float64, rate, freq, halfWidth float64) float64 {
	n := len(x)
	if n == 0 {
		return 0
	}
	coeffs := fourier.NewFFT(n).Coefficients(nil, x)
	var sum float64
	for k, c := range coeffs {
		f := float64(k) * rate / float64(n)
		if math.Abs(f-freq) <= halfWidth {
			a := cmplx.Abs(c)
			sum += a * a
		}
	}
	return sum
}
