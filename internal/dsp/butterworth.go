package dsp

import (
	"fmt"
	"math"
	"math/cmplx"
)

// DefaultFilterOrder is the Butterworth prototype order used for the
// conditioning bandpass.
const DefaultFilterOrder = 5

// Coefficients holds the transfer function of a digital IIR filter with
// B the numerator and A the denominator, highest power first.
type Coefficients struct {
	B []float64
	A []float64
}

// Taps returns the number of coefficients of the longer polynomial.
func (c Coefficients) Taps() int {
	return max(len(c.A), len(c.B))
}

// Response returns the complex frequency response at freq for a filter
// running at rate.
func (c Coefficients) Response(freq, rate float64) complex128 {
	w := 2 * math.Pi * freq / rate
	var num, den complex128
	for k, b := range c.B {
		num += complex(b, 0) * cmplx.Exp(complex(0, -w*float64(k)))
	}
	for k, a := range c.A {
		den += complex(a, 0) * cmplx.Exp(complex(0, -w*float64(k)))
	}
	return num / den
}

// Gain returns the magnitude response at freq.
func (c Coefficients) Gain(freq, rate float64) float64 {
	return cmplx.Abs(c.Response(freq, rate))
}

// DesignBandpass returns the coefficients of a digital Butterworth bandpass
// filter of the given order with cutoffs in Hz. Cutoffs are normalised by
// the Nyquist frequency 0.5*rate. The resulting polynomials have 2*order+1
// coefficients.
func DesignBandpass(low, high, rate float64, order int) (Coefficients, error) {
	if order < 1 {
		return Coefficients{}, fmt.Errorf("%w: order %d must be >= 1", ErrFilterDesign, order)
	}
	if !(rate > 0) || math.IsInf(rate, 0) {
		return Coefficients{}, fmt.Errorf("%w: sample rate %g must be positive", ErrFilterDesign, rate)
	}
	nyq := 0.5 * rate
	if !(low > 0 && low < nyq) || !(high > 0 && high < nyq) {
		return Coefficients{}, fmt.Errorf("%w: cutoffs [%g, %g] Hz must lie in (0, %g)",
			ErrFilterDesign, low, high, nyq)
	}
	if low >= high {
		return Coefficients{}, fmt.Errorf("%w: low cutoff %g must be below high cutoff %g",
			ErrFilterDesign, low, high)
	}

	// Digital design runs on a normalised rate of 2, so cutoffs are
	// pre-warped with 2*fs*tan(pi*wn/fs) before the analog transforms.
	const fs = 2.0
	w0 := 2 * fs * math.Tan(math.Pi*(low/nyq)/fs)
	w1 := 2 * fs * math.Tan(math.Pi*(high/nyq)/fs)

	zeros, poles, gain := lowpassToBandpass(butterPrototype(order), w0, w1)
	zeros, poles, gain = bilinear(zeros, poles, gain, fs)

	b := poly(zeros)
	a := poly(poles)
	c := Coefficients{B: make([]float64, len(b)), A: make([]float64, len(a))}
	for i := range b {
		c.B[i] = gain * real(b[i])
	}
	for i := range a {
		c.A[i] = real(a[i])
	}
	return c, nil
}

// butterPrototype returns the poles of an analog Butterworth lowpass
// prototype with unit cutoff. The prototype has no zeros and unit gain.
func butterPrototype(order int) []complex128 {
	poles := make([]complex128, order)
	for i := range poles {
		m := float64(-order + 1 + 2*i)
		poles[i] = -cmplx.Exp(complex(0, math.Pi*m/float64(2*order)))
	}
	return poles
}

// lowpassToBandpass maps an all-pole lowpass prototype onto the analog band
// [w0, w1] rad/s. Each pole splits in two and order zeros land at the origin.
func lowpassToBandpass(poles []complex128, w0, w1 float64) (zeros, out []complex128, gain float64) {
	bw := w1 - w0
	wo := complex(math.Sqrt(w0*w1), 0)
	half := complex(bw/2, 0)

	out = make([]complex128, 0, 2*len(poles))
	for _, p := range poles {
		lp := p * half
		out = append(out, lp+cmplx.Sqrt(lp*lp-wo*wo))
	}
	for _, p := range poles {
		lp := p * half
		out = append(out, lp-cmplx.Sqrt(lp*lp-wo*wo))
	}
	zeros = make([]complex128, len(poles))
	gain = math.Pow(bw, float64(len(poles)))
	return zeros, out, gain
}

// bilinear applies the bilinear transform at rate fs to an analog
// zero-pole-gain system. Zeros at infinity map to z = -1.
func bilinear(zeros, poles []complex128, gain, fs float64) ([]complex128, []complex128, float64) {
	fs2 := complex(2*fs, 0)
	zz := make([]complex128, 0, len(poles))
	pz := make([]complex128, 0, len(poles))

	num := complex(1, 0)
	den := complex(1, 0)
	for _, z := range zeros {
		zz = append(zz, (fs2+z)/(fs2-z))
		num *= fs2 - z
	}
	for _, p := range poles {
		pz = append(pz, (fs2+p)/(fs2-p))
		den *= fs2 - p
	}
	for len(zz) < len(pz) {
		zz = append(zz, -1)
	}
	return zz, pz, gain * real(num/den)
}

// poly expands the monic polynomial with the given roots, highest power first.
func poly(roots []complex128) []complex128 {
	c := make([]complex128, 1, len(roots)+1)
	c[0] = 1
	for _, r := range roots {
		c = append(c, 0)
		for j := len(c) - 1; j > 0; j-- {
			c[j] -= r * c[j-1]
		}
	}
	return c
}
