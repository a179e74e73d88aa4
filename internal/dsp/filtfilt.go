package dsp

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// normalized returns B and A padded to the same length and scaled so that
// A[0] == 1.
func (c Coefficients) normalized() (b, a []float64, err error) {
	n := c.Taps()
	if n == 0 || len(c.A) == 0 || c.A[0] == 0 {
		return nil, nil, fmt.Errorf("%w: leading denominator coefficient must be non-zero", ErrFilterDesign)
	}
	b = make([]float64, n)
	a = make([]float64, n)
	copy(b, c.B)
	copy(a, c.A)
	a0 := a[0]
	floats.Scale(1/a0, b)
	floats.Scale(1/a0, a)
	return b, a, nil
}

// LFilter runs the filter once over x in direct-form II transposed using zi
// as the initial delay state (nil means zero state). It returns the output
// and the final state.
func LFilter(c Coefficients, x, zi []float64) ([]float64, []float64, error) {
	b, a, err := c.normalized()
	if err != nil {
		return nil, nil, err
	}
	n := len(b)
	z := make([]float64, n-1)
	if zi != nil {
		if len(zi) != n-1 {
			return nil, nil, fmt.Errorf("%w: initial state has %d values, want %d", ErrShapeMismatch, len(zi), n-1)
		}
		copy(z, zi)
	}

	y := make([]float64, len(x))
	for i, xi := range x {
		if n == 1 {
			y[i] = b[0] * xi
			continue
		}
		yi := b[0]*xi + z[0]
		for k := 1; k < n-1; k++ {
			z[k-1] = b[k]*xi + z[k] - a[k]*yi
		}
		z[n-2] = b[n-1]*xi - a[n-1]*yi
		y[i] = yi
	}
	return y, z, nil
}

// steadyState returns the delay state of the filter after an infinitely
// long unit step, solved from (I - companion(a)ᵀ)·zi = b[1:] - a[1:]·b[0].
func steadyState(b, a []float64) ([]float64, error) {
	n := len(b) - 1
	if n == 0 {
		return nil, nil
	}
	m := mat.NewDense(n, n, nil)
	rhs := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
		m.Set(i, 0, m.At(i, 0)+a[i+1])
		if i+1 < n {
			m.Set(i, i+1, -1)
		}
		rhs.SetVec(i, b[i+1]-a[i+1]*b[0])
	}

	var zi mat.VecDense
	if err := zi.SolveVec(m, rhs); err != nil {
		// An ill-conditioned system still yields a usable solution.
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("solve filter initial state: %w", err)
		}
	}
	return mat.Col(nil, 0, &zi), nil
}

// FiltFilt applies the filter forward and then backward over x so that the
// phase response cancels. Both ends are padded with an odd reflection of
// 3*Taps() samples and each pass starts from the steady-state delay state
// scaled by its first sample, as described in
// Gustafsson, "Determining the initial states in forward-backward
// filtering", IEEE Trans. Signal Processing 44.4 (1996).
// The output has the same length as x.
func FiltFilt(c Coefficients, x []float64) ([]float64, error) {
	b, a, err := c.normalized()
	if err != nil {
		return nil, err
	}
	edge := 3 * len(b)
	if len(x) <= edge {
		return nil, fmt.Errorf("%w: %d samples, need more than %d", ErrSignalTooShort, len(x), edge)
	}

	zi, err := steadyState(b, a)
	if err != nil {
		return nil, err
	}
	norm := Coefficients{B: b, A: a}

	ext := oddExtend(x, edge)
	y, _, err := LFilter(norm, ext, scaled(zi, ext[0]))
	if err != nil {
		return nil, err
	}
	reverse(y)
	y, _, err = LFilter(norm, y, scaled(zi, y[0]))
	if err != nil {
		return nil, err
	}
	reverse(y)

	out := make([]float64, len(x))
	copy(out, y[edge:len(y)-edge])
	return out, nil
}

// oddExtend reflects x about both end points: the left pad is
// 2*x[0] - x[edge..1] and the right pad 2*x[n-1] - x[n-2..n-1-edge].
func oddExtend(x []float64, edge int) []float64 {
	n := len(x)
	ext := make([]float64, 0, n+2*edge)
	for i := edge; i >= 1; i-- {
		ext = append(ext, 2*x[0]-x[i])
	}
	ext = append(ext, x...)
	for i := n - 2; i >= n-1-edge; i-- {
		ext = append(ext, 2*x[n-1]-x[i])
	}
	return ext
}

func scaled(v []float64, s float64) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, len(v))
	floats.ScaleTo(out, s, v)
	return out
}

func reverse(v []float64) {
	for i, j := 0, len(v)-1; i < j; i, j = i+1, j-1 {
		v[i], v[j] = v[j], v[i]
	}
}
