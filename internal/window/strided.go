// Package window provides fixed-length moving-window views over sample
// sequences.
//
// Views alias the source slice. Each window is a sub-slice whose capacity is
// clipped to the window length, so appending to a window never writes into
// the source. Windows are read-only by contract and must not outlive the
// source buffer.
package window

import (
	"errors"
	"fmt"
)

// ErrInvalidWindow is returned when the window length, step or source length
// violate the strider preconditions.
var ErrInvalidWindow = errors.New("invalid window")

// View is a set of windows over a source sequence.
type View[T any] struct {
	// Windows[i] aliases source[Indices[i]-length+1 : Indices[i]+1].
	Windows [][]T
	// Indices[i] is the position of the last sample of Windows[i] in the source.
	Indices []int
}

// Len returns the number of windows in the view.
func (v View[T]) Len() int { return len(v.Windows) }

// Start returns the source position of the first sample of window i.
func (v View[T]) Start(i int) int {
	return v.Indices[i] - len(v.Windows[i]) + 1
}

// Count returns the number of windows of the given length and step that fit
// in a sequence of n samples: floor((n - length + step) / step).
func Count(n, length, step int) int {
	if length < 1 || step < 1 || n < length {
		return 0
	}
	return (n - length + step) / step
}

// Strided returns the windows of the given length taken every step samples
// from seq, together with the index of the last sample of each window.
func Strided[T any](seq []T, length, step int) (View[T], error) {
	if length < 1 {
		return View[T]{}, fmt.Errorf("%w: length %d must be >= 1", ErrInvalidWindow, length)
	}
	if step < 1 {
		return View[T]{}, fmt.Errorf("%w: step %d must be >= 1", ErrInvalidWindow, step)
	}
	if len(seq) < length {
		return View[T]{}, fmt.Errorf("%w: sequence of %d samples is shorter than window %d",
			ErrInvalidWindow, len(seq), length)
	}

	n := Count(len(seq), length, step)
	v := View[T]{
		Windows: make([][]T, n),
		Indices: make([]int, n),
	}
	for i := 0; i < n; i++ {
		start := i * step
		end := start + length
		v.Windows[i] = seq[start:end:end]
		v.Indices[i] = length - 1 + i*step
	}
	return v, nil
}
