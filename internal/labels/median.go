package labels

import (
	"fmt"
	"sort"

	"github.com/banshee-data/gesture.report/internal/window"
)

// MedianFilter returns seq smoothed by a running median of the given odd
// kernel size. The sequence is padded with zeros (Idle) at both ends, so the
// output has the input length.
func MedianFilter(seq []int, kernel int) ([]int, error) {
	if kernel < 1 || kernel%2 == 0 {
		return nil, fmt.Errorf("%w: kernel %d must be positive and odd", ErrInvalidKernel, kernel)
	}
	out := make([]int, len(seq))
	if len(seq) == 0 {
		return out, nil
	}
	half := kernel / 2
	padded := make([]int, len(seq)+2*half)
	copy(padded[half:], seq)

	view, err := window.Strided(padded, kernel, 1)
	if err != nil {
		return nil, err
	}
	buf := make([]int, kernel)
	for i, w := range view.Windows {
		copy(buf, w)
		sort.Ints(buf)
		out[i] = buf[half]
	}
	return out, nil
}

// median returns the median of values, averaging the two middle values for
// an even count. It returns false for an empty slice.
func median(values []int) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sorted := make([]int, len(values))
	copy(sorted, values)
	sort.Ints(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return float64(sorted[mid-1]+sorted[mid]) / 2, true
	}
	return float64(sorted[mid]), true
}
