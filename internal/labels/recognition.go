package labels

import (
	"fmt"
	"slices"
)

// SmartOptions tunes FilterSmart. All values are frame counts.
type SmartOptions struct {
	MedianKernel int `json:"median_kernel"`
	// ToleranceBackward and ToleranceForward widen the trajectory range
	// searched for the interval's gesture.
	ToleranceBackward int `json:"tolerance_backward"`
	ToleranceForward  int `json:"tolerance_forward"`
	// MinIdlePeriod is the shortest idle gap kept by the idle smoothing.
	MinIdlePeriod int `json:"min_idle_period"`
}

// DefaultSmartOptions returns the FilterSmart defaults.
func DefaultSmartOptions() SmartOptions {
	return SmartOptions{MedianKernel: 5, ToleranceBackward: 8, ToleranceForward: 1, MinIdlePeriod: 7}
}

// VGGOptions tunes VGGFilter.
type VGGOptions struct {
	MedianKernel   int `json:"median_kernel"`
	ToleranceEarly int `json:"tolerance_early"`
	ToleranceLate  int `json:"tolerance_late"`
}

// DefaultVGGOptions returns the VGGFilter defaults.
func DefaultVGGOptions() VGGOptions {
	return VGGOptions{MedianKernel: 7, ToleranceEarly: 1, ToleranceLate: 8}
}

// RecognitionOptions tunes FilterRecognition.
type RecognitionOptions struct {
	MarginLeft  int `json:"margin_left"`
	MarginRight int `json:"margin_right"`
}

// DefaultRecognitionOptions returns the FilterRecognition defaults.
func DefaultRecognitionOptions() RecognitionOptions {
	return RecognitionOptions{MarginLeft: 1, MarginRight: 8}
}

func checkShape(recognized, trajectory []int) error {
	if len(recognized) != len(trajectory) {
		return fmt.Errorf("%w: %d recognized frames, %d trajectory frames",
			ErrShapeMismatch, len(recognized), len(trajectory))
	}
	return nil
}

// FilterSmart relabels recognizer output by active interval. The output is
// Unmatched by default, Idle over the smoothed idle mask, and the raw value
// wherever recognized is negative. Each active interval [s, t) whose median
// recognized value occurs anywhere in trajectory[s-ToleranceBackward :
// t+ToleranceForward] is labeled with that gesture.
func FilterSmart(recognized, trajectory []int, opts SmartOptions) ([]int, error) {
	if err := checkShape(recognized, trajectory); err != nil {
		return nil, err
	}
	smoothed, err := MedianFilter(recognized, opts.MedianKernel)
	if err != nil {
		return nil, err
	}
	n := len(recognized)

	idle := make([]bool, n)
	for i, v := range smoothed {
		idle[i] = v <= 0
	}
	if half := opts.MinIdlePeriod / 2; half > 0 {
		idle = dilate(erode(idle, half), half)
	}

	// Interval bounds are frames where the idle mask flips. The smoothed
	// value at the flip decides whether it opens or closes an interval.
	var starts, ends []int
	for i := 1; i < n; i++ {
		if idle[i] == idle[i-1] {
			continue
		}
		if smoothed[i] != 0 {
			starts = append(starts, i)
		} else {
			ends = append(ends, i)
		}
	}

	out := make([]int, n)
	for i := range out {
		switch {
		case recognized[i] < 0:
			out[i] = recognized[i]
		case idle[i]:
			out[i] = Idle
		default:
			out[i] = Unmatched
		}
	}

	for _, s := range starts {
		t := n - 1
		if k, _ := slices.BinarySearch(ends, s+1); k < len(ends) {
			t = ends[k]
		}
		gesture, ok := median(recognized[s:t])
		if !ok || !occurs(gesture, trajectory, max(0, s-opts.ToleranceBackward), min(t+opts.ToleranceForward, n-1)) {
			continue
		}
		for i := s; i < t; i++ {
			out[i] = int(gesture)
		}
	}
	return out, nil
}

// occurs reports whether gesture equals any trajectory value in [from, to).
func occurs(gesture float64, trajectory []int, from, to int) bool {
	for i := from; i < to; i++ {
		if float64(trajectory[i]) == gesture {
			return true
		}
	}
	return false
}

// VGGFilter median-smooths recognized and rejects, with RejectedVGG, every
// smoothed frame that claims a nonzero trajectory gesture outside that
// gesture's occurrences widened ToleranceEarly frames before and
// ToleranceLate frames after.
func VGGFilter(recognized, trajectory []int, opts VGGOptions) ([]int, error) {
	if err := checkShape(recognized, trajectory); err != nil {
		return nil, err
	}
	out, err := MedianFilter(recognized, opts.MedianKernel)
	if err != nil {
		return nil, err
	}
	for _, g := range unique(trajectory) {
		if g == Idle {
			continue
		}
		allowed := tolerance(equalMask(trajectory, g), opts.ToleranceEarly, opts.ToleranceLate)
		for i, v := range out {
			if v == g && !allowed[i] {
				out[i] = RejectedVGG
			}
		}
	}
	return out, nil
}

// FilterRecognition rejects, with RejectedRecognition, every recognized
// frame that claims one of gestures outside that gesture's trajectory
// occurrences widened MarginLeft frames before and MarginRight frames after.
func FilterRecognition(recognized, trajectory, gestures []int, opts RecognitionOptions) ([]int, error) {
	if err := checkShape(recognized, trajectory); err != nil {
		return nil, err
	}
	out := make([]int, len(recognized))
	copy(out, recognized)
	for _, g := range gestures {
		allowed := tolerance(equalMask(trajectory, g), opts.MarginLeft, opts.MarginRight)
		for i, v := range recognized {
			if v == g && !allowed[i] {
				out[i] = RejectedRecognition
			}
		}
	}
	return out, nil
}

// unique returns the distinct values of seq in ascending order.
func unique(seq []int) []int {
	out := slices.Clone(seq)
	slices.Sort(out)
	return slices.Compact(out)
}
