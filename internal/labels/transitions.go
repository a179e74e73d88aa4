package labels

// Margins sets how many frames around each trajectory boundary are
// relabeled. A boundary lies between frames p-1 and p: Before counts frames
// ending at p-1, After counts frames starting at p. Zero disables a side.
type Margins struct {
	StartBefore int `json:"start_before"`
	StartAfter  int `json:"start_after"`
	EndBefore   int `json:"end_before"`
	EndAfter    int `json:"end_after"`
	PauseBefore int `json:"pause_before"`
	PauseAfter  int `json:"pause_after"`
}

// boundaries returns the frames that enter a gesture (starts) and the frames
// that return to idle (ends). Frames next to a negative value never count.
func boundaries(trajectory []int) (starts, ends []bool) {
	starts = make([]bool, len(trajectory))
	ends = make([]bool, len(trajectory))
	for p := 1; p < len(trajectory); p++ {
		prev, cur := trajectory[p-1], trajectory[p]
		if prev < 0 || cur < 0 || prev == cur {
			continue
		}
		switch {
		case cur > 0:
			starts[p] = true
		case cur == 0:
			ends[p] = true
		}
	}
	return starts, ends
}

// around marks the before frames preceding and the after frames following
// every boundary in points, clipped to the sequence.
func around(points []bool, before, after int) []bool {
	out := make([]bool, len(points))
	if before > 0 {
		// Shift each point to p-1 then extend it early.
		shifted := make([]bool, len(points))
		for p := 1; p < len(points); p++ {
			shifted[p-1] = points[p]
		}
		or(out, dilateEarly(shifted, before-1))
	}
	if after > 0 {
		or(out, dilateLate(points, after-1))
	}
	return out
}

// TransitionMask returns the frames within the start and end margins of
// every gesture boundary in trajectory.
func TransitionMask(trajectory []int, m Margins) []bool {
	starts, ends := boundaries(trajectory)
	mask := around(starts, m.StartBefore, m.StartAfter)
	return or(mask, around(ends, m.EndBefore, m.EndAfter))
}

// PauseMask returns the pause frames of trajectory dilated by the pause
// margins.
func PauseMask(trajectory []int, m Margins) []bool {
	return tolerance(equalMask(trajectory, Pause), m.PauseBefore, m.PauseAfter)
}

// FilterTransitions returns a copy of trajectory with the frames around
// gesture boundaries set to Transition and the frames around pauses set to
// PauseMargin. Pause relabeling wins where both apply.
func FilterTransitions(trajectory []int, m Margins) []int {
	out := make([]int, len(trajectory))
	copy(out, trajectory)
	for i, v := range TransitionMask(trajectory, m) {
		if v {
			out[i] = Transition
		}
	}
	for i, v := range PauseMask(trajectory, m) {
		if v {
			out[i] = PauseMargin
		}
	}
	return out
}
