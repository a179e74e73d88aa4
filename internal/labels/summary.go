package labels

import (
	"fmt"
	"slices"
	"strings"
)

// Summary counts the frames carrying each label of a sequence.
type Summary struct {
	Frames int
	Counts map[int]int
}

// Summarize counts the labels in seq.
func Summarize(seq []int) Summary {
	s := Summary{Frames: len(seq), Counts: make(map[int]int)}
	for _, v := range seq {
		s.Counts[v]++
	}
	return s
}

// Labels returns the labels present, in ascending order.
func (s Summary) Labels() []int {
	out := make([]int, 0, len(s.Counts))
	for l := range s.Counts {
		out = append(out, l)
	}
	slices.Sort(out)
	return out
}

// Fraction returns the share of frames carrying label.
func (s Summary) Fraction(label int) float64 {
	if s.Frames == 0 {
		return 0
	}
	return float64(s.Counts[label]) / float64(s.Frames)
}

// Rejected returns the number of frames carrying a rejection or exclusion
// marker introduced by filtering.
func (s Summary) Rejected() int {
	return s.Counts[RejectedRecognition] + s.Counts[Unmatched] + s.Counts[Transition] + s.Counts[PauseMargin]
}

func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d frames", s.Frames)
	for _, l := range s.Labels() {
		fmt.Fprintf(&b, ", %s=%d", Describe(l), s.Counts[l])
	}
	return b.String()
}
