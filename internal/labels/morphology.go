package labels

// Binary morphology over frame masks. Positions outside the sequence are
// false.

// dilateEarly extends every true run n frames towards the start.
func dilateEarly(mask []bool, n int) []bool {
	out := make([]bool, len(mask))
	left := 0
	for i := len(mask) - 1; i >= 0; i-- {
		switch {
		case mask[i]:
			out[i] = true
			left = n
		case left > 0:
			out[i] = true
			left--
		}
	}
	return out
}

// dilateLate extends every true run n frames towards the end.
func dilateLate(mask []bool, n int) []bool {
	out := make([]bool, len(mask))
	left := 0
	for i, v := range mask {
		switch {
		case v:
			out[i] = true
			left = n
		case left > 0:
			out[i] = true
			left--
		}
	}
	return out
}

// dilate extends every true run n frames on both sides.
func dilate(mask []bool, n int) []bool {
	return or(dilateEarly(mask, n), dilateLate(mask, n))
}

// erode keeps frame i only if every frame within n of it is true and inside
// the sequence.
func erode(mask []bool, n int) []bool {
	out := make([]bool, len(mask))
	if n <= 0 {
		copy(out, mask)
		return out
	}
	// falses[i] counts false frames in mask[:i].
	falses := make([]int, len(mask)+1)
	for i, v := range mask {
		falses[i+1] = falses[i]
		if !v {
			falses[i+1]++
		}
	}
	for i := n; i+n < len(mask); i++ {
		out[i] = falses[i+n+1]-falses[i-n] == 0
	}
	return out
}

// tolerance dilates mask early by before frames and then late by after
// frames. Non-positive counts skip that side.
func tolerance(mask []bool, before, after int) []bool {
	if before > 0 {
		mask = dilateEarly(mask, before)
	}
	if after > 0 {
		mask = dilateLate(mask, after)
	}
	return mask
}

func or(a, b []bool) []bool {
	for i := range a {
		a[i] = a[i] || b[i]
	}
	return a
}

func equalMask(seq []int, v int) []bool {
	out := make([]bool, len(seq))
	for i, x := range seq {
		out[i] = x == v
	}
	return out
}
