package labels

import "strconv"

// Reserved labels. Non-negative values are gesture ids with Idle meaning no
// gesture; negative values are markers that downstream consumers branch on.
const (
	Idle = 0
	// Pause marks a defined pause in a trajectory. VGGFilter reuses it for
	// rejected frames.
	Pause               = -1
	RejectedVGG         = -1
	RejectedRecognition = -2
	Unmatched           = -4
	Transition          = -5
	PauseMargin         = -6
)

// Describe returns a short human-readable name for a label.
func Describe(label int) string {
	switch label {
	case Idle:
		return "idle"
	case Pause:
		return "pause/rejected"
	case RejectedRecognition:
		return "rejected"
	case Unmatched:
		return "unmatched"
	case Transition:
		return "transition"
	case PauseMargin:
		return "pause margin"
	}
	if label > 0 {
		return "gesture " + strconv.Itoa(label)
	}
	return "marker " + strconv.Itoa(label)
}
