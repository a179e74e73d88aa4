package conditioning

import "fmt"

// StageKind identifies one filter stage of the conditioning chain.
type StageKind int

const (
	// StageNotch subtracts the adaptive notch interference estimate.
	StageNotch StageKind = iota
	// StageBandpass applies the zero-phase Butterworth bandpass.
	StageBandpass
)

// DefaultStages is the conditioning chain: notch subtraction, then bandpass.
func DefaultStages() []StageKind {
	return []StageKind{StageNotch, StageBandpass}
}

func (k StageKind) String() string {
	switch k {
	case StageNotch:
		return "notch"
	case StageBandpass:
		return "bandpass"
	}
	return fmt.Sprintf("StageKind(%d)", int(k))
}

// ParseStageKind returns the stage named s.
func ParseStageKind(s string) (StageKind, error) {
	switch s {
	case "notch":
		return StageNotch, nil
	case "bandpass":
		return StageBandpass, nil
	}
	return 0, fmt.Errorf("%w: unknown stage %q", ErrInvalidConfig, s)
}
