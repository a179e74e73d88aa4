package dsp

import "errors"

var (
	// ErrFilterDesign is returned when filter cutoffs, order or sample rate
	// cannot produce a valid design.
	ErrFilterDesign = errors.New("filter design")

	// ErrSignalTooShort is returned when a sequence is too short for the
	// edge padding used by zero-phase filtering.
	ErrSignalTooShort = errors.New("signal too short")

	// ErrShapeMismatch is returned when paired sequences differ in length.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrNonconvergence marks a harmonic fit that stopped before reaching the
	// gradient tolerance. It is only ever reported as a diagnostic; the best
	// iterate is still used.
	ErrNonconvergence = errors.New("optimization did not converge")
)
