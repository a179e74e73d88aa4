package labels

import "errors"

var (
	// ErrShapeMismatch is returned when the recognized and trajectory
	// sequences differ in length.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrInvalidKernel is returned for median kernels that are not positive
	// and odd.
	ErrInvalidKernel = errors.New("invalid median kernel")
)
