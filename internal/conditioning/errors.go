package conditioning

import "errors"

var (
	// ErrRaggedTable is returned when table columns differ in length from
	// the index or from each other.
	ErrRaggedTable = errors.New("ragged table")

	// ErrInvalidConfig is returned by New for configurations that cannot
	// build a pipeline.
	ErrInvalidConfig = errors.New("invalid conditioning config")
)
