package fsrs

import "errors"

// Sentinel errors for the fsrs package. Check with errors.Is.
var (
	ErrInvalidRating = errors.New("fsrs: invalid rating")
	ErrInvalidConfig = errors.New("fsrs: invalid scheduler config")
)
