package fsrs

import (
	"encoding"
	"fmt"
	"strings"
)

// Rating is the reviewer's assessment of recall quality.
type Rating int

const (
	Again Rating = iota + 1 // Failed to recall.
	Hard                    // Recalled with significant difficulty.
	Good                    // Recalled with some effort.
	Easy                    // Recalled effortlessly.
)

var (
	ratingNames  = [...]string{Again: "Again", Hard: "Hard", Good: "Good", Easy: "Easy"}
	ratingByName = map[string]Rating{
		"again": Again,
		"hard":  Hard,
		"good":  Good,
		"easy":  Easy,
	}
)

var (
	_ fmt.Stringer             = Rating(0)
	_ encoding.TextMarshaler   = Rating(0)
	_ encoding.TextUnmarshaler = (*Rating)(nil)
)

// IsValid reports whether r is a valid rating (Again through Easy).
func (r Rating) IsValid() bool {
	return r >= Again && r <= Easy
}

// String returns the name of the rating ("Again", "Hard", "Good", "Easy").
// For invalid values it returns "Rating(n)".
func (r Rating) String() string {
	if r.IsValid() {
		return ratingNames[r]
	}
	return fmt.Sprintf("Rating(%d)", int(r))
}

// MarshalText implements encoding.TextMarshaler.
func (r Rating) MarshalText() ([]byte, error) {
	if !r.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRating, int(r))
	}
	return []byte(ratingNames[r]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Names are matched
// case-insensitively.
func (r *Rating) UnmarshalText(text []byte) error {
	v, ok := ratingByName[strings.ToLower(string(text))]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidRating, text)
	}
	*r = v
	return nil
}
