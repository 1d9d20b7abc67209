package fsrs

import (
	"encoding"
	"fmt"
	"time"
)

// State is the learning stage of a card. The integer values are part of
// the persisted record format and must not be reordered.
type State int

const (
	New        State = iota // Authored, never reviewed.
	Learning                // In initial learning.
	Review                  // In the long-term review cycle.
	Relearning              // Forgotten, relearning.
)

var (
	stateNames  = [...]string{New: "New", Learning: "Learning", Review: "Review", Relearning: "Relearning"}
	stateByName = map[string]State{
		"New":        New,
		"Learning":   Learning,
		"Review":     Review,
		"Relearning": Relearning,
	}
)

var (
	_ fmt.Stringer             = State(0)
	_ encoding.TextMarshaler   = State(0)
	_ encoding.TextUnmarshaler = (*State)(nil)
)

// IsValid reports whether s is a valid state (New through Relearning).
func (s State) IsValid() bool {
	return s >= New && s <= Relearning
}

// String returns the name of the state. For invalid values it returns
// "State(n)".
func (s State) String() string {
	if s.IsValid() {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("fsrs: invalid state: %d", int(s))
	}
	return []byte(stateNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	v, ok := stateByName[string(text)]
	if !ok {
		return fmt.Errorf("fsrs: invalid state: %q", text)
	}
	*s = v
	return nil
}

// MemoryState is the per-card scheduling state evolved by the
// Scheduler on every review. It is owned by the flashcard record.
type MemoryState struct {
	Stability     float64    `json:"stability"`
	Difficulty    float64    `json:"difficulty"`
	ElapsedDays   uint32     `json:"elapsed_days"`
	ScheduledDays uint32     `json:"scheduled_days"`
	Reps          uint32     `json:"reps"`
	Lapses        uint32     `json:"lapses"`
	State         State      `json:"state"`
	LastReview    *time.Time `json:"last_review"`
	Due           time.Time  `json:"due"`
}

// NewMemoryState returns the memory state of a freshly authored card:
// never reviewed, due immediately.
func NewMemoryState(now time.Time) MemoryState {
	return MemoryState{State: New, Due: now}
}
