// Package fsrs implements the FSRS-4.5 spaced repetition scheduler.
//
// The scheduler is a pure function over (memory state, rating, now): it
// performs no I/O and is deterministic for identical inputs, so review
// results can be recomputed and replayed safely.
package fsrs

import (
	"fmt"
	"math"
	"time"
)

// DefaultWeights are the FSRS-4.5 default parameter values.
var DefaultWeights = [17]float64{
	0.4872, 1.4003, 3.7145, 13.8206, // w[0..3]  initial stability S₀(G)
	5.1618, 1.2298, 0.8975, 0.031, // w[4..7]  difficulty params
	1.6474, 0.1367, 1.0461, // w[8..10] recall stability params
	2.1072, 0.0793, 0.3246, 1.587, // w[11..14] forget stability params
	0.2272, 2.8755, // w[15..16] hard penalty, easy bonus
}

// Clamping bounds for the memory model. Out-of-range inputs are clamped
// to these, never rejected.
const (
	MinStability  = 0.1
	MinDifficulty = 1.0
	MaxDifficulty = 10.0
)

// Config configures a Scheduler. Zero values produce defaults.
type Config struct {
	Weights          [17]float64 // zero → DefaultWeights
	DesiredRetention float64     // zero → 0.9
	MaximumInterval  int         // zero → 36500 days
}

// Scheduler computes the next memory state for a card after a review.
type Scheduler struct {
	w                [17]float64
	decay            float64 // forgetting curve decay exponent
	factor           float64 // 0.9^(1/decay) - 1
	desiredRetention float64
	maximumInterval  int
}

// NewScheduler creates a Scheduler from the given config. Zero-value
// fields are filled with defaults; invalid values return an error.
func NewScheduler(cfg Config) (*Scheduler, error) {
	w := cfg.Weights
	if w == ([17]float64{}) {
		w = DefaultWeights
	}

	dr := cfg.DesiredRetention
	if dr == 0 {
		dr = 0.9
	}
	if dr < 0 || dr > 1 {
		return nil, fmt.Errorf("%w: desired retention %f out of range (0, 1]", ErrInvalidConfig, dr)
	}

	maxIvl := cfg.MaximumInterval
	if maxIvl == 0 {
		maxIvl = 36500
	}
	if maxIvl < 0 {
		return nil, fmt.Errorf("%w: maximum interval %d must be positive", ErrInvalidConfig, maxIvl)
	}

	decay := -0.5
	return &Scheduler{
		w:                w,
		decay:            decay,
		factor:           math.Pow(0.9, 1.0/decay) - 1.0,
		desiredRetention: dr,
		maximumInterval:  maxIvl,
	}, nil
}

// Schedule applies one review to the card's memory state and returns
// the updated state. The input state is not mutated. The function is
// total: out-of-range stability and difficulty are clamped.
//
// State transitions:
//
//	New        --(any)-->            Learning
//	Learning   --(Again)-->          Learning
//	Learning   --(Hard|Good|Easy)--> Review
//	Review     --(Again)-->          Relearning, lapses += 1
//	Review     --(Hard|Good|Easy)--> Review
//	Relearning --(Again)-->          Relearning
//	Relearning --(Hard|Good|Easy)--> Review
func (s *Scheduler) Schedule(m MemoryState, rating Rating, now time.Time) MemoryState {
	next := m

	var elapsed float64
	if m.State != New && m.LastReview != nil {
		elapsed = now.Sub(*m.LastReview).Hours() / 24.0
		if elapsed < 0 {
			elapsed = 0
		}
	}
	next.ElapsedDays = uint32(elapsed)

	switch m.State {
	case New:
		next.Stability = s.initStability(rating)
		next.Difficulty = s.initDifficulty(rating)
		next.State = Learning

	case Learning, Relearning:
		s.updateMemory(&next, m, rating, elapsed)
		if rating != Again {
			next.State = Review
		}

	case Review:
		s.updateMemory(&next, m, rating, elapsed)
		if rating == Again {
			next.State = Relearning
			next.Lapses = m.Lapses + 1
		}
	}

	days := s.nextInterval(next.Stability)
	next.ScheduledDays = uint32(days)
	next.Due = now.Add(time.Duration(days) * 24 * time.Hour)
	next.Reps = m.Reps + 1
	reviewed := now
	next.LastReview = &reviewed
	return next
}

// Retrievability returns the modeled probability of recall at the given
// time. Returns 0 for a card that has never been reviewed.
func (s *Scheduler) Retrievability(m MemoryState, now time.Time) float64 {
	if m.LastReview == nil || m.Stability <= 0 {
		return 0
	}
	elapsed := now.Sub(*m.LastReview).Hours() / 24.0
	if elapsed < 0 {
		elapsed = 0
	}
	return s.retrievability(elapsed, clampStability(m.Stability))
}

// updateMemory computes the post-review stability and difficulty for a
// previously reviewed card from its retrievability at review time.
func (s *Scheduler) updateMemory(next *MemoryState, m MemoryState, rating Rating, elapsed float64) {
	stability := clampStability(m.Stability)
	difficulty := clampDifficulty(m.Difficulty)
	retr := s.retrievability(elapsed, stability)

	if rating == Again {
		next.Stability = s.forgetStability(difficulty, stability, retr)
	} else {
		next.Stability = s.recallStability(difficulty, stability, retr, rating)
	}
	next.Difficulty = s.nextDifficulty(difficulty, rating)
}

// retrievability computes R(t, S) = (1 + FACTOR * t / S) ^ DECAY.
func (s *Scheduler) retrievability(elapsedDays, stability float64) float64 {
	return math.Pow(1+s.factor*elapsedDays/stability, s.decay)
}

// initStability returns the initial stability S₀(G) = w[G-1].
func (s *Scheduler) initStability(r Rating) float64 {
	return clampStability(s.w[r-1])
}

// initDifficulty returns the initial difficulty D₀(G) = w[4] - (G-3)*w[5].
func (s *Scheduler) initDifficulty(r Rating) float64 {
	return clampDifficulty(s.w[4] - float64(r-3)*s.w[5])
}

// nextDifficulty computes the updated difficulty after a review:
// D' = D - w[6]*(G-3), then mean reversion toward w[4].
func (s *Scheduler) nextDifficulty(difficulty float64, r Rating) float64 {
	d := difficulty - s.w[6]*(float64(r)-3)
	reverted := s.w[7]*s.w[4] + (1-s.w[7])*d
	return clampDifficulty(reverted)
}

// recallStability computes stability after a successful recall:
// S' = S * (1 + e^w[8] * (11-D) * S^(-w[9]) * (e^((1-R)*w[10]) - 1) * hardPenalty * easyBonus)
func (s *Scheduler) recallStability(d, stability, r float64, rating Rating) float64 {
	hardPenalty := 1.0
	if rating == Hard {
		hardPenalty = s.w[15]
	}
	easyBonus := 1.0
	if rating == Easy {
		easyBonus = s.w[16]
	}
	grown := stability * (1 + math.Exp(s.w[8])*
		(11-d)*
		math.Pow(stability, -s.w[9])*
		(math.Exp((1-r)*s.w[10])-1)*
		hardPenalty*easyBonus)
	return clampStability(grown)
}

// forgetStability computes stability after forgetting:
// S' = w[11] * D^(-w[12]) * ((S+1)^w[13] - 1) * e^((1-R)*w[14]),
// never exceeding the pre-lapse stability.
func (s *Scheduler) forgetStability(d, stability, r float64) float64 {
	dropped := s.w[11] *
		math.Pow(d, -s.w[12]) *
		(math.Pow(stability+1, s.w[13]) - 1) *
		math.Exp((1-r)*s.w[14])
	return clampStability(math.Min(dropped, stability))
}

// nextInterval solves the forgetting curve for the elapsed time at
// which retrievability equals the desired retention:
// I(S) = (S / FACTOR) * (r^(1/DECAY) - 1), clamped to [1, maximumInterval].
// The one-day floor prevents immediate re-presentation loops.
func (s *Scheduler) nextInterval(stability float64) int {
	ivl := stability / s.factor * (math.Pow(s.desiredRetention, 1.0/s.decay) - 1)
	days := int(math.Round(ivl))
	if days < 1 {
		days = 1
	}
	if days > s.maximumInterval {
		days = s.maximumInterval
	}
	return days
}

func clampStability(v float64) float64 {
	return math.Max(v, MinStability)
}

func clampDifficulty(v float64) float64 {
	return math.Min(math.Max(v, MinDifficulty), MaxDifficulty)
}
