// Package review drives a review session: it feeds due cards through
// the scheduler and persists the updated memory state to the remote
// store. Ratings never go through the offline queue; reviewing
// requires a live connection.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"recallkit/internal/domain"
	"recallkit/internal/fsrs"
	"recallkit/internal/remote"
)

// ErrCardNotFound is returned when a rating targets a card id that
// does not exist for the current user.
var ErrCardNotFound = errors.New("card not found")

// Driver orchestrates one user's review session.
type Driver struct {
	remote  remote.Client
	sched   *fsrs.Scheduler
	session remote.Session
	now     func() time.Time
	log     *slog.Logger
}

// New creates a review Driver. A nil clock uses time.Now; a nil logger
// falls back to slog.Default.
func New(client remote.Client, sched *fsrs.Scheduler, session remote.Session, now func() time.Time, log *slog.Logger) *Driver {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = slog.Default()
	}
	return &Driver{remote: client, sched: sched, session: session, now: now, log: log}
}

// Next returns the next due card, or nil when nothing is due.
func (d *Driver) Next(ctx context.Context) (*domain.Card, error) {
	userID, ok := d.session.UserID(ctx)
	if !ok {
		return nil, fmt.Errorf("no authenticated session")
	}
	cards, err := d.remote.DueCards(ctx, userID, d.now(), 1)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch next due card: %w", err)
	}
	if len(cards) == 0 {
		return nil, nil
	}
	return &cards[0], nil
}

// Due returns up to limit due cards in due order.
func (d *Driver) Due(ctx context.Context, limit int) ([]domain.Card, error) {
	userID, ok := d.session.UserID(ctx)
	if !ok {
		return nil, fmt.Errorf("no authenticated session")
	}
	cards, err := d.remote.DueCards(ctx, userID, d.now(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch due cards: %w", err)
	}
	return cards, nil
}

// AnswerByID fetches the card by id and applies the rating to it.
func (d *Driver) AnswerByID(ctx context.Context, cardID string, rating fsrs.Rating) (fsrs.MemoryState, error) {
	userID, ok := d.session.UserID(ctx)
	if !ok {
		return fsrs.MemoryState{}, fmt.Errorf("no authenticated session")
	}
	card, err := d.remote.Card(ctx, userID, cardID)
	if err != nil {
		return fsrs.MemoryState{}, fmt.Errorf("failed to fetch card %s: %w", cardID, err)
	}
	if card == nil {
		return fsrs.MemoryState{}, fmt.Errorf("%w: %s", ErrCardNotFound, cardID)
	}
	return d.Answer(ctx, card, rating)
}

// Answer applies one rating to the card, persists the new memory state
// and returns it. The card's in-memory state is updated on success.
func (d *Driver) Answer(ctx context.Context, card *domain.Card, rating fsrs.Rating) (fsrs.MemoryState, error) {
	if !rating.IsValid() {
		return fsrs.MemoryState{}, fmt.Errorf("%w: %d", fsrs.ErrInvalidRating, int(rating))
	}

	next := d.sched.Schedule(card.Memory, rating, d.now())
	if err := d.remote.UpdateMemoryState(ctx, card.ID, next); err != nil {
		return fsrs.MemoryState{}, fmt.Errorf("failed to persist review for card %s: %w", card.ID, err)
	}

	d.log.Debug("card reviewed",
		"card_id", card.ID,
		"rating", rating,
		"state", next.State,
		"scheduled_days", next.ScheduledDays,
	)
	card.Memory = next
	return next, nil
}
