// Package remote talks to the hosted card store: an authenticated row
// API with per-record CRUD and row-level filtering. Success or failure
// of a write is reported as presence or absence of an error; there is
// no partial success per row.
package remote

import (
	"context"
	"time"

	"recallkit/internal/domain"
	"recallkit/internal/fsrs"
)

// Client is the remote store abstraction used by the sync processor
// and the review driver.
type Client interface {
	// InsertCard creates one flashcard row for the given user.
	InsertCard(ctx context.Context, userID string, p domain.CardPayload) error

	// Card fetches a single card by id. Returns nil, nil when the row
	// does not exist.
	Card(ctx context.Context, userID, cardID string) (*domain.Card, error)

	// DueCards returns the user's cards due at or before now, ordered
	// by due date, at most limit rows.
	DueCards(ctx context.Context, userID string, now time.Time, limit int) ([]domain.Card, error)

	// UpdateMemoryState writes the card's scheduling state back to its row.
	UpdateMemoryState(ctx context.Context, cardID string, m fsrs.MemoryState) error
}

// Network reports whether the remote store is reachable.
type Network interface {
	Online(ctx context.Context) bool
}

// Session supplies the authenticated identity for remote writes.
type Session interface {
	// UserID returns the current user id, or false when no
	// authenticated session is available.
	UserID(ctx context.Context) (string, bool)
}

// StaticSession is a Session backed by a fixed user id from config.
// Authentication flows are a collaborator concern; a configured
// identity stands in for them.
type StaticSession struct {
	ID string
}

// UserID implements Session.
func (s StaticSession) UserID(context.Context) (string, bool) {
	return s.ID, s.ID != ""
}
