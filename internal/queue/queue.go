// Package queue defines the durable offline write queue: an ordered
// list of pending write-intents that could not be applied to the remote
// store synchronously.
package queue

import (
	"context"
	"time"

	"github.com/google/uuid"

	"recallkit/internal/domain"
)

// Action identifies the remote write a queue item describes.
type Action string

// ActionCreateCard is the only action currently queued: a card
// creation authored while offline or unauthenticated.
const ActionCreateCard Action = "create_flashcard"

// Item is a single pending write-intent. Items are owned exclusively
// by the store until removed; queue order is FIFO by append order.
type Item struct {
	ID         uuid.UUID          `json:"id"`
	Action     Action             `json:"action"`
	Payload    domain.CardPayload `json:"payload"`
	CreatedAt  time.Time          `json:"created_at"`
	RetryCount int                `json:"retry_count"`
}

// Store is the durable queue abstraction. Implementations must keep
// insertion order stable and make Remove and IncrementRetry idempotent:
// operating on a missing id is a no-op, not an error.
type Store interface {
	// Append generates an id, stamps created_at, persists the item with
	// a zero retry count, and returns the stored item.
	Append(ctx context.Context, action Action, payload domain.CardPayload) (Item, error)

	// List returns a snapshot of all pending items in insertion order.
	// An empty store yields an empty slice.
	List(ctx context.Context) ([]Item, error)

	// Remove deletes the item with the given id, if present.
	Remove(ctx context.Context, id uuid.UUID) error

	// IncrementRetry adds one to the item's retry count, if present.
	IncrementRetry(ctx context.Context, id uuid.UUID) error

	// Len returns the number of pending items.
	Len(ctx context.Context) (int, error)
}

// Listener is notified after every successful Append and Remove with
// the new pending count. Consumed by the status reporter.
type Listener interface {
	QueueChanged(pending int)
}
