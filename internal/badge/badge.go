// Package badge derives the small observable status signal shown to
// the user: the number of pending queued writes.
package badge

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"recallkit/internal/queue"
)

// Color is the fixed background color for a non-empty badge.
const Color = "#FF9500"

// Reporter derives the badge value from the queue store. It keeps no
// independent state beyond a cache of the last observed count.
type Reporter struct {
	store queue.Store
	log   *slog.Logger
	last  atomic.Int64
}

// New creates a Reporter over the given store. A nil logger falls back
// to slog.Default.
func New(store queue.Store, log *slog.Logger) *Reporter {
	if log == nil {
		log = slog.Default()
	}
	return &Reporter{store: store, log: log}
}

// Count returns the queue length at call time.
func (r *Reporter) Count(ctx context.Context) (int, error) {
	n, err := r.store.Len(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to derive badge count: %w", err)
	}
	r.last.Store(int64(n))
	return n, nil
}

// Refresh recomputes the badge after a drain pass.
func (r *Reporter) Refresh(ctx context.Context) {
	n, err := r.Count(ctx)
	if err != nil {
		r.log.Warn("badge refresh failed", "error", err)
		return
	}
	r.log.Debug("badge refreshed", "pending", n)
}

// QueueChanged implements queue.Listener.
func (r *Reporter) QueueChanged(pending int) {
	r.last.Store(int64(pending))
}

// Last returns the most recently observed count without touching the
// store. It may lag Count after external mutations.
func (r *Reporter) Last() int {
	return int(r.last.Load())
}
