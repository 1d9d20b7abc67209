// Package sync drains the offline write queue against the remote
// store, applying the retry and eviction policy.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"recallkit/internal/queue"
	"recallkit/internal/remote"
)

// DefaultMaxRetries is the retry ceiling: an item that has already
// failed this many times is dropped rather than retried.
const DefaultMaxRetries = 5

// Outcome explains why a drain pass did or did not run.
type Outcome int

const (
	Drained   Outcome = iota // Pass ran over the queue snapshot.
	Offline                  // Remote store unreachable; queue untouched.
	NoSession                // No authenticated identity; queue untouched.
	Busy                     // Another drain was already in flight.
)

var outcomeNames = [...]string{Drained: "drained", Offline: "offline", NoSession: "no_session", Busy: "busy"}

func (o Outcome) String() string {
	if o >= Drained && o <= Busy {
		return outcomeNames[o]
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Result is the outcome of one drain invocation.
type Result struct {
	Processed uint32  `json:"processed"`
	Failed    uint32  `json:"failed"`
	Outcome   Outcome `json:"-"`
}

// StatusRefresher is notified exactly once at the end of every pass.
type StatusRefresher interface {
	Refresh(ctx context.Context)
}

// FailureLog records write-intents dropped at the retry ceiling.
type FailureLog interface {
	RecordFailure(ctx context.Context, item queue.Item, reason string, at time.Time) error
}

// Config wires a Processor.
type Config struct {
	Store      queue.Store
	Remote     remote.Client
	Network    remote.Network
	Session    remote.Session
	Status     StatusRefresher // optional
	Failures   FailureLog      // optional
	MaxRetries int             // zero → DefaultMaxRetries
	Logger     *slog.Logger    // nil → slog.Default
	Now        func() time.Time
}

// Processor drains the queue. All triggers (timer, connectivity
// restored, explicit request) funnel into Drain.
type Processor struct {
	store      queue.Store
	remote     remote.Client
	network    remote.Network
	session    remote.Session
	status     StatusRefresher
	failures   FailureLog
	maxRetries int
	log        *slog.Logger
	now        func() time.Time

	// inFlight serializes overlapping triggers. Drain is snapshot-based
	// and mutates the store item by item, so interleaved passes could
	// double-attempt items or race retry counts.
	inFlight atomic.Bool
}

// New creates a Processor from cfg. Store, Remote, Network and Session
// are required; the rest default sensibly.
func New(cfg Config) *Processor {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Processor{
		store:      cfg.Store,
		remote:     cfg.Remote,
		network:    cfg.Network,
		session:    cfg.Session,
		status:     cfg.Status,
		failures:   cfg.Failures,
		maxRetries: cfg.MaxRetries,
		log:        cfg.Logger,
		now:        cfg.Now,
	}
}

// Drain runs one pass over a snapshot of the queue. Items appended
// during the pass are left for the next trigger. Queue-level errors
// never escape; they fold into the failed count.
func (p *Processor) Drain(ctx context.Context) Result {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.log.Debug("drain skipped, another pass in flight")
		return Result{Outcome: Busy}
	}
	defer p.inFlight.Store(false)

	if !p.network.Online(ctx) {
		p.log.Debug("drain skipped, offline")
		return Result{Outcome: Offline}
	}
	userID, ok := p.session.UserID(ctx)
	if !ok {
		p.log.Debug("drain skipped, no authenticated session")
		return Result{Outcome: NoSession}
	}

	var res Result
	defer func() {
		if p.status != nil {
			p.status.Refresh(ctx)
		}
	}()

	items, err := p.store.List(ctx)
	if err != nil {
		p.log.Error("failed to snapshot queue", "error", err)
		return res
	}

	for _, item := range items {
		if item.RetryCount >= p.maxRetries {
			p.drop(ctx, item)
			res.Failed++
			continue
		}

		if err := p.apply(ctx, userID, item); err != nil {
			p.log.Warn("queued write failed",
				"id", item.ID,
				"action", item.Action,
				"retry_count", item.RetryCount,
				"error", err,
			)
			if err := p.store.IncrementRetry(ctx, item.ID); err != nil {
				p.log.Error("failed to record retry", "id", item.ID, "error", err)
			}
			res.Failed++
			continue
		}

		if err := p.store.Remove(ctx, item.ID); err != nil {
			p.log.Error("failed to remove delivered item", "id", item.ID, "error", err)
		}
		res.Processed++
	}

	if res.Processed > 0 || res.Failed > 0 {
		p.log.Info("queue drained", "processed", res.Processed, "failed", res.Failed)
	}
	return res
}

// apply performs the remote write described by the item.
func (p *Processor) apply(ctx context.Context, userID string, item queue.Item) error {
	switch item.Action {
	case queue.ActionCreateCard:
		return p.remote.InsertCard(ctx, userID, item.Payload)
	default:
		return fmt.Errorf("unknown queue action %q", item.Action)
	}
}

// drop permanently evicts an item that exhausted its retries. The drop
// is surfaced through the failure log and an error-level log entry,
// never silently.
func (p *Processor) drop(ctx context.Context, item queue.Item) {
	p.log.Error("dropping write-intent after exhausting retries",
		"id", item.ID,
		"action", item.Action,
		"retry_count", item.RetryCount,
	)
	if p.failures != nil {
		if err := p.failures.RecordFailure(ctx, item, "retry ceiling reached", p.now()); err != nil {
			p.log.Error("failed to record permanent failure", "id", item.ID, "error", err)
		}
	}
	if err := p.store.Remove(ctx, item.ID); err != nil {
		p.log.Error("failed to remove exhausted item", "id", item.ID, "error", err)
	}
}
