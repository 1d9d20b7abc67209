// Package capture produces write-intents: it validates card creations
// and applies them to the remote store synchronously when possible,
// falling back to the durable queue when offline, unauthenticated, or
// the remote write fails.
package capture

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"recallkit/internal/domain"
	"recallkit/internal/queue"
	"recallkit/internal/remote"
)

// Result reports how a card creation was handled.
type Result struct {
	// Queued is true when the write could not reach the remote store
	// and was appended to the offline queue instead.
	Queued bool `json:"queued"`

	// Item is the queued write-intent when Queued is true.
	Item *queue.Item `json:"item,omitempty"`
}

// Service captures card creations.
type Service struct {
	store    queue.Store
	remote   remote.Client
	network  remote.Network
	session  remote.Session
	validate *validator.Validate
	log      *slog.Logger
}

// New creates a capture Service. A nil logger falls back to slog.Default.
func New(store queue.Store, client remote.Client, network remote.Network, session remote.Session, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:    store,
		remote:   client,
		network:  network,
		session:  session,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
	}
}

// CreateCard validates the payload and either inserts it remotely or
// queues it for a later drain. A validation failure is the only error;
// remote failures degrade to queueing, never to data loss.
func (s *Service) CreateCard(ctx context.Context, p domain.CardPayload) (Result, error) {
	if err := s.validate.Struct(p); err != nil {
		return Result{}, fmt.Errorf("invalid card payload: %w", err)
	}

	if s.network.Online(ctx) {
		if userID, ok := s.session.UserID(ctx); ok {
			err := s.remote.InsertCard(ctx, userID, p)
			if err == nil {
				s.log.Debug("card created remotely", "deck_id", p.DeckID)
				return Result{}, nil
			}
			s.log.Warn("remote insert failed, queueing write-intent", "deck_id", p.DeckID, "error", err)
		}
	}

	item, err := s.store.Append(ctx, queue.ActionCreateCard, p)
	if err != nil {
		return Result{}, fmt.Errorf("failed to queue card creation: %w", err)
	}
	s.log.Info("card creation queued", "id", item.ID, "deck_id", p.DeckID)
	return Result{Queued: true, Item: &item}, nil
}
