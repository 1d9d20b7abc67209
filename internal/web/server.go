// Package web exposes the capture, sync and review operations over a
// small JSON HTTP API.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"recallkit/internal/badge"
	"recallkit/internal/capture"
	"recallkit/internal/domain"
	"recallkit/internal/fsrs"
	"recallkit/internal/review"
	"recallkit/internal/storage"
	"recallkit/internal/sync"
)

// Syncer drains the offline queue on demand.
type Syncer interface {
	Drain(ctx context.Context) sync.Result
}

// CardCreator accepts new card payloads.
type CardCreator interface {
	CreateCard(ctx context.Context, p domain.CardPayload) (capture.Result, error)
}

// Reviewer serves due cards and applies ratings.
type Reviewer interface {
	Next(ctx context.Context) (*domain.Card, error)
	AnswerByID(ctx context.Context, cardID string, rating fsrs.Rating) (fsrs.MemoryState, error)
}

// StatusSource reports the pending queue count.
type StatusSource interface {
	Count(ctx context.Context) (int, error)
}

// FailureReader lists permanently dropped writes.
type FailureReader interface {
	FailedWrites(ctx context.Context) ([]storage.FailedWrite, error)
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	router   *http.ServeMux
	status   StatusSource
	failures FailureReader
	syncer   Syncer
	capture  CardCreator
	reviewer Reviewer
	log      *slog.Logger
}

// NewServer creates and configures a new server. A nil logger falls
// back to slog.Default.
func NewServer(status StatusSource, failures FailureReader, syncer Syncer, creator CardCreator, reviewer Reviewer, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		router:   http.NewServeMux(),
		status:   status,
		failures: failures,
		syncer:   syncer,
		capture:  creator,
		reviewer: reviewer,
		log:      log,
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	s.router.HandleFunc("/status", s.handleStatus())
	s.router.HandleFunc("/sync", s.handleSync())
	s.router.HandleFunc("/cards", s.handleCards())
	s.router.HandleFunc("/review/next", s.handleReviewNext())
	s.router.HandleFunc("/review/", s.handleReviewAnswer())
}

type statusResponse struct {
	Pending      int    `json:"pending"`
	Color        string `json:"color,omitempty"`
	FailedWrites int    `json:"failed_writes"`
}

// handleStatus reports the badge: pending queue count plus the number
// of permanently dropped writes. Color is set only when the badge
// should be visible.
func (s *Server) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		pending, err := s.status.Count(r.Context())
		if err != nil {
			s.log.Error("status count failed", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		failed, err := s.failures.FailedWrites(r.Context())
		if err != nil {
			s.log.Error("failed-write lookup failed", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		resp := statusResponse{Pending: pending, FailedWrites: len(failed)}
		if pending > 0 {
			resp.Color = badge.Color
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// handleSync triggers a drain pass in the foreground and reports its
// outcome.
func (s *Server) handleSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		res := s.syncer.Drain(r.Context())
		writeJSON(w, http.StatusOK, struct {
			sync.Result
			Outcome string `json:"outcome"`
		}{Result: res, Outcome: res.Outcome.String()})
	}
}

// handleCards accepts a new card payload.
func (s *Server) handleCards() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var payload domain.CardPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "Invalid JSON body", http.StatusBadRequest)
			return
		}

		res, err := s.capture.CreateCard(r.Context(), payload)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		status := http.StatusCreated
		if res.Queued {
			status = http.StatusAccepted
		}
		writeJSON(w, status, res)
	}
}

// handleReviewNext returns the next due card, or 204 when nothing is due.
func (s *Server) handleReviewNext() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		card, err := s.reviewer.Next(r.Context())
		if err != nil {
			s.log.Error("next due card failed", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if card == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, card)
	}
}

// handleReviewAnswer applies a rating to the card named in the path:
// POST /review/{id} with body {"rating": "good"}.
func (s *Server) handleReviewAnswer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		cardID := strings.TrimPrefix(r.URL.Path, "/review/")
		if cardID == "" || strings.Contains(cardID, "/") {
			http.Error(w, "Invalid card id", http.StatusBadRequest)
			return
		}

		var body struct {
			Rating fsrs.Rating `json:"rating"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid JSON body", http.StatusBadRequest)
			return
		}

		next, err := s.reviewer.AnswerByID(r.Context(), cardID, body.Rating)
		switch {
		case errors.Is(err, review.ErrCardNotFound):
			http.Error(w, "Card not found", http.StatusNotFound)
			return
		case errors.Is(err, fsrs.ErrInvalidRating):
			http.Error(w, "Invalid rating", http.StatusBadRequest)
			return
		case err != nil:
			s.log.Error("review answer failed", "card_id", cardID, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, next)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Warn("failed to encode response", "error", err)
	}
}
