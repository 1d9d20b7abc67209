package domain

import "recallkit/internal/fsrs"

// CardSource describes how a card was authored.
type CardSource string

const (
	SourceText  CardSource = "text"
	SourceImage CardSource = "image"
)

// CardPayload holds the fields required to materialize a card creation
// against the remote store. It is the payload carried by queued
// write-intents and by direct inserts alike.
type CardPayload struct {
	Front         string     `json:"front" validate:"required"`
	Back          string     `json:"back" validate:"required"`
	DeckID        string     `json:"deck_id" validate:"required"`
	Tags          []string   `json:"tags,omitempty"`
	Source        CardSource `json:"source" validate:"required,oneof=text image"`
	SourceURL     string     `json:"source_url,omitempty" validate:"omitempty,url"`
	FrontImageURL string     `json:"front_image_url,omitempty" validate:"omitempty,url"`
}

// Card is a flashcard as held by the remote store, including the
// per-card memory state evolved by the scheduler.
type Card struct {
	ID            string           `json:"id"`
	DeckID        string           `json:"deck_id"`
	Front         string           `json:"front"`
	Back          string           `json:"back"`
	Tags          []string         `json:"tags"`
	Source        CardSource       `json:"source"`
	SourceURL     string           `json:"source_url,omitempty"`
	FrontImageURL string           `json:"front_image_url,omitempty"`
	Memory        fsrs.MemoryState `json:"memory"`
}
