package deckimport

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"recallkit/internal/capture"
	"recallkit/internal/domain"
)

type fakeCreator struct {
	created  []domain.CardPayload
	queueAll bool
	failOn   string // front that should error
}

func (f *fakeCreator) CreateCard(_ context.Context, p domain.CardPayload) (capture.Result, error) {
	if p.Front == f.failOn {
		return capture.Result{}, errors.New("create failed")
	}
	f.created = append(f.created, p)
	return capture.Result{Queued: f.queueAll}, nil
}

func writeDeckFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write deck file: %v", err)
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestImportDir(t *testing.T) {
	dir := t.TempDir()
	writeDeckFile(t, dir, "go.md", `Q: What is a channel?
A: A typed conduit for communication between goroutines.
C: Concurrency
---
Q: What does gofmt do?
A: Formats Go source code.
`)
	writeDeckFile(t, dir, "notes.txt", "not a deck file")

	creator := &fakeCreator{}
	imp := New(creator, t.TempDir(), discardLogger())

	report, err := imp.ImportDir(context.Background(), dir, "deck-1")
	if err != nil {
		t.Fatalf("ImportDir: %v", err)
	}
	if report.Parsed != 2 || report.Created != 2 || report.Queued != 0 {
		t.Errorf("report = %+v", report)
	}
	if len(creator.created) != 2 {
		t.Fatalf("created = %d cards", len(creator.created))
	}
	first := creator.created[0]
	if first.DeckID != "deck-1" || first.Source != domain.SourceText {
		t.Errorf("payload = %+v", first)
	}
	if len(first.Tags) != 1 || first.Tags[0] != "Concurrency" {
		t.Errorf("context should map to a tag, got %v", first.Tags)
	}
}

func TestImportDirSkipsDuplicates(t *testing.T) {
	dir := t.TempDir()
	writeDeckFile(t, dir, "a.md", `Q: Same front
A: Same back
`)
	writeDeckFile(t, dir, "b.md", `Q: same front
A: SAME BACK
`)

	creator := &fakeCreator{}
	imp := New(creator, t.TempDir(), discardLogger())

	report, err := imp.ImportDir(context.Background(), dir, "deck-1")
	if err != nil {
		t.Fatalf("ImportDir: %v", err)
	}
	if report.Parsed != 2 || report.Duplicates != 1 {
		t.Errorf("report = %+v, want one duplicate skipped", report)
	}
	if len(creator.created) != 1 {
		t.Errorf("created = %d cards, want 1", len(creator.created))
	}
}

func TestImportDirCountsQueued(t *testing.T) {
	dir := t.TempDir()
	writeDeckFile(t, dir, "a.md", `Q: Offline card
A: Goes to the queue
`)

	creator := &fakeCreator{queueAll: true}
	imp := New(creator, t.TempDir(), discardLogger())

	report, err := imp.ImportDir(context.Background(), dir, "deck-1")
	if err != nil {
		t.Fatalf("ImportDir: %v", err)
	}
	if report.Queued != 1 || report.Created != 0 {
		t.Errorf("report = %+v, want one queued", report)
	}
}

func TestImportDirContinuesPastErrors(t *testing.T) {
	dir := t.TempDir()
	writeDeckFile(t, dir, "a.md", `Q: Bad card
A: Fails
---
Q: Good card
A: Works
`)

	creator := &fakeCreator{failOn: "Bad card"}
	imp := New(creator, t.TempDir(), discardLogger())

	report, err := imp.ImportDir(context.Background(), dir, "deck-1")
	if err != nil {
		t.Fatalf("ImportDir: %v", err)
	}
	if report.Errors != 1 || report.Created != 1 {
		t.Errorf("report = %+v, want one error and one created", report)
	}
}

func TestLocalPathFor(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://github.com/acme/decks.git", filepath.Join("repos", "github.com", "acme", "decks")},
		{"git@github.com:acme/decks.git", filepath.Join("repos", "github.com", "acme/decks")},
	}
	for _, tt := range tests {
		got, err := localPathFor("repos", tt.url)
		if err != nil {
			t.Errorf("localPathFor(%q): %v", tt.url, err)
			continue
		}
		if got != tt.want {
			t.Errorf("localPathFor(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}

	if _, err := localPathFor("repos", "not a git url"); err == nil {
		t.Error("localPathFor should reject an unparseable URL")
	}
}
