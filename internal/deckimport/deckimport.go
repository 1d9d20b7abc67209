// Package deckimport turns markdown deck files into card creations.
// Imported cards flow through the capture service, so an offline
// import lands in the durable queue like any other write-intent.
package deckimport

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"

	"recallkit/internal/capture"
	"recallkit/internal/domain"
	"recallkit/internal/fingerprint"
	"recallkit/internal/gitsource"
	"recallkit/internal/parser"
)

// CardCreator captures one card creation. Implemented by
// capture.Service.
type CardCreator interface {
	CreateCard(ctx context.Context, p domain.CardPayload) (capture.Result, error)
}

// Report summarizes one import run.
type Report struct {
	Parsed     int `json:"parsed"`
	Created    int `json:"created"`
	Queued     int `json:"queued"`
	Duplicates int `json:"duplicates"`
	Errors     int `json:"errors"`
}

// Importer walks deck sources and feeds their cards to a CardCreator.
type Importer struct {
	creator  CardCreator
	reposDir string
	log      *slog.Logger
}

// New creates an Importer. reposDir is where git sources are mirrored.
func New(creator CardCreator, reposDir string, log *slog.Logger) *Importer {
	if log == nil {
		log = slog.Default()
	}
	return &Importer{creator: creator, reposDir: reposDir, log: log}
}

// ImportDir walks dir for .md files and imports every card found into
// the given deck. Duplicate cards, by content fingerprint, are skipped.
func (i *Importer) ImportDir(ctx context.Context, dir, deckID string) (Report, error) {
	var report Report
	seen := make(map[string]bool)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		cards, parseErr := parser.ParseFile(path)
		if parseErr != nil {
			i.log.Warn("failed to parse deck file", "path", path, "error", parseErr)
			report.Errors++
			return nil
		}

		for _, card := range cards {
			report.Parsed++

			hash := fingerprint.Hash(deckID, card.Front, card.Back)
			if seen[hash] {
				report.Duplicates++
				continue
			}
			seen[hash] = true

			payload := domain.CardPayload{
				Front:  card.Front,
				Back:   card.Back,
				DeckID: deckID,
				Source: domain.SourceText,
			}
			if card.Context != "" {
				payload.Tags = []string{card.Context}
			}

			res, createErr := i.creator.CreateCard(ctx, payload)
			if createErr != nil {
				i.log.Warn("failed to import card", "path", path, "error", createErr)
				report.Errors++
				continue
			}
			if res.Queued {
				report.Queued++
			} else {
				report.Created++
			}
		}
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("failed to walk deck directory %s: %w", dir, err)
	}

	i.log.Info("deck import complete",
		"dir", dir,
		"deck_id", deckID,
		"parsed", report.Parsed,
		"created", report.Created,
		"queued", report.Queued,
		"duplicates", report.Duplicates,
		"errors", report.Errors,
	)
	return report, nil
}

// ImportGit mirrors the repository at repoURL and imports its deck
// files.
func (i *Importer) ImportGit(ctx context.Context, repoURL, deckID string) (Report, error) {
	localPath, err := localPathFor(i.reposDir, repoURL)
	if err != nil {
		return Report{}, err
	}
	if err := gitsource.Sync(ctx, repoURL, localPath); err != nil {
		return Report{}, fmt.Errorf("failed to sync deck repository: %w", err)
	}
	return i.ImportDir(ctx, localPath, deckID)
}

// localPathFor maps a git URL to a stable directory under baseDir,
// handling both https and scp-style ssh URLs.
func localPathFor(baseDir, repoURL string) (string, error) {
	parsed, err := url.Parse(repoURL)
	if err == nil && (parsed.Scheme == "https" || parsed.Scheme == "http") {
		sanitized := strings.TrimSuffix(parsed.Path, ".git")
		return filepath.Join(baseDir, parsed.Host, sanitized), nil
	}

	// git@host:owner/repo.git
	if strings.Contains(repoURL, "@") {
		parts := strings.SplitN(repoURL, ":", 2)
		if len(parts) == 2 {
			hostParts := strings.SplitN(parts[0], "@", 2)
			if len(hostParts) == 2 {
				repoPath := strings.TrimSuffix(parts[1], ".git")
				return filepath.Join(baseDir, hostParts[1], repoPath), nil
			}
		}
	}
	return "", fmt.Errorf("could not parse git URL: %s", repoURL)
}
