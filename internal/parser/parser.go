// Package parser extracts flashcards from markdown deck files.
//
// A card is a block of prefixed lines, terminated by "---" or the next
// "Q:" line:
//
//	Q: What does FIFO stand for?
//	A: First in, first out.
//	C: Queue semantics
//	---
package parser

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// Card is one parsed flashcard. Context is optional free-form
// background that importers may map to a tag.
type Card struct {
	Front   string
	Back    string
	Context string
}

const (
	frontPrefix   = "Q:"
	backPrefix    = "A:"
	contextPrefix = "C:"
	separator     = "---"
)

type section int

const (
	seeking section = iota
	inFront
	inBack
	inContext
)

// ParseFile reads the file at path and extracts all cards.
func ParseFile(path string) ([]Card, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads from r and extracts all cards. Cards without a front are
// discarded; a card may omit its back or context.
func Parse(r io.Reader) ([]Card, error) {
	var (
		cards   []Card
		current Card
		block   []string
		state   = seeking
	)

	flushBlock := func() {
		if len(block) == 0 {
			return
		}
		content := strings.Join(block, "\n")
		switch state {
		case inFront:
			current.Front = content
		case inBack:
			current.Back = content
		case inContext:
			current.Context = content
		}
		block = nil
	}

	finishCard := func() {
		flushBlock()
		if current.Front != "" {
			cards = append(cards, current)
		}
		current = Card{}
		state = seeking
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()

		if line == separator {
			finishCard()
			continue
		}

		switch {
		case strings.HasPrefix(line, frontPrefix):
			// A new front always starts a new card.
			if state != seeking {
				finishCard()
			}
			state = inFront
			block = append(block, trimPrefix(line, frontPrefix))
		case strings.HasPrefix(line, backPrefix):
			flushBlock()
			state = inBack
			block = append(block, trimPrefix(line, backPrefix))
		case strings.HasPrefix(line, contextPrefix):
			flushBlock()
			state = inContext
			block = append(block, trimPrefix(line, contextPrefix))
		default:
			// Continuation lines belong to the current section.
			if state != seeking {
				block = append(block, line)
			}
		}
	}
	finishCard()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cards, nil
}

// trimPrefix strips the section marker and at most one following space
// so indented continuation lines keep their whitespace.
func trimPrefix(line, prefix string) string {
	content := line[len(prefix):]
	return strings.TrimPrefix(content, " ")
}
