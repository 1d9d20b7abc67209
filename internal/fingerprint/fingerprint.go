// Package fingerprint derives a stable content hash for a card, used
// to skip duplicates when importing decks.
package fingerprint

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// Normalize cleans and concatenates the card's content. Each part is
// lowercased, trimmed, and has its line endings normalized before the
// parts are joined with a newline so adjacent fields can never merge.
func Normalize(deckID, front, back string) string {
	normalizePart := func(part string) string {
		p := strings.ToLower(part)
		p = strings.TrimSpace(p)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		return p
	}
	return strings.Join([]string{
		normalizePart(deckID),
		normalizePart(front),
		normalizePart(back),
	}, "\n")
}

// Hash returns the SHA-256 of the normalized card content as a hex string.
func Hash(deckID, front, back string) string {
	sum := sha256.Sum256([]byte(Normalize(deckID, front, back)))
	return fmt.Sprintf("%x", sum)
}
