// Package textnorm provides the text normalization used for cache keys and
// hallucination matching on mixed Arabic/English input.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// tatweel is the Arabic elongation character; it carries no meaning and is
// dropped when folding.
const tatweel = 'ـ'

// Normalize lowercases text and trims surrounding whitespace.
// Normalize(Normalize(x)) == Normalize(x).
func Normalize(text string) string {
	return strings.TrimSpace(strings.ToLower(text))
}

// Fold normalizes text and removes combining marks (Arabic harakat and
// tanween, Latin accents) plus tatweel, so that "شكراً" and "شكرا" compare equal.
func Fold(text string) string {
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.Predicate(func(r rune) bool {
			return unicode.Is(unicode.Mn, r) || r == tatweel
		})),
		norm.NFC,
	)
	folded, _, err := transform.String(t, Normalize(text))
	if err != nil {
		return Normalize(text)
	}
	return strings.TrimSpace(folded)
}

// ContainsFold reports whether phrase occurs in text once both are folded.
func ContainsFold(text, phrase string) bool {
	p := Fold(phrase)
	if p == "" {
		return false
	}
	return strings.Contains(Fold(text), p)
}

// StripWhitespace removes every whitespace rune from text.
func StripWhitespace(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
}
