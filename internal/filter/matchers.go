package filter

import (
	"strings"
	"unicode/utf8"

	"speech-translation-service/internal/textnorm"
)

const (
	// minRepeatedCharLen is the shortest whitespace-stripped text the
	// repeated-character matcher looks at.
	minRepeatedCharLen = 10
	// maxCharShare is the share of a single rune above which text is an artifact.
	maxCharShare = 0.7
	// maxPatternLen is the longest leading pattern checked for contiguous repeats.
	maxPatternLen = 3
	// minPatternRepeats is how many contiguous repeats flag an artifact.
	minPatternRepeats = 5

	// minLoopWords - the loop matcher applies only above this word count.
	minLoopWords = 10
	// minUniqueWordRatio is the distinct/total word ratio below which text is a loop.
	minUniqueWordRatio = 0.2
)

// ContainsPhrase reports whether any phrase occurs anywhere in text.
// Latin phrases match case-insensitively; Arabic phrases match as exact
// substrings (lowercasing leaves them unchanged).
func ContainsPhrase(text string, phrases []string) (string, bool) {
	lowered := textnorm.Normalize(text)
	for _, p := range phrases {
		if p == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(p)) || strings.Contains(text, p) {
			return p, true
		}
	}
	return "", false
}

// ContainsPhraseFolded is ContainsPhrase with diacritics and tatweel ignored.
func ContainsPhraseFolded(text string, phrases []string) (string, bool) {
	if p, ok := ContainsPhrase(text, phrases); ok {
		return p, true
	}
	for _, p := range phrases {
		if textnorm.ContainsFold(text, p) {
			return p, true
		}
	}
	return "", false
}

// IsRepeatedCharacterArtifact detects degenerate output such as "JJJJJJJJJJ"
// or "ABCABCABCABCABC". Whitespace is ignored.
func IsRepeatedCharacterArtifact(text string) bool {
	stripped := []rune(textnorm.StripWhitespace(text))
	n := len(stripped)
	if n < minRepeatedCharLen {
		return false
	}

	counts := make(map[rune]int, n)
	maxCount := 0
	for _, r := range stripped {
		counts[r]++
		if counts[r] > maxCount {
			maxCount = counts[r]
		}
	}
	if float64(maxCount)/float64(n) > maxCharShare {
		return true
	}

	for patternLen := 1; patternLen <= maxPatternLen; patternLen++ {
		if n < patternLen*minPatternRepeats {
			continue
		}
		if leadingRepeats(stripped, patternLen) >= minPatternRepeats {
			return true
		}
	}

	return false
}

// leadingRepeats counts how many times the first patternLen runes repeat
// back to back starting at position 0.
func leadingRepeats(s []rune, patternLen int) int {
	pattern := s[:patternLen]
	matches := 0
	for i := 0; i+patternLen <= len(s); i += patternLen {
		if !equalRunes(s[i:i+patternLen], pattern) {
			break
		}
		matches++
	}
	return matches
}

func equalRunes(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// IsRepetitionLoop reports whether a transcript of more than ten words is
// dominated by a small repeating vocabulary.
func IsRepetitionLoop(text string) bool {
	words := strings.Fields(text)
	if len(words) <= minLoopWords {
		return false
	}

	unique := make(map[string]struct{}, len(words))
	for _, w := range words {
		unique[w] = struct{}{}
	}
	return float64(len(unique))/float64(len(words)) < minUniqueWordRatio
}

// truncate shortens text for log fields.
func truncate(s string, maxRunes int) string {
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	return string([]rune(s)[:maxRunes]) + "..."
}
