// Package filter classifies speech-to-text and translation output as genuine
// content or as a detectable hallucination artifact.
package filter

import "fmt"

// Verdict is the outcome of running the matchers over a text.
type Verdict int

const (
	// Clean - no matcher fired.
	Clean Verdict = iota
	// BoilerplatePhrase - closing credits, subscribe prompts, translator credits.
	BoilerplatePhrase
	// ShortHallucination - politeness fillers such as "you're welcome".
	ShortHallucination
	// RepeatedCharacterArtifact - "JJJJJJJJJJ" or "ABCABCABCABCABC" style output.
	RepeatedCharacterArtifact
	// RepetitionLoop - a transcript dominated by a tiny repeating vocabulary.
	RepetitionLoop
)

// String returns the string representation of the verdict.
func (v Verdict) String() string {
	switch v {
	case Clean:
		return "clean"
	case BoilerplatePhrase:
		return "boilerplate_phrase"
	case ShortHallucination:
		return "short_hallucination"
	case RepeatedCharacterArtifact:
		return "repeated_character_artifact"
	case RepetitionLoop:
		return "repetition_loop"
	default:
		return fmt.Sprintf("unknown(%d)", int(v))
	}
}

// Suppressed returns true if the text must not be shown to users.
func (v Verdict) Suppressed() bool {
	return v != Clean
}
