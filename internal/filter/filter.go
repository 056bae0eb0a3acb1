package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// Severity selects how aggressive the filter is.
type Severity string

const (
	// SeverityLenient runs only the repeated-character and boilerplate matchers.
	SeverityLenient Severity = "lenient"
	// SeverityStandard runs repeated-character, boilerplate and short-hallucination matchers.
	SeverityStandard Severity = "standard"
	// SeverityStrict adds diacritic-insensitive matching and the repetition-loop
	// check on every text, not only on transcripts.
	SeverityStrict Severity = "strict"
)

// ParseSeverity parses a severity name. The empty string means standard.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case "", SeverityStandard:
		return SeverityStandard, nil
	case SeverityLenient:
		return SeverityLenient, nil
	case SeverityStrict:
		return SeverityStrict, nil
	default:
		return "", fmt.Errorf("unknown filter severity %q", s)
	}
}

type stripRule struct {
	phrase string
	re     *regexp.Regexp
}

// Filter runs the matchers in a fixed priority order. It is immutable after
// construction and safe for concurrent use.
type Filter struct {
	severity  Severity
	lists     Lists
	strippers []stripRule
	logger    zerolog.Logger
}

// Option configures a Filter.
type Option func(*Filter)

// WithLogger sets the logger used for match diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(f *Filter) {
		f.logger = l
	}
}

// New builds a Filter from cfg.
func New(cfg Config, opts ...Option) *Filter {
	sev := cfg.Severity
	if sev == "" {
		sev = SeverityStandard
	}

	f := &Filter{
		severity: sev,
		lists:    cfg.Lists,
		logger:   zerolog.Nop(),
	}
	for _, p := range cfg.KnownHallucinations {
		if p == "" {
			continue
		}
		f.strippers = append(f.strippers, stripRule{
			phrase: p,
			re:     regexp.MustCompile("(?i)" + regexp.QuoteMeta(p)),
		})
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Severity returns the configured severity.
func (f *Filter) Severity() Severity {
	return f.severity
}

// Check classifies text. The first matcher that fires wins:
// repeated characters, then boilerplate, then short hallucinations.
func (f *Filter) Check(text string) Verdict {
	if IsRepeatedCharacterArtifact(text) {
		f.logMatch(RepeatedCharacterArtifact, "", text)
		return RepeatedCharacterArtifact
	}

	if p, ok := f.contains(text, f.lists.BoilerplatePhrases); ok {
		f.logMatch(BoilerplatePhrase, p, text)
		return BoilerplatePhrase
	}

	if f.severity != SeverityLenient {
		if p, ok := f.contains(text, f.lists.ShortHallucinations); ok {
			f.logMatch(ShortHallucination, p, text)
			return ShortHallucination
		}
	}

	if f.severity == SeverityStrict && IsRepetitionLoop(text) {
		f.logMatch(RepetitionLoop, "", text)
		return RepetitionLoop
	}

	return Clean
}

// StripKnown removes every known hallucinated phrase from text,
// case-insensitively, and trims the result.
func (f *Filter) StripKnown(text string) string {
	out := text
	for _, rule := range f.strippers {
		if !rule.re.MatchString(out) {
			continue
		}
		f.logger.Debug().
			Str("phrase", rule.phrase).
			Msg("Stripped known hallucination")
		out = strings.TrimSpace(rule.re.ReplaceAllString(out, ""))
	}
	return strings.TrimSpace(out)
}

// CleanTranscript prepares speech-to-text output: known hallucinations are
// stripped first, then a repetition loop discards the whole transcript.
func (f *Filter) CleanTranscript(text string) (string, Verdict) {
	cleaned := f.StripKnown(text)
	if IsRepetitionLoop(cleaned) {
		f.logMatch(RepetitionLoop, "", cleaned)
		return "", RepetitionLoop
	}
	return cleaned, Clean
}

func (f *Filter) contains(text string, phrases []string) (string, bool) {
	if f.severity == SeverityStrict {
		return ContainsPhraseFolded(text, phrases)
	}
	return ContainsPhrase(text, phrases)
}

func (f *Filter) logMatch(v Verdict, phrase, text string) {
	ev := f.logger.Debug().
		Str("verdict", v.String()).
		Str("text", truncate(text, 50))
	if phrase != "" {
		ev = ev.Str("phrase", phrase)
	}
	ev.Msg("Filter matched")
}
