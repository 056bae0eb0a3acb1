// Package mock provides a deterministic local translator for development
// and tests.
package mock

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"speech-translation-service/internal/textnorm"
)

// DefaultPhrasebook maps common recitation formulas to English.
var DefaultPhrasebook = map[string]string{
	"بسم الله الرحمن الرحيم":      "In the name of Allah, the Most Gracious, the Most Merciful",
	"الحمد لله رب العالمين":       "All praise is due to Allah, Lord of the worlds",
	"الرحمن الرحيم مالك يوم الدين": "The Most Gracious, the Most Merciful, Master of the Day of Judgment",
	"إياك نعبد وإياك نستعين":      "You alone we worship, and You alone we ask for help",
	"السلام عليكم":                "Peace be upon you",
}

// Translator looks source text up in a phrasebook and echoes unknown text
// with a marker.
type Translator struct {
	mu         sync.Mutex
	phrasebook map[string]string
	calls      int
	err        error
}

// New creates a mock translator. A nil phrasebook uses DefaultPhrasebook.
func New(phrasebook map[string]string) *Translator {
	if phrasebook == nil {
		phrasebook = DefaultPhrasebook
	}
	normalized := make(map[string]string, len(phrasebook))
	for k, v := range phrasebook {
		normalized[textnorm.Normalize(k)] = v
	}
	return &Translator{phrasebook: normalized}
}

// Name returns the provider name.
func (t *Translator) Name() string {
	return "mock"
}

// Translate returns the phrasebook entry or "[en] <text>".
func (t *Translator) Translate(ctx context.Context, sourceText, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++

	if t.err != nil {
		return "", t.err
	}
	if out, ok := t.phrasebook[textnorm.Normalize(sourceText)]; ok {
		return out, nil
	}
	return fmt.Sprintf("[en] %s", strings.TrimSpace(sourceText)), nil
}

// FailWith makes every subsequent call return err; nil restores normal
// behaviour.
func (t *Translator) FailWith(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.err = err
}

// Calls returns how many translations were requested.
func (t *Translator) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}
