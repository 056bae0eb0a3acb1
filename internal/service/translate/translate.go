// Package translate defines the interface for text translation providers.
package translate

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when a provider answers without any text.
var ErrEmptyResponse = errors.New("translate: empty response")

// Translator turns source text into the target language.
type Translator interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	// Translate performs one single-shot translation. systemInstruction
	// constrains tone and terminology; providers without an instruction
	// channel ignore it.
	Translate(ctx context.Context, sourceText, systemInstruction string) (string, error)
}
