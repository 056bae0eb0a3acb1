// Package google provides a Google Cloud Translation translator.
package google

import (
	"context"
	"fmt"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"

	svc "speech-translation-service/internal/service/translate"
)

// Config holds Cloud Translation settings.
type Config struct {
	// CredentialsFile is a service account JSON; empty uses ADC.
	CredentialsFile string
	SourceLang      string
	TargetLang      string
}

type textTranslator interface {
	Translate(ctx context.Context, inputs []string, target language.Tag, opts *translate.Options) ([]translate.Translation, error)
	Close() error
}

// Translator implements translate.Translator. Cloud Translation has no
// instruction channel, so the system instruction is ignored.
type Translator struct {
	client textTranslator
	source language.Tag
	target language.Tag
}

// New creates a Cloud Translation client.
func New(ctx context.Context, cfg Config) (*Translator, error) {
	source, target, err := parseTags(cfg)
	if err != nil {
		return nil, err
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := translate.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create translate client: %w", err)
	}
	return &Translator{client: client, source: source, target: target}, nil
}

func parseTags(cfg Config) (language.Tag, language.Tag, error) {
	target, err := language.Parse(cfg.TargetLang)
	if err != nil {
		return language.Und, language.Und, fmt.Errorf("invalid target language %q: %w", cfg.TargetLang, err)
	}
	source := language.Und
	if cfg.SourceLang != "" && cfg.SourceLang != "auto" {
		if source, err = language.Parse(cfg.SourceLang); err != nil {
			return language.Und, language.Und, fmt.Errorf("invalid source language %q: %w", cfg.SourceLang, err)
		}
	}
	return source, target, nil
}

// Name returns the provider name.
func (t *Translator) Name() string {
	return "google"
}

// Translate translates sourceText as plain text.
func (t *Translator) Translate(ctx context.Context, sourceText, _ string) (string, error) {
	opts := &translate.Options{Format: translate.Text}
	if t.source != language.Und {
		opts.Source = t.source
	}

	out, err := t.client.Translate(ctx, []string{sourceText}, t.target, opts)
	if err != nil {
		return "", fmt.Errorf("google translate: %w", err)
	}
	if len(out) == 0 || out[0].Text == "" {
		return "", svc.ErrEmptyResponse
	}
	return out[0].Text, nil
}

// Close releases the underlying client.
func (t *Translator) Close() error {
	return t.client.Close()
}
