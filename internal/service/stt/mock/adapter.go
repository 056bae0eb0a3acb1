// Package mock provides a mock STT adapter for running without cloud credentials.
// It cycles through scripted Arabic utterances, one per transcribed chunk.
package mock

import (
	"context"
	"sync"
	"time"

	"speech-translation-service/internal/service/stt"
)

// SimulatedUtterance is one scripted recognition result.
type SimulatedUtterance struct {
	Text         string
	NoSpeechProb float64
}

// DefaultUtterances provides sample recitations, including the closing
// credits recognizers tend to emit on silence.
var DefaultUtterances = []SimulatedUtterance{
	{Text: "بسم الله الرحمن الرحيم", NoSpeechProb: 0.01},
	{Text: "الحمد لله رب العالمين", NoSpeechProb: 0.02},
	{Text: "الرحمن الرحيم مالك يوم الدين", NoSpeechProb: 0.01},
	{Text: "اشتركوا في القناة", NoSpeechProb: 0.91},
	{Text: "إياك نعبد وإياك نستعين", NoSpeechProb: 0.03},
}

// Adapter implements stt.Transcriber with scripted responses.
type Adapter struct {
	mu         sync.Mutex
	utterances []SimulatedUtterance
	next       int
	delay      time.Duration
	calls      int
}

// Option configures the mock.
type Option func(*Adapter)

// WithUtterances replaces DefaultUtterances.
func WithUtterances(u ...SimulatedUtterance) Option {
	return func(a *Adapter) {
		if len(u) > 0 {
			a.utterances = u
		}
	}
}

// WithDelay simulates recognition latency.
func WithDelay(d time.Duration) Option {
	return func(a *Adapter) {
		a.delay = d
	}
}

// New creates a new mock STT adapter.
func New(opts ...Option) *Adapter {
	a := &Adapter{utterances: DefaultUtterances}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns the provider name.
func (a *Adapter) Name() string {
	return "mock"
}

// Transcribe returns the next scripted utterance.
func (a *Adapter) Transcribe(ctx context.Context, req stt.Request) (*stt.Result, error) {
	if len(req.Audio) == 0 {
		return nil, stt.ErrEmptyAudio
	}

	if a.delay > 0 {
		select {
		case <-time.After(a.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	a.mu.Lock()
	utt := a.utterances[a.next%len(a.utterances)]
	a.next++
	a.calls++
	a.mu.Unlock()

	return &stt.Result{
		Text:     utt.Text,
		Language: "ar",
		Segments: []stt.Segment{{Text: utt.Text, NoSpeechProb: utt.NoSpeechProb}},
	}, nil
}

// Calls returns how many chunks were transcribed.
func (a *Adapter) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}
