// Package stt defines the interface for Speech-to-Text providers.
package stt

import (
	"context"
	"errors"
)

// ErrEmptyAudio is returned when a request carries no audio bytes.
var ErrEmptyAudio = errors.New("stt: empty audio")

// Request is one recorded audio chunk to transcribe.
type Request struct {
	Audio    []byte
	Filename string
	MimeType string
	// Language is a BCP-47 or ISO-639-1 hint, e.g. "ar".
	Language string
	// Prompt is context text that biases the recognizer vocabulary.
	Prompt string
}

// Segment is a timed piece of a transcript.
type Segment struct {
	ID           int     `json:"id"`
	Start        float64 `json:"start"`
	End          float64 `json:"end"`
	Text         string  `json:"text"`
	AvgLogprob   float64 `json:"avg_logprob"`
	NoSpeechProb float64 `json:"no_speech_prob"`
}

// Result is the raw recognizer output, before any filtering.
type Result struct {
	Text     string    `json:"text"`
	Language string    `json:"language,omitempty"`
	Duration float64   `json:"duration,omitempty"`
	Segments []Segment `json:"segments,omitempty"`
}

// MaxNoSpeechProb returns the highest no-speech probability across segments.
func (r *Result) MaxNoSpeechProb() float64 {
	maxProb := 0.0
	for _, s := range r.Segments {
		if s.NoSpeechProb > maxProb {
			maxProb = s.NoSpeechProb
		}
	}
	return maxProb
}

// Transcriber converts an audio chunk into text (Whisper, Google, mock).
type Transcriber interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	// Transcribe performs a single-shot recognition of req.
	Transcribe(ctx context.Context, req Request) (*Result, error)
}
