// Package audio provides the transcription handler that coordinates
// between the STT provider and the hallucination filter for recorded chunks.
package audio

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"speech-translation-service/internal/filter"
	"speech-translation-service/internal/observability/metrics"
	"speech-translation-service/internal/pipeline"
	"speech-translation-service/internal/service/stt"
)

// Limits defines guardrails for chunk processing.
type Limits struct {
	MinAudioBytes int64 // Smaller chunks are treated as silence
	MaxAudioBytes int64 // Larger chunks are rejected
}

// DefaultLimits returns sensible default limits.
func DefaultLimits() Limits {
	return Limits{
		MinAudioBytes: 1000,
		MaxAudioBytes: 25 * 1024 * 1024, // upload cap of the Whisper API
	}
}

// Chunk is one recorded audio chunk uploaded by a client.
type Chunk struct {
	Audio     []byte
	Filename  string
	MimeType  string
	UserID    string
	RequestID string
}

// Result is the cleaned transcript of a chunk.
type Result struct {
	Text     string `json:"text"`
	Filtered bool   `json:"filtered,omitempty"`

	Skipped      bool           `json:"-"`
	NoSpeechProb float64        `json:"-"`
	Verdict      filter.Verdict `json:"-"`
}

// Handler transcribes audio chunks. It holds no per-chunk state and is safe
// for concurrent use.
type Handler struct {
	transcriber stt.Transcriber
	filter      *filter.Filter
	limits      Limits
	language    string
	prompt      string
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithLimits overrides DefaultLimits.
func WithLimits(l Limits) Option {
	return func(h *Handler) {
		h.limits = l
	}
}

// WithLanguage sets the language hint passed to the recognizer.
func WithLanguage(lang string) Option {
	return func(h *Handler) {
		if lang != "" {
			h.language = lang
		}
	}
}

// WithPrompt sets the context prompt passed to the recognizer.
func WithPrompt(prompt string) Option {
	return func(h *Handler) {
		if prompt != "" {
			h.prompt = prompt
		}
	}
}

// WithMetrics overrides metrics.DefaultMetrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) {
		if m != nil {
			h.metrics = m
		}
	}
}

// WithLogger sets the handler logger.
func WithLogger(l zerolog.Logger) Option {
	return func(h *Handler) {
		h.logger = l
	}
}

// NewHandler creates a transcription handler.
func NewHandler(transcriber stt.Transcriber, f *filter.Filter, opts ...Option) *Handler {
	h := &Handler{
		transcriber: transcriber,
		filter:      f,
		limits:      DefaultLimits(),
		language:    "ar",
		prompt:      FallbackPrompt,
		metrics:     metrics.DefaultMetrics,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Prompt returns the recognizer context prompt in use.
func (h *Handler) Prompt() string {
	return h.prompt
}

// Transcribe recognizes one chunk and cleans the transcript. Chunks below
// the minimum size are answered with an empty transcript without calling
// the recognizer.
func (h *Handler) Transcribe(ctx context.Context, chunk Chunk) (*Result, error) {
	size := int64(len(chunk.Audio))
	log := h.logger.With().
		Str("requestId", chunk.RequestID).
		Str("userId", chunk.UserID).
		Str("filename", chunk.Filename).
		Int64("bytes", size).
		Logger()

	h.metrics.RecordAudioReceived(len(chunk.Audio))

	if h.limits.MaxAudioBytes > 0 && size > h.limits.MaxAudioBytes {
		h.metrics.RecordChunkSkipped("too_large")
		return nil, &pipeline.ValidationError{Field: "file", Message: "audio file too large"}
	}
	if size == 0 || size < h.limits.MinAudioBytes {
		h.metrics.RecordChunkSkipped("too_small")
		log.Debug().Msg("Skipping small chunk (likely silence)")
		return &Result{Skipped: true}, nil
	}

	start := time.Now()
	res, err := h.transcriber.Transcribe(ctx, stt.Request{
		Audio:    chunk.Audio,
		Filename: chunk.Filename,
		MimeType: chunk.MimeType,
		Language: h.language,
		Prompt:   h.prompt,
	})
	if err != nil {
		h.metrics.RecordSTTError(h.transcriber.Name(), sttErrorType(err))
		log.Error().Err(err).Str("sttProvider", h.transcriber.Name()).Msg("Transcription failed")
		return nil, &pipeline.UpstreamError{Provider: h.transcriber.Name(), Err: err}
	}
	h.metrics.RecordSTT(h.transcriber.Name(), time.Since(start).Seconds())

	noSpeech := res.MaxNoSpeechProb()
	log.Debug().
		Str("text", res.Text).
		Float64("noSpeechProb", noSpeech).
		Int("segments", len(res.Segments)).
		Msg("Transcription received")

	cleaned, verdict := h.filter.CleanTranscript(res.Text)
	out := &Result{
		Text:         cleaned,
		NoSpeechProb: noSpeech,
		Verdict:      verdict,
	}
	if verdict.Suppressed() {
		h.metrics.RecordFilterVerdict("transcript", verdict.String())
		out.Filtered = true
	} else if cleaned == "" && res.Text != "" {
		out.Filtered = true
	}
	return out, nil
}

func sttErrorType(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "provider"
	}
}
