// Package pipeline sequences validation, hallucination filtering, caching,
// translation and history persistence for one translation request.
package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/abadojack/whatlanggo"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"speech-translation-service/internal/cache"
	"speech-translation-service/internal/filter"
	"speech-translation-service/internal/history"
	"speech-translation-service/internal/models"
	"speech-translation-service/internal/observability/logging"
	"speech-translation-service/internal/observability/metrics"
	"speech-translation-service/internal/service/translate"
)

const (
	// DefaultMaxTextLength is the source text cap, in characters.
	DefaultMaxTextLength = 5000
	// DefaultTranslationTimeout bounds one upstream translation call.
	DefaultTranslationTimeout = 30 * time.Second
)

// Outcomes reported in metrics and logs.
const (
	OutcomeTranslated = "translated"
	OutcomeCached     = "cached"
	OutcomeFiltered   = "filtered"
	OutcomeInvalid    = "invalid"
	OutcomeError      = "error"
)

// Filter stages reported in metrics.
const (
	stageInput  = "input"
	stageCache  = "cache"
	stageOutput = "output"

	// verdictEmpty labels a translator reply with no text.
	verdictEmpty = "empty"
)

// Config holds pipeline settings.
type Config struct {
	MaxTextLength      int
	TranslationTimeout time.Duration
	SourceLang         string
	TargetLang         string
	SystemInstruction  string
}

// DefaultConfig returns Arabic to English with the religious-content
// instruction.
func DefaultConfig() Config {
	return Config{
		MaxTextLength:      DefaultMaxTextLength,
		TranslationTimeout: DefaultTranslationTimeout,
		SourceLang:         "ar",
		TargetLang:         "en",
		SystemInstruction:  DefaultSystemInstruction,
	}
}

// Request is one translation request from an authenticated caller.
type Request struct {
	Text      string
	RoomID    string
	UserID    string
	RequestID string
	Transport string
}

// Response is the result of a request. An empty Text with Filtered set means
// there is nothing to display.
type Response struct {
	Text           string `json:"text"`
	Cached         bool   `json:"cached"`
	ProcessingTime int64  `json:"processingTime"`
	Filtered       bool   `json:"filtered,omitempty"`

	Verdict filter.Verdict `json:"-"`
	Stages  []Stage        `json:"-"`
}

// Recorder schedules history writes without blocking.
type Recorder interface {
	Record(ctx context.Context, scopes []models.Scope, rec models.TranslationRecord) error
}

// Pipeline is safe for concurrent use; all per-request state lives on the
// stack of Translate.
type Pipeline struct {
	cfg        Config
	filter     *filter.Filter
	cache      *cache.Cache
	translator translate.Translator
	recorder   Recorder
	metrics    *metrics.Metrics
	logger     zerolog.Logger
	now        func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMetrics overrides metrics.DefaultMetrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		if m != nil {
			p.metrics = m
		}
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// New creates a pipeline. recorder may be nil to disable history.
func New(cfg Config, f *filter.Filter, c *cache.Cache, tr translate.Translator, recorder Recorder, opts ...Option) *Pipeline {
	def := DefaultConfig()
	if cfg.MaxTextLength <= 0 {
		cfg.MaxTextLength = def.MaxTextLength
	}
	if cfg.TranslationTimeout <= 0 {
		cfg.TranslationTimeout = def.TranslationTimeout
	}
	if cfg.SourceLang == "" {
		cfg.SourceLang = def.SourceLang
	}
	if cfg.TargetLang == "" {
		cfg.TargetLang = def.TargetLang
	}
	if cfg.SystemInstruction == "" {
		cfg.SystemInstruction = def.SystemInstruction
	}

	p := &Pipeline{
		cfg:        cfg,
		filter:     f,
		cache:      c,
		translator: tr,
		recorder:   recorder,
		metrics:    metrics.DefaultMetrics,
		logger:     zerolog.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Config returns the effective configuration.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Translate runs one request through the pipeline. Filter suppression is a
// successful, empty response; validation and upstream failures are errors.
func (p *Pipeline) Translate(ctx context.Context, req Request) (*Response, error) {
	start := p.now()
	lc := NewLifecycle()
	log := logging.WithRequest(p.logger, req.RequestID, req.UserID, req.RoomID)

	resp, outcome, err := p.run(ctx, req, lc, log, start)

	elapsed := p.now().Sub(start)
	p.metrics.RecordRequest(transportLabel(req.Transport), outcome, elapsed.Seconds())
	if err != nil {
		_ = lc.Advance(StageFailed)
		log.Debug().Strs("stages", stageNames(lc.Path())).Str("outcome", outcome).Msg("Translation request failed")
		return nil, err
	}

	resp.ProcessingTime = elapsed.Milliseconds()
	resp.Stages = lc.Path()
	log.Debug().
		Strs("stages", stageNames(resp.Stages)).
		Str("outcome", outcome).
		Int64("processingTimeMs", resp.ProcessingTime).
		Msg("Translation request completed")
	return resp, nil
}

func (p *Pipeline) run(ctx context.Context, req Request, lc *Lifecycle, log zerolog.Logger, start time.Time) (*Response, string, error) {
	text, err := p.validate(req)
	if err != nil {
		return nil, OutcomeInvalid, err
	}
	mustAdvance(lc, StageInputValidated)

	if v := p.filter.Check(text); v.Suppressed() {
		mustAdvance(lc, StageInputFiltered)
		p.metrics.RecordFilterVerdict(stageInput, v.String())
		log.Info().Str("verdict", v.String()).Msg("Input suppressed by filter")
		return &Response{Filtered: true, Verdict: v}, OutcomeFiltered, nil
	}

	if cached, ok := p.cache.Get(text); ok {
		if strings.TrimSpace(cached) == "" {
			p.metrics.RecordCacheLookup("stale")
			log.Info().Msg("Cached translation is empty, regenerating")
		} else if v := p.filter.Check(cached); v.Suppressed() {
			// Entries cached under older lists must not be served.
			p.metrics.RecordCacheLookup("stale")
			p.metrics.RecordFilterVerdict(stageCache, v.String())
			log.Info().Str("verdict", v.String()).Msg("Cached translation failed filters, regenerating")
		} else {
			mustAdvance(lc, StageCacheChecked)
			mustAdvance(lc, StageCacheHit)
			p.metrics.RecordCacheLookup("hit")
			return &Response{Text: cached, Cached: true}, OutcomeCached, nil
		}
	} else {
		p.metrics.RecordCacheLookup("miss")
	}
	mustAdvance(lc, StageCacheChecked)

	mustAdvance(lc, StageTranslationRequested)
	translated, err := p.callTranslator(ctx, text)
	if err != nil {
		log.Error().Err(err).Str("translator", p.translator.Name()).Msg("Translation call failed")
		return nil, OutcomeError, err
	}

	mustAdvance(lc, StageOutputFiltered)
	translated = strings.TrimSpace(translated)
	if translated == "" {
		mustAdvance(lc, StageEmpty)
		p.metrics.RecordFilterVerdict(stageOutput, verdictEmpty)
		log.Info().Str("translator", p.translator.Name()).Msg("Translator returned empty output")
		return &Response{Filtered: true}, OutcomeFiltered, nil
	}
	if v := p.filter.Check(translated); v.Suppressed() {
		mustAdvance(lc, StageEmpty)
		p.metrics.RecordFilterVerdict(stageOutput, v.String())
		log.Info().Str("verdict", v.String()).Msg("Translation suppressed by filter")
		return &Response{Filtered: true, Verdict: v}, OutcomeFiltered, nil
	}

	p.cache.Put(text, translated)
	p.metrics.RecordCacheSize(p.cache.Len())
	mustAdvance(lc, StageCacheWritten)

	mustAdvance(lc, StageHistoryPersisting)
	p.persist(ctx, req, text, translated, start, log)

	mustAdvance(lc, StageReturned)
	return &Response{Text: translated}, OutcomeTranslated, nil
}

func (p *Pipeline) validate(req Request) (string, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return "", validationErrorf("text", "text is required")
	}
	if n := utf8.RuneCountInString(text); n > p.cfg.MaxTextLength {
		return "", validationErrorf("text", "text exceeds maximum length of %d characters", p.cfg.MaxTextLength)
	}
	return text, nil
}

func (p *Pipeline) callTranslator(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.TranslationTimeout)
	defer cancel()

	start := time.Now()
	out, err := p.translator.Translate(ctx, text, p.cfg.SystemInstruction)
	p.metrics.RecordTranslation(p.translator.Name(), err, time.Since(start).Seconds())
	if err != nil {
		return "", &UpstreamError{Provider: p.translator.Name(), Err: err}
	}
	return out, nil
}

func (p *Pipeline) persist(ctx context.Context, req Request, text, translated string, start time.Time, log zerolog.Logger) {
	if p.recorder == nil || req.UserID == "" {
		return
	}

	now := p.now()
	rec := models.TranslationRecord{
		ID:         uuid.NewString(),
		SourceText: text,
		SourceLang: detectLang(text, p.cfg.SourceLang),
		TargetText: translated,
		TargetLang: p.cfg.TargetLang,
		CreatedAt:  now,
		Metadata: models.TranslationMetadata{
			Timestamp:        now,
			ProcessingTimeMs: now.Sub(start).Milliseconds(),
			Translator:       p.translator.Name(),
		},
	}

	if err := p.recorder.Record(ctx, history.Scopes(req.UserID, req.RoomID), rec); err != nil {
		log.Warn().Err(err).Msg("History not recorded")
	}
}

// detectLang returns the ISO 639-1 code of text when detection is reliable.
func detectLang(text, fallback string) string {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return fallback
	}
	if code := info.Lang.Iso6391(); code != "" {
		return code
	}
	return fallback
}

// ParseRoomID decodes an optional JSON room identifier. Absent and null mean
// no room; any other non-string value is rejected.
func ParseRoomID(raw json.RawMessage) (string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return "", nil
	}
	var roomID string
	if err := json.Unmarshal(raw, &roomID); err != nil {
		return "", validationErrorf("roomId", "roomId must be a string")
	}
	return roomID, nil
}

func mustAdvance(lc *Lifecycle, next Stage) {
	if err := lc.Advance(next); err != nil {
		panic(err)
	}
}

func transportLabel(t string) string {
	if t == "" {
		return "internal"
	}
	return t
}

func stageNames(stages []Stage) []string {
	out := make([]string, len(stages))
	for i, s := range stages {
		out[i] = s.String()
	}
	return out
}
