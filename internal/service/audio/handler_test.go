package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"speech-translation-service/internal/filter"
	"speech-translation-service/internal/observability/metrics"
	"speech-translation-service/internal/pipeline"
	"speech-translation-service/internal/service/stt"
	"speech-translation-service/internal/service/stt/mock"
)

// testTranscriber implements stt.Transcriber for testing
type testTranscriber struct {
	text     string
	err      error
	calls    int
	lastReq  stt.Request
	segments []stt.Segment
}

func (m *testTranscriber) Name() string { return "test" }

func (m *testTranscriber) Transcribe(_ context.Context, req stt.Request) (*stt.Result, error) {
	m.calls++
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &stt.Result{Text: m.text, Segments: m.segments}, nil
}

func newTestHandler(tr stt.Transcriber, opts ...Option) (*Handler, *metrics.Metrics) {
	m := metrics.NewMetrics(prometheus.NewRegistry())
	opts = append([]Option{WithMetrics(m)}, opts...)
	return NewHandler(tr, filter.New(filter.DefaultConfig()), opts...), m
}

func TestHandler_SmallChunkSkipped(t *testing.T) {
	tr := &testTranscriber{text: "should not be called"}
	h, m := newTestHandler(tr)

	res, err := h.Transcribe(context.Background(), Chunk{Audio: make([]byte, 999)})
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if res.Text != "" || !res.Skipped {
		t.Errorf("Transcribe() = %+v, want empty skipped result", res)
	}
	if tr.calls != 0 {
		t.Errorf("recognizer called %d times for a silent chunk", tr.calls)
	}
	if got := testutil.ToFloat64(m.ChunksSkipped.WithLabelValues("too_small")); got != 1 {
		t.Errorf("skipped chunks = %v, want 1", got)
	}
}

func TestHandler_EmptyChunkIsSilence(t *testing.T) {
	tr := &testTranscriber{text: "should not be called"}
	h, _ := newTestHandler(tr)

	res, err := h.Transcribe(context.Background(), Chunk{Audio: nil, Filename: "chunk.webm"})
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if res.Text != "" || !res.Skipped {
		t.Errorf("Transcribe() = %+v, want empty skipped result", res)
	}
	if tr.calls != 0 {
		t.Errorf("recognizer called %d times for an empty chunk", tr.calls)
	}
}

func TestHandler_ChunkAtMinimumIsTranscribed(t *testing.T) {
	tr := &testTranscriber{text: "بسم الله الرحمن الرحيم"}
	h, _ := newTestHandler(tr)

	res, err := h.Transcribe(context.Background(), Chunk{Audio: make([]byte, 1000)})
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if res.Text != "بسم الله الرحمن الرحيم" {
		t.Errorf("Text = %q", res.Text)
	}
	if tr.calls != 1 {
		t.Errorf("calls = %d, want 1", tr.calls)
	}
}

func TestHandler_RejectsOversized(t *testing.T) {
	tr := &testTranscriber{}
	h, _ := newTestHandler(tr, WithLimits(Limits{MinAudioBytes: 10, MaxAudioBytes: 100}))

	_, err := h.Transcribe(context.Background(), Chunk{Audio: make([]byte, 101)})
	if !errors.Is(err, pipeline.ErrValidation) {
		t.Errorf("error = %v, want validation error", err)
	}
	if tr.calls != 0 {
		t.Errorf("recognizer called %d times", tr.calls)
	}
}

func TestHandler_PassesLanguageAndPrompt(t *testing.T) {
	tr := &testTranscriber{text: "x"}
	h, _ := newTestHandler(tr, WithLanguage("ar"), WithPrompt("custom prompt"))

	if _, err := h.Transcribe(context.Background(), Chunk{Audio: make([]byte, 2000), Filename: "chunk.webm"}); err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if tr.lastReq.Language != "ar" || tr.lastReq.Prompt != "custom prompt" || tr.lastReq.Filename != "chunk.webm" {
		t.Errorf("request = %+v", tr.lastReq)
	}
}

func TestHandler_StripsKnownHallucinations(t *testing.T) {
	tr := &testTranscriber{
		text:     "الحمد لله رب العالمين اشتركوا في القناة",
		segments: []stt.Segment{{NoSpeechProb: 0.1}, {NoSpeechProb: 0.6}},
	}
	h, _ := newTestHandler(tr)

	res, err := h.Transcribe(context.Background(), Chunk{Audio: make([]byte, 2000)})
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if res.Text != "الحمد لله رب العالمين" {
		t.Errorf("Text = %q", res.Text)
	}
	if res.Filtered {
		t.Error("partially cleaned transcript should not be marked filtered")
	}
	if res.NoSpeechProb != 0.6 {
		t.Errorf("NoSpeechProb = %v, want 0.6", res.NoSpeechProb)
	}
}

func TestHandler_OnlyHallucinationIsFiltered(t *testing.T) {
	tr := &testTranscriber{text: "Thanks for watching"}
	h, _ := newTestHandler(tr)

	res, err := h.Transcribe(context.Background(), Chunk{Audio: make([]byte, 2000)})
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if res.Text != "" || !res.Filtered {
		t.Errorf("Transcribe() = %+v, want empty filtered result", res)
	}
}

func TestHandler_RepetitionLoopDiscarded(t *testing.T) {
	tr := &testTranscriber{text: strings.TrimSpace(strings.Repeat("الله ", 12))}
	h, m := newTestHandler(tr)

	res, err := h.Transcribe(context.Background(), Chunk{Audio: make([]byte, 2000)})
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if res.Text != "" || !res.Filtered || res.Verdict != filter.RepetitionLoop {
		t.Errorf("Transcribe() = %+v, want discarded loop", res)
	}
	if got := testutil.ToFloat64(m.FilterVerdicts.WithLabelValues("transcript", "repetition_loop")); got != 1 {
		t.Errorf("loop verdicts = %v, want 1", got)
	}
}

func TestHandler_RecognizerErrorIsUpstream(t *testing.T) {
	tr := &testTranscriber{err: errors.New("503 from provider")}
	h, m := newTestHandler(tr)

	_, err := h.Transcribe(context.Background(), Chunk{Audio: make([]byte, 2000)})
	if !errors.Is(err, pipeline.ErrUpstream) {
		t.Fatalf("error = %v, want upstream error", err)
	}
	if got := testutil.ToFloat64(m.STTErrors.WithLabelValues("test", "provider")); got != 1 {
		t.Errorf("stt errors = %v, want 1", got)
	}
}

func TestHandler_WithMockRecognizer(t *testing.T) {
	h, _ := newTestHandler(mock.New(mock.WithUtterances(
		mock.SimulatedUtterance{Text: "اشتركوا في القناة", NoSpeechProb: 0.9},
	)))

	res, err := h.Transcribe(context.Background(), Chunk{Audio: make([]byte, 4096)})
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if res.Text != "" || !res.Filtered {
		t.Errorf("Transcribe() = %+v, want filtered", res)
	}
	if res.NoSpeechProb != 0.9 {
		t.Errorf("NoSpeechProb = %v, want 0.9", res.NoSpeechProb)
	}
}

func TestBuildPrompt(t *testing.T) {
	if got := BuildPrompt(nil); got != FallbackPrompt {
		t.Errorf("BuildPrompt(nil) = %q, want fallback", got)
	}

	got := BuildPrompt([]string{"بِسْمِ ٱللَّهِ", "ٱلْحَمْدُ لِلَّهِ"})
	if got != promptPrefix+"بِسْمِ ٱللَّهِ ٱلْحَمْدُ لِلَّهِ" {
		t.Errorf("BuildPrompt() = %q", got)
	}

	long := make([]string, 600)
	for i := range long {
		long[i] = "آية"
	}
	got = BuildPrompt(long)
	if n := utf8.RuneCountInString(strings.TrimPrefix(got, promptPrefix)); n != promptExcerptRunes {
		t.Errorf("excerpt length = %d runes, want %d", n, promptExcerptRunes)
	}
}

func TestLoadPrompt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quran.json")
	content := `{"data":{"surahs":[{"ayahs":[{"text":"بسم الله"},{"text":"الحمد لله"}]},{"ayahs":[{"text":"الم"}]}]}}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := LoadPrompt(path)
	if err != nil {
		t.Fatalf("LoadPrompt() error = %v", err)
	}
	if got != promptPrefix+"بسم الله الحمد لله الم" {
		t.Errorf("LoadPrompt() = %q", got)
	}
}

func TestLoadPrompt_Fallbacks(t *testing.T) {
	if got, err := LoadPrompt(""); err != nil || got != FallbackPrompt {
		t.Errorf("LoadPrompt(\"\") = %q, %v", got, err)
	}

	got, err := LoadPrompt(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Error("expected error for missing file")
	}
	if got != FallbackPrompt {
		t.Errorf("LoadPrompt(missing) = %q, want fallback", got)
	}
}
