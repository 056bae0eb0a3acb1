// Package google provides a Google Cloud Speech-to-Text adapter.
package google

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/googleapis/gax-go/v2"

	"speech-translation-service/internal/service/stt"
)

// maxPhraseHints caps the speech context phrases taken from the prompt.
const maxPhraseHints = 50

// Config holds Google recognizer configuration.
type Config struct {
	LanguageCode  string
	SampleRateHz  int32
	AudioEncoding string
	Model         string
}

// DefaultConfig returns settings for browser-recorded Arabic audio.
func DefaultConfig() Config {
	return Config{
		LanguageCode:  "ar-SA",
		SampleRateHz:  48000,
		AudioEncoding: "WEBM_OPUS",
	}
}

// recognizer is the subset of *speech.Client used by the adapter.
type recognizer interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest, opts ...gax.CallOption) (*speechpb.RecognizeResponse, error)
	Close() error
}

// Adapter implements stt.Transcriber using Google Cloud Speech-to-Text.
type Adapter struct {
	client recognizer
	cfg    Config
}

// New creates a new Google STT adapter.
// Requires GOOGLE_APPLICATION_CREDENTIALS environment variable to be set.
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}
	return &Adapter{client: c, cfg: cfg}, nil
}

// Name returns the provider name.
func (a *Adapter) Name() string {
	return "google"
}

// Transcribe runs a synchronous recognition on the chunk.
func (a *Adapter) Transcribe(ctx context.Context, req stt.Request) (*stt.Result, error) {
	if len(req.Audio) == 0 {
		return nil, stt.ErrEmptyAudio
	}

	resp, err := a.client.Recognize(ctx, a.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("google recognize: %w", err)
	}

	var parts []string
	result := &stt.Result{Language: req.Language}
	for i, r := range resp.GetResults() {
		if len(r.GetAlternatives()) == 0 {
			continue
		}
		alt := r.GetAlternatives()[0]
		text := strings.TrimSpace(alt.GetTranscript())
		if text == "" {
			continue
		}
		parts = append(parts, text)
		result.Segments = append(result.Segments, stt.Segment{
			ID:   i,
			End:  r.GetResultEndTime().AsDuration().Seconds(),
			Text: text,
		})
		if lc := r.GetLanguageCode(); lc != "" {
			result.Language = lc
		}
	}
	result.Text = strings.Join(parts, " ")
	return result, nil
}

// Close releases the underlying client.
func (a *Adapter) Close() error {
	if a.client != nil {
		return a.client.Close()
	}
	return nil
}

func (a *Adapter) buildRequest(req stt.Request) *speechpb.RecognizeRequest {
	lang := a.cfg.LanguageCode
	if req.Language != "" && !strings.Contains(lang, "-") {
		lang = req.Language
	}

	rc := &speechpb.RecognitionConfig{
		Encoding:                   parseAudioEncoding(a.cfg.AudioEncoding),
		SampleRateHertz:            a.cfg.SampleRateHz,
		LanguageCode:               lang,
		Model:                      a.cfg.Model,
		EnableAutomaticPunctuation: true,
	}
	if hints := phraseHints(req.Prompt); len(hints) > 0 {
		rc.SpeechContexts = []*speechpb.SpeechContext{{Phrases: hints}}
	}

	return &speechpb.RecognizeRequest{
		Config: rc,
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: req.Audio},
		},
	}
}

// phraseHints splits the prompt into distinct phrases the recognizer can favour.
func phraseHints(prompt string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range strings.FieldsFunc(prompt, func(r rune) bool {
		return r == '.' || r == ',' || r == '\n' || r == '،'
	}) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
		if len(out) == maxPhraseHints {
			break
		}
	}
	return out
}

// parseAudioEncoding converts string to speechpb.RecognitionConfig_AudioEncoding.
func parseAudioEncoding(encoding string) speechpb.RecognitionConfig_AudioEncoding {
	switch encoding {
	case "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC
	case "AMR":
		return speechpb.RecognitionConfig_AMR
	case "AMR_WB":
		return speechpb.RecognitionConfig_AMR_WB
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS
	case "SPEEX_WITH_HEADER_BYTE":
		return speechpb.RecognitionConfig_SPEEX_WITH_HEADER_BYTE
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS
	default:
		return speechpb.RecognitionConfig_LINEAR16
	}
}
