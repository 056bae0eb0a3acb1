package google

import (
	"context"
	"errors"
	"testing"

	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/protobuf/types/known/durationpb"

	"speech-translation-service/internal/service/stt"
)

type fakeRecognizer struct {
	req  *speechpb.RecognizeRequest
	resp *speechpb.RecognizeResponse
	err  error
}

func (f *fakeRecognizer) Recognize(_ context.Context, req *speechpb.RecognizeRequest, _ ...gax.CallOption) (*speechpb.RecognizeResponse, error) {
	f.req = req
	return f.resp, f.err
}

func (f *fakeRecognizer) Close() error { return nil }

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LanguageCode != "ar-SA" {
		t.Errorf("expected default language 'ar-SA', got %s", cfg.LanguageCode)
	}
	if cfg.SampleRateHz != 48000 {
		t.Errorf("expected default sample rate 48000, got %d", cfg.SampleRateHz)
	}
	if cfg.AudioEncoding != "WEBM_OPUS" {
		t.Errorf("expected default encoding 'WEBM_OPUS', got %s", cfg.AudioEncoding)
	}
}

func TestParseAudioEncoding(t *testing.T) {
	tests := []struct {
		input    string
		expected speechpb.RecognitionConfig_AudioEncoding
	}{
		{"LINEAR16", speechpb.RecognitionConfig_LINEAR16},
		{"MULAW", speechpb.RecognitionConfig_MULAW},
		{"FLAC", speechpb.RecognitionConfig_FLAC},
		{"OGG_OPUS", speechpb.RecognitionConfig_OGG_OPUS},
		{"WEBM_OPUS", speechpb.RecognitionConfig_WEBM_OPUS},
		{"webm_opus", speechpb.RecognitionConfig_LINEAR16}, // case sensitive
		{"invalid", speechpb.RecognitionConfig_LINEAR16},   // fallback
		{"", speechpb.RecognitionConfig_LINEAR16},          // fallback
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseAudioEncoding(tt.input)
			if got != tt.expected {
				t.Errorf("parseAudioEncoding(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestAdapter_Transcribe(t *testing.T) {
	fake := &fakeRecognizer{
		resp: &speechpb.RecognizeResponse{
			Results: []*speechpb.SpeechRecognitionResult{
				{
					Alternatives:  []*speechpb.SpeechRecognitionAlternative{{Transcript: "بسم الله الرحمن الرحيم"}},
					ResultEndTime: durationpb.New(3e9),
					LanguageCode:  "ar-sa",
				},
				{Alternatives: nil},
				{
					Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: " الحمد لله رب العالمين "}},
				},
			},
		},
	}
	a := &Adapter{client: fake, cfg: DefaultConfig()}

	res, err := a.Transcribe(context.Background(), stt.Request{
		Audio:    []byte{1, 2, 3},
		Language: "ar",
		Prompt:   "Quranic recitation in Arabic. Context: الفاتحة، البقرة",
	})
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if res.Text != "بسم الله الرحمن الرحيم الحمد لله رب العالمين" {
		t.Errorf("Text = %q", res.Text)
	}
	if len(res.Segments) != 2 {
		t.Errorf("expected 2 segments, got %d", len(res.Segments))
	}
	if res.Language != "ar-sa" {
		t.Errorf("Language = %q", res.Language)
	}

	rc := fake.req.GetConfig()
	if rc.GetLanguageCode() != "ar-SA" {
		t.Errorf("LanguageCode = %q, want ar-SA", rc.GetLanguageCode())
	}
	if rc.GetEncoding() != speechpb.RecognitionConfig_WEBM_OPUS {
		t.Errorf("Encoding = %v", rc.GetEncoding())
	}
	if len(rc.GetSpeechContexts()) != 1 || len(rc.GetSpeechContexts()[0].GetPhrases()) != 3 {
		t.Errorf("unexpected speech contexts: %v", rc.GetSpeechContexts())
	}
}

func TestAdapter_Transcribe_Errors(t *testing.T) {
	a := &Adapter{client: &fakeRecognizer{err: errors.New("quota exceeded")}, cfg: DefaultConfig()}

	if _, err := a.Transcribe(context.Background(), stt.Request{}); !errors.Is(err, stt.ErrEmptyAudio) {
		t.Errorf("expected ErrEmptyAudio, got %v", err)
	}
	if _, err := a.Transcribe(context.Background(), stt.Request{Audio: []byte{1}}); err == nil {
		t.Error("expected upstream error")
	}
}

func TestPhraseHints(t *testing.T) {
	got := phraseHints("a, b. a\nc")
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("phraseHints() = %v", got)
	}
	if phraseHints("") != nil {
		t.Error("empty prompt should yield no hints")
	}
}
