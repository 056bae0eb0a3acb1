package mock

import (
	"context"
	"errors"
	"testing"
	"time"

	"speech-translation-service/internal/service/stt"
)

func TestAdapter_CyclesUtterances(t *testing.T) {
	a := New(WithUtterances(
		SimulatedUtterance{Text: "one"},
		SimulatedUtterance{Text: "two"},
	))

	want := []string{"one", "two", "one"}
	for i, w := range want {
		res, err := a.Transcribe(context.Background(), stt.Request{Audio: []byte{1}})
		if err != nil {
			t.Fatalf("call %d: unexpected error %v", i, err)
		}
		if res.Text != w {
			t.Errorf("call %d: got %q, want %q", i, res.Text, w)
		}
	}
	if a.Calls() != 3 {
		t.Errorf("Calls() = %d, want 3", a.Calls())
	}
}

func TestAdapter_EmptyAudio(t *testing.T) {
	a := New()
	if _, err := a.Transcribe(context.Background(), stt.Request{}); !errors.Is(err, stt.ErrEmptyAudio) {
		t.Errorf("expected ErrEmptyAudio, got %v", err)
	}
}

func TestAdapter_DelayRespectsContext(t *testing.T) {
	a := New(WithDelay(time.Second))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := a.Transcribe(ctx, stt.Request{Audio: []byte{1}}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestDefaultUtterances_Segments(t *testing.T) {
	a := New()
	res, err := a.Transcribe(context.Background(), stt.Request{Audio: []byte{1}})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if res.Text != DefaultUtterances[0].Text {
		t.Errorf("got %q", res.Text)
	}
	if len(res.Segments) != 1 {
		t.Errorf("expected one segment, got %d", len(res.Segments))
	}
}
