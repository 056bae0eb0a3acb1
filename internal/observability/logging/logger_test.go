package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestInitWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(Config{Level: "debug", Format: "json"}, &buf)
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logger := WithComponent("pipeline")
	logger.Debug().Str("verdict", "clean").Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if entry["component"] != "pipeline" {
		t.Errorf("component = %v, want pipeline", entry["component"])
	}
	if entry["message"] != "hello" {
		t.Errorf("message = %v, want hello", entry["message"])
	}
}

func TestInitWithWriter_InvalidLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(Config{Level: "chatty"}, &buf)
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Errorf("GlobalLevel() = %v, want info", zerolog.GlobalLevel())
	}

	log.Debug().Msg("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug line written at info level: %q", buf.String())
	}
}

func TestWithRequest(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	logger := WithRequest(base, "req-1", "user-1", "")
	logger.Info().Msg("x")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry["userId"] != "user-1" || entry["requestId"] != "req-1" {
		t.Errorf("unexpected fields: %v", entry)
	}
	if _, ok := entry["roomId"]; ok {
		t.Error("roomId should be omitted when empty")
	}
}
