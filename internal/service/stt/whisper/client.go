// Package whisper provides an OpenAI-compatible Whisper transcription client.
package whisper

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"speech-translation-service/internal/service/stt"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "whisper-1"
)

// Config holds Whisper client configuration.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// DefaultConfig returns the OpenAI endpoint with the whisper-1 model.
func DefaultConfig() Config {
	return Config{
		BaseURL: defaultBaseURL,
		Model:   defaultModel,
		Timeout: 60 * time.Second,
	}
}

// Client implements stt.Transcriber over the /audio/transcriptions endpoint.
type Client struct {
	cfg  Config
	http *resty.Client
}

// New creates a Whisper client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: resty.New().SetTimeout(cfg.Timeout),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "whisper"
}

// Transcribe uploads the chunk and returns the verbose transcription.
func (c *Client) Transcribe(ctx context.Context, req stt.Request) (*stt.Result, error) {
	if len(req.Audio) == 0 {
		return nil, stt.ErrEmptyAudio
	}

	filename := req.Filename
	if filename == "" {
		filename = "audio.webm"
	}

	form := map[string]string{
		"model":           c.cfg.Model,
		"response_format": "verbose_json",
		"temperature":     "0",
	}
	if req.Language != "" {
		form["language"] = req.Language
	}
	if req.Prompt != "" {
		form["prompt"] = req.Prompt
	}

	var result stt.Result
	var apiErr struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.cfg.APIKey).
		SetFileReader("file", filename, bytes.NewReader(req.Audio)).
		SetFormData(form).
		SetResult(&result).
		SetError(&apiErr).
		Post(strings.TrimRight(c.cfg.BaseURL, "/") + "/audio/transcriptions")
	if err != nil {
		return nil, fmt.Errorf("whisper transcribe: %w", err)
	}
	if resp.IsError() {
		if apiErr.Error.Message != "" {
			return nil, fmt.Errorf("whisper transcribe: %s: %s", resp.Status(), apiErr.Error.Message)
		}
		return nil, fmt.Errorf("whisper transcribe: %s; body: %s", resp.Status(), resp.String())
	}

	return &result, nil
}
