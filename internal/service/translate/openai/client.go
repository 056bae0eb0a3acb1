// Package openai provides a chat-completions translator.
package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"speech-translation-service/internal/service/translate"
)

const (
	defaultBaseURL     = "https://api.openai.com/v1"
	defaultModel       = "gpt-4o-mini"
	defaultTemperature = 0.3
	defaultMaxTokens   = 500
)

// Config holds chat-completions client configuration.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature *float64 // nil uses the default; 0 is a valid setting
	MaxTokens   int
	Timeout     time.Duration
}

// DefaultConfig returns the low-temperature gpt-4o-mini settings.
func DefaultConfig() Config {
	return Config{
		BaseURL:     defaultBaseURL,
		Model:       defaultModel,
		Temperature: Temperature(defaultTemperature),
		MaxTokens:   defaultMaxTokens,
		Timeout:     60 * time.Second,
	}
}

// Temperature returns a pointer to t for Config.Temperature.
func Temperature(t float64) *float64 {
	return &t
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Client implements translate.Translator over /chat/completions.
type Client struct {
	cfg  Config
	http *resty.Client
}

// New creates a chat-completions translator. Zero fields take defaults.
func New(cfg Config) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Temperature == nil {
		cfg.Temperature = def.Temperature
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &Client{
		cfg:  cfg,
		http: resty.New().SetTimeout(cfg.Timeout),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "openai"
}

// Translate sends the instruction as the system message and the source text
// as the user message.
func (c *Client) Translate(ctx context.Context, sourceText, systemInstruction string) (string, error) {
	body := chatRequest{
		Model:       c.cfg.Model,
		Temperature: *c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}
	if systemInstruction != "" {
		body.Messages = append(body.Messages, message{Role: "system", Content: systemInstruction})
	}
	body.Messages = append(body.Messages, message{Role: "user", Content: sourceText})

	var out chatResponse
	var errBody apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&out).
		SetError(&errBody).
		Post(strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions")
	if err != nil {
		return "", fmt.Errorf("openai translate: %w", err)
	}
	if resp.IsError() {
		if errBody.Error.Message != "" {
			return "", fmt.Errorf("openai translate: %s: %s", resp.Status(), errBody.Error.Message)
		}
		return "", fmt.Errorf("openai translate: %s; body: %s", resp.Status(), resp.String())
	}

	if len(out.Choices) == 0 {
		return "", translate.ErrEmptyResponse
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
