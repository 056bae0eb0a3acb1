package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speech-translation-service/internal/service/translate"
)

func TestClient_Translate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}
		assert.Equal(t, "gpt-4o-mini", req.Model)
		assert.InDelta(t, 0.3, req.Temperature, 1e-9)
		assert.Equal(t, 500, req.MaxTokens)
		if assert.Len(t, req.Messages, 2) {
			assert.Equal(t, "system", req.Messages[0].Role)
			assert.Equal(t, "be respectful", req.Messages[0].Content)
			assert.Equal(t, "user", req.Messages[1].Role)
			assert.Equal(t, "بسم الله", req.Messages[1].Content)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  In the name of Allah \n"}}]}`))
	}))
	defer srv.Close()

	c := New(Config{APIKey: "sk-test", BaseURL: srv.URL})
	got, err := c.Translate(context.Background(), "بسم الله", "be respectful")
	require.NoError(t, err)
	require.Equal(t, "In the name of Allah", got)
}

func TestClient_Translate_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"requests"}}`))
	}))
	defer srv.Close()

	c := New(Config{APIKey: "sk-test", BaseURL: srv.URL})
	_, err := c.Translate(context.Background(), "text", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "rate limited")
}

func TestClient_Translate_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	_, err := c.Translate(context.Background(), "text", "")
	require.ErrorIs(t, err, translate.ErrEmptyResponse)
}

func TestClient_Translate_ContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Translate(ctx, "text", "")
	require.Error(t, err)
}

func TestNew_Defaults(t *testing.T) {
	c := New(Config{})
	require.Equal(t, defaultModel, c.cfg.Model)
	require.Equal(t, defaultMaxTokens, c.cfg.MaxTokens)
	require.InDelta(t, defaultTemperature, *c.cfg.Temperature, 1e-9)
	require.Equal(t, "openai", c.Name())
}

func TestNew_ZeroTemperatureKept(t *testing.T) {
	c := New(Config{Temperature: Temperature(0)})
	require.NotNil(t, c.cfg.Temperature)
	require.Zero(t, *c.cfg.Temperature)
}
