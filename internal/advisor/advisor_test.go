package advisor

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"gymslot/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestMain(m *testing.M) {
	logger.Init()

	code := m.Run()
	os.Exit(code)
}

func TestNewPicksImplementation(t *testing.T) {
	_, isMock := New(Config{}).(*Mock)
	assert.True(t, isMock)

	g, isOpenAI := New(Config{APIKey: "sk-test"}).(*OpenAI)
	require.True(t, isOpenAI)
	assert.Equal(t, DefaultModel, g.cfg.Model)
	assert.Equal(t, DefaultMaxTokens, g.cfg.MaxTokens)
	assert.Equal(t, DefaultTemperature, g.cfg.Temperature)
	assert.Equal(t, DefaultTimeout, g.cfg.Timeout)
	assert.Equal(t, DefaultBaseURL, g.cfg.BaseURL)
}

func TestMockGenerate(t *testing.T) {
	m := &Mock{}
	ctx := context.Background()

	tests := []struct {
		prompt string
		want   string
	}{
		{"Provide specific recommendations for this slot", mockRecommendations},
		{"Provide a concise summary", mockSummary},
		{"Analyze this class", mockDefault},
	}

	for _, tt := range tests {
		got, err := m.Generate(ctx, tt.prompt)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestMockHonoursContext(t *testing.T) {
	m := &Mock{Delay: time.Minute}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := m.Generate(ctx, "summary")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestOpenAIGenerate(t *testing.T) {
	var captured []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		captured, _ = io.ReadAll(r.Body)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "  Confirm the earliest bookings.  "}},
			},
		})
	}))
	defer srv.Close()

	g := NewOpenAI(Config{BaseURL: srv.URL + "/v1/", APIKey: "sk-test", Model: "test-model", MaxTokens: 256}, srv.Client())

	text, err := g.Generate(context.Background(), "Analyze slot")
	require.NoError(t, err)
	assert.Equal(t, "Confirm the earliest bookings.", text)

	assert.Equal(t, "test-model", gjson.GetBytes(captured, "model").String())
	assert.Equal(t, int64(256), gjson.GetBytes(captured, "max_tokens").Int())
	assert.Equal(t, "system", gjson.GetBytes(captured, "messages.0.role").String())
	assert.Equal(t, "Analyze slot", gjson.GetBytes(captured, "messages.1.content").String())
}

func TestOpenAIErrors(t *testing.T) {
	t.Run("error status with bounded body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(strings.Repeat("x", 10000)))
		}))
		defer srv.Close()

		_, err := NewOpenAI(Config{BaseURL: srv.URL, APIKey: "k"}, srv.Client()).Generate(context.Background(), "p")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 429")
		assert.Less(t, len(err.Error()), 5000)
	})

	t.Run("empty content", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"   "}}]}`))
		}))
		defer srv.Close()

		_, err := NewOpenAI(Config{BaseURL: srv.URL, APIKey: "k"}, srv.Client()).Generate(context.Background(), "p")
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})

	t.Run("invalid json", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		}))
		defer srv.Close()

		_, err := NewOpenAI(Config{BaseURL: srv.URL, APIKey: "k"}, srv.Client()).Generate(context.Background(), "p")
		assert.ErrorContains(t, err, "invalid json")
	})
}
