// Package advisor produces free-form advisory text for slot analyses.
package advisor

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"gymslot/internal/logger"
)

const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultModel       = "gpt-4o-mini"
	DefaultMaxTokens   = 4096
	DefaultTemperature = 0.7
	DefaultTimeout     = 30 * time.Second
)

var ErrEmptyResponse = errors.New("advisor returned an empty response")

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Temperature <= 0 {
		c.Temperature = DefaultTemperature
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// New returns an OpenAI-compatible client when an API key is configured and
// the canned mock otherwise.
func New(cfg Config) Generator {
	if strings.TrimSpace(cfg.APIKey) == "" {
		logger.Warn("no AI API key configured, using mock advisor")
		return NewMock()
	}
	cfg = cfg.withDefaults()
	return NewOpenAI(cfg, &http.Client{Timeout: cfg.Timeout})
}
