package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"gymslot/internal/logger"

	"github.com/tidwall/gjson"
)

const systemPrompt = `You are an expert assistant specialized in gym and fitness reservation management.

Your expertise includes:
- Analyzing reservation patterns and user behavior
- Optimizing class capacity and scheduling
- Predicting attendance probabilities
- Recommending management strategies

Always provide clear, actionable insights and data-driven recommendations that balance business
efficiency with customer satisfaction.

Be concise but thorough. Focus on practical, implementable advice.`

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

// OpenAI talks to any endpoint implementing the chat completions API.
type OpenAI struct {
	cfg    Config
	client *http.Client
}

func NewOpenAI(cfg Config, client *http.Client) *OpenAI {
	cfg = cfg.withDefaults()
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &OpenAI{cfg: cfg, client: client}
}

func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	logger.Info("calling advisor", "model", o.cfg.Model, "prompt_length", len(prompt))

	body, err := json.Marshal(chatRequest{
		Model: o.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   o.cfg.MaxTokens,
		Temperature: o.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)

	res, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		errBody, err := io.ReadAll(io.LimitReader(res.Body, 4096))
		if err != nil {
			return "", fmt.Errorf("read chat error body: %w", err)
		}
		return "", fmt.Errorf("chat request status %d: %s", res.StatusCode, strings.TrimSpace(string(errBody)))
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}
	if !gjson.ValidBytes(raw) {
		return "", fmt.Errorf("decode chat response: invalid json")
	}

	text := strings.TrimSpace(gjson.GetBytes(raw, "choices.0.message.content").String())
	if text == "" {
		logger.Warn("advisor returned empty response", "model", o.cfg.Model)
		return "", ErrEmptyResponse
	}

	logger.Info("advisor response received", "length", len(text))
	return text, nil
}
