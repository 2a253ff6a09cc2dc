package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// TextGenerator is the external text-generation oracle. Its output is untrusted
// and must go through ParseQuestBatch before use.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ChatCompletionConfig configures an OpenAI-compatible chat completion endpoint
type ChatCompletionConfig struct {
	BaseURL           string
	APIKey            string
	Model             string
	Temperature       float64
	MaxTokens         int
	Timeout           time.Duration
	RequestsPerMinute int
}

// ChatCompletionGenerator calls an OpenAI-compatible /chat/completions endpoint
type ChatCompletionGenerator struct {
	cfg     ChatCompletionConfig
	client  *http.Client
	limiter *rate.Limiter
}

// NewChatCompletionGenerator creates a generator for the given provider
func NewChatCompletionGenerator(cfg ChatCompletionConfig) (*ChatCompletionGenerator, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("generator base URL is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("generator model is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 30
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &ChatCompletionGenerator{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1),
	}, nil
}

// Generate sends the prompt as a single user message and returns the first choice's content
func (g *ChatCompletionGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("generator rate limit wait: %w", err)
	}

	requestBody := map[string]interface{}{
		"model":       g.cfg.Model,
		"temperature": g.cfg.Temperature,
		"max_tokens":  g.cfg.MaxTokens,
		"stream":      false,
		"messages": []map[string]interface{}{
			{"role": "user", "content": prompt},
		},
	}

	reqBody, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("⚠️ [QUEST-GEN] Provider error (status %d, %d bytes)", resp.StatusCode, len(body))
		return "", fmt.Errorf("API error (status %d)", resp.StatusCode)
	}

	var apiResponse struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &apiResponse); err != nil {
		return "", fmt.Errorf("failed to parse API response: %w", err)
	}
	if len(apiResponse.Choices) == 0 {
		return "", errors.New("no choices in generator response")
	}

	return apiResponse.Choices[0].Message.Content, nil
}
