package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cypherhub/backend/config"
	"github.com/cypherhub/backend/internal/autofill"
)

const extractionPrompt = `Extract event details from this dance event flyer.
Respond with a single JSON object and nothing else, using these keys:
title, description, city, styles (array of dance style names),
starts_at (RFC 3339, if the flyer names a date), ends_at.
Omit keys you cannot determine.`

// LLMClient calls a chat-completions API to turn flyer text into an event
// draft.
type LLMClient struct {
	cfg    config.LLMConfig
	client *http.Client
}

// NewLLMClient creates an LLM client from config.
func NewLLMClient(cfg config.LLMConfig) *LLMClient {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &LLMClient{cfg: cfg, client: &http.Client{Timeout: timeout}}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// ExtractDraft sends the flyer text through the extraction prompt and
// parses the returned JSON.
func (l *LLMClient) ExtractDraft(ctx context.Context, flyerText string) (*autofill.Draft, error) {
	if l.cfg.APIKey == "" {
		return nil, fmt.Errorf("llm api key not configured")
	}

	body, err := json.Marshal(chatRequest{
		Model: l.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: extractionPrompt},
			{Role: "user", Content: flyerText},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimRight(l.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+l.cfg.APIKey)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llm request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("llm status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("llm returned no choices")
	}

	content := parsed.Choices[0].Message.Content
	// Models sometimes wrap the JSON in a code fence despite the prompt.
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var draft autofill.Draft
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &draft); err != nil {
		return nil, fmt.Errorf("parse draft: %w", err)
	}
	return &draft, nil
}

// FetchFlyerText downloads a flyer URL and returns its body as text.
// Non-text flyers are passed to the model as-is; extraction quality is the
// model's problem, transport is ours.
func FetchFlyerText(ctx context.Context, client *http.Client, flyerURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, flyerURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch flyer: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("flyer status: %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read flyer: %w", err)
	}
	return string(raw), nil
}
