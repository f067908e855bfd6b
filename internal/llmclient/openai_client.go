package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.openai.com/v1"

// CompletionClient is the single operation the scoring and summarization
// components need from a text-completion service.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// OpenAIClient calls an OpenAI-compatible chat-completions endpoint. The
// handle is constructed once at startup and injected into the components
// that use it; its lifetime is owned by the host process.
type OpenAIClient struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	HTTPClient  *http.Client
}

// NewOpenAIClient creates a client for the given model and temperature.
// baseURL may be empty to use the public OpenAI endpoint.
func NewOpenAIClient(apiKey, model, baseURL string, temperature float64) *OpenAIClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &OpenAIClient{
		APIKey:      apiKey,
		Model:       model,
		BaseURL:     strings.TrimRight(baseURL, "/"),
		Temperature: temperature,
		HTTPClient:  &http.Client{Timeout: time.Second * 60},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

// chatCompletionResponse is a simplified view of the chat-completions
// response; only the fields read here are mapped.
type chatCompletionResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete sends a single-user-message chat completion and returns the
// assistant's text. Any transport or API failure is returned as an error;
// callers decide whether that is fatal for their attempt.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	if c.APIKey == "" {
		return "", fmt.Errorf("OpenAI API key is not configured")
	}

	payload := chatCompletionRequest{
		Model:       c.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: c.Temperature,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	startTime := time.Now()
	httpResp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send chat completion request: %w", err)
	}
	defer httpResp.Body.Close()
	log.Printf("Chat completion call to model %s completed in %v", c.Model, time.Since(startTime))

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read chat completion response body: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		log.Printf("Chat completion API error: Status %s, Body: %s", httpResp.Status, string(respBody))
		return "", fmt.Errorf("chat completion request failed with status %s: %s", httpResp.Status, string(respBody))
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return "", fmt.Errorf("failed to parse chat completion JSON response: %w", err)
	}
	if completion.Error != nil {
		return "", fmt.Errorf("chat completion API error: %s (%s)", completion.Error.Message, completion.Error.Type)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("chat completion response contained no choices")
	}

	return completion.Choices[0].Message.Content, nil
}
