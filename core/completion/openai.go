package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go-booking-agent/core/config"
	"go-booking-agent/core/constants"
	"go-booking-agent/core/errors"
	"go-booking-agent/core/logger"
)

// OpenAIClient speaks the OpenAI-compatible chat/completions protocol.
type OpenAIClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewOpenAIClient(cfg config.CompletionConfig) *OpenAIClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = constants.CompletionTimeout
	}
	return &OpenAIClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		client:  &http.Client{Timeout: timeout},
	}
}

type openAIRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *OpenAIClient) Complete(ctx context.Context, messages []Message) (string, error) {
	if c.baseURL == "" || c.apiKey == "" {
		return "", errors.NewAppError(errors.ErrConfiguration, "completion provider is not configured", nil)
	}

	body, err := json.Marshal(openAIRequest{Model: c.model, Messages: messages})
	if err != nil {
		return "", errors.NewAppError(errors.ErrInternalServer, "failed to encode completion request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", errors.NewAppError(errors.ErrConfiguration, "invalid completion provider url", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		logger.Error("OpenAIClient:Complete:Do:Error", "error", err, "model", c.model)
		return "", errors.NewAppError(errors.ErrProvider, "completion provider unreachable", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		logger.Error("OpenAIClient:Complete:APIError", "status", resp.StatusCode, "body", string(snippet))
		return "", errors.NewAppError(errors.ErrProvider,
			fmt.Sprintf("completion provider returned %d", resp.StatusCode), nil)
	}

	var out openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.NewAppError(errors.ErrProvider, "malformed completion response", err)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == nil {
		return "", errors.NewAppError(errors.ErrProvider, "completion response has no content", nil)
	}

	return *out.Choices[0].Message.Content, nil
}
