// Package toolcall invokes tools on a remote tool server over its
// name+arguments request/response protocol.
package toolcall

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

type Request struct {
	Name      string `json:"name"`
	Arguments any    `json:"arguments"`
}

type Response struct {
	Content json.RawMessage `json:"content"`
}

type Client struct {
	baseURL string
	key     string
	client  *http.Client
}

func NewClient(cfg config.ToolsConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultTimeout
	}
	return &Client{
		baseURL: cfg.URL,
		key:     cfg.Key,
		client:  &http.Client{Timeout: timeout},
	}
}

// Call posts {name, arguments} to /tools/call and decodes the response's
// content into out. One attempt; every failure is ErrProvider.
func (c *Client) Call(ctx context.Context, name string, arguments any, out any) error {
	if c.baseURL == "" {
		return errors.NewAppError(errors.ErrConfiguration, "tool server url is not configured", nil)
	}

	body, err := json.Marshal(Request{Name: name, Arguments: arguments})
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to encode tool arguments", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tools/call", bytes.NewReader(body))
	if err != nil {
		return errors.NewAppError(errors.ErrConfiguration, "invalid tool server url", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(constants.HeaderToolKey, c.key)

	resp, err := c.client.Do(req)
	if err != nil {
		logger.Error("ToolClient:Call:Do:Error", "tool", name, "error", err)
		return errors.NewAppError(errors.ErrProvider, fmt.Sprintf("tool %s unreachable", name), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		logger.Error("ToolClient:Call:APIError", "tool", name, "status", resp.StatusCode, "body", string(snippet))
		return errors.NewAppError(errors.ErrProvider, fmt.Sprintf("tool %s returned %d", name, resp.StatusCode), nil)
	}

	var envelope Response
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return errors.NewAppError(errors.ErrProvider, fmt.Sprintf("tool %s returned a malformed response", name), err)
	}
	if len(envelope.Content) == 0 || string(envelope.Content) == "null" {
		return errors.NewAppError(errors.ErrProvider, fmt.Sprintf("tool %s returned no content", name), nil)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Content, out); err != nil {
		return errors.NewAppError(errors.ErrProvider, fmt.Sprintf("tool %s returned unexpected content", name), err)
	}
	return nil
}
