// Package completion talks to text-completion providers and pulls JSON out
// of what they say.
package completion

import (
	"context"
	"fmt"
	"strings"

	"go-booking-agent/core/config"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider turns a message sequence into one text completion.
// Implementations make a single attempt and never retry.
type Provider interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// New returns the provider selected by cfg.Provider.
func New(ctx context.Context, cfg config.CompletionConfig) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "openai":
		return NewOpenAIClient(cfg), nil
	case "gemini":
		return NewGeminiClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.Provider)
	}
}
