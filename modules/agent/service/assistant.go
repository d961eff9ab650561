package service

import (
	"context"
	"strings"

	"go-booking-agent/core/completion"
	"go-booking-agent/core/errors"
)

// Assistant answers free-form chat messages in one short sentence.
type Assistant struct {
	llm completion.Provider
}

func NewAssistant(llm completion.Provider) *Assistant {
	return &Assistant{llm: llm}
}

func (a *Assistant) Reply(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", errors.NewAppError(errors.ErrInvalidInput, "message is required", nil)
	}
	reply, err := a.llm.Complete(ctx, []completion.Message{
		{Role: completion.RoleSystem, Content: chatSystemPrompt},
		{Role: completion.RoleUser, Content: message},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}
