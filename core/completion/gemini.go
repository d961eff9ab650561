package completion

import (
	"context"
	"strings"

	"go-booking-agent/core/config"
	"go-booking-agent/core/errors"
	"go-booking-agent/core/logger"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-1.5-flash"

type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, cfg config.CompletionConfig) (*GeminiClient, error) {
	key := cfg.GeminiAPIKey
	if key == "" {
		key = cfg.APIKey
	}
	if key == "" {
		return nil, errors.NewAppError(errors.ErrConfiguration, "gemini api key is not configured", nil)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(key))
	if err != nil {
		return nil, errors.NewAppError(errors.ErrConfiguration, "failed to create gemini client", err)
	}

	model := cfg.Model
	if model == "" || !strings.HasPrefix(model, "gemini") {
		model = defaultGeminiModel
	}
	return &GeminiClient{client: client, model: model}, nil
}

func (g *GeminiClient) Complete(ctx context.Context, messages []Message) (string, error) {
	system, history, last := splitForGemini(messages)
	if len(last) == 0 {
		return "", errors.NewAppError(errors.ErrInvalidInput, "no user message to send", nil)
	}

	model := g.client.GenerativeModel(g.model)
	model.SystemInstruction = system
	chat := model.StartChat()
	chat.History = history

	resp, err := chat.SendMessage(ctx, last...)
	if err != nil {
		logger.Error("GeminiClient:Complete:SendMessage:Error", "error", err, "model", g.model)
		return "", errors.NewAppError(errors.ErrProvider, "completion provider unreachable", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.NewAppError(errors.ErrProvider, "completion response has no content", nil)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}

func (g *GeminiClient) Close() error {
	return g.client.Close()
}

// splitForGemini maps chat messages onto Gemini's shape: system messages become
// the system instruction, the final user message is what gets sent, everything
// before it is history.
func splitForGemini(messages []Message) (*genai.Content, []*genai.Content, []genai.Part) {
	var system *genai.Content
	var turns []*genai.Content

	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			if system == nil {
				system = &genai.Content{}
			}
			system.Parts = append(system.Parts, genai.Text(m.Content))
		case RoleAssistant:
			turns = append(turns, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(m.Content)}})
		default:
			turns = append(turns, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(m.Content)}})
		}
	}

	if len(turns) == 0 || turns[len(turns)-1].Role != "user" {
		return system, turns, nil
	}
	last := turns[len(turns)-1]
	return system, turns[:len(turns)-1], last.Parts
}
