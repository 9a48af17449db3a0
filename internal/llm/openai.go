package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const openaiBackendName = "openai"

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// OpenAIBackend wraps a hosted chat-completion API. Any
// OpenAI-compatible endpoint works via BaseURL.
type OpenAIBackend struct {
	client *openai.Client
	model  string
	hasKey bool
}

func NewOpenAIBackend(cfg OpenAIConfig) (*OpenAIBackend, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("openai model is required")
	}

	key := strings.TrimSpace(cfg.APIKey)
	clientConfig := openai.DefaultConfig(key)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientConfig.BaseURL = base
	}

	return &OpenAIBackend{
		client: openai.NewClientWithConfig(clientConfig),
		model:  strings.TrimSpace(cfg.Model),
		hasKey: key != "",
	}, nil
}

func (b *OpenAIBackend) Name() string { return openaiBackendName }

// Alive reports configuration state: there is no cheap unauthenticated
// probe for the hosted API, so a missing key is the only skip condition.
func (b *OpenAIBackend) Alive(context.Context) bool { return b.hasKey }

func (b *OpenAIBackend) Complete(ctx context.Context, req Request) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, m := range req.History {
		role := openai.ChatMessageRoleUser
		if m.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.User,
	})

	// The request struct omits a zero temperature, which would fall back
	// to the API default instead of greedy decoding.
	temperature := float32(req.Temperature)
	if req.Temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       b.model,
		Messages:    messages,
		Temperature: temperature,
		TopP:        float32(req.TopP),
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
