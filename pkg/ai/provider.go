// Package ai turns notes into categorization and enrichment results by
// prompting a configured language model. Providers speak the OpenAI chat
// completion protocol; self-hosted backends plug in via a custom base URL.
package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/aretw0/opennote/pkg/settings"
)

// Completer sends one system+user prompt pair and returns the raw completion
// text. Implementations are created per request from the current settings.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// CompleterFactory builds a Completer for a model configuration. Tests swap
// in a stub; production uses NewCompleter.
type CompleterFactory func(cfg settings.ModelConfiguration) (Completer, error)

// NewCompleter returns a Completer for cfg. OpenAI-compatible providers
// (openai, ollama, custom) are supported; others are rejected.
func NewCompleter(cfg settings.ModelConfiguration) (Completer, error) {
	switch cfg.Provider {
	case settings.ProviderOpenAI, settings.ProviderOllama, settings.ProviderCustom:
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if strings.TrimSpace(cfg.BaseURL) != "" {
		clientCfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	}

	return &openaiCompleter{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.ModelName,
	}, nil
}

type openaiCompleter struct {
	client *openai.Client
	model  string
}

func (c *openaiCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
