package ai

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/opennote/pkg/settings"
)

type stubCompleter struct {
	response   string
	err        error
	lastSystem string
	lastUser   string
	calls      int
}

func (s *stubCompleter) Complete(_ context.Context, system, user string) (string, error) {
	s.calls++
	s.lastSystem = system
	s.lastUser = user
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func stubEngine(stub *stubCompleter) *Engine {
	return NewEngine(nil, WithCompleterFactory(func(settings.ModelConfiguration) (Completer, error) {
		return stub, nil
	}))
}

func validConfig() settings.ServerConfig {
	cfg := settings.Defaults().ServerConfig()
	cfg.LanguageModel = &settings.ModelConfiguration{
		Provider:  settings.ProviderOpenAI,
		ModelName: "gpt-4o-mini",
		APIKey:    "sk-test",
	}
	return cfg
}

func TestCategorize(t *testing.T) {
	ctx := context.Background()

	req := CategorizeRequest{
		NoteID:    "n1",
		Title:     "Standup notes",
		Content:   "Discussed the release plan",
		CreatedAt: 1700000000000,
		UpdatedAt: 1700000001000,
		Categories: []CategoryRef{
			{ID: "cat-1", Name: "Work"},
			{ID: "cat-2", Name: "Personal"},
		},
	}

	t.Run("Parses Response And Normalizes Tags", func(t *testing.T) {
		stub := &stubCompleter{response: `{"category":["cat-1"],"tags":["Release Plan","standup"]}`}
		result, err := stubEngine(stub).Categorize(ctx, validConfig(), req)
		require.NoError(t, err)
		assert.Equal(t, []string{"cat-1"}, result.Category)
		assert.Equal(t, []string{"release-plan", "standup"}, result.Tags)
	})

	t.Run("Drops Unknown Category IDs", func(t *testing.T) {
		stub := &stubCompleter{response: `{"category":["cat-1","cat-999"],"tags":[]}`}
		result, err := stubEngine(stub).Categorize(ctx, validConfig(), req)
		require.NoError(t, err)
		assert.Equal(t, []string{"cat-1"}, result.Category)
	})

	t.Run("Tolerates Code Fences", func(t *testing.T) {
		stub := &stubCompleter{response: "```json\n{\"category\":[\"cat-2\"],\"tags\":[\"later\"]}\n```"}
		result, err := stubEngine(stub).Categorize(ctx, validConfig(), req)
		require.NoError(t, err)
		assert.Equal(t, []string{"cat-2"}, result.Category)
	})

	t.Run("System Prompt Lists Categories", func(t *testing.T) {
		stub := &stubCompleter{response: `{"category":[],"tags":[]}`}
		_, err := stubEngine(stub).Categorize(ctx, validConfig(), req)
		require.NoError(t, err)
		assert.Contains(t, stub.lastSystem, "- cat-1: Work")
		assert.Contains(t, stub.lastSystem, "- cat-2: Personal")
		assert.NotContains(t, stub.lastSystem, "{{ categories }}")
	})

	t.Run("User Prompt Embeds Note", func(t *testing.T) {
		stub := &stubCompleter{response: `{"category":[],"tags":[]}`}
		_, err := stubEngine(stub).Categorize(ctx, validConfig(), req)
		require.NoError(t, err)
		assert.Contains(t, stub.lastUser, "Standup notes")
		assert.Contains(t, stub.lastUser, "Discussed the release plan")
		assert.Contains(t, stub.lastUser, "2023-11-14T22:13:20Z")
	})

	t.Run("Missing Config Yields ConfigError", func(t *testing.T) {
		stub := &stubCompleter{response: `{"category":[],"tags":[]}`}
		engine := stubEngine(stub)

		cases := []struct {
			name   string
			mutate func(*settings.ServerConfig)
		}{
			{"No Language Model", func(c *settings.ServerConfig) { c.LanguageModel = nil }},
			{"No API Key", func(c *settings.ServerConfig) { c.LanguageModel.APIKey = "" }},
			{"No Model Name", func(c *settings.ServerConfig) { c.LanguageModel.ModelName = "" }},
			{"No Provider", func(c *settings.ServerConfig) { c.LanguageModel.Provider = "" }},
			{"No Recognition Prompt", func(c *settings.ServerConfig) { c.CategoryRecognitionPrompt = " " }},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				cfg := validConfig()
				tc.mutate(&cfg)
				_, err := engine.Categorize(ctx, cfg, req)
				var cfgErr *ConfigError
				require.ErrorAs(t, err, &cfgErr)
				assert.Zero(t, stub.calls)
			})
		}
	})

	t.Run("Provider Failure Propagates", func(t *testing.T) {
		stub := &stubCompleter{err: errors.New("connection refused")}
		_, err := stubEngine(stub).Categorize(ctx, validConfig(), req)
		require.Error(t, err)
		var cfgErr *ConfigError
		assert.False(t, errors.As(err, &cfgErr))
	})

	t.Run("Malformed Response Is An Error", func(t *testing.T) {
		stub := &stubCompleter{response: "I think this note is about work."}
		_, err := stubEngine(stub).Categorize(ctx, validConfig(), req)
		assert.Error(t, err)
	})
}

func TestEnrich(t *testing.T) {
	ctx := context.Background()

	req := EnrichRequest{
		NoteID:           "n1",
		Title:            "Sourdough",
		Content:          "Fed the starter this morning",
		CategoryID:       "cat-1",
		EnrichmentPrompt: "Add baking context.",
	}

	t.Run("Wraps Response In Paragraph Block", func(t *testing.T) {
		stub := &stubCompleter{response: "Sourdough starters need regular feeding."}
		result, err := stubEngine(stub).Enrich(ctx, validConfig(), req)
		require.NoError(t, err)
		require.Len(t, result.EnrichmentBlocks, 1)

		block := result.EnrichmentBlocks[0]
		assert.Equal(t, "paragraph", block.Type)
		assert.Contains(t, block.ID, "enrich-")
		assert.NotZero(t, block.CreatedAt)

		var payload map[string]string
		require.NoError(t, json.Unmarshal(block.Content, &payload))
		assert.Equal(t, "Sourdough starters need regular feeding.", payload["text"])
	})

	t.Run("Category Prompt Takes Precedence", func(t *testing.T) {
		stub := &stubCompleter{response: "ok"}
		_, err := stubEngine(stub).Enrich(ctx, validConfig(), req)
		require.NoError(t, err)
		assert.Equal(t, "Add baking context.", stub.lastSystem)
	})

	t.Run("Generic Prompt Is The Fallback", func(t *testing.T) {
		stub := &stubCompleter{response: "ok"}
		noPrompt := req
		noPrompt.EnrichmentPrompt = ""
		_, err := stubEngine(stub).Enrich(ctx, validConfig(), noPrompt)
		require.NoError(t, err)
		assert.Equal(t, validConfig().GenericEnrichmentPrompt, stub.lastSystem)
	})

	t.Run("Empty Response Yields No Blocks", func(t *testing.T) {
		stub := &stubCompleter{response: "   "}
		result, err := stubEngine(stub).Enrich(ctx, validConfig(), req)
		require.NoError(t, err)
		assert.Empty(t, result.EnrichmentBlocks)
	})

	t.Run("Missing Config Yields ConfigError", func(t *testing.T) {
		cfg := validConfig()
		cfg.LanguageModel = nil
		_, err := stubEngine(&stubCompleter{}).Enrich(ctx, cfg, req)
		var cfgErr *ConfigError
		assert.ErrorAs(t, err, &cfgErr)
	})
}

func TestNewCompleter(t *testing.T) {
	t.Run("Rejects Unsupported Provider", func(t *testing.T) {
		_, err := NewCompleter(settings.ModelConfiguration{Provider: settings.ProviderAnthropic, ModelName: "m", APIKey: "k"})
		assert.Error(t, err)
	})

	t.Run("Accepts OpenAI Compatible Providers", func(t *testing.T) {
		for _, p := range []settings.Provider{settings.ProviderOpenAI, settings.ProviderOllama, settings.ProviderCustom} {
			c, err := NewCompleter(settings.ModelConfiguration{Provider: p, ModelName: "m", APIKey: "k", BaseURL: "http://localhost:11434/v1/"})
			require.NoError(t, err)
			assert.NotNil(t, c)
		}
	})
}
