package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/aretw0/opennote/pkg/core"
	"github.com/aretw0/opennote/pkg/settings"
	"github.com/aretw0/opennote/pkg/tags"
)

// CategoryRef names one category the model may assign.
type CategoryRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CategorizeRequest carries one note's text and the categories to pick from.
type CategorizeRequest struct {
	NoteID     string         `json:"noteId"`
	Title      string         `json:"title"`
	Content    string         `json:"content"`
	CreatedAt  core.Timestamp `json:"createdAt"`
	UpdatedAt  core.Timestamp `json:"updatedAt"`
	Categories []CategoryRef  `json:"categories"`
}

// CategorizeResult is the validated model output: category IDs confirmed
// against the request list and kebab-cased tags.
type CategorizeResult struct {
	Category []string `json:"category"`
	Tags     []string `json:"tags"`
}

// EnrichRequest carries one note's text plus the prompt of its category, if
// it has one.
type EnrichRequest struct {
	NoteID           string `json:"noteId"`
	Title            string `json:"title"`
	Content          string `json:"content"`
	CategoryID       string `json:"categoryId,omitempty"`
	EnrichmentPrompt string `json:"enrichmentPrompt,omitempty"`
}

// EnrichResult wraps generated enrichment content as content blocks.
type EnrichResult struct {
	EnrichmentBlocks []core.Block `json:"enrichmentBlocks"`
}

// Engine validates configuration, builds prompts, and parses model output.
type Engine struct {
	factory CompleterFactory
	logger  *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithCompleterFactory replaces the provider factory.
func WithCompleterFactory(f CompleterFactory) EngineOption {
	return func(e *Engine) { e.factory = f }
}

// NewEngine returns an Engine using the default OpenAI-compatible factory.
func NewEngine(logger *slog.Logger, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{factory: NewCompleter, logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// validateModel checks the fields every completion request needs. Each
// missing field gets its own message pointing at the settings section that
// configures it.
func validateModel(cfg settings.ServerConfig) (settings.ModelConfiguration, error) {
	if cfg.LanguageModel == nil || cfg.LanguageModel.APIKey == "" {
		return settings.ModelConfiguration{}, missingConfig("apiKey",
			"API key is not configured for the Language Model. Please configure it in Settings > AI Models > Language Model section.")
	}
	if cfg.LanguageModel.ModelName == "" {
		return settings.ModelConfiguration{}, missingConfig("modelName",
			"Model name is not configured. Please configure it in Settings > AI Models > Language Model section.")
	}
	if cfg.LanguageModel.Provider == "" {
		return settings.ModelConfiguration{}, missingConfig("provider",
			"Provider is not configured. Please configure it in Settings > AI Models > Language Model section.")
	}
	return *cfg.LanguageModel, nil
}

// Categorize asks the model which categories fit the note and which tags to
// attach. IDs the model invents are dropped; tags come back kebab-cased.
func (e *Engine) Categorize(ctx context.Context, cfg settings.ServerConfig, req CategorizeRequest) (CategorizeResult, error) {
	model, err := validateModel(cfg)
	if err != nil {
		return CategorizeResult{}, err
	}
	if strings.TrimSpace(cfg.CategoryRecognitionPrompt) == "" {
		return CategorizeResult{}, missingConfig("categoryRecognitionPrompt",
			"Category Recognition prompt is not configured. Please configure it in Settings > AI Prompts > Category Recognition Prompt section.")
	}

	completer, err := e.factory(model)
	if err != nil {
		return CategorizeResult{}, err
	}

	system := buildCategorizeSystemPrompt(cfg.CategoryRecognitionPrompt, req.Categories)
	user := buildCategorizeUserPrompt(req)

	e.logger.Debug("requesting categorization",
		"note_id", req.NoteID,
		"provider", model.Provider,
		"model", model.ModelName,
		"categories", len(req.Categories),
	)

	raw, err := completer.Complete(ctx, system, user)
	if err != nil {
		return CategorizeResult{}, fmt.Errorf("categorization failed: %w", err)
	}

	var parsed CategorizeResult
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &parsed); err != nil {
		return CategorizeResult{}, fmt.Errorf("parsing categorization response: %w", err)
	}

	known := make(map[string]bool, len(req.Categories))
	for _, c := range req.Categories {
		known[c.ID] = true
	}

	result := CategorizeResult{Category: []string{}, Tags: []string{}}
	for _, id := range parsed.Category {
		if !known[id] {
			e.logger.Debug("model returned unknown category id, skipping", "note_id", req.NoteID, "category_id", id)
			continue
		}
		result.Category = append(result.Category, id)
	}
	for _, tag := range parsed.Tags {
		if normalized := tags.KebabCase(tag); normalized != "" {
			result.Tags = append(result.Tags, normalized)
		}
	}
	return result, nil
}

// Enrich asks the model to expand the note using its category's prompt, or
// the generic prompt when the note has no category.
func (e *Engine) Enrich(ctx context.Context, cfg settings.ServerConfig, req EnrichRequest) (EnrichResult, error) {
	model, err := validateModel(cfg)
	if err != nil {
		return EnrichResult{}, err
	}

	completer, err := e.factory(model)
	if err != nil {
		return EnrichResult{}, err
	}

	system := strings.TrimSpace(req.EnrichmentPrompt)
	if system == "" {
		system = cfg.GenericEnrichmentPrompt
	}

	user := buildEnrichUserPrompt(req)

	e.logger.Debug("requesting enrichment",
		"note_id", req.NoteID,
		"provider", model.Provider,
		"model", model.ModelName,
		"category_id", req.CategoryID,
	)

	raw, err := completer.Complete(ctx, system, user)
	if err != nil {
		return EnrichResult{}, fmt.Errorf("enrichment failed: %w", err)
	}

	text := strings.TrimSpace(stripCodeFences(raw))
	if text == "" {
		return EnrichResult{EnrichmentBlocks: []core.Block{}}, nil
	}

	content, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return EnrichResult{}, fmt.Errorf("encoding enrichment block: %w", err)
	}

	return EnrichResult{
		EnrichmentBlocks: []core.Block{{
			ID:        "enrich-" + ulid.Make().String(),
			Type:      "paragraph",
			Content:   content,
			CreatedAt: core.Timestamp(time.Now().UnixMilli()),
		}},
	}, nil
}

func buildCategorizeSystemPrompt(template string, refs []CategoryRef) string {
	lines := make([]string, 0, len(refs))
	for _, c := range refs {
		lines = append(lines, fmt.Sprintf("- %s: %s", c.ID, c.Name))
	}
	return strings.ReplaceAll(template, "{{ categories }}", strings.Join(lines, "\n"))
}

func buildCategorizeUserPrompt(req CategorizeRequest) string {
	created := time.UnixMilli(int64(req.CreatedAt)).UTC().Format(time.RFC3339)
	updated := time.UnixMilli(int64(req.UpdatedAt)).UTC().Format(time.RFC3339)

	return fmt.Sprintf(`Analyze the following note and categorize it. Return your response as a JSON object with two fields:
- "category": an array of category IDs (not names) from the available categories that best fit this note. Use the ID from the list above (e.g., if category is listed as "cat-123: Project Documentation", return "cat-123")
- "tags": an array of relevant tags (keywords) extracted from the content

Note Title: %s

Note Created: %s
Note Last Updated: %s

Note Content:
%s

Return ONLY a valid JSON object with no additional text.`, req.Title, created, updated, req.Content)
}

func buildEnrichUserPrompt(req EnrichRequest) string {
	return fmt.Sprintf(`Enrich the following note. Respond with a single paragraph of plain text and no formatting markers.

Note Title: %s

Note Content:
%s`, req.Title, req.Content)
}

// stripCodeFences unwraps responses from models that wrap JSON in markdown
// fences despite being told not to.
func stripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 && !strings.ContainsAny(trimmed[:idx], "{[") {
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
