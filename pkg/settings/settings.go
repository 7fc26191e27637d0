// Package settings holds the application configuration shared between the
// editing client and the processing server: model credentials, categories
// available for classification, and the global AI prompts. Settings persist
// as one JSON document and merge onto defaults when loaded, so documents
// written by older versions stay readable.
package settings

import (
	"github.com/aretw0/opennote/pkg/core"
)

// Provider identifies which AI backend serves completion requests.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderOllama    Provider = "ollama"
	ProviderCustom    Provider = "custom"
)

// ModelConfiguration describes one model endpoint.
type ModelConfiguration struct {
	Provider  Provider `json:"provider"`
	ModelName string   `json:"modelName"`
	BaseURL   string   `json:"baseUrl,omitempty"`
	APIKey    string   `json:"apiKey,omitempty"`
}

// EditorSettings are client-side editing preferences. The server stores them
// untouched so clients can round-trip their state.
type EditorSettings struct {
	AutoSave         bool `json:"autoSave"`
	AutoSaveInterval int  `json:"autoSaveInterval"`
}

// Settings is the full persisted document.
type Settings struct {
	Theme    string `json:"theme"`
	FontSize string `json:"fontSize"`

	LanguageModel  *ModelConfiguration `json:"languageModel,omitempty"`
	EmbeddingModel *ModelConfiguration `json:"embeddingModel,omitempty"`

	Categories []core.Category `json:"categories"`

	GenericEnrichmentPrompt   string `json:"genericEnrichmentPrompt"`
	CategoryRecognitionPrompt string `json:"categoryRecognitionPrompt"`

	EditorSettings EditorSettings `json:"editorSettings"`

	LastSavedAt core.Timestamp `json:"lastSavedAt,omitempty"`
}

// ServerConfig is the subset of Settings the processing pipeline needs.
type ServerConfig struct {
	LanguageModel  *ModelConfiguration `json:"languageModel,omitempty"`
	EmbeddingModel *ModelConfiguration `json:"embeddingModel,omitempty"`

	Categories []core.Category `json:"categories"`

	GenericEnrichmentPrompt   string `json:"genericEnrichmentPrompt"`
	CategoryRecognitionPrompt string `json:"categoryRecognitionPrompt"`
}

const defaultGenericEnrichmentPrompt = "Enhance the note with relevant context, insights, and connections. Never modify the original intent or meaning - only add valuable insights."

const defaultCategoryRecognitionPrompt = `Analyze the note and determine which category it belongs to. Consider:
- Main topic and subject matter
- Keywords and terminology
- Context and purpose
- Related concepts

Return the category ID that best matches the note's content.

Available categories:
{{ categories }}`

// Defaults returns a fresh Settings document with every field populated.
func Defaults() Settings {
	return Settings{
		Theme:                     "system",
		FontSize:                  "md",
		Categories:                []core.Category{},
		GenericEnrichmentPrompt:   defaultGenericEnrichmentPrompt,
		CategoryRecognitionPrompt: defaultCategoryRecognitionPrompt,
		EditorSettings: EditorSettings{
			AutoSave:         true,
			AutoSaveInterval: 10,
		},
	}
}

// ServerConfig extracts the server-relevant subset.
func (s Settings) ServerConfig() ServerConfig {
	return ServerConfig{
		LanguageModel:             s.LanguageModel,
		EmbeddingModel:            s.EmbeddingModel,
		Categories:                s.Categories,
		GenericEnrichmentPrompt:   s.GenericEnrichmentPrompt,
		CategoryRecognitionPrompt: s.CategoryRecognitionPrompt,
	}
}

// Merge overlays an incoming partial update onto s. Zero-valued fields in the
// update keep the current value, so a client that only knows about appearance
// settings cannot blank out the AI configuration.
func (s Settings) Merge(update Update) Settings {
	merged := s
	if update.Theme != nil {
		merged.Theme = *update.Theme
	}
	if update.FontSize != nil {
		merged.FontSize = *update.FontSize
	}
	if update.LanguageModel != nil {
		merged.LanguageModel = update.LanguageModel
	}
	if update.EmbeddingModel != nil {
		merged.EmbeddingModel = update.EmbeddingModel
	}
	if update.Categories != nil {
		merged.Categories = *update.Categories
	}
	if update.GenericEnrichmentPrompt != nil && *update.GenericEnrichmentPrompt != "" {
		merged.GenericEnrichmentPrompt = *update.GenericEnrichmentPrompt
	}
	if update.CategoryRecognitionPrompt != nil && *update.CategoryRecognitionPrompt != "" {
		merged.CategoryRecognitionPrompt = *update.CategoryRecognitionPrompt
	}
	if update.EditorSettings != nil {
		merged.EditorSettings = *update.EditorSettings
	}
	return merged
}

// Update is a partial settings document, usually decoded from a client POST.
// Nil pointers mean "field absent, keep current".
type Update struct {
	Theme    *string `json:"theme"`
	FontSize *string `json:"fontSize"`

	LanguageModel  *ModelConfiguration `json:"languageModel"`
	EmbeddingModel *ModelConfiguration `json:"embeddingModel"`

	Categories *[]core.Category `json:"categories"`

	GenericEnrichmentPrompt   *string `json:"genericEnrichmentPrompt"`
	CategoryRecognitionPrompt *string `json:"categoryRecognitionPrompt"`

	EditorSettings *EditorSettings `json:"editorSettings"`
}
