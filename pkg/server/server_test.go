package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/opennote/pkg/ai"
	"github.com/aretw0/opennote/pkg/core"
	"github.com/aretw0/opennote/pkg/settings"
)

type fixedCompleter struct {
	response string
	err      error
}

func (f *fixedCompleter) Complete(context.Context, string, string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func newTestServer(t *testing.T, completer ai.Completer, configured bool) (*Server, *settings.Manager) {
	t.Helper()

	manager := settings.NewManager(settings.NewFSAdapter(filepath.Join(t.TempDir(), "settings.json")), nil)
	if configured {
		model := settings.ModelConfiguration{
			Provider:  settings.ProviderOpenAI,
			ModelName: "gpt-4o-mini",
			APIKey:    "sk-test",
		}
		_, err := manager.Apply(context.Background(), settings.Update{LanguageModel: &model})
		require.NoError(t, err)
	}

	engine := ai.NewEngine(nil, ai.WithCompleterFactory(func(settings.ModelConfiguration) (ai.Completer, error) {
		return completer, nil
	}))

	return New(Config{Manager: manager, Engine: engine}), manager
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, &fixedCompleter{}, false)
	rec := doJSON(t, srv, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCategorizeEndpoint(t *testing.T) {
	body := ai.CategorizeRequest{
		NoteID:     "n1",
		Title:      "Standup",
		Content:    "Release plan",
		Categories: []ai.CategoryRef{{ID: "cat-1", Name: "Work"}},
	}

	t.Run("Success", func(t *testing.T) {
		srv, _ := newTestServer(t, &fixedCompleter{response: `{"category":["cat-1"],"tags":["Release Plan"]}`}, true)
		rec := doJSON(t, srv, http.MethodPost, "/api/categorize", body)
		require.Equal(t, http.StatusOK, rec.Code)

		var result ai.CategorizeResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, []string{"cat-1"}, result.Category)
		assert.Equal(t, []string{"release-plan"}, result.Tags)
	})

	t.Run("Missing Model Config Is 400", func(t *testing.T) {
		srv, _ := newTestServer(t, &fixedCompleter{}, false)
		rec := doJSON(t, srv, http.MethodPost, "/api/categorize", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "MISSING_CONFIG", resp.Code)
		assert.Contains(t, resp.Error, "API key")
	})

	t.Run("Provider Failure Is 502", func(t *testing.T) {
		srv, _ := newTestServer(t, &fixedCompleter{err: errors.New("connection refused")}, true)
		rec := doJSON(t, srv, http.MethodPost, "/api/categorize", body)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("Malformed Body Is 400", func(t *testing.T) {
		srv, _ := newTestServer(t, &fixedCompleter{}, true)
		req := httptest.NewRequest(http.MethodPost, "/api/categorize", bytes.NewBufferString("{not json"))
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestEnrichEndpoint(t *testing.T) {
	body := ai.EnrichRequest{NoteID: "n1", Title: "Sourdough", Content: "Fed the starter"}

	t.Run("Success", func(t *testing.T) {
		srv, _ := newTestServer(t, &fixedCompleter{response: "Starters need regular feeding."}, true)
		rec := doJSON(t, srv, http.MethodPost, "/api/enrich", body)
		require.Equal(t, http.StatusOK, rec.Code)

		var result ai.EnrichResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		require.Len(t, result.EnrichmentBlocks, 1)
		assert.Equal(t, "paragraph", result.EnrichmentBlocks[0].Type)
	})

	t.Run("Missing Model Config Is 400", func(t *testing.T) {
		srv, _ := newTestServer(t, &fixedCompleter{}, false)
		rec := doJSON(t, srv, http.MethodPost, "/api/enrich", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSettingsEndpoints(t *testing.T) {
	t.Run("Get Returns Server Subset", func(t *testing.T) {
		srv, _ := newTestServer(t, &fixedCompleter{}, true)
		rec := doJSON(t, srv, http.MethodGet, "/api/settings", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var cfg settings.ServerConfig
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
		require.NotNil(t, cfg.LanguageModel)
		assert.Equal(t, "gpt-4o-mini", cfg.LanguageModel.ModelName)
	})

	t.Run("Post Merges Onto Current Document", func(t *testing.T) {
		srv, manager := newTestServer(t, &fixedCompleter{}, true)

		update := map[string]any{
			"categories": []core.Category{{ID: "cat-1", Name: "Work", Color: "blue"}},
		}
		rec := doJSON(t, srv, http.MethodPost, "/api/settings", update)
		require.Equal(t, http.StatusOK, rec.Code)

		cfg := manager.Config(context.Background())
		require.Len(t, cfg.Categories, 1)
		require.NotNil(t, cfg.LanguageModel, "fields absent from the update survive")
		assert.Equal(t, "sk-test", cfg.LanguageModel.APIKey)
	})

	t.Run("Reload Rereads From Disk", func(t *testing.T) {
		srv, manager := newTestServer(t, &fixedCompleter{}, true)

		adapter := settings.NewFSAdapter(manager.Path())
		doc, err := adapter.Load(context.Background())
		require.NoError(t, err)
		doc.Theme = "dark"
		require.NoError(t, adapter.Save(context.Background(), doc))

		rec := doJSON(t, srv, http.MethodPost, "/api/settings/reload", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "dark", manager.Settings(context.Background()).Theme)
	})

	t.Run("Info Names The Settings Path", func(t *testing.T) {
		srv, manager := newTestServer(t, &fixedCompleter{}, false)
		rec := doJSON(t, srv, http.MethodGet, "/api/settings/info", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var info map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
		assert.Equal(t, manager.Path(), info["settingsPath"])
	})
}
