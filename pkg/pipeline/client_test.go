package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/opennote/pkg/ai"
)

func TestClient(t *testing.T) {
	ctx := context.Background()

	t.Run("Categorize Round Trip", func(t *testing.T) {
		var received ai.CategorizeRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/api/categorize", r.URL.Path)
			require.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			_ = json.NewEncoder(w).Encode(ai.CategorizeResult{Category: []string{"cat-1"}, Tags: []string{"work"}})
		}))
		defer srv.Close()

		client := NewClient(srv.URL+"/api", nil)
		result, err := client.Categorize(ctx, ai.CategorizeRequest{NoteID: "n1", Title: "T"})
		require.NoError(t, err)
		assert.Equal(t, "n1", received.NoteID)
		assert.Equal(t, []string{"cat-1"}, result.Category)
	})

	t.Run("Enrich Round Trip", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/api/enrich", r.URL.Path)
			_, _ = w.Write([]byte(`{"enrichmentBlocks":[{"id":"e1","type":"paragraph"}]}`))
		}))
		defer srv.Close()

		client := NewClient(srv.URL+"/api", nil)
		result, err := client.Enrich(ctx, ai.EnrichRequest{NoteID: "n1"})
		require.NoError(t, err)
		require.Len(t, result.EnrichmentBlocks, 1)
		assert.Equal(t, "e1", result.EnrichmentBlocks[0].ID)
	})

	t.Run("Bad Request Surfaces As Config Status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"API key is not configured"}`, http.StatusBadRequest)
		}))
		defer srv.Close()

		client := NewClient(srv.URL+"/api", nil)
		_, err := client.Categorize(ctx, ai.CategorizeRequest{})
		require.Error(t, err)

		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.True(t, statusErr.IsConfig())
		assert.Contains(t, statusErr.Body, "API key")
	})

	t.Run("Server Error Is Not Config", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		}))
		defer srv.Close()

		client := NewClient(srv.URL+"/api", nil)
		_, err := client.Enrich(ctx, ai.EnrichRequest{})
		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusBadGateway, statusErr.Status)
		assert.False(t, statusErr.IsConfig())
	})
}
