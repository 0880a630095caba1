package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-key", srv.URL, 5*time.Second)
}

func TestSearchProfessionals(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		assert.Equal(t, "google", r.URL.Query().Get("engine"))
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "10", r.URL.Query().Get("num"))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"organic_results": []map[string]string{
				{"title": "Jordan Lee", "link": "https://example.com/jordan", "snippet": "Staff engineer", "source": "example.com"},
				{"title": "Sam Cruz", "link": "https://example.com/sam", "snippet": "Founding engineer", "source": "example.com"},
			},
		})
	})

	results, err := client.SearchProfessionals(context.Background(), "founding engineers", Filters{Location: "San Francisco"})
	require.NoError(t, err)
	assert.Equal(t, "founding engineers in San Francisco", gotQuery)
	require.Len(t, results.Professionals, 2)
	assert.Equal(t, "Jordan Lee", results.Professionals[0].Name)
	assert.Equal(t, "https://example.com/sam", results.Professionals[1].Link)
}

func TestSearchQueryFolding(t *testing.T) {
	q := buildQuery("designers", Filters{
		Skills:     "Figma",
		Experience: "senior",
		Company:    "startups",
		Location:   "Berlin",
	})
	assert.Equal(t, "designers with Figma skills with senior experience at startups in Berlin", q)
}

func TestSearchEmptyResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	results, err := client.SearchProfessionals(context.Background(), "quantum poets", Filters{})
	require.NoError(t, err)
	assert.Empty(t, results.Professionals)
}

func TestSearchAPIErrorSurfaced(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "Invalid API key"}`))
	})

	_, err := client.SearchProfessionals(context.Background(), "designers", Filters{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid API key")
}

func TestGetProfileDetails(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "site:https://example.com/jordan", r.URL.Query().Get("q"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"organic_results": []map[string]string{
				{"title": "Jordan Lee - Staff Engineer", "snippet": "Distributed systems, conference speaker"},
			},
		})
	})

	details, err := client.GetProfileDetails(context.Background(), "https://example.com/jordan")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/jordan", details.URL)
	assert.Equal(t, "Jordan Lee - Staff Engineer", details.Title)
	assert.Contains(t, details.Content, "Distributed systems")
}

func TestGetProfileDetailsNoResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"organic_results": []}`))
	})

	details, err := client.GetProfileDetails(context.Background(), "https://example.com/ghost")
	require.NoError(t, err)
	assert.Empty(t, details.Content)
	assert.Empty(t, details.Title)
}

func TestMissingAPIKey(t *testing.T) {
	client := NewClient("", "", time.Second)
	_, err := client.SearchProfessionals(context.Background(), "anyone", Filters{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}
