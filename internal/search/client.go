// Package search implements the professional-search capability on top of
// a SerpAPI-compatible endpoint.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"helix/internal/logging"
)

const defaultBaseURL = "https://serpapi.com/search"

// Professional is one search hit.
type Professional struct {
	Name    string `json:"name"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
	Source  string `json:"source"`
}

// Results is the outcome of one professional search.
type Results struct {
	Query         string         `json:"query"`
	Professionals []Professional `json:"professionals"`
}

// ProfileDetails describes one professional's profile page.
type ProfileDetails struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Filters narrows a professional search. All fields are optional.
type Filters struct {
	Location   string
	Experience string
	Skills     string
	Company    string
}

// Client talks to a SerpAPI-compatible search endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a search client. An empty baseURL uses the public
// SerpAPI endpoint.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// serpResponse is the slice of the SerpAPI payload we consume.
type serpResponse struct {
	OrganicResults []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
		Source  string `json:"source"`
	} `json:"organic_results"`
	Error string `json:"error"`
}

// SearchProfessionals runs a web search for people matching the query and
// filters, and projects the organic results into professionals.
func (c *Client) SearchProfessionals(ctx context.Context, query string, filters Filters) (*Results, error) {
	searchQuery := buildQuery(query, filters)

	logging.Search("SearchProfessionals: query=%q", searchQuery)
	resp, err := c.get(ctx, map[string]string{
		"engine": "google",
		"q":      searchQuery,
		"num":    "10",
	})
	if err != nil {
		return nil, err
	}

	professionals := make([]Professional, 0, len(resp.OrganicResults))
	for _, r := range resp.OrganicResults {
		professionals = append(professionals, Professional{
			Name:    r.Title,
			Link:    r.Link,
			Snippet: r.Snippet,
			Source:  r.Source,
		})
	}
	logging.SearchDebug("SearchProfessionals: %d results for %q", len(professionals), searchQuery)

	return &Results{Query: searchQuery, Professionals: professionals}, nil
}

// GetProfileDetails fetches a summary of one professional's profile page
// via a site-restricted search. Missing results degrade to empty fields
// rather than an error.
func (c *Client) GetProfileDetails(ctx context.Context, profileURL string) (*ProfileDetails, error) {
	logging.Search("GetProfileDetails: url=%q", profileURL)
	resp, err := c.get(ctx, map[string]string{
		"engine": "google",
		"q":      "site:" + profileURL,
	})
	if err != nil {
		return nil, err
	}

	details := &ProfileDetails{URL: profileURL}
	if len(resp.OrganicResults) > 0 {
		details.Title = resp.OrganicResults[0].Title
		details.Content = resp.OrganicResults[0].Snippet
	} else {
		logging.SearchDebug("GetProfileDetails: no organic results for %q", profileURL)
	}
	return details, nil
}

func (c *Client) get(ctx context.Context, params map[string]string) (*serpResponse, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("search API key not configured")
	}

	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	values.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"?"+values.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search request failed with status %d: %s", httpResp.StatusCode, string(body))
	}

	var resp serpResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("search API error: %s", resp.Error)
	}
	return &resp, nil
}

// buildQuery folds the optional filters into a single search string.
func buildQuery(query string, f Filters) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(query))
	if f.Skills != "" {
		fmt.Fprintf(&b, " with %s skills", f.Skills)
	}
	if f.Experience != "" {
		fmt.Fprintf(&b, " with %s experience", f.Experience)
	}
	if f.Company != "" {
		fmt.Fprintf(&b, " at %s", f.Company)
	}
	if f.Location != "" {
		fmt.Fprintf(&b, " in %s", f.Location)
	}
	return b.String()
}
