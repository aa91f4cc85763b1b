package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SearchClient calls a Tavily-compatible web search endpoint.
type SearchClient struct {
	url    string
	apiKey string
	http   *http.Client
}

func NewSearchClient(url, apiKey string) *SearchClient {
	return &SearchClient{
		url:    url,
		apiKey: apiKey,
		http:   &http.Client{Timeout: 15 * time.Second},
	}
}

type searchRequest struct {
	Query         string `json:"query"`
	MaxResults    int    `json:"max_results"`
	IncludeAnswer bool   `json:"include_answer"`
}

type searchResponse struct {
	Answer  string `json:"answer"`
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search returns a plain-text digest of the results for the model to read.
func (c *SearchClient) Search(ctx context.Context, query string, maxResults int) (string, error) {
	if maxResults <= 0 || maxResults > 10 {
		maxResults = 5
	}
	body, err := json.Marshal(searchRequest{Query: query, MaxResults: maxResults, IncludeAnswer: true})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("search API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", fmt.Errorf("decode search response: %w", err)
	}

	var b strings.Builder
	if sr.Answer != "" {
		fmt.Fprintf(&b, "Answer: %s\n\n", sr.Answer)
	}
	for i, r := range sr.Results {
		fmt.Fprintf(&b, "%d. %s\n%s\n%s\n\n", i+1, r.Title, r.URL, r.Content)
	}
	if b.Len() == 0 {
		return "No results found for " + query, nil
	}
	return strings.TrimSpace(b.String()), nil
}
