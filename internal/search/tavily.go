package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Tavily calls the Tavily search API.
type Tavily struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewTavily(apiKey string) *Tavily {
	return &Tavily{
		apiKey:  apiKey,
		baseURL: "https://api.tavily.com",
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *Tavily) Search(ctx context.Context, query string, maxResults int) ([]Link, error) {
	if strings.TrimSpace(t.apiKey) == "" {
		return nil, errors.New("tavily: API key is missing")
	}

	payload, err := json.Marshal(map[string]any{
		"query":       query,
		"api_key":     t.apiKey,
		"max_results": maxResults,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		t.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily http %d", resp.StatusCode)
	}

	var response struct {
		Results []struct {
			Title string `json:"title"`
			URL   string `json:"url"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, err
	}

	links := make([]Link, 0, len(response.Results))
	for _, r := range response.Results {
		links = append(links, Link{Title: r.Title, URL: r.URL})
		if len(links) >= maxResults {
			break
		}
	}
	return links, nil
}
