package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SerpApi queries the SerpApi aggregation service.
type SerpApi struct {
	apiKey string
	client *http.Client
}

func NewSerpApi(apiKey string) *SerpApi {
	return &SerpApi{apiKey: apiKey, client: &http.Client{Timeout: 10 * time.Second}}
}

func (s *SerpApi) Search(ctx context.Context, query string, maxResults int) ([]Link, error) {
	if strings.TrimSpace(s.apiKey) == "" {
		return nil, errors.New("serpapi: API key is missing")
	}

	params := url.Values{}
	params.Set("engine", "duckduckgo")
	params.Set("q", query)
	params.Set("api_key", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://serpapi.com/search.json?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serpapi http %d", resp.StatusCode)
	}

	var response struct {
		OrganicResults []struct {
			Title string `json:"title"`
			Link  string `json:"link"`
		} `json:"organic_results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, err
	}

	links := make([]Link, 0, len(response.OrganicResults))
	for _, r := range response.OrganicResults {
		links = append(links, Link{Title: r.Title, URL: r.Link})
		if len(links) >= maxResults {
			break
		}
	}
	return links, nil
}
