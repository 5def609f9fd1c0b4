// Package search provides pluggable web-search providers. One provider is
// selected at configuration time; each exposes the same narrow capability.
package search

import (
	"context"
	"fmt"

	"github.com/arpan/report-agent/backend/internal/config"
)

// Link is one candidate source returned by a provider.
type Link struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Provider runs a single search query against one engine.
type Provider interface {
	Search(ctx context.Context, query string, maxResults int) ([]Link, error)
}

// New maps the configured retriever name to its implementation. The mapping
// is a closed table; unknown names are a configuration error.
func New(cfg *config.Config) (Provider, error) {
	switch cfg.Retriever {
	case "tavily":
		return NewTavily(cfg.TavilyAPIKey), nil
	case "duckduckgo":
		return NewDuckDuckGo(), nil
	case "serpapi":
		return NewSerpApi(cfg.SerpApiKey), nil
	default:
		return nil, fmt.Errorf("search: unknown retriever %q", cfg.Retriever)
	}
}
