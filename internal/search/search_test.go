package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arpan/report-agent/backend/internal/config"
)

func testSearchConfig(retriever string) *config.Config {
	return &config.Config{
		Retriever:    retriever,
		TavilyAPIKey: "key",
		SerpApiKey:   "key",
	}
}

func TestTavilyRequiresAPIKey(t *testing.T) {
	p := NewTavily("")
	_, err := p.Search(context.Background(), "query", 5)
	assert.Error(t, err)
}

func TestSerpApiRequiresAPIKey(t *testing.T) {
	p := NewSerpApi("")
	_, err := p.Search(context.Background(), "query", 5)
	assert.Error(t, err)
}

func TestDuckDuckGoRejectsEmptyQuery(t *testing.T) {
	p := NewDuckDuckGo()
	_, err := p.Search(context.Background(), "  ", 5)
	assert.Error(t, err)
}

func TestTavilyDecodesResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "climate policy", body["query"])
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]string{
				{"title": "A", "url": "https://a.example"},
				{"title": "B", "url": "https://b.example"},
				{"title": "C", "url": "https://c.example"},
			},
		})
	}))
	defer srv.Close()

	p := NewTavily("key")
	p.baseURL = srv.URL

	links, err := p.Search(context.Background(), "climate policy", 2)
	assert.NoError(t, err)
	assert.Len(t, links, 2)
	assert.Equal(t, "https://a.example", links[0].URL)
}
