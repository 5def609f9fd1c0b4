package search

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"
)

// ddgRateLimit enforces a global rate limit of 1 query per second across all
// DuckDuckGo instances and goroutines.
var ddgRateLimit struct {
	mu   sync.Mutex
	last time.Time
}

// DuckDuckGo scrapes DuckDuckGo's HTML lite interface. Useful as a default
// because it needs no API key.
type DuckDuckGo struct {
	client *http.Client
}

func NewDuckDuckGo() *DuckDuckGo {
	return &DuckDuckGo{client: &http.Client{Timeout: 15 * time.Second}}
}

func (d *DuckDuckGo) Search(ctx context.Context, query string, maxResults int) ([]Link, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("duckduckgo: query is empty")
	}

	ddgRateLimit.mu.Lock()
	if wait := time.Until(ddgRateLimit.last.Add(time.Second)); wait > 0 {
		ddgRateLimit.mu.Unlock()
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		ddgRateLimit.mu.Lock()
	}
	ddgRateLimit.last = time.Now()
	ddgRateLimit.mu.Unlock()

	form := url.Values{}
	form.Set("q", query)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://lite.duckduckgo.com/lite/", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo read: %w", err)
	}
	return parseLiteResults(string(body), maxResults), nil
}

var (
	ddgLinkPattern  = regexp.MustCompile(`<a[^>]*class=['"]result-link['"][^>]*href=['"]([^'"]+)['"][^>]*>([^<]+)</a>`)
	ddgLinkPattern2 = regexp.MustCompile(`<a[^>]*href=['"]([^'"]+)['"][^>]*class=['"]result-link['"][^>]*>([^<]+)</a>`)
)

// parseLiteResults extracts result links from the DuckDuckGo lite HTML page.
func parseLiteResults(page string, maxResults int) []Link {
	matches := ddgLinkPattern.FindAllStringSubmatch(page, -1)
	if len(matches) == 0 {
		matches = ddgLinkPattern2.FindAllStringSubmatch(page, -1)
	}

	var links []Link
	for _, m := range matches {
		if len(m) < 3 {
			continue
		}
		href := strings.TrimSpace(m[1])
		title := html.UnescapeString(strings.TrimSpace(m[2]))
		if href == "" || title == "" || strings.Contains(href, "duckduckgo.com") {
			continue
		}
		links = append(links, Link{Title: title, URL: href})
		if len(links) >= maxResults {
			break
		}
	}
	return links
}
