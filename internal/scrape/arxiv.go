package scrape

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// arxivAdapter fetches paper metadata from the arXiv export API instead of
// scraping the abstract page.
type arxivAdapter struct {
	client *http.Client
}

func newArxivAdapter(client *http.Client) *arxivAdapter {
	return &arxivAdapter{client: client}
}

type arxivFeed struct {
	Entries []struct {
		Title   string `xml:"title"`
		Summary string `xml:"summary"`
	} `xml:"entry"`
}

func (a *arxivAdapter) Scrape(ctx context.Context, link string) (string, error) {
	id, err := arxivID(link)
	if err != nil {
		return "", err
	}

	endpoint := "http://export.arxiv.org/api/query?id_list=" + url.QueryEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("arxiv api http %d for %s", resp.StatusCode, id)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return "", fmt.Errorf("decode arxiv feed: %w", err)
	}
	if len(feed.Entries) == 0 {
		return "", fmt.Errorf("no arxiv entry for %s", id)
	}
	entry := feed.Entries[0]
	return collapseWhitespace(entry.Title) + "\n\n" + collapseWhitespace(entry.Summary), nil
}

// arxivID pulls the paper identifier out of an abs/ or pdf/ URL.
func arxivID(link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", err
	}
	id := path.Base(strings.TrimSuffix(u.Path, "/"))
	id = strings.TrimSuffix(id, ".pdf")
	if id == "" || id == "." {
		return "", fmt.Errorf("no arxiv id in %s", link)
	}
	return id, nil
}
