package scrape

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/net/html"
)

// articleAdapter targets news-style pages: the headline plus the <article>
// (or <main>) body, with the surrounding chrome dropped.
type articleAdapter struct {
	client    *http.Client
	userAgent string
}

func newArticleAdapter(client *http.Client, userAgent string) *articleAdapter {
	return &articleAdapter{client: client, userAgent: userAgent}
}

func (a *articleAdapter) Scrape(ctx context.Context, link string) (string, error) {
	doc, err := fetchHTML(ctx, a.client, a.userAgent, link)
	if err != nil {
		return "", err
	}

	var parts []string
	if title := findFirst(doc, "h1"); title != nil {
		parts = append(parts, collapseWhitespace(nodeText(title)))
	}
	body := findFirst(doc, "article")
	if body == nil {
		body = findFirst(doc, "main")
	}
	if body != nil {
		parts = append(parts, collapseWhitespace(visibleText(body)))
	}
	if len(parts) == 0 {
		return collapseWhitespace(visibleText(doc)), nil
	}
	return strings.Join(parts, "\n\n"), nil
}

// findFirst returns the first element with the given tag, depth first.
func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}
