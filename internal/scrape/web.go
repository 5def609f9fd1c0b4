package scrape

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/net/html"
)

// webAdapter loads a page and flattens its visible text.
type webAdapter struct {
	client    *http.Client
	userAgent string
}

func newWebAdapter(client *http.Client, userAgent string) *webAdapter {
	return &webAdapter{client: client, userAgent: userAgent}
}

func (a *webAdapter) Scrape(ctx context.Context, link string) (string, error) {
	doc, err := fetchHTML(ctx, a.client, a.userAgent, link)
	if err != nil {
		return "", err
	}
	return collapseWhitespace(visibleText(doc)), nil
}

func fetchHTML(ctx context.Context, client *http.Client, userAgent, link string) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http %d for %s", resp.StatusCode, link)
	}
	return html.Parse(resp.Body)
}

// visibleText walks the DOM collecting text nodes, skipping elements that
// never carry article content.
func visibleText(doc *html.Node) string {
	var sb strings.Builder
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "nav", "footer", "header", "aside", "form":
				return
			}
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)
	return sb.String()
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// nodeText flattens one subtree without element filtering.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var traverse func(*html.Node)
	traverse = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
			sb.WriteString(" ")
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(n)
	return sb.String()
}
