// Package tables pulls structured data tables out of web pages so reports
// can reproduce them verbatim instead of paraphrasing numbers.
package tables

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/arpan/report-agent/backend/internal/models"
)

// extractTimeout bounds work per URL; a slow host forfeits its tables.
const extractTimeout = 10 * time.Second

var tableLabelPattern = regexp.MustCompile(`(?i)^table\s*\d+[.:]?\s*`)

// Extractor scans pages for <table> elements worth keeping.
type Extractor struct {
	client    *http.Client
	userAgent string
	log       *zap.Logger
}

func NewExtractor(userAgent string, log *zap.Logger) *Extractor {
	return &Extractor{
		client:    &http.Client{Timeout: extractTimeout},
		userAgent: userAgent,
		log:       log,
	}
}

// Run extracts tables from every URL. Slow or failing URLs contribute
// nothing; the batch itself never fails.
func (e *Extractor) Run(ctx context.Context, urls []string) []models.TableGroup {
	var groups []models.TableGroup
	for _, link := range urls {
		tables, err := e.extractURL(ctx, link)
		if err != nil {
			e.log.Warn("table extraction failed", zap.String("url", link), zap.Error(err))
			continue
		}
		if len(tables) > 0 {
			groups = append(groups, models.TableGroup{URL: link, Tables: tables})
		}
	}
	return groups
}

func (e *Extractor) extractURL(ctx context.Context, link string) ([]models.Table, error) {
	ctx, cancel := context.WithTimeout(ctx, extractTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, err
	}
	return FromDocument(doc), nil
}

// FromDocument walks a parsed page and returns its non-degenerate tables.
func FromDocument(doc *html.Node) []models.Table {
	var out []models.Table
	var walk func(n *html.Node, lastHeading string)
	walk = func(n *html.Node, lastHeading string) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "h1", "h2", "h3", "h4", "h5", "h6":
				lastHeading = cleanCell(textOf(n))
			case "table":
				if t, ok := parseTable(n, lastHeading); ok {
					out = append(out, t)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, lastHeading)
			if c.Type == html.ElementNode {
				switch c.Data {
				case "h1", "h2", "h3", "h4", "h5", "h6":
					lastHeading = cleanCell(textOf(c))
				}
			}
		}
	}
	walk(doc, "")
	return out
}

// parseTable flattens one <table>. Tables with at most one cell of content
// are noise and get dropped.
func parseTable(table *html.Node, nearestHeading string) (models.Table, bool) {
	var title string
	var rows [][]string
	var headerCells []string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "caption":
				title = cleanCell(textOf(n))
				return
			case "tr":
				cells, isHeader := parseRow(n)
				if len(cells) == 0 {
					return
				}
				if isHeader && headerCells == nil && len(rows) == 0 {
					headerCells = cells
				} else {
					rows = append(rows, cells)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(table)

	if title == "" {
		title = nearestHeading
	}
	title = tableLabelPattern.ReplaceAllString(title, "")

	t := models.Table{Title: title, Header: headerCells, Rows: rows}
	if degenerate(t) {
		return models.Table{}, false
	}
	return t, true
}

func parseRow(tr *html.Node) (cells []string, isHeader bool) {
	isHeader = true
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "th":
			cells = append(cells, cleanCell(textOf(c)))
		case "td":
			isHeader = false
			cells = append(cells, cleanCell(textOf(c)))
		}
	}
	if len(cells) == 0 {
		isHeader = false
	}
	return cells, isHeader
}

// degenerate reports whether a table carries too little content to keep: no
// rows at all, or a single row with a single cell. A single row with several
// cells still counts as data.
func degenerate(t models.Table) bool {
	total := len(t.Rows)
	if t.Header != nil {
		total++
	}
	if total == 0 {
		return true
	}
	if total == 1 {
		var only []string
		if t.Header != nil {
			only = t.Header
		} else {
			only = t.Rows[0]
		}
		return len(only) <= 1
	}
	return false
}

var numericPattern = regexp.MustCompile(`^[\s$€£%+-]*\d[\d,.\s%]*$`)

// IsNumeric reports whether a cell holds a numeric value, allowing common
// currency and percent decorations.
func IsNumeric(cell string) bool {
	return numericPattern.MatchString(strings.TrimSpace(cell))
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
			sb.WriteString(" ")
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func cleanCell(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
