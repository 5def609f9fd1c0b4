package report

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/arpan/report-agent/backend/internal/models"
)

// Header is one markdown heading with its level.
type Header struct {
	Level int
	Text  string
}

var (
	headerPattern  = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+?)\s*$`)
	ordinalPattern = regexp.MustCompile(`^(\d+[.)]|[ivxlcdmIVXLCDM]+[.)])\s+`)
)

// ExtractHeaders lists every markdown heading in order of appearance.
func ExtractHeaders(markdown string) []Header {
	matches := headerPattern.FindAllStringSubmatch(markdown, -1)
	headers := make([]Header, 0, len(matches))
	for _, m := range matches {
		headers = append(headers, Header{Level: len(m[1]), Text: strings.TrimSpace(m[2])})
	}
	return headers
}

// TableOfContents renders an indented bullet list of the report's headings,
// one indent step per heading level below the shallowest.
func TableOfContents(markdown string) string {
	headers := ExtractHeaders(markdown)
	if len(headers) == 0 {
		return ""
	}

	minLevel := headers[0].Level
	for _, h := range headers {
		if h.Level < minLevel {
			minLevel = h.Level
		}
	}

	var sb strings.Builder
	sb.WriteString("## Table of Contents\n\n")
	for _, h := range headers {
		indent := strings.Repeat("  ", h.Level-minLevel)
		sb.WriteString(fmt.Sprintf("%s- %s\n", indent, h.Text))
	}
	sb.WriteString("\n")
	return sb.String()
}

// StripOrdinalPrefix removes a leading "1." / "ii)" style numbering from a
// heading so outline sections can be reused as subtopic tasks.
func StripOrdinalPrefix(heading string) string {
	return strings.TrimSpace(ordinalPattern.ReplaceAllString(strings.TrimSpace(heading), ""))
}

// SubtopicsFromOutline reads the H2 sections of a rendered outline report as
// subtopic tasks.
func SubtopicsFromOutline(outlineMarkdown, source string) []models.Subtopic {
	var out []models.Subtopic
	for _, h := range ExtractHeaders(outlineMarkdown) {
		if h.Level != 2 {
			continue
		}
		task := StripOrdinalPrefix(h.Text)
		if task == "" {
			continue
		}
		out = append(out, models.Subtopic{Task: task, Websearch: true, Source: source})
	}
	return out
}

// AddSourceURLs appends a References section listing every visited source.
// Only the detailed and complete report types carry references; other types
// cite inline.
func AddSourceURLs(markdown string, urls []string, reportType, source string) string {
	if reportType != models.DetailedReport && reportType != models.CompleteReport {
		return markdown
	}
	if len(urls) == 0 {
		return markdown
	}

	var sb strings.Builder
	sb.WriteString(markdown)
	sb.WriteString("\n\n\n## References\n\n")
	for _, u := range urls {
		if source == models.SourceExternal {
			sb.WriteString(fmt.Sprintf("- [%s](%s)\n", u, u))
		} else {
			sb.WriteString(fmt.Sprintf("- %s\n", u))
		}
	}
	return sb.String()
}
