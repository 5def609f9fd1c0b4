package export

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/arpan/report-agent/backend/internal/models"
	"github.com/arpan/report-agent/backend/internal/tables"
)

var markdownRenderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// markdownToHTML converts the report body and appends the extracted tables
// as a Data Tables section.
func markdownToHTML(markdown string, groups []models.TableGroup) (string, error) {
	var buf bytes.Buffer
	if err := markdownRenderer.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	buf.WriteString(tablesHTML(groups))
	return buf.String(), nil
}

// tablesHTML renders every extracted table, numeric cells right-aligned.
func tablesHTML(groups []models.TableGroup) string {
	if len(groups) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("<h2>Data Tables</h2>\n")
	for _, group := range groups {
		sb.WriteString(fmt.Sprintf("<p>Source: <a href=%q>%s</a></p>\n",
			group.URL, html.EscapeString(group.URL)))
		for _, t := range group.Tables {
			if t.Title != "" {
				sb.WriteString(fmt.Sprintf("<h3>%s</h3>\n", html.EscapeString(t.Title)))
			}
			sb.WriteString("<table>\n")
			if len(t.Header) > 0 {
				sb.WriteString("<tr>")
				for _, cell := range t.Header {
					sb.WriteString(fmt.Sprintf("<th>%s</th>", html.EscapeString(cell)))
				}
				sb.WriteString("</tr>\n")
			}
			for _, row := range t.Rows {
				sb.WriteString("<tr>")
				for _, cell := range row {
					align := ""
					if tables.IsNumeric(cell) {
						align = ` style="text-align:right"`
					}
					sb.WriteString(fmt.Sprintf("<td%s>%s</td>", align, html.EscapeString(cell)))
				}
				sb.WriteString("</tr>\n")
			}
			sb.WriteString("</table>\n")
		}
	}
	return sb.String()
}
