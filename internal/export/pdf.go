package export

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/jung-kurt/gofpdf/v2"

	"github.com/arpan/report-agent/backend/internal/models"
	"github.com/arpan/report-agent/backend/internal/tables"
)

const (
	pdfPageWidth  = 180.0
	pdfLineHeight = 5.5
)

var (
	inlineLinkPattern = regexp.MustCompile(`\[([^\]]*)\]\(([^)]*)\)`)
	inlineMarkPattern = regexp.MustCompile("[*_`]")
)

// renderPDF lays the markdown report out as an A4 document and appends the
// extracted tables as a final section.
func renderPDF(markdown string, groups []models.TableGroup) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AliasNbPages("{nb}")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "", 9)
		pdf.SetTextColor(108, 117, 125)
		pdf.SetX(15)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, line := range strings.Split(markdown, "\n") {
		writePDFLine(pdf, tr, line)
	}
	if len(groups) > 0 {
		writePDFTables(pdf, tr, groups)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("generate pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writePDFLine(pdf *gofpdf.Fpdf, tr func(string) string, line string) {
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		pdf.Ln(3)
	case strings.HasPrefix(trimmed, "#"):
		level := 0
		for level < len(trimmed) && trimmed[level] == '#' {
			level++
		}
		text := strings.TrimSpace(trimmed[level:])
		size := 20.0 - float64(level)*2
		if size < 11 {
			size = 11
		}
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", size)
		pdf.SetTextColor(33, 37, 41)
		pdf.MultiCell(pdfPageWidth, pdfLineHeight+2, tr(plainText(text)), "", "L", false)
		pdf.Ln(1)
	case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* "):
		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(33, 37, 41)
		pdf.MultiCell(pdfPageWidth, pdfLineHeight, tr("  • "+plainText(trimmed[2:])), "", "L", false)
	default:
		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(33, 37, 41)
		pdf.MultiCell(pdfPageWidth, pdfLineHeight, tr(plainText(trimmed)), "", "L", false)
	}
}

func writePDFTables(pdf *gofpdf.Fpdf, tr func(string) string, groups []models.TableGroup) {
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.SetTextColor(33, 37, 41)
	pdf.CellFormat(0, 10, "Data Tables", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	for _, group := range groups {
		pdf.SetFont("Arial", "I", 9)
		pdf.SetTextColor(108, 117, 125)
		pdf.MultiCell(pdfPageWidth, pdfLineHeight, tr("Source: "+group.URL), "", "L", false)
		pdf.Ln(1)

		for _, t := range group.Tables {
			if t.Title != "" {
				pdf.SetFont("Arial", "B", 11)
				pdf.SetTextColor(33, 37, 41)
				pdf.MultiCell(pdfPageWidth, pdfLineHeight, tr(t.Title), "", "L", false)
			}
			writePDFTable(pdf, tr, t)
			pdf.Ln(4)
		}
	}
}

func writePDFTable(pdf *gofpdf.Fpdf, tr func(string) string, t models.Table) {
	cols := len(t.Header)
	for _, row := range t.Rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	if cols == 0 {
		return
	}
	colWidth := pdfPageWidth / float64(cols)

	if len(t.Header) > 0 {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(248, 249, 250)
		for _, cell := range t.Header {
			pdf.CellFormat(colWidth, 7, tr(cell), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.SetFont("Arial", "", 9)
	for _, row := range t.Rows {
		for _, cell := range row {
			align := "L"
			if tables.IsNumeric(cell) {
				align = "R"
			}
			pdf.CellFormat(colWidth, 7, tr(cell), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
}

// plainText strips inline markdown so the PDF body reads cleanly.
func plainText(s string) string {
	s = inlineLinkPattern.ReplaceAllString(s, "$1 ($2)")
	return inlineMarkPattern.ReplaceAllString(s, "")
}
