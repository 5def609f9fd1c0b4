package scrape

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/ledongthuc/pdf"
)

// pdfAdapter downloads a PDF and extracts its plain text.
type pdfAdapter struct {
	client    *http.Client
	userAgent string
}

func newPDFAdapter(client *http.Client, userAgent string) *pdfAdapter {
	return &pdfAdapter{client: client, userAgent: userAgent}
}

func (a *pdfAdapter) Scrape(ctx context.Context, link string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("http %d for %s", resp.StatusCode, link)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", link, err)
	}
	body, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text %s: %w", link, err)
	}
	var sb bytes.Buffer
	if _, err := io.Copy(&sb, body); err != nil {
		return "", err
	}
	return collapseWhitespace(sb.String()), nil
}
