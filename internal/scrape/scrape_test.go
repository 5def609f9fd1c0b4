package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRunKeepsBatchAlignedWhenOneURLFails(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>useful content here</p></body></html>`))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	s := NewScraper("test-agent", zap.NewNop())
	urls := []string{good.URL, bad.URL, good.URL + "/other"}
	got := s.Run(context.Background(), urls)

	require.Len(t, got, 3)
	assert.Equal(t, good.URL, got[0].URL)
	assert.Contains(t, got[0].Raw, "useful content here")
	assert.Equal(t, bad.URL, got[1].URL)
	assert.Empty(t, got[1].Raw)
	assert.Contains(t, got[2].Raw, "useful content here")
}

func TestRunSurvivesMalformedPDF(t *testing.T) {
	// A truncated body with a corrupt xref drives the PDF parser into a
	// panic rather than an error; the batch must still come back.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%PDF-1.4\n1 0 obj\n<</Type/Catalog>>\nendobj\nxref\n0 2\n<deadbeef\ntrailer\n<</Root 1 0 R>>\nstartxref\n9\n%%EOF"))
	}))
	defer srv.Close()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>still standing</p></body></html>`))
	}))
	defer good.Close()

	s := NewScraper("test-agent", zap.NewNop())
	got := s.Run(context.Background(), []string{srv.URL + "/broken.pdf", good.URL})

	require.Len(t, got, 2)
	assert.Empty(t, got[0].Raw)
	assert.Contains(t, got[1].Raw, "still standing")
}

func TestWebAdapterSkipsChrome(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<nav>navigation junk</nav>
			<script>var x = 1;</script>
			<p>real text</p>
			<footer>footer junk</footer>
		</body></html>`))
	}))
	defer srv.Close()

	s := NewScraper("test-agent", zap.NewNop())
	got := s.Run(context.Background(), []string{srv.URL})

	require.Len(t, got, 1)
	assert.Contains(t, got[0].Raw, "real text")
	assert.NotContains(t, got[0].Raw, "navigation junk")
	assert.NotContains(t, got[0].Raw, "footer junk")
	assert.NotContains(t, got[0].Raw, "var x")
}

func TestAdapterForClassifiesURLs(t *testing.T) {
	s := NewScraper("test-agent", zap.NewNop())

	assert.Same(t, s.pdf, s.adapterFor("https://example.com/paper.PDF"))
	assert.Same(t, s.arxiv, s.adapterFor("https://arxiv.org/abs/2101.00001"))
	assert.Same(t, s.article, s.adapterFor("https://example.com/news/big-story"))
	assert.Same(t, s.article, s.adapterFor("https://example.com/article/123"))
	assert.Same(t, s.web, s.adapterFor("https://example.com/about"))
	assert.Same(t, s.web, s.adapterFor("::not a url::"))
}

func TestArxivIDFromURL(t *testing.T) {
	for link, want := range map[string]string{
		"https://arxiv.org/abs/2101.00001":    "2101.00001",
		"https://arxiv.org/pdf/2101.00001.pdf": "2101.00001",
		"https://arxiv.org/abs/2101.00001/":   "2101.00001",
	} {
		got, err := arxivID(link)
		require.NoError(t, err, link)
		assert.Equal(t, want, got)
	}
}

func TestCollapseWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", collapseWhitespace("  a \n\t b   c  "))
}
