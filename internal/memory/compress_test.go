package memory

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arpan/report-agent/backend/internal/scrape"
)

// keywordEmbedder gives texts containing the query keyword a vector close to
// the query and everything else an orthogonal one.
type keywordEmbedder struct {
	keyword string
}

func (e *keywordEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, tx := range texts {
		if strings.Contains(strings.ToLower(tx), e.keyword) {
			out[i] = []float32{1, 0}
		} else {
			out[i] = []float32{0, 1}
		}
	}
	return out, nil
}

func TestGetContextKeepsRelevantChunks(t *testing.T) {
	c := NewCompressor(&keywordEmbedder{keyword: "solar"}, zap.NewNop())

	sources := []scrape.Source{
		{URL: "https://a.example", Raw: "solar capacity grew fast last year"},
		{URL: "https://b.example", Raw: "unrelated text about cooking pasta"},
	}
	got, err := c.GetContext(context.Background(), "solar power growth", sources, 8)
	require.NoError(t, err)
	assert.Contains(t, got, "solar capacity grew")
	assert.Contains(t, got, "Source: https://a.example")
	assert.NotContains(t, got, "cooking pasta")
}

func TestGetContextEmptySources(t *testing.T) {
	c := NewCompressor(&keywordEmbedder{keyword: "x"}, zap.NewNop())

	got, err := c.GetContext(context.Background(), "anything", nil, 8)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = c.GetContext(context.Background(), "anything", []scrape.Source{{URL: "https://a", Raw: "   "}}, 8)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetContextHonorsMaxResults(t *testing.T) {
	c := NewCompressor(&keywordEmbedder{keyword: "topic"}, zap.NewNop())

	var sources []scrape.Source
	for i := 0; i < 5; i++ {
		sources = append(sources, scrape.Source{URL: "https://a.example", Raw: "topic fact number " + strings.Repeat("x", i)})
	}
	got, err := c.GetContext(context.Background(), "topic", sources, 2)
	require.NoError(t, err)
	assert.Len(t, strings.Split(got, "\n\n"), 2)
}

func TestSplitTextOverlap(t *testing.T) {
	long := strings.Repeat("One sentence here. ", 200)
	chunks := splitText(long, chunkSize, chunkOverlap)
	require.Greater(t, len(chunks), 1)
	for _, ch := range chunks {
		assert.LessOrEqual(t, len(ch), chunkSize)
		assert.NotEmpty(t, ch)
	}
}

// Unbroken multi-byte text has no sentence or word boundaries to cut on, so
// every forced cut must still land between runes.
func TestSplitTextKeepsRunesIntact(t *testing.T) {
	long := strings.Repeat("核融合発電の研究は進んでいる", 200)
	chunks := splitText(long, chunkSize, chunkOverlap)
	require.Greater(t, len(chunks), 1)
	for i, ch := range chunks {
		assert.True(t, utf8.ValidString(ch), "chunk %d is not valid UTF-8", i)
		assert.NotEmpty(t, ch)
	}
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, cosine([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Zero(t, cosine([]float32{1}, []float32{1, 2}))
	assert.Zero(t, cosine(nil, nil))
}
