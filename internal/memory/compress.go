package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/arpan/report-agent/backend/internal/scrape"
)

const (
	chunkSize    = 1000
	chunkOverlap = 100

	// relevanceFloor drops chunks that merely mention a stray keyword.
	relevanceFloor = 0.38
)

// Compressor reduces a batch of scraped sources to the chunks most relevant
// to a query.
type Compressor struct {
	embedder Embedder
	log      *zap.Logger
}

func NewCompressor(embedder Embedder, log *zap.Logger) *Compressor {
	return &Compressor{embedder: embedder, log: log}
}

type scoredChunk struct {
	url   string
	text  string
	score float64
}

// GetContext chunks the sources, ranks every chunk against the query and
// returns the top maxResults above the relevance floor, each prefixed with
// its source URL. An empty string means nothing relevant was found.
func (c *Compressor) GetContext(ctx context.Context, query string, sources []scrape.Source, maxResults int) (string, error) {
	var chunks []scoredChunk
	for _, src := range sources {
		if strings.TrimSpace(src.Raw) == "" {
			continue
		}
		for _, piece := range splitText(src.Raw, chunkSize, chunkOverlap) {
			chunks = append(chunks, scoredChunk{url: src.URL, text: piece})
		}
	}
	if len(chunks) == 0 {
		return "", nil
	}

	texts := make([]string, 0, len(chunks)+1)
	texts = append(texts, query)
	for _, ch := range chunks {
		texts = append(texts, ch.text)
	}
	vectors, err := c.embedder.Embed(ctx, texts)
	if err != nil {
		return "", fmt.Errorf("embed context: %w", err)
	}

	queryVec := vectors[0]
	for i := range chunks {
		chunks[i].score = cosine(queryVec, vectors[i+1])
	}
	sort.SliceStable(chunks, func(i, j int) bool { return chunks[i].score > chunks[j].score })

	var kept []string
	for _, ch := range chunks {
		if ch.score < relevanceFloor {
			break
		}
		kept = append(kept, fmt.Sprintf("Source: %s\n%s", ch.url, ch.text))
		if len(kept) == maxResults {
			break
		}
	}
	c.log.Debug("context compressed",
		zap.Int("chunks", len(chunks)),
		zap.Int("kept", len(kept)))
	return strings.Join(kept, "\n\n"), nil
}

// splitText cuts s into overlapping chunks, preferring to break on sentence
// or word boundaries near the target size.
func splitText(s string, size, overlap int) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if len(s) <= size {
		return []string{s}
	}
	var out []string
	start := 0
	for start < len(s) {
		end := runeFloor(s, start+size)
		if end >= len(s) {
			out = append(out, strings.TrimSpace(s[start:]))
			break
		}
		cut := end
		if idx := strings.LastIndexAny(s[start:end], ".!?"); idx > size/2 {
			cut = start + idx + 1
		} else if idx := strings.LastIndex(s[start:end], " "); idx > size/2 {
			cut = start + idx
		}
		out = append(out, strings.TrimSpace(s[start:cut]))
		start = runeFloor(s, cut-overlap)
		if start < 0 {
			start = 0
		}
	}
	return out
}

// runeFloor moves i back to the nearest rune boundary so slicing never splits
// a multi-byte sequence.
func runeFloor(s string, i int) int {
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}
