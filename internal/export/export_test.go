package export

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arpan/report-agent/backend/internal/models"
)

type memObjectStore struct {
	objects map[string][]byte
	types   map[string]string
	fail    bool
}

func newMemObjectStore() *memObjectStore {
	return &memObjectStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memObjectStore) Upload(_ context.Context, key string, data []byte, contentType string) error {
	if m.fail {
		return fmt.Errorf("upload refused")
	}
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memObjectStore) Download(_ context.Context, key string) ([]byte, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("no such object %s", key)
	}
	return data, nil
}

func (m *memObjectStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.objects[key]
	return ok, nil
}

var sampleTables = []models.TableGroup{{
	URL: "https://data.example/stats",
	Tables: []models.Table{{
		Title:  "Growth",
		Header: []string{"Year", "Rate"},
		Rows:   [][]string{{"2023", "4.2%"}, {"2024", "5.1%"}},
	}},
}}

func TestSaveWritesAllArtifacts(t *testing.T) {
	store := newMemObjectStore()
	e := NewExporter(store, zap.NewNop())

	path, err := e.Save(context.Background(), "owner/report_outputs/abc", "research_report",
		models.FormatPDF, "# Title\n\nBody text.", sampleTables)
	require.NoError(t, err)
	assert.Equal(t, "owner/report_outputs/abc/research_report.pdf", path)

	assert.Contains(t, store.objects, "owner/report_outputs/abc/research_report.md")
	assert.Contains(t, store.objects, "owner/report_outputs/abc/research_report.pdf")
	assert.Contains(t, store.objects, "owner/report_outputs/abc/tables.json")

	pdf := store.objects["owner/report_outputs/abc/research_report.pdf"]
	assert.True(t, strings.HasPrefix(string(pdf), "%PDF"))
}

func TestSaveWordFormat(t *testing.T) {
	store := newMemObjectStore()
	e := NewExporter(store, zap.NewNop())

	path, err := e.Save(context.Background(), "dir", "research_report",
		models.FormatWord, "# Title", nil)
	require.NoError(t, err)
	assert.Equal(t, "dir/research_report.doc", path)

	doc := string(store.objects["dir/research_report.doc"])
	assert.Contains(t, doc, "<html")
	assert.Contains(t, doc, "<h1>Title</h1>")
}

func TestSaveFailsWhenStoreRefuses(t *testing.T) {
	store := newMemObjectStore()
	store.fail = true
	e := NewExporter(store, zap.NewNop())

	_, err := e.Save(context.Background(), "dir", "research_report", models.FormatPDF, "# T", nil)
	assert.Error(t, err)
}

func TestExistingAndReadMarkdown(t *testing.T) {
	store := newMemObjectStore()
	e := NewExporter(store, zap.NewNop())

	_, ok := e.Existing(context.Background(), "dir", "detailed_report", models.FormatPDF)
	assert.False(t, ok)

	_, err := e.Save(context.Background(), "dir", "detailed_report", models.FormatPDF, "# Saved", nil)
	require.NoError(t, err)

	path, ok := e.Existing(context.Background(), "dir", "detailed_report", models.FormatPDF)
	assert.True(t, ok)
	assert.Equal(t, "dir/detailed_report.pdf", path)

	md, err := e.ReadMarkdown(context.Background(), "dir", "detailed_report")
	require.NoError(t, err)
	assert.Equal(t, "# Saved", md)
}

func TestTableCacheRoundTrip(t *testing.T) {
	store := newMemObjectStore()
	e := NewExporter(store, zap.NewNop())

	_, ok := e.Load(context.Background(), "dir")
	assert.False(t, ok)

	require.NoError(t, e.SaveGroups(context.Background(), "dir", sampleTables))

	got, ok := e.Load(context.Background(), "dir")
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "Growth", got[0].Tables[0].Title)
}

func TestTableCacheIgnoresCorruptDump(t *testing.T) {
	store := newMemObjectStore()
	store.objects["dir/tables.json"] = []byte("{broken")
	e := NewExporter(store, zap.NewNop())

	_, ok := e.Load(context.Background(), "dir")
	assert.False(t, ok)
}

func TestTablesHTMLAlignsNumericCells(t *testing.T) {
	out := tablesHTML(sampleTables)
	assert.Contains(t, out, "<h2>Data Tables</h2>")
	assert.Contains(t, out, "<th>Year</th>")
	assert.Contains(t, out, `<td style="text-align:right">2023</td>`)
	assert.Contains(t, out, `<td style="text-align:right">4.2%</td>`)

	assert.Empty(t, tablesHTML(nil))
}

func TestPlainTextStripsInlineMarkdown(t *testing.T) {
	assert.Equal(t, "bold and a link (https://x.example)",
		plainText("**bold** and [a link](https://x.example)"))
}
