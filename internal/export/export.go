// Package export renders finished reports into their deliverable formats
// and persists every artifact of a task side by side.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"path"

	"go.uber.org/zap"

	"github.com/arpan/report-agent/backend/internal/models"
)

// ObjectStore is the object storage surface the exporter needs.
type ObjectStore interface {
	Upload(ctx context.Context, objectPath string, data []byte, contentType string) error
	Download(ctx context.Context, objectPath string) ([]byte, error)
	Exists(ctx context.Context, objectPath string) (bool, error)
}

// Exporter writes the markdown, the rendered binary and the table dump of a
// report under the task's artifact directory.
type Exporter struct {
	store ObjectStore
	log   *zap.Logger
}

func NewExporter(store ObjectStore, log *zap.Logger) *Exporter {
	return &Exporter{store: store, log: log}
}

// Save persists one finished report. The markdown is always written first;
// a rendering failure is fatal because the caller promised a deliverable.
func (e *Exporter) Save(ctx context.Context, dirPath, reportType, format, markdown string, tables []models.TableGroup) (string, error) {
	mdPath := path.Join(dirPath, reportType+".md")
	if err := e.store.Upload(ctx, mdPath, []byte(markdown), "text/markdown"); err != nil {
		return "", fmt.Errorf("save markdown: %w", err)
	}

	htmlBody, err := markdownToHTML(markdown, tables)
	if err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}

	var artifact []byte
	var artifactPath, contentType string
	switch format {
	case models.FormatWord:
		artifact, err = renderWord(htmlBody)
		artifactPath = path.Join(dirPath, reportType+".doc")
		contentType = "application/msword"
	default:
		artifact, err = renderPDF(markdown, tables)
		artifactPath = path.Join(dirPath, reportType+".pdf")
		contentType = "application/pdf"
	}
	if err != nil {
		return "", fmt.Errorf("render %s: %w", format, err)
	}
	if err := e.store.Upload(ctx, artifactPath, artifact, contentType); err != nil {
		return "", fmt.Errorf("save %s: %w", format, err)
	}

	if len(tables) > 0 {
		if err := e.saveTables(ctx, dirPath, tables); err != nil {
			e.log.Warn("saving table dump failed", zap.Error(err))
		}
	}
	return artifactPath, nil
}

// Existing reports whether this task already has a rendered artifact.
func (e *Exporter) Existing(ctx context.Context, dirPath, reportType, format string) (string, bool) {
	ext := ".pdf"
	if format == models.FormatWord {
		ext = ".doc"
	}
	artifactPath := path.Join(dirPath, reportType+ext)
	ok, err := e.store.Exists(ctx, artifactPath)
	if err != nil {
		e.log.Warn("artifact existence check failed", zap.String("path", artifactPath), zap.Error(err))
		return "", false
	}
	if !ok {
		return "", false
	}
	return artifactPath, true
}

// ReadMarkdown loads a previously saved markdown report.
func (e *Exporter) ReadMarkdown(ctx context.Context, dirPath, reportType string) (string, error) {
	data, err := e.store.Download(ctx, path.Join(dirPath, reportType+".md"))
	if err != nil {
		return "", fmt.Errorf("read markdown: %w", err)
	}
	return string(data), nil
}

const tablesObject = "tables.json"

func (e *Exporter) saveTables(ctx context.Context, dirPath string, tables []models.TableGroup) error {
	data, err := json.Marshal(tables)
	if err != nil {
		return err
	}
	return e.store.Upload(ctx, path.Join(dirPath, tablesObject), data, "application/json")
}

// Load returns the cached table dump for a task, if one was saved by an
// earlier run. The dump is trusted as written.
func (e *Exporter) Load(ctx context.Context, dirPath string) ([]models.TableGroup, bool) {
	data, err := e.store.Download(ctx, path.Join(dirPath, tablesObject))
	if err != nil {
		return nil, false
	}
	var tables []models.TableGroup
	if err := json.Unmarshal(data, &tables); err != nil {
		e.log.Warn("corrupt table dump ignored", zap.String("dir", dirPath), zap.Error(err))
		return nil, false
	}
	return tables, len(tables) > 0
}

// SaveGroups persists the table dump outside of a full report save, used
// while research is still in flight.
func (e *Exporter) SaveGroups(ctx context.Context, dirPath string, tables []models.TableGroup) error {
	return e.saveTables(ctx, dirPath, tables)
}
