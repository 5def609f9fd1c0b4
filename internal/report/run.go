package report

import (
	"context"
	"crypto/sha1"
	"fmt"
	"strings"

	"github.com/arpan/report-agent/backend/internal/models"
	"github.com/arpan/report-agent/backend/internal/progress"
)

// Exporter persists a finished report in every requested shape.
type Exporter interface {
	// Save writes the markdown, the binary rendering and the table dump
	// under dirPath and returns the binary artifact's path.
	Save(ctx context.Context, dirPath, reportType, format, markdown string, tables []models.TableGroup) (string, error)
	// Existing reports whether a rendered artifact for this task already
	// exists, returning its path when it does.
	Existing(ctx context.Context, dirPath, reportType, format string) (string, bool)
	// ReadMarkdown loads a previously saved markdown report.
	ReadMarkdown(ctx context.Context, dirPath, reportType string) (string, error)
}

// Runner executes report generation end to end for one task.
type Runner struct {
	deps     *Deps
	exporter Exporter
}

func NewRunner(deps *Deps, exporter Exporter) *Runner {
	return &Runner{deps: deps, exporter: exporter}
}

// Generate runs the pipeline matching the task's report type. An empty
// result with a nil error means research produced nothing worth saving.
func (r *Runner) Generate(ctx context.Context, task models.Task, checkExisting bool) (models.Result, error) {
	switch task.ReportType {
	case models.DetailedReport:
		return r.generateDetailed(ctx, task, checkExisting)
	case models.CompleteReport:
		return r.generateComplete(ctx, task, checkExisting)
	case models.ResearchReport, models.ResourceReport, models.OutlineReport, models.CustomReport:
		return r.generateBasic(ctx, task, checkExisting)
	default:
		return models.Result{}, fmt.Errorf("unknown report type %q", task.ReportType)
	}
}

// artifactDir derives the task's artifact directory. The same task and
// source always map to the same directory so re-runs can find earlier
// output.
func artifactDir(ownerID, query, source string) string {
	sum := sha1.Sum([]byte(strings.ToLower(strings.TrimSpace(query)) + "_" + source))
	return fmt.Sprintf("%s/report_outputs/%x", ownerID, sum)
}

// handleExisting loads a previously generated report instead of re-running
// research.
func (r *Runner) handleExisting(ctx context.Context, a *Agent, path string) (models.Result, error) {
	r.deps.Progress.Emit(a.generationID, progress.TypeStatus, "💎 Found existing report...")

	markdown, err := r.exporter.ReadMarkdown(ctx, a.dirPath, a.reportType)
	if err != nil {
		return models.Result{}, fmt.Errorf("read existing report: %w", err)
	}
	if cached, ok := r.deps.TableCache.Load(ctx, a.dirPath); ok {
		a.AddTables(cached)
	}
	r.deps.Progress.Emit(a.generationID, progress.TypePath, path)
	return models.Result{
		Markdown:     strings.TrimSpace(markdown),
		ArtifactPath: path,
		Tables:       a.Tables(),
		VisitedURLs:  a.VisitedURLs(),
	}, nil
}

// save renders and persists the report, emitting the final path.
func (r *Runner) save(ctx context.Context, a *Agent, markdown string) (models.Result, error) {
	r.deps.Progress.Emit(a.generationID, progress.TypeStatus, "💾 Saving report...")

	markdown = AddSourceURLs(markdown, a.VisitedURLs(), a.reportType, a.source)
	path, err := r.exporter.Save(ctx, a.dirPath, a.reportType, a.format, markdown, a.Tables())
	if err != nil {
		return models.Result{}, fmt.Errorf("save report: %w", err)
	}
	r.deps.Progress.Emit(a.generationID, progress.TypePath, path)
	return models.Result{
		Markdown:     markdown,
		ArtifactPath: path,
		Tables:       a.Tables(),
		VisitedURLs:  a.VisitedURLs(),
	}, nil
}
