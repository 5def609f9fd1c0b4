package report

import (
	"context"
	"strings"

	"github.com/arpan/report-agent/backend/internal/models"
	"github.com/arpan/report-agent/backend/internal/progress"
)

// generateBasic runs a single-pass report: one agent, one research phase,
// one draft. Covers research, resource, outline and custom reports.
func (r *Runner) generateBasic(ctx context.Context, task models.Task, checkExisting bool) (models.Result, error) {
	a := NewAgent(r.deps, AgentParams{
		OwnerID:        task.OwnerID,
		Query:          task.Query,
		Source:         task.Source,
		Format:         task.Format,
		ReportType:     task.ReportType,
		DirPath:        artifactDir(task.OwnerID, task.Query, task.Source),
		GenerationID:   task.GenerationID,
		InputURLs:      task.RestrictURLs,
		RestrictSearch: len(task.RestrictURLs) > 0,
	})

	if checkExisting {
		if path, ok := r.exporter.Existing(ctx, a.dirPath, task.ReportType, task.Format); ok {
			return r.handleExisting(ctx, a, path)
		}
	}

	r.deps.Progress.Emit(a.generationID, progress.TypeStatus, "🚦 Starting research...")

	markdown, err := a.ConductResearch(ctx, defaultResearchOptions())
	if err != nil {
		return models.Result{}, err
	}
	markdown = strings.TrimSpace(markdown)
	if markdown == "" || !a.hasContext() {
		r.deps.Progress.Emit(a.generationID, progress.TypeStatus, "🚩 Research produced no content")
		return models.Result{}, nil
	}
	return r.save(ctx, a, markdown)
}
