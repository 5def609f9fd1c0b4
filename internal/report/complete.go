package report

import (
	"context"
	"strings"

	"github.com/arpan/report-agent/backend/internal/models"
	"github.com/arpan/report-agent/backend/internal/progress"
)

// completeStages are run in order; each contributes one section of a
// complete report.
var completeStages = []string{
	models.OutlineReport,
	models.ResourceReport,
	models.DetailedReport,
}

// generateComplete runs the outline, resource and detailed pipelines one
// after another and stitches their markdown together. Stages run
// sequentially because later stages benefit from the earlier stages' cached
// tables and artifacts.
func (r *Runner) generateComplete(ctx context.Context, task models.Task, checkExisting bool) (models.Result, error) {
	main := NewAgent(r.deps, AgentParams{
		OwnerID:      task.OwnerID,
		Query:        task.Query,
		Source:       task.Source,
		Format:       task.Format,
		ReportType:   task.ReportType,
		DirPath:      artifactDir(task.OwnerID, task.Query, task.Source),
		GenerationID: task.GenerationID,
	})

	if checkExisting {
		if path, ok := r.exporter.Existing(ctx, main.dirPath, task.ReportType, task.Format); ok {
			return r.handleExisting(ctx, main, path)
		}
	}

	var sections []string
	for _, stage := range completeStages {
		r.deps.Progress.Emit(task.GenerationID, progress.TypeStatus, "🚦 Starting "+stage+" stage...")

		stageTask := task
		stageTask.ReportType = stage
		res, err := r.Generate(ctx, stageTask, checkExisting)
		if err != nil {
			return models.Result{}, err
		}
		if res.Markdown != "" {
			sections = append(sections, res.Markdown)
		}
		main.MergeVisited(res.VisitedURLs)
		main.AddTables(res.Tables)
	}

	markdown := strings.TrimSpace(strings.Join(sections, "\n\n\n\n"))
	if markdown == "" {
		return models.Result{}, nil
	}
	return r.save(ctx, main, markdown)
}
