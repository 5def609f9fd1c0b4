package report

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/arpan/report-agent/backend/internal/models"
	"github.com/arpan/report-agent/backend/internal/progress"
)

// generateDetailed fans the task out into subtopic reports and assembles
// them under a shared introduction, table of contents and conclusion.
func (r *Runner) generateDetailed(ctx context.Context, task models.Task, checkExisting bool) (models.Result, error) {
	main := NewAgent(r.deps, AgentParams{
		OwnerID:        task.OwnerID,
		Query:          task.Query,
		Source:         task.Source,
		Format:         task.Format,
		ReportType:     task.ReportType,
		DirPath:        artifactDir(task.OwnerID, task.Query, task.Source),
		Subtopics:      task.Subtopics,
		GenerationID:   task.GenerationID,
		InputURLs:      task.RestrictURLs,
		RestrictSearch: len(task.RestrictURLs) > 0,
	})

	if checkExisting {
		if path, ok := r.exporter.Existing(ctx, main.dirPath, task.ReportType, task.Format); ok {
			return r.handleExisting(ctx, main, path)
		}
	}

	// The main research pass gathers context for subtopic planning and the
	// framing sections without drafting anything yet.
	if _, err := main.ConductResearch(ctx, researchOptions{maxDocs: 15, scoreThreshold: 1.2, writeReport: false}); err != nil {
		return models.Result{}, err
	}

	subtopics := r.planSubtopics(ctx, main, task)

	body := r.runSubtopics(ctx, main, task, subtopics)
	if strings.TrimSpace(body) == "" {
		r.deps.Progress.Emit(task.GenerationID, progress.TypeStatus, "🚩 No subtopic produced any content")
		return models.Result{}, nil
	}

	intro, conclusion, err := main.WriteIntroductionConclusion(ctx)
	if err != nil {
		return models.Result{}, fmt.Errorf("frame detailed report: %w", err)
	}

	detailed := body + "\n\n" + conclusion
	detailed = intro + "\n\n" + TableOfContents(detailed) + detailed

	return r.save(ctx, main, strings.TrimSpace(detailed))
}

// planSubtopics builds the ordered subtopic list: an outline draft over the
// main research surfaces candidate sections, those merge with the caller's
// subtopics, and the planner normalizes the combined list. The main task
// always leads and the result is capped at maxSubtopics.
func (r *Runner) planSubtopics(ctx context.Context, main *Agent, task models.Task) []models.Subtopic {
	candidates := task.Subtopics
	outline, err := main.writeDraft(ctx, writeParams{
		query:      task.Query,
		context:    main.contextString(),
		role:       main.role,
		reportType: models.OutlineReport,
		source:     task.Source,
	})
	if err != nil {
		r.deps.Log.Warn("outline draft failed, planning from provided subtopics", zap.Error(err))
	} else {
		candidates = append(SubtopicsFromOutline(outline, task.Source), task.Subtopics...)
	}

	planned := r.deps.Planner.ConstructSubtopics(ctx, task.Query, main.contextString(), task.Source, candidates)

	lead := models.Subtopic{Task: task.Query, Websearch: true, Source: task.Source}
	ordered := []models.Subtopic{lead}
	for _, st := range planned {
		if !strings.EqualFold(strings.TrimSpace(st.Task), strings.TrimSpace(task.Query)) {
			ordered = append(ordered, st)
		}
	}
	return capSubtopics(ordered)
}

// runSubtopics researches every subtopic concurrently and joins the
// non-empty drafts in plan order. A failing subtopic is skipped, not fatal.
func (r *Runner) runSubtopics(ctx context.Context, main *Agent, task models.Task, subtopics []models.Subtopic) string {
	drafts := make([]string, len(subtopics))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, st := range subtopics {
		g.Go(func() error {
			r.deps.Progress.Emit(task.GenerationID, progress.TypeStatus,
				fmt.Sprintf("🚦 Conducting research on subtopic : %s...", st.Task))

			sub := NewAgent(r.deps, AgentParams{
				OwnerID:        task.OwnerID,
				Query:          st.Task,
				Source:         subtopicSource(st, task),
				Format:         task.Format,
				ReportType:     models.SubtopicReport,
				DirPath:        main.dirPath,
				ParentQuery:    task.Query,
				Subtopics:      subtopics,
				GenerationID:   task.GenerationID,
				RestrictSearch: main.restrictSearch,
				InputURLs:      task.RestrictURLs,
			})
			sub.SeedContext(main)

			var draft string
			var err error
			if main.restrictSearch {
				// Restricted runs reuse the seeded context as-is.
				draft, err = sub.WriteReport(gctx)
			} else {
				draft, err = sub.ConductResearch(gctx, researchOptions{maxDocs: 10, scoreThreshold: 1, writeReport: true})
			}
			if err != nil {
				r.deps.Log.Warn("subtopic failed", zap.String("subtopic", st.Task), zap.Error(err))
				return nil
			}
			draft = strings.TrimSpace(draft)
			if draft == "" {
				r.deps.Progress.Emit(task.GenerationID, progress.TypeLogs,
					"⚠️ Failed to gather data from research on subtopic : "+st.Task)
				return nil
			}

			mu.Lock()
			drafts[i] = draft
			mu.Unlock()

			main.MergeVisited(sub.VisitedURLs())
			main.AddTables(sub.Tables())
			return nil
		})
	}
	g.Wait()

	var sb strings.Builder
	for _, d := range drafts {
		if d == "" {
			continue
		}
		sb.WriteString("\n\n\n")
		sb.WriteString(d)
	}
	return sb.String()
}

func subtopicSource(st models.Subtopic, task models.Task) string {
	if st.Source != "" {
		return st.Source
	}
	return task.Source
}
