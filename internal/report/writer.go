package report

import (
	"context"
	"fmt"

	"github.com/arpan/report-agent/backend/internal/llm"
	"github.com/arpan/report-agent/backend/internal/models"
	"github.com/arpan/report-agent/backend/internal/progress"
)

// writeParams carries everything a single report draft needs.
type writeParams struct {
	query      string
	context    string
	role       string
	reportType string
	source     string
	// subtopic drafts only
	mainTopic      string
	otherSubtopics []string
}

// writeDraft renders one report body through the model, streaming paragraphs
// to the sink as they arrive.
func (a *Agent) writeDraft(ctx context.Context, p writeParams) (string, error) {
	var content string
	switch p.reportType {
	case models.ResearchReport:
		content = researchReportPrompt(p.query, p.context, a.deps.Config.ReportFormat, a.deps.Config.TotalWords, p.source)
	case models.ResourceReport:
		content = resourceReportPrompt(p.query, p.context, a.deps.Config.ReportFormat, a.deps.Config.TotalWords, p.source)
	case models.OutlineReport:
		content = outlineReportPrompt(p.query, p.context, a.deps.Config.ReportFormat, a.deps.Config.TotalWords, p.source)
	case models.CustomReport:
		content = customReportPrompt(p.query, p.context, a.deps.Config.ReportFormat, a.deps.Config.TotalWords, p.source)
	case models.SubtopicReport:
		content = subtopicReportPrompt(p.query, p.otherSubtopics, p.mainTopic, p.context, a.deps.Config.ReportFormat, a.deps.Config.TotalWords, p.source)
	default:
		return "", fmt.Errorf("unknown report type %q", p.reportType)
	}

	text, err := a.deps.LLM.Complete(ctx, llm.Request{
		Model: a.deps.Config.SmartLLMModel,
		Messages: []llm.Message{
			{Role: "system", Content: p.role},
			{Role: "user", Content: content},
		},
		Temperature: 0,
		MaxTokens:   a.deps.Config.SmartTokenLimit,
		Stream:      true,
	}, func(chunk string) {
		a.deps.Progress.Emit(a.generationID, progress.TypeReport, chunk)
	})
	if err != nil {
		return "", fmt.Errorf("write %s: %w", p.reportType, err)
	}
	return text, nil
}

// WriteIntroductionConclusion drafts the framing sections of a detailed
// report from the main task's research context.
func (a *Agent) WriteIntroductionConclusion(ctx context.Context) (intro, conclusion string, err error) {
	summary := a.contextString()

	intro, err = a.deps.LLM.Complete(ctx, llm.Request{
		Model: a.deps.Config.SmartLLMModel,
		Messages: []llm.Message{
			{Role: "system", Content: a.role},
			{Role: "user", Content: introductionPrompt(a.query, summary)},
		},
		Temperature: 0,
		MaxTokens:   a.deps.Config.SmartTokenLimit,
	}, nil)
	if err != nil {
		return "", "", fmt.Errorf("write introduction: %w", err)
	}

	conclusion, err = a.deps.LLM.Complete(ctx, llm.Request{
		Model: a.deps.Config.SmartLLMModel,
		Messages: []llm.Message{
			{Role: "system", Content: a.role},
			{Role: "user", Content: conclusionPrompt(a.query, summary)},
		},
		Temperature: 0,
		MaxTokens:   a.deps.Config.SmartTokenLimit,
	}, nil)
	if err != nil {
		return "", "", fmt.Errorf("write conclusion: %w", err)
	}
	return intro, conclusion, nil
}
