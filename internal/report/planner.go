package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/arpan/report-agent/backend/internal/config"
	"github.com/arpan/report-agent/backend/internal/llm"
	"github.com/arpan/report-agent/backend/internal/models"
)

// maxSubtopics caps detailed-report fan-out regardless of what the model or
// the caller proposes.
const maxSubtopics = 10

// Planner turns a research task into personas, search queries and subtopic
// lists. Every model failure degrades to a safe default; planning never
// blocks a run.
type Planner struct {
	llm *llm.Client
	cfg *config.Config
	log *zap.Logger
}

func NewPlanner(client *llm.Client, cfg *config.Config, log *zap.Logger) *Planner {
	return &Planner{llm: client, cfg: cfg, log: log}
}

// ChooseAgent picks a persona that matches the task's domain. When the model
// response cannot be parsed, the generic research persona is used instead.
func (p *Planner) ChooseAgent(ctx context.Context, task string) (agent, role string) {
	resp, err := p.llm.Complete(ctx, llm.Request{
		Model: p.cfg.SmartLLMModel,
		Messages: []llm.Message{
			{Role: "system", Content: autoAgentInstructions()},
			{Role: "user", Content: "task: " + task},
		},
		Temperature: 0,
	}, nil)
	if err != nil {
		p.log.Warn("agent choice failed, using default", zap.Error(err))
		return defaultAgent, defaultRole
	}

	var choice struct {
		Agent string `json:"agent"`
		Role  string `json:"agent_role_prompt"`
	}
	if err := json.Unmarshal([]byte(extractJSON(resp)), &choice); err != nil || choice.Agent == "" || choice.Role == "" {
		p.log.Warn("unparseable agent choice, using default", zap.String("response", resp))
		return defaultAgent, defaultRole
	}
	return choice.Agent, choice.Role
}

// SubQueries expands the task into search queries. The task itself is not
// included; callers prepend it.
func (p *Planner) SubQueries(ctx context.Context, task, role string) ([]string, error) {
	maxIterations := p.cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = 1
	}
	// An unparsable response gets one full re-ask before the branch fails.
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		resp, err := p.llm.Complete(ctx, llm.Request{
			Model: p.cfg.SmartLLMModel,
			Messages: []llm.Message{
				{Role: "system", Content: role},
				{Role: "user", Content: searchQueriesPrompt(task, maxIterations)},
			},
			Temperature: 0,
		}, nil)
		if err != nil {
			return nil, fmt.Errorf("generate sub-queries: %w", err)
		}

		var queries []string
		if err := json.Unmarshal([]byte(extractJSONArray(resp)), &queries); err != nil {
			lastErr = fmt.Errorf("parse sub-queries from %q: %w", resp, err)
			p.log.Warn("unparseable sub-queries", zap.String("response", resp))
			continue
		}
		return queries, nil
	}
	return nil, lastErr
}

// ConstructSubtopics asks the model to organize the research data into report
// sections, retaining any caller-provided subtopics. On failure the provided
// list is returned unchanged. The result never exceeds maxSubtopics.
func (p *Planner) ConstructSubtopics(ctx context.Context, task, data, source string, provided []models.Subtopic) []models.Subtopic {
	resp, err := p.llm.Complete(ctx, llm.Request{
		Model: p.cfg.SmartLLMModel,
		Messages: []llm.Message{
			{Role: "user", Content: subtopicsPrompt(task, data, source, provided)},
		},
		Temperature: 0,
	}, nil)
	if err != nil {
		p.log.Warn("subtopic construction failed, keeping provided list", zap.Error(err))
		return capSubtopics(dedupeSubtopics(provided))
	}

	var parsed struct {
		Subtopics []models.Subtopic `json:"subtopics"`
	}
	if err := json.Unmarshal([]byte(extractJSON(resp)), &parsed); err != nil || len(parsed.Subtopics) == 0 {
		p.log.Warn("unparseable subtopics, keeping provided list", zap.String("response", resp))
		return capSubtopics(dedupeSubtopics(provided))
	}

	for i := range parsed.Subtopics {
		if parsed.Subtopics[i].Source == "" {
			parsed.Subtopics[i].Source = source
		}
	}
	return capSubtopics(dedupeSubtopics(parsed.Subtopics))
}

func dedupeSubtopics(in []models.Subtopic) []models.Subtopic {
	seen := make(map[string]int, len(in))
	var out []models.Subtopic
	for _, st := range in {
		key := strings.ToLower(strings.TrimSpace(st.Task))
		if key == "" {
			continue
		}
		// A repeated topic keeps its first position but the latest flags win.
		if i, ok := seen[key]; ok {
			out[i].Websearch = st.Websearch
			out[i].Source = st.Source
			continue
		}
		seen[key] = len(out)
		out = append(out, st)
	}
	return out
}

func capSubtopics(in []models.Subtopic) []models.Subtopic {
	if len(in) > maxSubtopics {
		return in[:maxSubtopics]
	}
	return in
}

// extractJSON trims everything around the outermost JSON object. Models wrap
// their output in prose or code fences more often than not.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}

func extractJSONArray(s string) string {
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}
