package report

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arpan/report-agent/backend/internal/config"
	"github.com/arpan/report-agent/backend/internal/llm"
	"github.com/arpan/report-agent/backend/internal/models"
)

// fakeProvider routes every completion through a single respond function and
// counts calls.
type fakeProvider struct {
	respond func(req llm.Request) (string, error)

	mu    sync.Mutex
	calls int
}

func (f *fakeProvider) Complete(_ context.Context, req llm.Request, onChunk func(string)) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	text, err := f.respond(req)
	if err == nil && req.Stream && onChunk != nil {
		onChunk(text)
	}
	return text, err
}

func testConfig() *config.Config {
	return &config.Config{
		SmartLLMModel:            "smart-model",
		FastLLMModel:             "fast-model",
		SmartTokenLimit:          4000,
		MaxIterations:            3,
		MaxSearchResultsPerQuery: 5,
		ReportFormat:             "APA",
		TotalWords:               1000,
	}
}

func newTestPlanner(respond func(req llm.Request) (string, error)) (*Planner, *fakeProvider) {
	p := &fakeProvider{respond: respond}
	client := llm.NewClient(p, zap.NewNop())
	return NewPlanner(client, testConfig(), zap.NewNop()), p
}

func TestChooseAgentParsesResponse(t *testing.T) {
	planner, _ := newTestPlanner(func(llm.Request) (string, error) {
		return `Sure! {"agent": "💰 Finance Agent", "agent_role_prompt": "You are a finance analyst."}`, nil
	})
	agent, role := planner.ChooseAgent(context.Background(), "should I invest?")
	assert.Equal(t, "💰 Finance Agent", agent)
	assert.Equal(t, "You are a finance analyst.", role)
}

func TestChooseAgentFallsBackOnGarbage(t *testing.T) {
	planner, _ := newTestPlanner(func(llm.Request) (string, error) {
		return "I cannot answer that in JSON, sorry.", nil
	})
	agent, role := planner.ChooseAgent(context.Background(), "anything")
	assert.Equal(t, defaultAgent, agent)
	assert.Equal(t, defaultRole, role)
}

func TestChooseAgentFallsBackOnProviderFailure(t *testing.T) {
	planner, p := newTestPlanner(func(llm.Request) (string, error) {
		return "", fmt.Errorf("rate limited")
	})
	agent, role := planner.ChooseAgent(context.Background(), "anything")
	assert.Equal(t, defaultAgent, agent)
	assert.Equal(t, defaultRole, role)
	// Provider failures are retried before the fallback applies.
	assert.Equal(t, llm.MaxAttempts, p.calls)
}

func TestSubQueriesParsesWrappedArray(t *testing.T) {
	planner, _ := newTestPlanner(func(llm.Request) (string, error) {
		return "Here you go:\n[\"query one\", \"query two\", \"query three\"]", nil
	})
	got, err := planner.SubQueries(context.Background(), "topic", "role")
	require.NoError(t, err)
	assert.Equal(t, []string{"query one", "query two", "query three"}, got)
}

func TestSubQueriesRetriesOnceOnGarbage(t *testing.T) {
	planner, p := newTestPlanner(func(llm.Request) (string, error) {
		return "no list at all", nil
	})
	_, err := planner.SubQueries(context.Background(), "topic", "role")
	assert.Error(t, err)
	assert.Equal(t, 2, p.calls)
}

func TestSubQueriesRecoversOnRetry(t *testing.T) {
	planner, p := newTestPlanner(func(llm.Request) (string, error) {
		return "no list at all", nil
	})
	p.respond = func(llm.Request) (string, error) {
		if p.calls > 1 {
			return `["query one"]`, nil
		}
		return "no list at all", nil
	}
	got, err := planner.SubQueries(context.Background(), "topic", "role")
	require.NoError(t, err)
	assert.Equal(t, []string{"query one"}, got)
	assert.Equal(t, 2, p.calls)
}

func TestConstructSubtopicsCapsAtTen(t *testing.T) {
	planner, _ := newTestPlanner(func(llm.Request) (string, error) {
		out := `{"subtopics": [`
		for i := 0; i < 15; i++ {
			if i > 0 {
				out += ","
			}
			out += fmt.Sprintf(`{"task": "section %d", "websearch": true, "source": "external"}`, i)
		}
		return out + `]}`, nil
	})
	got := planner.ConstructSubtopics(context.Background(), "task", "data", models.SourceExternal, nil)
	assert.Len(t, got, maxSubtopics)
}

func TestConstructSubtopicsDedupes(t *testing.T) {
	planner, _ := newTestPlanner(func(llm.Request) (string, error) {
		return `{"subtopics": [
			{"task": "History", "websearch": true, "source": "external"},
			{"task": "history ", "websearch": false, "source": "my_documents"},
			{"task": "Outlook", "websearch": true, "source": "external"}
		]}`, nil
	})
	got := planner.ConstructSubtopics(context.Background(), "task", "data", models.SourceExternal, nil)
	require.Len(t, got, 2)
	assert.Equal(t, "History", got[0].Task)
	assert.Equal(t, "Outlook", got[1].Task)
	// The duplicate's flags replace the original's.
	assert.False(t, got[0].Websearch)
	assert.Equal(t, models.SourceDocuments, got[0].Source)
}

func TestConstructSubtopicsKeepsProvidedOnGarbage(t *testing.T) {
	provided := []models.Subtopic{
		{Task: "User section", Websearch: true, Source: models.SourceExternal},
	}
	planner, _ := newTestPlanner(func(llm.Request) (string, error) {
		return "not json", nil
	})
	got := planner.ConstructSubtopics(context.Background(), "task", "data", models.SourceExternal, provided)
	assert.Equal(t, provided, got)
}

func TestConstructSubtopicsFillsDefaultSource(t *testing.T) {
	planner, _ := newTestPlanner(func(llm.Request) (string, error) {
		return `{"subtopics": [{"task": "A", "websearch": true, "source": ""}]}`, nil
	})
	got := planner.ConstructSubtopics(context.Background(), "task", "data", models.SourceDocuments, nil)
	require.Len(t, got, 1)
	assert.Equal(t, models.SourceDocuments, got[0].Source)
}
