package report

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/arpan/report-agent/backend/internal/config"
	"github.com/arpan/report-agent/backend/internal/llm"
	"github.com/arpan/report-agent/backend/internal/memory"
	"github.com/arpan/report-agent/backend/internal/models"
	"github.com/arpan/report-agent/backend/internal/progress"
	"github.com/arpan/report-agent/backend/internal/scrape"
	"github.com/arpan/report-agent/backend/internal/search"
	"github.com/arpan/report-agent/backend/internal/tables"
)

// maxContextResults bounds the ranked chunks kept per sub-query.
const maxContextResults = 8

// DocumentSearcher retrieves relevant chunks from a user's private corpus.
type DocumentSearcher interface {
	SimilarChunks(ctx context.Context, ownerID, query string, maxDocs int, scoreThreshold float64) (snippets, refs []string, err error)
}

// TableCache persists extracted tables next to a task's other artifacts so a
// re-run of the same task skips re-extraction.
type TableCache interface {
	Load(ctx context.Context, dirPath string) ([]models.TableGroup, bool)
	SaveGroups(ctx context.Context, dirPath string, groups []models.TableGroup) error
}

// Deps bundles the pipeline services shared by every agent of a run.
type Deps struct {
	LLM        *llm.Client
	Planner    *Planner
	Search     search.Provider
	Scraper    *scrape.Scraper
	Compressor *memory.Compressor
	Tables     *tables.Extractor
	TableCache TableCache
	Documents  DocumentSearcher
	Progress   progress.Sink
	Config     *config.Config
	Log        *zap.Logger
}

// Agent runs the research for one query: persona selection, context
// gathering and drafting. Detailed reports spawn one agent per subtopic.
type Agent struct {
	deps *Deps

	ownerID    string
	query      string
	source     string
	format     string
	reportType string
	dirPath    string

	// detailed-report fields
	parentQuery  string
	subtopics    []models.Subtopic
	generationID string

	inputURLs      []string
	restrictSearch bool

	agentName string
	role      string

	mu          sync.Mutex
	visited     map[string]struct{}
	context     []string
	tableGroups []models.TableGroup
}

// AgentParams configures a new agent.
type AgentParams struct {
	OwnerID        string
	Query          string
	Source         string
	Format         string
	ReportType     string
	DirPath        string
	ParentQuery    string
	Subtopics      []models.Subtopic
	GenerationID   string
	InputURLs      []string
	RestrictSearch bool
	Agent          string
	Role           string
}

func NewAgent(deps *Deps, p AgentParams) *Agent {
	return &Agent{
		deps:           deps,
		ownerID:        p.OwnerID,
		query:          p.Query,
		source:         p.Source,
		format:         p.Format,
		reportType:     p.ReportType,
		dirPath:        p.DirPath,
		parentQuery:    p.ParentQuery,
		subtopics:      p.Subtopics,
		generationID:   p.GenerationID,
		inputURLs:      p.InputURLs,
		restrictSearch: p.RestrictSearch,
		agentName:      p.Agent,
		role:           p.Role,
		visited:        make(map[string]struct{}),
	}
}

// researchOptions tune a ConductResearch call.
type researchOptions struct {
	maxDocs        int
	scoreThreshold float64
	writeReport    bool
}

func defaultResearchOptions() researchOptions {
	return researchOptions{maxDocs: 15, scoreThreshold: 1.2, writeReport: true}
}

// ConductResearch gathers context for the agent's query and, unless told
// otherwise, drafts the report. Failures degrade to an empty report rather
// than an error; the run decides what an empty body means.
func (a *Agent) ConductResearch(ctx context.Context, opts researchOptions) (string, error) {
	a.status(fmt.Sprintf("🔎 Running research for '%s'...", a.query))

	if a.agentName == "" || a.role == "" {
		a.agentName, a.role = a.deps.Planner.ChooseAgent(ctx, a.query)
		a.status(a.agentName)
		a.deps.Progress.Emit(a.generationID, progress.TypeLogs, a.agentName)
	}

	if a.source == models.SourceExternal {
		a.status("📂 Retrieving context from external search...")
		found, err := a.contextBySearch(ctx, a.query)
		if err != nil {
			a.deps.Log.Warn("external research failed", zap.String("query", a.query), zap.Error(err))
			return "", nil
		}
		a.appendContext(found...)
	} else {
		a.status("📂 Retrieving context from documents...")
		snippets, refs, err := a.deps.Documents.SimilarChunks(ctx, a.ownerID, a.query, opts.maxDocs, opts.scoreThreshold)
		if err != nil {
			a.deps.Log.Warn("document research failed", zap.String("query", a.query), zap.Error(err))
		}
		a.appendContext(snippets...)
		a.markVisited(refs)
	}

	if !opts.writeReport {
		return "", nil
	}
	return a.WriteReport(ctx)
}

// WriteReport drafts the report from the context accrued so far.
func (a *Agent) WriteReport(ctx context.Context) (string, error) {
	a.status(fmt.Sprintf("✍️ Writing %s for research task: %s...", a.reportType, a.query))

	role := a.role
	if a.reportType == models.CustomReport && a.deps.Config.AgentRole != "" {
		role = a.deps.Config.AgentRole
	}

	p := writeParams{
		query:      a.query,
		context:    a.contextString(),
		role:       role,
		reportType: a.reportType,
		source:     a.source,
	}
	if a.reportType == models.SubtopicReport {
		p.mainTopic = a.parentQuery
		for _, st := range a.subtopics {
			if strings.EqualFold(st.Task, a.query) || strings.EqualFold(st.Task, a.parentQuery) {
				continue
			}
			p.otherSubtopics = append(p.otherSubtopics, st.Task)
		}
	}
	return a.writeDraft(ctx, p)
}

// contextBySearch expands the query into sub-queries and researches them
// concurrently. A failed sub-query contributes nothing.
func (a *Agent) contextBySearch(ctx context.Context, query string) ([]string, error) {
	subQueries := []string{query}
	if a.reportType == models.SubtopicReport {
		subQueries = []string{fmt.Sprintf("%s - %s", a.parentQuery, query)}
	} else {
		more, err := a.deps.Planner.SubQueries(ctx, query, a.role)
		if err != nil {
			return nil, fmt.Errorf("plan sub-queries: %w", err)
		}
		subQueries = append(subQueries, more...)
	}
	a.deps.Progress.Emit(a.generationID, progress.TypeLogs,
		fmt.Sprintf("🧠 I will conduct my research based on the following queries: %s...", strings.Join(subQueries, ", ")))

	// Restricted runs scrape the provided URLs once and reuse them for
	// every sub-query.
	var cached []scrape.Source
	if a.restrictSearch {
		cached = a.scrapeSitesByQuery(ctx, "")
	}

	results := make([]string, len(subQueries))
	g, gctx := errgroup.WithContext(ctx)
	for i, sq := range subQueries {
		g.Go(func() error {
			a.status(fmt.Sprintf("🔎 Running research for '%s'...", sq))

			sites := cached
			if len(sites) == 0 {
				sites = a.scrapeSitesByQuery(gctx, sq)
			}
			if len(sites) == 0 {
				a.deps.Progress.Emit(a.generationID, progress.TypeLogs, "Failed to gather content for: "+sq)
				return nil
			}

			a.deps.Progress.Emit(a.generationID, progress.TypeLogs, fmt.Sprintf("📃 Getting relevant content based on query: %s...", sq))
			content, err := a.deps.Compressor.GetContext(gctx, sq, sites, maxContextResults)
			if err != nil {
				a.deps.Log.Warn("context compression failed", zap.String("query", sq), zap.Error(err))
				return nil
			}
			if content == "" {
				a.deps.Progress.Emit(a.generationID, progress.TypeLogs, "Failed to gather content for: "+sq)
				return nil
			}
			results[i] = content
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []string
	for _, r := range results {
		if r != "" {
			out = append(out, r)
		}
	}
	return out, nil
}

// scrapeSitesByQuery resolves the URLs for one sub-query and scrapes them.
// Input URLs always come first; web search adds more unless the run is
// restricted to the provided set.
func (a *Agent) scrapeSitesByQuery(ctx context.Context, subQuery string) []scrape.Source {
	urls := a.newURLs(a.inputURLs)

	if !a.restrictSearch {
		links, err := a.deps.Search.Search(ctx, subQuery, a.deps.Config.MaxSearchResultsPerQuery)
		if err != nil || len(links) == 0 {
			a.status("🚩 Failed to get search results for : " + subQuery)
			if err != nil {
				a.deps.Log.Warn("search failed", zap.String("query", subQuery), zap.Error(err))
			}
			if len(urls) == 0 {
				return nil
			}
		}
		found := make([]string, 0, len(links))
		for _, l := range links {
			found = append(found, l.URL)
		}
		urls = append(urls, a.newURLs(found)...)
	}
	if len(urls) == 0 {
		return nil
	}

	a.status("📊 Trying to extract tables...")
	a.extractTables(ctx, urls)

	a.status("🤔 Researching for relevant information...")
	a.deps.Progress.Emit(a.generationID, progress.TypeLogs, "🤔 Researching for relevant information...")
	return a.deps.Scraper.Run(ctx, urls)
}

// extractTables reuses cached tables for the task when present, otherwise
// extracts from the given URLs and caches the result.
func (a *Agent) extractTables(ctx context.Context, urls []string) {
	a.mu.Lock()
	already := len(a.tableGroups) > 0
	a.mu.Unlock()
	if already {
		return
	}

	if cached, ok := a.deps.TableCache.Load(ctx, a.dirPath); ok {
		a.mu.Lock()
		a.tableGroups = cached
		a.mu.Unlock()
		a.deps.Progress.Emit(a.generationID, progress.TypeLogs, fmt.Sprintf("💎 Found %d existing table group/s", len(cached)))
		return
	}

	groups := a.deps.Tables.Run(ctx, urls)
	if len(groups) == 0 {
		return
	}
	a.mu.Lock()
	a.tableGroups = append(a.tableGroups, groups...)
	snapshot := append([]models.TableGroup(nil), a.tableGroups...)
	a.mu.Unlock()

	if err := a.deps.TableCache.SaveGroups(ctx, a.dirPath, snapshot); err != nil {
		a.deps.Log.Warn("saving extracted tables failed", zap.Error(err))
	}
}

// newURLs filters out already-visited URLs and marks the remainder visited.
func (a *Agent) newURLs(candidates []string) []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []string
	for _, u := range candidates {
		if u == "" {
			continue
		}
		if _, ok := a.visited[u]; ok {
			continue
		}
		a.visited[u] = struct{}{}
		out = append(out, u)
		a.deps.Progress.Emit(a.generationID, progress.TypeLogs, "✅ Adding source url to research: "+u)
	}
	return out
}

func (a *Agent) markVisited(refs []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, r := range refs {
		a.visited[r] = struct{}{}
	}
}

func (a *Agent) appendContext(parts ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, p := range parts {
		if p != "" {
			a.context = append(a.context, p)
		}
	}
}

// SeedContext copies another agent's accrued context, used when a subtopic
// branch starts from the main task's research.
func (a *Agent) SeedContext(parent *Agent) {
	parent.mu.Lock()
	seed := append([]string(nil), parent.context...)
	parent.mu.Unlock()
	a.appendContext(seed...)
}

func (a *Agent) contextString() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return strings.Join(a.context, "\n\n")
}

func (a *Agent) hasContext() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.context) > 0
}

// VisitedURLs snapshots the visited set in sorted order.
func (a *Agent) VisitedURLs() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.visited))
	for u := range a.visited {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

// MergeVisited folds another agent's visited set into this one.
func (a *Agent) MergeVisited(urls []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, u := range urls {
		a.visited[u] = struct{}{}
	}
}

// Tables snapshots the table groups gathered so far.
func (a *Agent) Tables() []models.TableGroup {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]models.TableGroup(nil), a.tableGroups...)
}

// AddTables folds table groups from another agent into this one.
func (a *Agent) AddTables(groups []models.TableGroup) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tableGroups = append(a.tableGroups, groups...)
}

func (a *Agent) status(msg string) {
	a.deps.Progress.Emit(a.generationID, progress.TypeStatus, msg)
}
