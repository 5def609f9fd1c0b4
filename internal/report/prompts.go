package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/arpan/report-agent/backend/internal/models"
)

// defaultRole is the fallback persona used when the model cannot produce a
// parseable agent choice.
const (
	defaultAgent = "Default Agent"
	defaultRole  = "You are an AI critical thinker research assistant. Your sole purpose is to " +
		"write well written, critically acclaimed, objective and structured reports on given text."
)

func currentDate() string {
	return time.Now().Format("January 02, 2006")
}

func searchQueriesPrompt(question string, maxIterations int) string {
	return fmt.Sprintf(
		`Write %d google search queries to search online that form an objective opinion from the following: "%s"`+
			"Use the current date if needed: %s.\n"+
			`You must respond with a list of strings in the following format: ["query 1", "query 2", "query 3"].`,
		maxIterations, question, currentDate())
}

func autoAgentInstructions() string {
	return `
This task involves researching a given topic, regardless of its complexity or the availability of a definitive answer. The research is conducted by a specific agent, defined by its type and role, with each agent requiring distinct instructions.
Agent
The agent is determined by the field of the topic and the specific name of the agent that could be utilized to research the topic provided. Agents are categorized by their area of expertise, and each agent type is associated with a corresponding emoji.

examples:
task: "should I invest in apple stocks?"
response:
{
	"agent": "💰 Finance Agent",
	"agent_role_prompt": "You are a seasoned finance analyst AI assistant. Your primary goal is to compose comprehensive, astute, impartial, and methodically arranged financial reports based on provided data and trends."
}
task: "could reselling sneakers become profitable?"
response:
{
	"agent": "📈 Business Analyst Agent",
	"agent_role_prompt": "You are an experienced AI business analyst assistant. Your main objective is to produce comprehensive, insightful, impartial, and systematically structured business reports based on provided business data, market trends, and strategic analysis."
}
task: "what are the most interesting sites in Tel Aviv?"
response:
{
	"agent": "🌍 Travel Agent",
	"agent_role_prompt": "You are a world-travelled AI tour guide assistant. Your main purpose is to draft engaging, insightful, unbiased, and well-structured travel reports on given locations, including history, attractions, and cultural insights."
}
`
}

func researchReportPrompt(question, context, reportFormat string, totalWords int, source string) string {
	currentSource := "documents"
	sourceHyperlinks := ""
	sourceURL := ""
	if source == models.SourceExternal {
		currentSource = "urls"
		sourceHyperlinks = "\nAdditionally, you MUST include hyperlinks to the relevant URLs wherever they are referenced in the report :\n\neg:\n    # Report Header\n\n    This is a sample text. ([url website](url))\n"
		sourceURL = "(Each url in hyperlinked form : [url website](url))"
	}

	return fmt.Sprintf(`Information: """%s"""

Using the above information, answer the following query or task: "%s" in a detailed report --
The report should focus on the answer to the query, should be well structured, informative, in depth and comprehensive, with facts and numbers if available and a minimum of %d words.
You should strive to write the report as long as you can using all relevant and necessary information provided.
You must write the report with markdown syntax.
Use an unbiased and journalistic tone.
You MUST determine your own concrete and valid opinion based on the given information. Do NOT deter to general and meaningless conclusions.
All related numerical values (if any) should be bold.
You MUST write all used source %s%s at the end of the report as references, and make sure to not add duplicated sources, but only one reference for each.%s
You MUST write the report in %s format.
Cite search results using inline notations. Only cite the most relevant results that answer the query accurately. Place these citations at the end of the sentence or paragraph that reference them.
Please do your best, this is very important to my career. Assume that the current date is %s`,
		context, question, totalWords, currentSource, sourceURL, sourceHyperlinks, reportFormat, currentDate())
}

func resourceReportPrompt(question, context, reportFormat string, totalWords int, source string) string {
	currentSource := "documents"
	if source == models.SourceExternal {
		currentSource = "urls"
	}
	return fmt.Sprintf(`"""%s"""

Based on the above information, generate a bibliography recommendation report for the following question or topic: "%s". The report should provide a detailed analysis of each recommended resource, explaining how each source can contribute to finding answers to the research question.
Focus on the relevance, reliability, and significance of each source.
Ensure that the report is well-structured, informative, in-depth, and follows Markdown syntax.
Include relevant facts, figures, and numbers whenever available.
The report should have a minimum length of 700 words.
You MUST include all relevant source %s.`,
		context, question, currentSource)
}

func outlineReportPrompt(question, context, reportFormat string, totalWords int, source string) string {
	return fmt.Sprintf(`"""%s""" Using the above information, generate an outline for a research report in Markdown syntax for the following question or topic: "%s". The outline should provide a well-structured framework for the research report, including the main sections, subsections, and key points to be covered. The research report should be detailed, informative, in-depth, and a minimum of 1,200 words. Use appropriate Markdown syntax to format the outline and ensure readability.`,
		context, question)
}

func customReportPrompt(queryPrompt, context, reportFormat string, totalWords int, source string) string {
	return fmt.Sprintf("\"%s\"\n\n%s", context, queryPrompt)
}

func subtopicReportPrompt(currentSubtopic string, otherSubtopics []string, mainTopic, context, reportFormat string, totalWords int, source string) string {
	sourceHyperlinks := ""
	if source == models.SourceExternal {
		sourceHyperlinks = "\n- You MUST include hyperlinks to the relevant URLs wherever they are referenced in the report :\n\neg:\n    # Report Header\n\n    This is a sample text. ([url website](url))\n"
	}

	return fmt.Sprintf(`"""%s""" Using the above latest information, construct a detailed report on the subtopic: %s under the main topic: %s.
- The report should focus on the answer to the question, should be well structured, informative, in-depth, with facts and numbers if available, a minimum of %d words and with markdown syntax.
- As this report will be part of a bigger report, you must ONLY include the main body divided into suitable subtopics, without any introduction, conclusion, or reference section.%s
- All related numerical values (if any) should be bold.
- Also avoid including any details from these other subtopics: %s
- Ensure that you use smaller Markdown headers (e.g., H2 or H3) to structure your content and avoid using the largest Markdown header (H1). The H1 header will be used for the heading of the larger report later on.
- Do NOT include any details, urls or references where data is unavailable.
- Do NOT include any conclusion or summary section! - Do NOT include a conclusion or summary!
Assume that the current date is %s if required.`,
		context, currentSubtopic, mainTopic, totalWords, sourceHyperlinks,
		strings.Join(otherSubtopics, ", "), currentDate())
}

func introductionPrompt(question, researchSummary string) string {
	prompt := fmt.Sprintf(`Prepare a detailed report introduction on the topic -- %s.
- The introduction should be succinct, well-structured, informative with markdown syntax.
- As this introduction will be part of a larger report, do NOT include any other sections, which are generally present in a report.
- The introduction should be preceded by an H1 heading with a suitable topic for the entire report.
Assume that the current date is %s if required.`, question, currentDate())

	if researchSummary != "" {
		prompt = fmt.Sprintf(`"""%s""" Using the above latest information,`, researchSummary) + prompt
	}
	return prompt
}

func conclusionPrompt(question, researchSummary string) string {
	prompt := fmt.Sprintf(`Generate a detailed report conclusion, on the topic -- %s.
- The conclusion should be succinct, well-structured, informative with markdown syntax following APA format.
- Do NOT defer to general and meaningless conclusions.
- Since the conclusion will be part of a larger report, do not generate any other sections that are generally present in reports.
- Use a 'Conclusion' H2 header.
- If there are urls present, they MUST be hyperlinked.
Assume that the current date is %s if required.`, question, currentDate())

	if researchSummary != "" {
		prompt = fmt.Sprintf(`"""%s""" Using the above information,`, researchSummary) + prompt
	}
	return prompt
}

func subtopicsPrompt(task, data, source string, provided []models.Subtopic) string {
	var retained []string
	for _, st := range provided {
		retained = append(retained, fmt.Sprintf("{task: %q, source: %q}", st.Task, st.Source))
	}
	return fmt.Sprintf(`Provided the main topic:

%s

and research data:

%s

- Construct a list of subtopics which indicate the headers of a report document to be generated on the task.
- Default value of source: %s
- You MUST retain these subtopics along with their sources : [%s].
- There should NOT be any duplicate subtopics.
- Limit the number of subtopics to a maximum of %d (can be lower)
- Finally order the subtopics by their tasks, in a relevant and meaningful order which is presentable in a detailed report

You must respond with a JSON object in the following format:
{"subtopics": [{"task": "subtopic title", "websearch": true, "source": "external"}]}`,
		task, data, source, strings.Join(retained, ", "), maxSubtopics)
}
