package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Report types understood by the pipeline. Anything not detailed/complete
// runs as a single-pass basic report.
const (
	ResearchReport = "research_report"
	ResourceReport = "resource_report"
	OutlineReport  = "outline_report"
	CustomReport   = "custom_report"
	SubtopicReport = "subtopic_report"
	DetailedReport = "detailed_report"
	CompleteReport = "complete_report"
)

// Report sources.
const (
	SourceExternal  = "external"
	SourceDocuments = "my_documents"
)

// Output formats.
const (
	FormatPDF  = "pdf"
	FormatWord = "word"
)

// Task is one user-issued request to produce a report. Immutable once issued
// except that subtopics may be appended by the planner.
type Task struct {
	OwnerID      string
	Query        string
	ReportType   string
	Source       string
	Format       string
	Subtopics    []Subtopic
	RestrictURLs []string
	GenerationID string
}

// Subtopic is a named section of a detailed report, researched and drafted
// independently. The main task is always retained as the first subtopic.
type Subtopic struct {
	Task      string `json:"task"      bson:"task"`
	Websearch bool   `json:"websearch" bson:"websearch"`
	Source    string `json:"source"    bson:"source"`
}

// Table is one extracted data table. Rows holds the value rows; Header the
// column names of the first parsed row.
type Table struct {
	Title  string     `json:"title"  bson:"title"`
	Header []string   `json:"header" bson:"header"`
	Rows   [][]string `json:"rows"   bson:"rows"`
}

// TableGroup collects the tables discovered on a single source URL.
type TableGroup struct {
	URL    string  `json:"url"    bson:"url"`
	Tables []Table `json:"tables" bson:"tables"`
}

// Result is the terminal output of one pipeline run. A failed or empty run
// carries zero values throughout.
type Result struct {
	Markdown     string       `json:"markdown"`
	ArtifactPath string       `json:"artifact_path"`
	Tables       []TableGroup `json:"tables"`
	VisitedURLs  []string     `json:"visited_urls"`
}

// ReportRecord is the metadata row stored in MongoDB for a generated report.
type ReportRecord struct {
	ID           primitive.ObjectID `json:"id"            bson:"_id,omitempty"`
	OwnerID      string             `json:"owner_id"      bson:"owner_id"`
	Task         string             `json:"task"          bson:"task"`
	ReportType   string             `json:"report_type"   bson:"report_type"`
	Source       string             `json:"source"        bson:"source"`
	Format       string             `json:"format"        bson:"format"`
	GenerationID string             `json:"generation_id" bson:"generation_id"`
	ArtifactPath string             `json:"artifact_path" bson:"artifact_path"`
	VisitedURLs  []string           `json:"visited_urls"  bson:"visited_urls"`
	CreatedAt    time.Time          `json:"created_at"    bson:"created_at"`
}

// GenerateRequest is the JSON body for POST /api/reports.
type GenerateRequest struct {
	Task          string     `json:"task"`
	ReportType    string     `json:"report_type"`
	Source        string     `json:"source"`
	Format        string     `json:"format"`
	Subtopics     []Subtopic `json:"subtopics"`
	RestrictURLs  []string   `json:"urls"`
	CheckExisting bool       `json:"check_existing"`
}
