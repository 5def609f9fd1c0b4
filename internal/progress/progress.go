// Package progress reports pipeline activity to whoever is watching a run.
package progress

import "go.uber.org/zap"

// Event types emitted during a run.
const (
	TypeLogs   = "logs"
	TypeReport = "report"
	TypeStatus = "status"
	TypePath   = "path"
)

// Sink receives run events: human-readable log lines, streamed report
// chunks, lifecycle status changes and the final artifact path. Every
// event carries the generation ID of the run that produced it so a
// consumer watching several runs can tell them apart.
type Sink interface {
	Emit(generationID, eventType, payload string)
}

// LogSink writes events to the structured log. It stands in wherever no
// live consumer is attached.
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Emit(generationID, eventType, payload string) {
	if eventType == TypeReport {
		// Streamed chunks are too chatty for the log.
		return
	}
	s.log.Info("progress",
		zap.String("generation_id", generationID),
		zap.String("type", eventType),
		zap.String("output", payload))
}

// Discard drops every event.
type Discard struct{}

func (Discard) Emit(string, string, string) {}
