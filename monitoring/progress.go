package monitoring

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ProgressTracker records what an import run did, collection by collection.
// The run is sequential so no locking is needed.
type ProgressTracker struct {
	collections      []string
	counts           map[string]int
	totalCollections int
	currentStep      string
	startTime        time.Time
	warnings         []string
	errors           []string
	now              func() time.Time
}

// struct holding import metrics
type ImportMetrics struct {
	Counts               map[string]int `json:"counts"`
	Collections          []string       `json:"collections"`
	TotalDocuments       int            `json:"total_documents"`
	TotalCollections     int            `json:"total_collections"`
	ProcessedCollections int            `json:"processed_collections"`
	ElapsedTime          time.Duration  `json:"elapsed_time"`
	CurrentStep          string         `json:"current_step"`
	WarningCount         int            `json:"warning_count"`
	ErrorCount           int            `json:"error_count"`
}

func NewProgressTracker(totalCollections int) *ProgressTracker {
	return &ProgressTracker{
		counts:           make(map[string]int),
		totalCollections: totalCollections,
		startTime:        time.Now(),
		warnings:         make([]string, 0),
		errors:           make([]string, 0),
		now:              time.Now,
	}
}

// step currently running, reported in the summary when the run fails
func (pt *ProgressTracker) SetCurrentStep(step string) {
	pt.currentStep = step
}

// marks a collection as written with count documents
func (pt *ProgressTracker) CompletedCollection(collection string, count int) {
	if _, seen := pt.counts[collection]; !seen {
		pt.collections = append(pt.collections, collection)
	}
	pt.counts[collection] += count
}

func (pt *ProgressTracker) AddWarning(msg string) {
	pt.warnings = append(pt.warnings, msg)
}

func (pt *ProgressTracker) AddError(err string) {
	pt.errors = append(pt.errors, err)
}

// returning current import metrics
func (pt *ProgressTracker) GetMetrics() ImportMetrics {
	counts := make(map[string]int, len(pt.counts))
	total := 0
	for k, v := range pt.counts {
		counts[k] = v
		total += v
	}

	return ImportMetrics{
		Counts:               counts,
		Collections:          append([]string(nil), pt.collections...),
		TotalDocuments:       total,
		TotalCollections:     pt.totalCollections,
		ProcessedCollections: len(pt.collections),
		ElapsedTime:          pt.now().Sub(pt.startTime),
		CurrentStep:          pt.currentStep,
		WarningCount:         len(pt.warnings),
		ErrorCount:           len(pt.errors),
	}
}

// returning the most recent errors(up to limit)
func (pt *ProgressTracker) GetRecentErrors(limit int) []string {
	if len(pt.errors) <= limit {
		return pt.errors
	}
	return pt.errors[len(pt.errors)-limit:]
}

// logs the final summary, one line per collection then a totals line
func (pt *ProgressTracker) LogFinalSummary(log zerolog.Logger) {
	metrics := pt.GetMetrics()

	for _, collection := range metrics.Collections {
		log.Info().
			Str("collection", collection).
			Int("documents", metrics.Counts[collection]).
			Msg("collection summary")
	}

	event := log.Info()
	if metrics.ErrorCount > 0 {
		event = log.Error().Strs("errors", pt.GetRecentErrors(5)).Str("failed_step", metrics.CurrentStep)
	}
	event.
		Str("duration", formatDuration(metrics.ElapsedTime)).
		Int("documents", metrics.TotalDocuments).
		Str("collections", fmt.Sprintf("%d/%d", metrics.ProcessedCollections, metrics.TotalCollections)).
		Int("warnings", metrics.WarningCount).
		Msg("import summary")
}

// formats the duration in a human readable way
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
