// Package analysis computes statistics, insights and recommendations
// per analysis domain from the citizen record collection.
package analysis

import (
	"log/slog"
	"math"

	"github.com/civicpulse/civicpulse/internal/model"
)

// Report type identifiers.
const (
	ReportSatisfaction  = "satisfaction"
	ReportAgeBrackets   = "age_brackets"
	ReportNeighborhoods = "neighborhoods"
	ReportIssues        = "issues"
	ReportEngagement    = "engagement"
	ReportParticipation = "participation"
)

// Engine computes analysis reports. It holds no mutable state and is
// safe for concurrent use.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates an analysis engine.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// checkIntegrity verifies that the breakdown counts sum to the report
// total. A mismatch is a bug upstream; it is logged and never raised.
func (e *Engine) checkIntegrity(report *model.AnalysisReport) {
	if len(report.Breakdown) == 0 {
		return
	}
	sum := 0
	for _, entry := range report.Breakdown {
		sum += entry.Count
	}
	if sum != report.Total {
		e.logger.Warn("breakdown count mismatch",
			"report", report.Type, "total", report.Total, "breakdown_sum", sum)
	}
}

// qualityTier grades a report by sample size.
func qualityTier(n int) string {
	switch {
	case n < 30:
		return model.TierLimited
	case n >= 100:
		return model.TierExcellent
	default:
		return model.TierGood
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return round2(float64(part) / float64(whole) * 100)
}
