package model

import "time"

// Priority labels derived for filtered residents.
const (
	PriorityHigh       = "HIGH"
	PriorityMedium     = "MEDIUM"
	PriorityAdvocate   = "ADVOCATE"
	PriorityPositive   = "POSITIVE"
	PriorityEngaged    = "ENGAGED"
	PriorityNotWilling = "NOT_WILLING"
)

// FilteredResident is a citizen record selected by a filter, annotated
// with a derived priority label describing why it was selected.
type FilteredResident struct {
	CitizenRecord
	Priority string `json:"priority,omitempty"`
}

// BreakdownEntry is one row of an analysis breakdown.
type BreakdownEntry struct {
	Label      string  `json:"label"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Quality tiers for analysis reports, driven by sample size.
const (
	TierLimited   = "limited"
	TierGood      = "good"
	TierExcellent = "excellent"
)

// AnalysisReport is the structured output of one analysis domain.
// Invariant: the breakdown counts sum to Total; a mismatch is logged by
// the engine as an integrity warning and never raised.
type AnalysisReport struct {
	Type            string                 `json:"type"`
	Total           int                    `json:"total"`
	Metrics         map[string]interface{} `json:"metrics,omitempty"`
	Breakdown       []BreakdownEntry       `json:"breakdown,omitempty"`
	Insights        []string               `json:"insights,omitempty"`
	Recommendations []string               `json:"recommendations,omitempty"`
	QualityTier     string                 `json:"quality_tier,omitempty"`
}

// CandidateSource identifies which side of the arbitration produced a
// response candidate.
type CandidateSource string

const (
	SourceDeterministic CandidateSource = "deterministic"
	SourceLLM           CandidateSource = "llm"
)

// Quality levels assessed for LLM candidates.
const (
	QualityExcellent = "excellent"
	QualityGood      = "good"
	QualityFair      = "fair"
	QualityPoor      = "poor"
)

// Candidate is one answer competing in arbitration. Candidates are
// created per request and discarded once the final result is assembled.
type Candidate struct {
	Text     string
	Source   CandidateSource
	Quality  string
	Grounded bool
	// Focused marks a deterministic candidate that already carries a
	// narrow name-search result; arbitration defaults to it.
	Focused bool
}

// Statistics is the dataset snapshot attached to every result.
type Statistics struct {
	TotalContacts     int     `json:"total_contacts"`
	ResponseRate      float64 `json:"response_rate"`
	SatisfactionScore float64 `json:"satisfaction_score"`
}

// Provenance records which consumer produced the deterministic answer
// and whether the model-generated candidate won arbitration.
type Provenance struct {
	Agent   string `json:"agent"`
	Source  string `json:"source"`
	LLMUsed bool   `json:"llm_used"`
	Quality string `json:"quality,omitempty"`
	Version string `json:"version"`
}

// Result is the final structured answer returned to the caller.
type Result struct {
	ID              string             `json:"id"`
	Success         bool               `json:"success"`
	Query           string             `json:"query"`
	Intent          Intent             `json:"intent"`
	QueryType       QueryType          `json:"query_type"`
	Response        string             `json:"response"`
	Residents       []FilteredResident `json:"residents"`
	Report          *AnalysisReport    `json:"report,omitempty"`
	Insights        []string           `json:"insights"`
	Recommendations []string           `json:"recommendations"`
	Confidence      float64            `json:"confidence"`
	Statistics      Statistics         `json:"statistics"`
	Provenance      Provenance         `json:"provenance"`
	Error           string             `json:"error,omitempty"`
	ProcessingMs    int64              `json:"processing_time_ms"`
	Timestamp       time.Time          `json:"timestamp"`
}
