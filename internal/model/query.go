package model

// Intent is the resolved purpose of a query.
type Intent string

const (
	IntentKnowledge    Intent = "knowledge"
	IntentNotification Intent = "notification"
	IntentTicket       Intent = "ticket"
	IntentOutOfScope   Intent = "out_of_scope"
)

// QueryType describes the response shape a query expects.
type QueryType string

const (
	QueryTypeListing     QueryType = "listing"
	QueryTypeAnalysis    QueryType = "analysis"
	QueryTypeComparison  QueryType = "comparison"
	QueryTypeAction      QueryType = "action"
	QueryTypeAbandonment QueryType = "abandonment"
	QueryTypeBlocked     QueryType = "blocked"
)

// Urgency flags queries that reference time pressure.
type Urgency string

const (
	UrgencyNormal Urgency = "normal"
	UrgencyHigh   Urgency = "high"
)

// Data-need tags mark which analytical sub-resources a query requires.
// They travel from the analyzer to the orchestrator, which uses them to
// select a downstream consumer.
const (
	NeedNameSearch              = "name_search"
	NeedDissatisfied            = "dissatisfied"
	NeedSatisfied               = "satisfied"
	NeedSatisfactionAnalysis    = "satisfaction_analysis"
	NeedGeographic              = "geographic"
	NeedAgeAnalysis             = "age_analysis"
	NeedIssueAnalysis           = "issue_analysis"
	NeedParticipationInterested = "participation_interested"
	NeedParticipationNotWilling = "participation_not_interested"
	NeedParticipationAnalysis   = "participation_analysis"
	NeedTotalCount              = "total_count"
	NeedEngagement              = "engagement"
)

// ScopeResult is the in-/out-of-domain verdict for a query.
type ScopeResult struct {
	InScope         bool     `json:"in_scope"`
	Confidence      float64  `json:"confidence"`
	Categories      []string `json:"categories,omitempty"`
	CanonicalIntent string   `json:"canonical_intent,omitempty"`
	Reason          string   `json:"reason,omitempty"`
}

// QueryAnalysis is the full classification outcome for one query.
// Invariant: Blocked, Intent == IntentOutOfScope and !Scope.InScope are
// always set together.
type QueryAnalysis struct {
	Scope     ScopeResult `json:"scope"`
	Intent    Intent      `json:"intent"`
	QueryType QueryType   `json:"query_type"`
	DataNeeds []string    `json:"data_needs,omitempty"`
	Urgency   Urgency     `json:"urgency"`
	Blocked   bool        `json:"blocked"`
}

// HasNeed reports whether the tag is present in DataNeeds.
func (a *QueryAnalysis) HasNeed(tag string) bool {
	for _, n := range a.DataNeeds {
		if n == tag {
			return true
		}
	}
	return false
}

// AddNeed appends the tag if it is not already present.
func (a *QueryAnalysis) AddNeed(tag string) {
	if !a.HasNeed(tag) {
		a.DataNeeds = append(a.DataNeeds, tag)
	}
}

// RemoveNeed drops every occurrence of the tag from DataNeeds.
func (a *QueryAnalysis) RemoveNeed(tag string) {
	kept := a.DataNeeds[:0]
	for _, n := range a.DataNeeds {
		if n != tag {
			kept = append(kept, n)
		}
	}
	a.DataNeeds = kept
}

// Block marks the analysis as out of scope, keeping the three blocked
// fields consistent.
func (a *QueryAnalysis) Block(reason string) {
	a.Blocked = true
	a.Intent = IntentOutOfScope
	a.QueryType = QueryTypeBlocked
	a.Scope.InScope = false
	if reason != "" {
		a.Scope.Reason = reason
	}
}
