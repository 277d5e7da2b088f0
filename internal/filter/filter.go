// Package filter implements the resident-filtering engine: filter-type
// resolution over a fixed priority order and fuzzy name matching.
package filter

import (
	"log/slog"
	"strings"

	"github.com/civicpulse/civicpulse/internal/classify"
	"github.com/civicpulse/civicpulse/internal/model"
	"github.com/civicpulse/civicpulse/internal/textutil"
)

// Type identifies a resident filter kind.
type Type string

const (
	TypeNone                       Type = ""
	TypeParticipationNotInterested Type = "participation_not_interested"
	TypeParticipationInterested    Type = "participation_interested"
	TypeNameSearch                 Type = "name_search"
	TypeDissatisfied               Type = "dissatisfied"
	TypeSatisfied                  Type = "satisfied"
	TypeAllResponded               Type = "all_responded"
)

// Criteria is a resolved filter request. Callers that already know the
// filter kind (the pipeline routes on classified data needs) construct
// it directly; DetermineFilterType resolves the kind from a raw query.
type Criteria struct {
	Type     Type
	RawQuery string
}

// allRespondedTerms mark a generic "everyone who answered" listing.
var allRespondedTerms = []string{
	"todos que responderam", "todas que responderam", "quem respondeu",
	"responderam a pesquisa", "com pesquisa respondida",
	"all with survey", "everyone who responded", "who responded",
}

// Service filters an in-memory record collection. It holds no mutable
// state and is safe for concurrent use.
type Service struct {
	logger *slog.Logger
}

// NewService creates a filter service.
func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// DetermineFilterType resolves the filter a query asks for, first match
// wins in this exact order: participation-not-interested >
// participation-interested > name-search > dissatisfied > satisfied >
// all-responded > none. A query mentioning both participation and a
// search verb must resolve as a participation filter.
func (s *Service) DetermineFilterType(query string) Type {
	seg := classify.SegmentTag(query)

	switch seg {
	case model.NeedParticipationNotWilling:
		return TypeParticipationNotInterested
	case model.NeedParticipationInterested:
		return TypeParticipationInterested
	}

	if classify.IsNameSearchQuery(query) {
		return TypeNameSearch
	}

	switch seg {
	case model.NeedDissatisfied:
		return TypeDissatisfied
	case model.NeedSatisfied:
		return TypeSatisfied
	}

	if textutil.ContainsAny(textutil.Normalize(query), allRespondedTerms) {
		return TypeAllResponded
	}

	return TypeNone
}

// Filter selects residents matching the criteria, annotating each with
// a derived priority label.
func (s *Service) Filter(records []model.CitizenRecord, criteria Criteria) []model.FilteredResident {
	switch criteria.Type {
	case TypeNameSearch:
		return s.filterByName(records, criteria.RawQuery)
	case TypeDissatisfied:
		return s.filterBySatisfaction(records, false)
	case TypeSatisfied:
		return s.filterBySatisfaction(records, true)
	case TypeParticipationInterested:
		return s.filterByParticipation(records, "yes")
	case TypeParticipationNotInterested:
		return s.filterByParticipation(records, "no")
	case TypeAllResponded:
		return s.filterAllResponded(records)
	default:
		return nil
	}
}

// filterByName matches records by fuzzy multi-token containment: the
// normalized record name must contain the full candidate string, or
// every candidate token must appear somewhere in it, in any order. No
// edit distance is applied.
func (s *Service) filterByName(records []model.CitizenRecord, rawQuery string) []model.FilteredResident {
	candidate := classify.NameCandidate(rawQuery)
	if candidate == "" {
		return nil
	}
	tokens := strings.Fields(candidate)

	var out []model.FilteredResident
	for _, rec := range records {
		name := textutil.Normalize(rec.Name)
		if name == "" {
			continue
		}
		if strings.Contains(name, candidate) || containsAllTokens(name, tokens) {
			out = append(out, model.FilteredResident{CitizenRecord: rec})
		}
	}
	return out
}

func containsAllTokens(name string, tokens []string) bool {
	for _, tok := range tokens {
		if !strings.Contains(name, tok) {
			return false
		}
	}
	return true
}

func (s *Service) filterBySatisfaction(records []model.CitizenRecord, satisfied bool) []model.FilteredResident {
	var out []model.FilteredResident
	for _, rec := range records {
		if rec.Survey == nil {
			continue
		}
		switch {
		case !satisfied && rec.Dissatisfied():
			priority := model.PriorityMedium
			if rec.Survey.Satisfaction == model.SatisfactionVeryLow {
				priority = model.PriorityHigh
			}
			out = append(out, model.FilteredResident{CitizenRecord: rec, Priority: priority})
		case satisfied && rec.Satisfied():
			priority := model.PriorityPositive
			if rec.Survey.Satisfaction == model.SatisfactionVeryHigh {
				priority = model.PriorityAdvocate
			}
			out = append(out, model.FilteredResident{CitizenRecord: rec, Priority: priority})
		}
	}
	return out
}

func (s *Service) filterByParticipation(records []model.CitizenRecord, want string) []model.FilteredResident {
	var out []model.FilteredResident
	for _, rec := range records {
		if rec.Survey == nil {
			continue
		}
		if NormalizeParticipation(rec.Survey.Participate) != want {
			continue
		}
		priority := model.PriorityEngaged
		if want == "no" {
			priority = model.PriorityNotWilling
		}
		out = append(out, model.FilteredResident{CitizenRecord: rec, Priority: priority})
	}
	return out
}

func (s *Service) filterAllResponded(records []model.CitizenRecord) []model.FilteredResident {
	var out []model.FilteredResident
	for _, rec := range records {
		if rec.Answered() {
			out = append(out, model.FilteredResident{CitizenRecord: rec})
		}
	}
	return out
}

// NormalizeParticipation maps the stored participate value to "yes",
// "no" or "" (unset). The vocabulary lives in textutil so the
// participation analysis reads the same values.
func NormalizeParticipation(value string) string {
	return textutil.NormalizeYesNo(value)
}
