package pipeline

import (
	"fmt"
	"math"
	"strings"

	"github.com/civicpulse/civicpulse/internal/classify"
	"github.com/civicpulse/civicpulse/internal/filter"
	"github.com/civicpulse/civicpulse/internal/model"
	"github.com/civicpulse/civicpulse/internal/store"
)

// Consumer agent names recorded in result provenance.
const (
	agentNameSearch     = "name_search"
	agentResidentFilter = "resident_filter"
	agentAnalysis       = "analysis_engine"
	agentStatistics     = "statistics"
	agentOverview       = "overview"
)

// listLimit bounds how many resident names a deterministic answer
// spells out.
const listLimit = 10

// routedResponse is what a downstream consumer hands back to the
// orchestrator.
type routedResponse struct {
	Agent           string
	Deterministic   model.Candidate
	Residents       []model.FilteredResident
	Report          *model.AnalysisReport
	Insights        []string
	Recommendations []string
}

// route selects a consumer from the classified data needs and runs it.
// Precedence: person lookup, then analysis domains, then segment
// filters, then bare counts, then a dataset overview.
func (o *Orchestrator) route(analysis model.QueryAnalysis, records []model.CitizenRecord, query string) (*routedResponse, error) {
	switch {
	case analysis.HasNeed(model.NeedNameSearch):
		return o.nameSearchConsumer(records, query), nil
	case analysis.HasNeed(model.NeedSatisfactionAnalysis):
		return o.analysisConsumer(o.engine.Satisfaction(records)), nil
	case analysis.HasNeed(model.NeedGeographic):
		return o.analysisConsumer(o.engine.Neighborhoods(records)), nil
	case analysis.HasNeed(model.NeedAgeAnalysis):
		return o.analysisConsumer(o.engine.AgeBrackets(records)), nil
	case analysis.HasNeed(model.NeedIssueAnalysis):
		return o.analysisConsumer(o.engine.Issues(records)), nil
	case analysis.HasNeed(model.NeedEngagement):
		return o.analysisConsumer(o.engine.Engagement(records)), nil
	case analysis.HasNeed(model.NeedParticipationAnalysis):
		return o.analysisConsumer(o.engine.Participation(records)), nil
	case analysis.HasNeed(model.NeedParticipationNotWilling):
		return o.filterConsumer(records, query, filter.TypeParticipationNotInterested), nil
	case analysis.HasNeed(model.NeedParticipationInterested):
		return o.filterConsumer(records, query, filter.TypeParticipationInterested), nil
	case analysis.HasNeed(model.NeedDissatisfied):
		return o.filterConsumer(records, query, filter.TypeDissatisfied), nil
	case analysis.HasNeed(model.NeedSatisfied):
		return o.filterConsumer(records, query, filter.TypeSatisfied), nil
	case analysis.HasNeed(model.NeedTotalCount):
		return o.countConsumer(records), nil
	default:
		return o.overviewConsumer(records), nil
	}
}

// nameSearchConsumer answers a person lookup. A non-empty match list
// marks the candidate as focused so arbitration defaults to it.
func (o *Orchestrator) nameSearchConsumer(records []model.CitizenRecord, query string) *routedResponse {
	criteria := filter.Criteria{Type: filter.TypeNameSearch, RawQuery: query}
	residents := o.filters.Filter(records, criteria)
	candidate := classify.NameCandidate(query)

	var text string
	if len(residents) == 0 {
		text = fmt.Sprintf("Nenhum munícipe encontrado com o nome %q.", candidate)
	} else {
		text = fmt.Sprintf("Encontrei %d munícipe(s) para %q: %s.",
			len(residents), candidate, residentList(residents))
	}

	return &routedResponse{
		Agent: agentNameSearch,
		Deterministic: model.Candidate{
			Text:    text,
			Source:  model.SourceDeterministic,
			Focused: len(residents) > 0,
		},
		Residents: residents,
	}
}

// filterConsumer answers a segment listing (dissatisfied, satisfied,
// participation).
func (o *Orchestrator) filterConsumer(records []model.CitizenRecord, query string, filterType filter.Type) *routedResponse {
	criteria := filter.Criteria{Type: filterType, RawQuery: query}
	residents := o.filters.Filter(records, criteria)

	label := segmentLabel(filterType)
	var text string
	if len(residents) == 0 {
		text = fmt.Sprintf("Nenhum munícipe %s encontrado na base atual.", label)
	} else {
		text = fmt.Sprintf("Encontrei %d munícipe(s) %s: %s.",
			len(residents), label, residentList(residents))
	}

	return &routedResponse{
		Agent: agentResidentFilter,
		Deterministic: model.Candidate{
			Text:   text,
			Source: model.SourceDeterministic,
		},
		Residents: residents,
	}
}

// analysisConsumer wraps an engine report into a narrative answer.
func (o *Orchestrator) analysisConsumer(report *model.AnalysisReport) *routedResponse {
	return &routedResponse{
		Agent: agentAnalysis,
		Deterministic: model.Candidate{
			Text:   reportSummary(report),
			Source: model.SourceDeterministic,
		},
		Report:          report,
		Insights:        report.Insights,
		Recommendations: report.Recommendations,
	}
}

// countConsumer answers a bare "how many" question.
func (o *Orchestrator) countConsumer(records []model.CitizenRecord) *routedResponse {
	answered := len(store.Answered(records))
	stats := snapshot(records)
	text := fmt.Sprintf(
		"A base contém %d munícipes cadastrados; %d responderam à pesquisa (%.1f%% de resposta).",
		stats.TotalContacts, answered, stats.ResponseRate)

	return &routedResponse{
		Agent: agentStatistics,
		Deterministic: model.Candidate{
			Text:   text,
			Source: model.SourceDeterministic,
		},
	}
}

// overviewConsumer is the fallback for in-scope queries with no
// specific data need.
func (o *Orchestrator) overviewConsumer(records []model.CitizenRecord) *routedResponse {
	stats := snapshot(records)
	text := fmt.Sprintf(
		"Visão geral da pesquisa: %d munícipes cadastrados, taxa de resposta de %.1f%% e satisfação média de %.2f. "+
			"Pergunte por satisfação, bairros, faixas etárias, problemas relatados, engajamento ou participação para uma análise detalhada.",
		stats.TotalContacts, stats.ResponseRate, stats.SatisfactionScore)

	return &routedResponse{
		Agent: agentOverview,
		Deterministic: model.Candidate{
			Text:   text,
			Source: model.SourceDeterministic,
		},
	}
}

func segmentLabel(filterType filter.Type) string {
	switch filterType {
	case filter.TypeDissatisfied:
		return "insatisfeito(s)"
	case filter.TypeSatisfied:
		return "satisfeito(s)"
	case filter.TypeParticipationInterested:
		return "interessado(s) em participar"
	case filter.TypeParticipationNotInterested:
		return "sem interesse em participar"
	case filter.TypeAllResponded:
		return "com pesquisa respondida"
	default:
		return "correspondente(s)"
	}
}

func residentList(residents []model.FilteredResident) string {
	names := make([]string, 0, listLimit)
	for i, res := range residents {
		if i >= listLimit {
			names = append(names, fmt.Sprintf("e mais %d", len(residents)-listLimit))
			break
		}
		names = append(names, res.Name)
	}
	return strings.Join(names, ", ")
}

// reportSummary renders a report as a short narrative: total, headline
// metrics and insights.
func reportSummary(report *model.AnalysisReport) string {
	if report == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Análise de %s com base em %d registro(s).", reportTitle(report.Type), report.Total)
	for _, insight := range report.Insights {
		b.WriteString(" ")
		b.WriteString(insight)
	}
	return b.String()
}

func reportTitle(reportType string) string {
	switch reportType {
	case "satisfaction":
		return "satisfação"
	case "age_brackets":
		return "faixas etárias"
	case "neighborhoods":
		return "bairros"
	case "issues":
		return "problemas relatados"
	case "engagement":
		return "engajamento"
	case "participation":
		return "participação"
	default:
		return reportType
	}
}

// snapshot computes the dataset statistics attached to every result.
func snapshot(records []model.CitizenRecord) model.Statistics {
	total := len(records)
	answered := 0
	weightSum := 0
	scored := 0
	for _, rec := range records {
		if rec.Answered() {
			answered++
		}
		if w := rec.SatisfactionWeight(); w > 0 {
			weightSum += w
			scored++
		}
	}

	stats := model.Statistics{TotalContacts: total}
	if total > 0 {
		stats.ResponseRate = round2(float64(answered) / float64(total) * 100)
	}
	if scored > 0 {
		stats.SatisfactionScore = round2(float64(weightSum) / float64(scored))
	}
	return stats
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
