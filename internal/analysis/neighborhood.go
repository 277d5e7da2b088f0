package analysis

import (
	"fmt"
	"sort"

	"github.com/civicpulse/civicpulse/internal/model"
)

// Equity assessments over the neighborhood spread.
const (
	EquityExcellent = "excellent"
	EquityModerate  = "moderate"
	EquityConcern   = "concern"
)

// attentionOffset: a neighborhood needs attention when its response
// rate falls more than this many points below the mean. The cutoff is
// relative, not absolute.
const attentionOffset = 10.0

// concentrationLimit: share of all contacts above which a single
// neighborhood is flagged as a representativeness risk.
const concentrationLimit = 0.40

// Neighborhoods computes per-neighborhood response and engagement
// rates, flags underperformers against the relative cutoff, and grades
// the equity of the spread.
func (e *Engine) Neighborhoods(records []model.CitizenRecord) *model.AnalysisReport {
	type hood struct {
		total    int
		answered int
		sent     int
		clicked  int
	}
	hoods := map[string]*hood{}

	for _, rec := range records {
		name := rec.Neighborhood
		if name == "" {
			name = "Não informado"
		}
		h := hoods[name]
		if h == nil {
			h = &hood{}
			hoods[name] = h
		}
		h.total++
		if rec.Answered() {
			h.answered++
		}
		if rec.Sent() {
			h.sent++
		}
		if rec.Clicked() {
			h.clicked++
		}
	}

	report := &model.AnalysisReport{
		Type:        ReportNeighborhoods,
		Total:       len(records),
		Metrics:     map[string]interface{}{},
		QualityTier: qualityTier(len(records)),
	}

	if len(hoods) == 0 {
		report.Insights = []string{"Nenhum contato cadastrado para análise por bairro."}
		return report
	}

	names := make([]string, 0, len(hoods))
	for name := range hoods {
		names = append(names, name)
	}
	sort.Strings(names)

	responseRates := map[string]float64{}
	engagementRates := map[string]float64{}
	avgResponse := 0.0

	for _, name := range names {
		h := hoods[name]
		rr := percent(h.answered, h.total)
		responseRates[name] = rr
		engagementRates[name] = percent(h.clicked, h.sent)
		avgResponse += rr

		report.Breakdown = append(report.Breakdown, model.BreakdownEntry{
			Label:      name,
			Count:      h.total,
			Percentage: percent(h.total, len(records)),
		})
	}
	avgResponse = round2(avgResponse / float64(len(names)))
	cutoff := round2(avgResponse - attentionOffset)

	var needsAttention []string
	for _, name := range names {
		if responseRates[name] < cutoff {
			needsAttention = append(needsAttention, name)
		}
	}

	flaggedFraction := float64(len(needsAttention)) / float64(len(names))
	equity := EquityModerate
	switch {
	case len(needsAttention) == 0:
		equity = EquityExcellent
	case flaggedFraction > 0.40:
		equity = EquityConcern
	}

	report.Metrics["response_rates"] = responseRates
	report.Metrics["engagement_rates"] = engagementRates
	report.Metrics["avg_response_rate"] = avgResponse
	report.Metrics["attention_cutoff"] = cutoff
	report.Metrics["needs_attention"] = needsAttention
	report.Metrics["equity_assessment"] = equity

	switch equity {
	case EquityExcellent:
		report.Insights = append(report.Insights, fmt.Sprintf(
			"Todos os bairros respondem acima do corte relativo (%.2f%%): cobertura equilibrada.", cutoff))
	case EquityConcern:
		report.Insights = append(report.Insights, fmt.Sprintf(
			"%d de %d bairros estão abaixo do corte relativo (%.2f%%): desigualdade relevante de alcance.",
			len(needsAttention), len(names), cutoff))
		report.Recommendations = append(report.Recommendations,
			"Reforçar a divulgação da pesquisa nos bairros abaixo do corte: "+joinNames(needsAttention)+".")
	default:
		report.Insights = append(report.Insights, fmt.Sprintf(
			"Alguns bairros (%s) respondem abaixo do corte relativo (%.2f%%).",
			joinNames(needsAttention), cutoff))
		report.Recommendations = append(report.Recommendations,
			"Acompanhar os bairros abaixo do corte nas próximas rodadas.")
	}

	// Representativeness: a single neighborhood dominating the base
	// distorts every aggregate upstream.
	for _, name := range names {
		if float64(hoods[name].total) > concentrationLimit*float64(len(records)) {
			report.Insights = append(report.Insights, fmt.Sprintf(
				"O bairro %s concentra %.1f%% dos contatos: risco de representatividade nos agregados.",
				name, percent(hoods[name].total, len(records))))
		}
	}

	e.checkIntegrity(report)
	return report
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}
