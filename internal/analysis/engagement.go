package analysis

import (
	"fmt"

	"github.com/civicpulse/civicpulse/internal/model"
)

// Funnel performance levels, tiered at 70/50/30% response rate.
const (
	PerformanceExcellent = "excellent"
	PerformanceGood      = "good"
	PerformanceFair      = "fair"
	PerformanceCritical  = "critical"
)

// Engagement computes the contact funnel: sent, clicked, answered.
func (e *Engine) Engagement(records []model.CitizenRecord) *model.AnalysisReport {
	total := len(records)
	sent, clicked, answered := 0, 0, 0

	for _, rec := range records {
		if rec.Sent() {
			sent++
		}
		if rec.Clicked() {
			clicked++
		}
		if rec.Answered() {
			answered++
		}
	}

	report := &model.AnalysisReport{
		Type:        ReportEngagement,
		Total:       total,
		Metrics:     map[string]interface{}{},
		QualityTier: qualityTier(total),
	}

	if total == 0 {
		report.Insights = []string{"Nenhum contato cadastrado para análise de engajamento."}
		return report
	}

	responseRate := percent(answered, total)
	engagementRate := percent(clicked, sent)
	completionRate := percent(answered, clicked)

	report.Metrics["response_rate"] = responseRate
	report.Metrics["engagement_rate"] = engagementRate
	report.Metrics["completion_rate"] = completionRate
	report.Metrics["sent"] = sent
	report.Metrics["clicked"] = clicked
	report.Metrics["answered"] = answered

	// Funnel partition: sums to the contact total.
	report.Breakdown = []model.BreakdownEntry{
		{Label: "Responderam", Count: answered, Percentage: responseRate},
		{Label: "Clicaram sem responder", Count: clicked - answered, Percentage: percent(clicked-answered, total)},
		{Label: "Receberam sem clicar", Count: sent - clicked, Percentage: percent(sent-clicked, total)},
		{Label: "Não enviados", Count: total - sent, Percentage: percent(total-sent, total)},
	}

	level := performanceLevel(responseRate)
	report.Metrics["performance_level"] = level

	switch level {
	case PerformanceExcellent:
		report.Insights = append(report.Insights, fmt.Sprintf(
			"Taxa de resposta excelente: %.1f%% dos contatos responderam.", responseRate))
	case PerformanceGood:
		report.Insights = append(report.Insights, fmt.Sprintf(
			"Taxa de resposta boa (%.1f%%), com espaço para ampliar o funil de cliques (%.1f%%).",
			responseRate, engagementRate))
	case PerformanceFair:
		report.Insights = append(report.Insights, fmt.Sprintf(
			"Taxa de resposta mediana (%.1f%%): parte relevante dos contatos não conclui a pesquisa.", responseRate))
	default:
		report.Insights = append(report.Insights, fmt.Sprintf(
			"Engajamento crítico: apenas %.1f%% dos contatos responderam.", responseRate))
	}

	if responseRate < 50 {
		report.Recommendations = append(report.Recommendations,
			"Reenviar a pesquisa para quem clicou e não respondeu, e revisar o texto da mensagem inicial.")
	}

	e.checkIntegrity(report)
	return report
}

func performanceLevel(responseRate float64) string {
	switch {
	case responseRate >= 70:
		return PerformanceExcellent
	case responseRate >= 50:
		return PerformanceGood
	case responseRate >= 30:
		return PerformanceFair
	default:
		return PerformanceCritical
	}
}
