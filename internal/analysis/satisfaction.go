package analysis

import (
	"fmt"

	"github.com/civicpulse/civicpulse/internal/model"
)

// Dissatisfaction tiers classify the dissatisfied fraction.
const (
	DissatisfactionLow      = "low"
	DissatisfactionElevated = "elevated"
	DissatisfactionCritical = "critical"
)

// Satisfaction computes the weighted satisfaction report. The insight
// narrative is selected by crossing the score band with the
// dissatisfaction tier, never by score alone.
func (e *Engine) Satisfaction(records []model.CitizenRecord) *model.AnalysisReport {
	counts := map[string]int{}
	total := 0
	weightSum := 0

	for _, rec := range records {
		if !rec.Answered() {
			continue
		}
		w := rec.SatisfactionWeight()
		if w == 0 {
			continue
		}
		counts[rec.Survey.Satisfaction]++
		weightSum += w
		total++
	}

	report := &model.AnalysisReport{
		Type:        ReportSatisfaction,
		Total:       total,
		Metrics:     map[string]interface{}{},
		QualityTier: qualityTier(total),
	}

	if total == 0 {
		report.Insights = []string{"Nenhuma resposta de satisfação registrada até o momento."}
		report.Recommendations = []string{"Ampliar o envio da pesquisa para obter uma base mínima de respostas."}
		return report
	}

	for _, label := range model.SatisfactionOrder {
		report.Breakdown = append(report.Breakdown, model.BreakdownEntry{
			Label:      label,
			Count:      counts[label],
			Percentage: percent(counts[label], total),
		})
	}

	avg := round2(float64(weightSum) / float64(total))
	dissatisfied := counts[model.SatisfactionLow] + counts[model.SatisfactionVeryLow]
	dissatisfiedPct := percent(dissatisfied, total)
	tier := dissatisfactionTier(float64(dissatisfied) / float64(total))

	report.Metrics["average_score"] = avg
	report.Metrics["dissatisfied_percent"] = dissatisfiedPct
	report.Metrics["dissatisfaction_tier"] = tier
	report.Metrics["respondents"] = total

	report.Insights = satisfactionInsights(avg, dissatisfiedPct, tier)
	report.Recommendations = satisfactionRecommendations(avg, tier)

	e.checkIntegrity(report)
	return report
}

func dissatisfactionTier(fraction float64) string {
	switch {
	case fraction >= 0.40:
		return DissatisfactionCritical
	case fraction >= 0.25:
		return DissatisfactionElevated
	default:
		return DissatisfactionLow
	}
}

// satisfactionInsights crosses the score band (<3.0, 3.0-4.0, >=4.0)
// with the dissatisfaction tier.
func satisfactionInsights(avg, dissatisfiedPct float64, tier string) []string {
	var insights []string

	switch {
	case avg < 3.0:
		switch tier {
		case DissatisfactionCritical:
			insights = append(insights, fmt.Sprintf(
				"Cenário crítico: média de satisfação %.2f com %.1f%% de munícipes insatisfeitos.", avg, dissatisfiedPct))
		case DissatisfactionElevated:
			insights = append(insights, fmt.Sprintf(
				"Satisfação baixa (média %.2f) com insatisfação elevada (%.1f%%).", avg, dissatisfiedPct))
		default:
			insights = append(insights, fmt.Sprintf(
				"Média baixa (%.2f), porém a insatisfação declarada segue contida (%.1f%%); predominam respostas neutras.", avg, dissatisfiedPct))
		}
	case avg < 4.0:
		switch tier {
		case DissatisfactionCritical:
			insights = append(insights, fmt.Sprintf(
				"Média moderada (%.2f) mascarando um núcleo crítico de insatisfação (%.1f%%).", avg, dissatisfiedPct))
		case DissatisfactionElevated:
			insights = append(insights, fmt.Sprintf(
				"Satisfação moderada (média %.2f), mas %.1f%% dos respondentes estão insatisfeitos.", avg, dissatisfiedPct))
		default:
			insights = append(insights, fmt.Sprintf(
				"Satisfação moderada e estável: média %.2f com apenas %.1f%% de insatisfação.", avg, dissatisfiedPct))
		}
	default:
		switch tier {
		case DissatisfactionCritical:
			insights = append(insights, fmt.Sprintf(
				"Média alta (%.2f) convivendo com um bolsão crítico de insatisfação (%.1f%%): resultado polarizado.", avg, dissatisfiedPct))
		case DissatisfactionElevated:
			insights = append(insights, fmt.Sprintf(
				"Satisfação alta (média %.2f), mas a fatia insatisfeita (%.1f%%) merece acompanhamento.", avg, dissatisfiedPct))
		default:
			insights = append(insights, fmt.Sprintf(
				"Satisfação alta e consistente: média %.2f com insatisfação baixa (%.1f%%).", avg, dissatisfiedPct))
		}
	}

	return insights
}

func satisfactionRecommendations(avg float64, tier string) []string {
	switch tier {
	case DissatisfactionCritical:
		return []string{
			"Priorizar contato ativo com os munícipes insatisfeitos nos próximos dias.",
			"Mapear os problemas mais citados pelo grupo insatisfeito e abrir frentes de ação.",
		}
	case DissatisfactionElevated:
		return []string{
			"Investigar as causas recorrentes de insatisfação antes que o quadro se agrave.",
		}
	default:
		if avg >= 4.0 {
			return []string{
				"Manter as práticas atuais e considerar os munícipes mais satisfeitos como multiplicadores.",
			}
		}
		return []string{
			"Acompanhar a evolução da média nas próximas rodadas da pesquisa.",
		}
	}
}
