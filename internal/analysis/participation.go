package analysis

import (
	"fmt"

	"github.com/civicpulse/civicpulse/internal/model"
	"github.com/civicpulse/civicpulse/internal/textutil"
)

// Engagement potential tiers, at 70/40% of interested respondents.
const (
	PotentialHigh   = "high"
	PotentialMedium = "medium"
	PotentialLow    = "low"
)

// Participation analyzes willingness to take part in municipal
// activities.
func (e *Engine) Participation(records []model.CitizenRecord) *model.AnalysisReport {
	total := 0
	interested, notInterested, unset := 0, 0, 0

	for _, rec := range records {
		if !rec.Answered() {
			continue
		}
		total++
		switch textutil.NormalizeYesNo(rec.Survey.Participate) {
		case "yes":
			interested++
		case "no":
			notInterested++
		default:
			unset++
		}
	}

	report := &model.AnalysisReport{
		Type:        ReportParticipation,
		Total:       total,
		Metrics:     map[string]interface{}{},
		QualityTier: qualityTier(total),
	}

	if total == 0 {
		report.Insights = []string{"Nenhuma resposta registrada para análise de participação."}
		return report
	}

	report.Breakdown = []model.BreakdownEntry{
		{Label: "Interessados", Count: interested, Percentage: percent(interested, total)},
		{Label: "Não interessados", Count: notInterested, Percentage: percent(notInterested, total)},
		{Label: "Não informado", Count: unset, Percentage: percent(unset, total)},
	}

	declared := interested + notInterested
	interestedPct := percent(interested, declared)
	potential := engagementPotential(interestedPct)

	report.Metrics["interested"] = interested
	report.Metrics["not_interested"] = notInterested
	report.Metrics["interested_percent"] = interestedPct
	report.Metrics["engagement_potential"] = potential

	switch potential {
	case PotentialHigh:
		report.Insights = append(report.Insights, fmt.Sprintf(
			"Alto potencial de engajamento: %.1f%% dos respondentes querem participar.", interestedPct))
		report.Recommendations = append(report.Recommendations,
			"Formar um comitê de munícipes voluntários a partir dos interessados.")
	case PotentialMedium:
		report.Insights = append(report.Insights, fmt.Sprintf(
			"Potencial moderado de engajamento (%.1f%% interessados).", interestedPct))
		report.Recommendations = append(report.Recommendations,
			"Organizar eventos-piloto de participação com o grupo interessado.")
	default:
		report.Insights = append(report.Insights, fmt.Sprintf(
			"Baixo potencial de engajamento: apenas %.1f%% declararam interesse.", interestedPct))
		report.Recommendations = append(report.Recommendations,
			"Pesquisar as barreiras à participação antes de planejar novas ações.")
	}

	e.checkIntegrity(report)
	return report
}

func engagementPotential(interestedPct float64) string {
	switch {
	case interestedPct >= 70:
		return PotentialHigh
	case interestedPct >= 40:
		return PotentialMedium
	default:
		return PotentialLow
	}
}
