package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/civicpulse/civicpulse/internal/model"
	"github.com/civicpulse/civicpulse/internal/textutil"
)

// Issue distribution framings.
const (
	FramingDominant     = "dominant"
	FramingConcentrated = "concentrated"
	FramingDiverse      = "diverse"
)

// issueRemediations maps issue keywords (normalized) to canned
// remediation text. Unmapped issues fall back to a generic
// investigation recommendation.
var issueRemediations = []struct {
	Keyword string
	Text    string
}{
	{"iluminacao", "Levantar os pontos de iluminação pública citados e acionar a concessionária."},
	{"seguranca", "Compartilhar o mapeamento de segurança com a guarda municipal e priorizar rondas."},
	{"limpeza", "Revisar o roteiro de coleta e mutirões de limpeza nas áreas citadas."},
	{"asfalto", "Incluir as vias citadas no cronograma de recapeamento e tapa-buracos."},
	{"buraco", "Incluir as vias citadas no cronograma de recapeamento e tapa-buracos."},
	{"saude", "Avaliar a capacidade das unidades de saúde próximas aos respondentes."},
	{"transporte", "Revisar linhas e horários de transporte nas regiões citadas."},
	{"lazer", "Mapear praças e áreas de lazer com demanda de manutenção."},
}

// Issues ranks reported issues and frames the distribution by its
// concentration: a single dominant issue, a concentrated top-3, or a
// diverse spread.
func (e *Engine) Issues(records []model.CitizenRecord) *model.AnalysisReport {
	counts := map[string]int{}
	total := 0

	for _, rec := range records {
		if !rec.Answered() || rec.Survey.Issue == "" {
			continue
		}
		counts[rec.Survey.Issue]++
		total++
	}

	report := &model.AnalysisReport{
		Type:        ReportIssues,
		Total:       total,
		Metrics:     map[string]interface{}{},
		QualityTier: qualityTier(total),
	}

	if total == 0 {
		report.Insights = []string{"Nenhum problema relatado nas respostas até o momento."}
		return report
	}

	type ranked struct {
		Issue string
		Count int
	}
	ranking := make([]ranked, 0, len(counts))
	for issue, count := range counts {
		ranking = append(ranking, ranked{issue, count})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Count != ranking[j].Count {
			return ranking[i].Count > ranking[j].Count
		}
		return ranking[i].Issue < ranking[j].Issue
	})

	diversity := 0.0
	for _, r := range ranking {
		p := float64(r.Count) / float64(total)
		diversity -= p * math.Log(p)

		report.Breakdown = append(report.Breakdown, model.BreakdownEntry{
			Label:      r.Issue,
			Count:      r.Count,
			Percentage: percent(r.Count, total),
		})
	}

	topPct := percent(ranking[0].Count, total)
	top3 := 0
	for i, r := range ranking {
		if i >= 3 {
			break
		}
		top3 += r.Count
	}
	top3Pct := percent(top3, total)

	framing := FramingDiverse
	switch {
	case topPct > 50:
		framing = FramingDominant
	case top3Pct > 70:
		framing = FramingConcentrated
	}

	report.Metrics["diversity_index"] = round3(diversity)
	report.Metrics["top_issue"] = ranking[0].Issue
	report.Metrics["top_issue_percent"] = topPct
	report.Metrics["top3_percent"] = top3Pct
	report.Metrics["framing"] = framing

	switch framing {
	case FramingDominant:
		report.Insights = append(report.Insights, fmt.Sprintf(
			"Um único problema domina as respostas: %s (%.1f%%).", ranking[0].Issue, topPct))
		report.Recommendations = append(report.Recommendations,
			"Concentrar esforço imediato no problema dominante: "+remediationFor(ranking[0].Issue))
	case FramingConcentrated:
		report.Insights = append(report.Insights, fmt.Sprintf(
			"Os três principais problemas concentram %.1f%% dos relatos.", top3Pct))
	default:
		report.Insights = append(report.Insights, fmt.Sprintf(
			"Relatos distribuídos entre %d problemas (índice de diversidade %.3f): sem foco único.",
			len(ranking), diversity))
	}

	if framing != FramingDominant {
		for i, r := range ranking {
			if i >= 3 {
				break
			}
			report.Recommendations = append(report.Recommendations,
				fmt.Sprintf("%s: %s", r.Issue, remediationFor(r.Issue)))
		}
	}

	e.checkIntegrity(report)
	return report
}

// remediationFor looks up canned remediation text by keyword.
func remediationFor(issue string) string {
	normalized := textutil.Normalize(issue)
	for _, rem := range issueRemediations {
		if strings.Contains(normalized, rem.Keyword) {
			return rem.Text
		}
	}
	return "Investigar os relatos em detalhe e definir o encaminhamento adequado."
}
