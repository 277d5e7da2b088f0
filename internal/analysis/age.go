package analysis

import (
	"fmt"

	"github.com/civicpulse/civicpulse/internal/model"
)

// ageBrackets are the fixed buckets. Records whose age is missing or
// outside every bucket are excluded from both denominator and
// narrative.
var ageBrackets = []struct {
	Label string
	Min   int
	Max   int // inclusive; -1 means open-ended
}{
	{"15-24", 15, 24},
	{"25-34", 25, 34},
	{"35-44", 35, 44},
	{"45-54", 45, 54},
	{"55-64", 55, 64},
	{"65+", 65, -1},
}

// comparativeGap is the minimum spread between the best and worst
// scoring non-empty brackets that triggers a comparative narrative.
const comparativeGap = 0.5

// AgeBrackets computes per-bracket weighted satisfaction.
func (e *Engine) AgeBrackets(records []model.CitizenRecord) *model.AnalysisReport {
	type bucket struct {
		count     int
		weightSum int
	}
	buckets := make([]bucket, len(ageBrackets))
	total := 0

	for _, rec := range records {
		if !rec.Answered() || rec.Age == nil {
			continue
		}
		w := rec.SatisfactionWeight()
		if w == 0 {
			continue
		}
		idx := bracketIndex(*rec.Age)
		if idx < 0 {
			continue
		}
		buckets[idx].count++
		buckets[idx].weightSum += w
		total++
	}

	report := &model.AnalysisReport{
		Type:        ReportAgeBrackets,
		Total:       total,
		Metrics:     map[string]interface{}{},
		QualityTier: qualityTier(total),
	}

	if total == 0 {
		report.Insights = []string{"Nenhum respondente com idade informada para análise por faixa etária."}
		return report
	}

	scores := map[string]float64{}
	bestLabel, worstLabel := "", ""
	bestScore, worstScore := -1.0, 6.0

	for i, br := range ageBrackets {
		b := buckets[i]
		report.Breakdown = append(report.Breakdown, model.BreakdownEntry{
			Label:      br.Label,
			Count:      b.count,
			Percentage: percent(b.count, total),
		})
		if b.count == 0 {
			continue
		}
		score := round2(float64(b.weightSum) / float64(b.count))
		scores[br.Label] = score
		if score > bestScore {
			bestScore, bestLabel = score, br.Label
		}
		if score < worstScore {
			worstScore, worstLabel = score, br.Label
		}
	}

	report.Metrics["scores_by_bracket"] = scores
	report.Metrics["respondents_with_age"] = total

	gap := bestScore - worstScore
	if gap >= comparativeGap {
		report.Metrics["score_gap"] = round2(gap)
		report.Insights = append(report.Insights, fmt.Sprintf(
			"A faixa %s é a mais satisfeita (média %.2f), enquanto %s registra a menor média (%.2f).",
			bestLabel, bestScore, worstLabel, worstScore))
		report.Recommendations = append(report.Recommendations, fmt.Sprintf(
			"Aprofundar a escuta da faixa %s para entender a diferença de percepção.", worstLabel))
	} else {
		report.Insights = append(report.Insights, fmt.Sprintf(
			"A satisfação é relativamente uniforme entre as faixas etárias (variação de %.2f ponto).", round2(gap)))
	}

	e.checkIntegrity(report)
	return report
}

func bracketIndex(age int) int {
	for i, br := range ageBrackets {
		if age < br.Min {
			continue
		}
		if br.Max == -1 || age <= br.Max {
			return i
		}
	}
	return -1
}
