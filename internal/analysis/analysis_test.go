package analysis

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/civicpulse/civicpulse/internal/model"
)

var answeredAt = time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)

func answeredRecord(satisfaction string) model.CitizenRecord {
	at := answeredAt
	return model.CitizenRecord{
		Survey: &model.SurveyResponse{
			Satisfaction: satisfaction,
			AnsweredAt:   &at,
		},
	}
}

// satisfactionSet builds records with the given count per label.
func satisfactionSet(counts map[string]int) []model.CitizenRecord {
	var records []model.CitizenRecord
	for _, label := range model.SatisfactionOrder {
		for i := 0; i < counts[label]; i++ {
			records = append(records, answeredRecord(label))
		}
	}
	return records
}

func TestSatisfaction_ReferenceNumbers(t *testing.T) {
	records := satisfactionSet(map[string]int{
		model.SatisfactionVeryHigh: 10,
		model.SatisfactionHigh:     20,
		model.SatisfactionNeutral:  5,
		model.SatisfactionLow:      3,
		model.SatisfactionVeryLow:  2,
	})

	report := NewEngine(nil).Satisfaction(records)

	if report.Total != 40 {
		t.Fatalf("expected total 40, got %d", report.Total)
	}
	if got := report.Metrics["average_score"].(float64); got != 3.83 {
		t.Errorf("expected average 3.83, got %v", got)
	}
	if got := report.Metrics["dissatisfied_percent"].(float64); got != 12.5 {
		t.Errorf("expected dissatisfied percent 12.5, got %v", got)
	}
	if got := report.Metrics["dissatisfaction_tier"].(string); got != DissatisfactionLow {
		t.Errorf("expected tier low, got %v", got)
	}
	if report.QualityTier != model.TierGood {
		t.Errorf("expected good quality tier for n=40, got %s", report.QualityTier)
	}
}

func TestSatisfaction_BreakdownSumsToTotal(t *testing.T) {
	records := satisfactionSet(map[string]int{
		model.SatisfactionVeryHigh: 7,
		model.SatisfactionNeutral:  4,
		model.SatisfactionVeryLow:  9,
	})

	report := NewEngine(nil).Satisfaction(records)

	sum := 0
	for _, entry := range report.Breakdown {
		sum += entry.Count
	}
	if sum != report.Total {
		t.Errorf("breakdown sum %d != total %d", sum, report.Total)
	}
}

func TestSatisfaction_DissatisfactionTiers(t *testing.T) {
	cases := []struct {
		dissatisfied int
		neutral      int
		want         string
	}{
		{40, 60, DissatisfactionCritical}, // 40%
		{25, 75, DissatisfactionElevated}, // 25%
		{10, 90, DissatisfactionLow},      // 10%
	}

	for _, tc := range cases {
		records := satisfactionSet(map[string]int{
			model.SatisfactionNeutral: tc.neutral,
			model.SatisfactionVeryLow: tc.dissatisfied,
		})
		report := NewEngine(nil).Satisfaction(records)
		if got := report.Metrics["dissatisfaction_tier"].(string); got != tc.want {
			t.Errorf("dissatisfied=%d: expected tier %s, got %s", tc.dissatisfied, tc.want, got)
		}
	}
}

func TestSatisfaction_QualityTiers(t *testing.T) {
	small := NewEngine(nil).Satisfaction(satisfactionSet(map[string]int{model.SatisfactionNeutral: 10}))
	if small.QualityTier != model.TierLimited {
		t.Errorf("expected limited for n=10, got %s", small.QualityTier)
	}

	large := NewEngine(nil).Satisfaction(satisfactionSet(map[string]int{model.SatisfactionNeutral: 120}))
	if large.QualityTier != model.TierExcellent {
		t.Errorf("expected excellent for n=120, got %s", large.QualityTier)
	}
}

func TestAgeBrackets_ComparativeNarrative(t *testing.T) {
	age := func(v int) *int { return &v }
	var records []model.CitizenRecord

	// 20-year-olds very satisfied, 70-year-olds dissatisfied: gap well
	// above 0.5 triggers the comparative narrative naming both.
	for i := 0; i < 5; i++ {
		r := answeredRecord(model.SatisfactionVeryHigh)
		r.Age = age(20)
		records = append(records, r)

		r = answeredRecord(model.SatisfactionLow)
		r.Age = age(70)
		records = append(records, r)
	}
	// Missing age: excluded from denominator.
	records = append(records, answeredRecord(model.SatisfactionNeutral))

	report := NewEngine(nil).AgeBrackets(records)

	if report.Total != 10 {
		t.Fatalf("expected total 10 (ageless excluded), got %d", report.Total)
	}
	if len(report.Insights) == 0 {
		t.Fatal("expected an insight")
	}
	insight := report.Insights[0]
	if !strings.Contains(insight, "15-24") || !strings.Contains(insight, "65+") {
		t.Errorf("expected comparative insight naming both brackets, got %q", insight)
	}
}

func TestAgeBrackets_EvenNarrative(t *testing.T) {
	age := func(v int) *int { return &v }
	var records []model.CitizenRecord
	for _, a := range []int{20, 30, 40, 50} {
		r := answeredRecord(model.SatisfactionHigh)
		r.Age = age(a)
		records = append(records, r)
	}

	report := NewEngine(nil).AgeBrackets(records)

	if len(report.Insights) == 0 {
		t.Fatal("expected an insight")
	}
	if !strings.Contains(report.Insights[0], "uniforme") {
		t.Errorf("expected even-distribution narrative, got %q", report.Insights[0])
	}
}

func TestNeighborhoods_ReferenceNumbers(t *testing.T) {
	// Response rates: A 90%, B 85%, C 40%, D 38%.
	var records []model.CitizenRecord
	add := func(hood string, total, answered int) {
		for i := 0; i < total; i++ {
			rec := model.CitizenRecord{Neighborhood: hood}
			if i < answered {
				at := answeredAt
				rec.Survey = &model.SurveyResponse{Satisfaction: model.SatisfactionNeutral, AnsweredAt: &at}
			}
			records = append(records, rec)
		}
	}
	add("A", 10, 9)
	add("B", 20, 17)
	add("C", 10, 4)
	add("D", 50, 19)

	report := NewEngine(nil).Neighborhoods(records)

	if got := report.Metrics["avg_response_rate"].(float64); got != 63.25 {
		t.Errorf("expected avg 63.25, got %v", got)
	}
	if got := report.Metrics["attention_cutoff"].(float64); got != 53.25 {
		t.Errorf("expected cutoff 53.25, got %v", got)
	}
	flagged := report.Metrics["needs_attention"].([]string)
	if len(flagged) != 2 {
		t.Fatalf("expected 2 flagged neighborhoods, got %v", flagged)
	}
	if flagged[0] != "C" || flagged[1] != "D" {
		t.Errorf("expected C and D flagged, got %v", flagged)
	}
	if got := report.Metrics["equity_assessment"].(string); got != EquityConcern {
		t.Errorf("expected concern (50%% > 40%%), got %v", got)
	}
}

func TestNeighborhoods_ConcentrationWarning(t *testing.T) {
	var records []model.CitizenRecord
	for i := 0; i < 60; i++ {
		records = append(records, model.CitizenRecord{Neighborhood: "Centro"})
	}
	for i := 0; i < 40; i++ {
		records = append(records, model.CitizenRecord{Neighborhood: "Norte"})
	}

	report := NewEngine(nil).Neighborhoods(records)

	found := false
	for _, insight := range report.Insights {
		if strings.Contains(insight, "representatividade") {
			found = true
		}
	}
	if !found {
		t.Error("expected representativeness warning for a 60% neighborhood")
	}
}

func TestNeighborhoods_AllAboveCutoff(t *testing.T) {
	var records []model.CitizenRecord
	add := func(hood string, total, answered int) {
		for i := 0; i < total; i++ {
			rec := model.CitizenRecord{Neighborhood: hood}
			if i < answered {
				at := answeredAt
				rec.Survey = &model.SurveyResponse{AnsweredAt: &at}
			}
			records = append(records, rec)
		}
	}
	add("A", 10, 8)
	add("B", 10, 8)
	add("C", 10, 8)

	report := NewEngine(nil).Neighborhoods(records)

	if got := report.Metrics["equity_assessment"].(string); got != EquityExcellent {
		t.Errorf("expected excellent when none flagged, got %v", got)
	}
}

func issueRecord(issue string) model.CitizenRecord {
	at := answeredAt
	return model.CitizenRecord{Survey: &model.SurveyResponse{Issue: issue, AnsweredAt: &at}}
}

func TestIssues_DominantFraming(t *testing.T) {
	var records []model.CitizenRecord
	for i := 0; i < 6; i++ {
		records = append(records, issueRecord("Iluminação pública"))
	}
	records = append(records, issueRecord("Segurança"), issueRecord("Limpeza urbana"))

	report := NewEngine(nil).Issues(records)

	if got := report.Metrics["framing"].(string); got != FramingDominant {
		t.Errorf("expected dominant framing at 75%%, got %v", got)
	}
	if len(report.Recommendations) != 1 {
		t.Fatalf("expected single priority recommendation, got %d", len(report.Recommendations))
	}
	if !strings.Contains(report.Recommendations[0], "concessionária") {
		t.Errorf("expected the lighting remediation, got %q", report.Recommendations[0])
	}
}

func TestIssues_DiverseFraming(t *testing.T) {
	var records []model.CitizenRecord
	issues := []string{"Iluminação pública", "Segurança", "Limpeza urbana", "Saúde", "Transporte", "Outro tema"}
	for _, issue := range issues {
		records = append(records, issueRecord(issue), issueRecord(issue))
	}

	report := NewEngine(nil).Issues(records)

	if got := report.Metrics["framing"].(string); got != FramingDiverse {
		t.Errorf("expected diverse framing, got %v", got)
	}
	// Top-3 remediations, with the generic fallback for unmapped issues.
	if len(report.Recommendations) != 3 {
		t.Errorf("expected 3 remediation entries, got %d", len(report.Recommendations))
	}
	if report.Metrics["diversity_index"].(float64) <= 0 {
		t.Error("expected positive diversity index")
	}
}

func TestIssues_UnmappedFallback(t *testing.T) {
	if got := remediationFor("Tema desconhecido"); !strings.Contains(got, "Investigar") {
		t.Errorf("expected generic fallback, got %q", got)
	}
}

func TestEngagement_FunnelAndTiers(t *testing.T) {
	now := answeredAt
	var records []model.CitizenRecord
	for i := 0; i < 10; i++ {
		rec := model.CitizenRecord{SentAt: &now}
		if i < 6 {
			rec.ClickedAt = &now
		}
		if i < 4 {
			rec.Survey = &model.SurveyResponse{AnsweredAt: &now}
		}
		records = append(records, rec)
	}

	report := NewEngine(nil).Engagement(records)

	if got := report.Metrics["response_rate"].(float64); got != 40 {
		t.Errorf("expected response rate 40, got %v", got)
	}
	if got := report.Metrics["engagement_rate"].(float64); got != 60 {
		t.Errorf("expected engagement rate 60, got %v", got)
	}
	if got := report.Metrics["completion_rate"].(float64); got != 66.67 {
		t.Errorf("expected completion rate 66.67, got %v", got)
	}
	if got := report.Metrics["performance_level"].(string); got != PerformanceFair {
		t.Errorf("expected fair level at 40%%, got %v", got)
	}
	if len(report.Recommendations) == 0 {
		t.Error("expected remediation recommendation below 50%")
	}

	sum := 0
	for _, entry := range report.Breakdown {
		sum += entry.Count
	}
	if sum != report.Total {
		t.Errorf("funnel breakdown sum %d != total %d", sum, report.Total)
	}
}

func TestParticipation_Tiers(t *testing.T) {
	build := func(yes, no int) []model.CitizenRecord {
		at := answeredAt
		var records []model.CitizenRecord
		for i := 0; i < yes; i++ {
			records = append(records, model.CitizenRecord{
				Survey: &model.SurveyResponse{Participate: "sim", AnsweredAt: &at},
			})
		}
		for i := 0; i < no; i++ {
			records = append(records, model.CitizenRecord{
				Survey: &model.SurveyResponse{Participate: "não", AnsweredAt: &at},
			})
		}
		return records
	}

	high := NewEngine(nil).Participation(build(8, 2))
	if got := high.Metrics["engagement_potential"].(string); got != PotentialHigh {
		t.Errorf("expected high at 80%%, got %v", got)
	}
	if !strings.Contains(high.Recommendations[0], "comitê") {
		t.Errorf("expected committee recommendation, got %q", high.Recommendations[0])
	}

	medium := NewEngine(nil).Participation(build(5, 5))
	if got := medium.Metrics["engagement_potential"].(string); got != PotentialMedium {
		t.Errorf("expected medium at 50%%, got %v", got)
	}

	low := NewEngine(nil).Participation(build(2, 8))
	if got := low.Metrics["engagement_potential"].(string); got != PotentialLow {
		t.Errorf("expected low at 20%%, got %v", got)
	}
	if !strings.Contains(low.Recommendations[0], "barreiras") {
		t.Errorf("expected barrier research recommendation, got %q", low.Recommendations[0])
	}
}

func TestCheckIntegrity_LogsMismatchWithoutFailing(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	engine := NewEngine(logger)

	report := &model.AnalysisReport{
		Type:  ReportSatisfaction,
		Total: 10,
		Breakdown: []model.BreakdownEntry{
			{Label: "x", Count: 3},
			{Label: "y", Count: 4},
		},
	}

	engine.checkIntegrity(report) // must not panic or error

	if !strings.Contains(buf.String(), "breakdown count mismatch") {
		t.Error("expected integrity warning to be logged")
	}
}
