package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/civicpulse/civicpulse/internal/analysis"
	"github.com/civicpulse/civicpulse/internal/classify"
	"github.com/civicpulse/civicpulse/internal/filter"
	"github.com/civicpulse/civicpulse/internal/llm"
	"github.com/civicpulse/civicpulse/internal/model"
	"github.com/civicpulse/civicpulse/internal/store"
)

type mockProvider struct {
	response string
	err      error
	calls    int
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &llm.CompletionResponse{Text: m.response, Model: "mock"}, nil
}

type failingSource struct{}

func (failingSource) All(ctx context.Context) ([]model.CitizenRecord, error) {
	return nil, errors.New("collection unavailable")
}

func (failingSource) Close(ctx context.Context) error { return nil }

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func testRecords() []model.CitizenRecord {
	now := time.Now()
	answered := func(satisfaction, participate string) *model.SurveyResponse {
		return &model.SurveyResponse{
			Issue:        "Iluminação pública",
			Satisfaction: satisfaction,
			Participate:  participate,
			AnsweredAt:   timePtr(now),
		}
	}

	return []model.CitizenRecord{
		{ID: "1", Name: "João da Silva", Age: intPtr(34), Neighborhood: "Centro",
			SentAt: timePtr(now), ClickedAt: timePtr(now),
			Survey: answered(model.SatisfactionVeryLow, "sim")},
		{ID: "2", Name: "Maria Oliveira", Age: intPtr(52), Neighborhood: "Jardim",
			SentAt: timePtr(now), ClickedAt: timePtr(now),
			Survey: answered(model.SatisfactionLow, "não")},
		{ID: "3", Name: "Ana Clara Souza", Age: intPtr(27), Neighborhood: "Centro",
			SentAt: timePtr(now), ClickedAt: timePtr(now),
			Survey: answered(model.SatisfactionVeryHigh, "sim")},
		{ID: "4", Name: "Carlos Pereira", Age: intPtr(45), Neighborhood: "Jardim",
			SentAt: timePtr(now), ClickedAt: timePtr(now),
			Survey: answered(model.SatisfactionHigh, "")},
		{ID: "5", Name: "Fernanda Silva Costa", Age: intPtr(61), Neighborhood: "Vila Nova",
			SentAt: timePtr(now),
			Survey: nil},
		{ID: "6", Name: "Pedro Santos", Neighborhood: "Vila Nova",
			SentAt: timePtr(now), ClickedAt: timePtr(now),
			Survey: answered(model.SatisfactionNeutral, "sim")},
	}
}

func newTestOrchestrator(t *testing.T, scopeProvider, enhanceProvider llm.Provider, source store.Source) *Orchestrator {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	scope := classify.NewScopeClassifier(scopeProvider, time.Minute, time.Minute, logger)
	analyzer := classify.NewAnalyzer(scope, logger)
	filters := filter.NewService(logger)
	engine := analysis.NewEngine(logger)

	var enhancer *llm.Enhancer
	if enhanceProvider != nil {
		enhancer = llm.NewEnhancer(enhanceProvider, llm.Config{MaxTokens: 300}, 100, 10, logger)
	}

	return NewOrchestrator(analyzer, filters, engine, source, enhancer, time.Second, logger)
}

func TestAnswer_SatisfactionAnalysis(t *testing.T) {
	records := testRecords()
	o := newTestOrchestrator(t, nil, nil, store.NewMemorySourceFromRecords(records))

	res := o.Answer(context.Background(), "Mostrar análise de satisfação")

	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if res.Intent != model.IntentKnowledge {
		t.Errorf("intent = %s, want knowledge", res.Intent)
	}
	if res.QueryType != model.QueryTypeAnalysis {
		t.Errorf("query type = %s, want analysis", res.QueryType)
	}
	if res.Report == nil || res.Report.Type != analysis.ReportSatisfaction {
		t.Fatalf("expected satisfaction report, got %+v", res.Report)
	}
	if len(res.Insights) == 0 {
		t.Error("expected insights from the satisfaction report")
	}
	if res.Provenance.Agent != agentAnalysis {
		t.Errorf("agent = %s, want %s", res.Provenance.Agent, agentAnalysis)
	}
	if res.Provenance.LLMUsed {
		t.Error("LLM must not be used with no provider configured")
	}
	if res.Confidence != 0.70 {
		t.Errorf("confidence = %.2f, want 0.70", res.Confidence)
	}
	if res.Statistics.TotalContacts != len(records) {
		t.Errorf("total contacts = %d, want %d", res.Statistics.TotalContacts, len(records))
	}
}

func TestAnswer_OutOfScopeBlocked(t *testing.T) {
	scope := &mockProvider{response: "SCOPE: out\nCONFIDENCE: 0.9\nREASON: fora do domínio municipal"}
	o := newTestOrchestrator(t, scope, nil, store.NewMemorySourceFromRecords(testRecords()))

	res := o.Answer(context.Background(), "Quero pedir uma pizza")

	if !res.Success {
		t.Fatal("a blocked query is not an error result")
	}
	if res.Intent != model.IntentOutOfScope {
		t.Errorf("intent = %s, want out_of_scope", res.Intent)
	}
	if res.QueryType != model.QueryTypeBlocked {
		t.Errorf("query type = %s, want blocked", res.QueryType)
	}
	if res.Response != blockedMessage {
		t.Errorf("blocked response = %q, want the fixed redirection message", res.Response)
	}
	if len(res.Residents) != 0 {
		t.Error("blocked result must carry no residents")
	}
}

func TestAnswer_NameSearchFocusedDeterministicWins(t *testing.T) {
	// Long, number-bearing completion that even names a real resident:
	// the focused deterministic answer must still win.
	enhanced := strings.Repeat("João da Silva mora no Centro e respondeu à pesquisa em 2025. ", 6)
	enhance := &mockProvider{response: enhanced}
	o := newTestOrchestrator(t, nil, enhance, store.NewMemorySourceFromRecords(testRecords()))

	res := o.Answer(context.Background(), "buscar Silva")

	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if len(res.Residents) != 2 {
		t.Fatalf("residents = %d, want 2 (João da Silva, Fernanda Silva Costa)", len(res.Residents))
	}
	if res.Provenance.LLMUsed {
		t.Error("focused name-search answer must not be replaced by the LLM")
	}
	if !strings.HasPrefix(res.Response, "Encontrei 2") {
		t.Errorf("response = %q, want the deterministic listing", res.Response)
	}
	if len(res.Insights) != 0 || len(res.Recommendations) != 0 {
		t.Error("name searches carry no insights or recommendations")
	}
	if res.Confidence != 0.95 {
		t.Errorf("confidence = %.2f, want 0.95 (residents + excellent candidate)", res.Confidence)
	}
}

func TestAnswer_GroundedLLMWinsGeneralQuery(t *testing.T) {
	enhanced := "Dois munícipes estão insatisfeitos com os serviços: João da Silva relatou problemas " +
		"graves de iluminação no Centro e Maria Oliveira apontou falhas no Jardim. Recomendo contato prioritário."
	enhance := &mockProvider{response: enhanced}
	o := newTestOrchestrator(t, nil, enhance, store.NewMemorySourceFromRecords(testRecords()))

	res := o.Answer(context.Background(), "Liste os moradores insatisfeitos")

	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if len(res.Residents) != 2 {
		t.Fatalf("residents = %d, want 2", len(res.Residents))
	}
	if !res.Provenance.LLMUsed {
		t.Fatal("a grounded good-quality candidate must win a general query")
	}
	if res.Response != enhanced {
		t.Errorf("response = %q, want the enhanced text", res.Response)
	}
	if res.Provenance.Source != string(model.SourceLLM) {
		t.Errorf("provenance source = %s, want llm", res.Provenance.Source)
	}
}

func TestAnswer_EnhancementFailureFallsBack(t *testing.T) {
	enhance := &mockProvider{err: errors.New("upstream 503")}
	o := newTestOrchestrator(t, nil, enhance, store.NewMemorySourceFromRecords(testRecords()))

	res := o.Answer(context.Background(), "Liste os moradores insatisfeitos")

	if !res.Success {
		t.Fatal("enhancement failure must never be fatal")
	}
	if res.Provenance.LLMUsed {
		t.Error("failed enhancement must fall back to the deterministic answer")
	}
	if len(res.Residents) != 2 {
		t.Errorf("residents = %d, want 2", len(res.Residents))
	}
	if enhance.calls != 1 {
		t.Errorf("provider calls = %d, want 1", enhance.calls)
	}
}

func TestAnswer_RoutingFailure(t *testing.T) {
	o := newTestOrchestrator(t, nil, nil, failingSource{})

	res := o.Answer(context.Background(), "Mostrar análise de satisfação")

	if res.Success {
		t.Fatal("a failing record source must produce an error result")
	}
	if res.Response != retryMessage {
		t.Errorf("response = %q, want the generic retry message", res.Response)
	}
	if res.Error == "" || !strings.Contains(res.Error, "collection unavailable") {
		t.Errorf("error = %q, want the raw cause attached", res.Error)
	}
	if res.Query != "Mostrar análise de satisfação" {
		t.Errorf("query = %q, want the original echoed", res.Query)
	}
	if len(res.Residents) != 0 {
		t.Error("error result must carry no residents")
	}
}

func TestAnswer_CountQuery(t *testing.T) {
	o := newTestOrchestrator(t, nil, nil, store.NewMemorySourceFromRecords(testRecords()))

	res := o.Answer(context.Background(), "Quantos moradores responderam a pesquisa?")

	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if res.Intent == model.IntentOutOfScope {
		t.Fatal("statistical queries are never blocked")
	}
	if !strings.Contains(res.Response, "6 munícipes cadastrados") {
		t.Errorf("response = %q, want the contact count", res.Response)
	}
	if !strings.Contains(res.Response, "5 responderam") {
		t.Errorf("response = %q, want the answered count", res.Response)
	}
}

func TestArbitrate(t *testing.T) {
	det := model.Candidate{Text: "Encontrei 2 munícipes.", Source: model.SourceDeterministic}
	focused := det
	focused.Focused = true
	names := []string{"João da Silva", "Maria Oliveira"}

	longGrounded := "João da Silva " + strings.Repeat("x", 590)
	shortGrounded := "João da Silva respondeu à pesquisa e relatou insatisfação com a iluminação do bairro Centro, pedindo retorno da prefeitura em breve."

	tests := []struct {
		name       string
		det        model.Candidate
		llm        *model.Candidate
		nameSearch bool
		wantLLM    bool
	}{
		{"focused name search defaults deterministic", focused,
			&model.Candidate{Text: shortGrounded, Source: model.SourceLLM, Quality: model.QualityExcellent}, true, false},
		{"name search grounded but too long", det,
			&model.Candidate{Text: longGrounded, Source: model.SourceLLM, Quality: model.QualityGood}, true, false},
		{"name search grounded and short", det,
			&model.Candidate{Text: shortGrounded, Source: model.SourceLLM, Quality: model.QualityGood}, true, true},
		{"general grounded wins", det,
			&model.Candidate{Text: shortGrounded, Source: model.SourceLLM, Quality: model.QualityGood}, false, true},
		{"general ungrounded short loses", det,
			&model.Candidate{Text: "Resumo curto.", Source: model.SourceLLM, Quality: model.QualityGood}, false, false},
		{"general ungrounded long wins on length", det,
			&model.Candidate{Text: strings.Repeat("a", 200), Source: model.SourceLLM, Quality: model.QualityGood}, false, true},
		{"fair quality name search short wins", det,
			&model.Candidate{Text: "Achei o João.", Source: model.SourceLLM, Quality: model.QualityFair}, true, true},
		{"fair quality general never wins", det,
			&model.Candidate{Text: strings.Repeat("a", 400), Source: model.SourceLLM, Quality: model.QualityFair}, false, false},
		{"poor quality name search empty loses", det,
			&model.Candidate{Text: "", Source: model.SourceLLM, Quality: model.QualityPoor}, true, false},
		{"no candidate", det, nil, false, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := arbitrate(tc.det, tc.llm, tc.nameSearch, names)
			isLLM := got.Source == model.SourceLLM
			if isLLM != tc.wantLLM {
				t.Errorf("chose source %s, wantLLM=%v", got.Source, tc.wantLLM)
			}
		})
	}
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		name      string
		residents int
		llm       *model.Candidate
		want      float64
	}{
		{"base", 0, nil, 0.70},
		{"residents only", 3, nil, 0.85},
		{"good candidate", 0, &model.Candidate{Quality: model.QualityGood}, 0.75},
		{"excellent candidate", 0, &model.Candidate{Quality: model.QualityExcellent}, 0.80},
		{"residents and good", 1, &model.Candidate{Quality: model.QualityGood}, 0.90},
		{"capped", 5, &model.Candidate{Quality: model.QualityExcellent}, 0.95},
		{"fair adds nothing", 1, &model.Candidate{Quality: model.QualityFair}, 0.85},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := confidence(tc.residents, tc.llm); got != tc.want {
				t.Errorf("confidence = %.2f, want %.2f", got, tc.want)
			}
		})
	}

	// Monotonicity: more residents and better quality never lower the
	// score.
	base := confidence(0, &model.Candidate{Quality: model.QualityGood})
	upgraded := confidence(1, &model.Candidate{Quality: model.QualityExcellent})
	if upgraded < base {
		t.Errorf("confidence dropped from %.2f to %.2f on upgrade", base, upgraded)
	}
}

func TestSnapshot(t *testing.T) {
	stats := snapshot(testRecords())

	if stats.TotalContacts != 6 {
		t.Errorf("total contacts = %d, want 6", stats.TotalContacts)
	}
	// 5 of 6 answered.
	if stats.ResponseRate != 83.33 {
		t.Errorf("response rate = %.2f, want 83.33", stats.ResponseRate)
	}
	// Weights 1+2+5+4+3 over 5 scored records.
	if stats.SatisfactionScore != 3.0 {
		t.Errorf("satisfaction score = %.2f, want 3.00", stats.SatisfactionScore)
	}
}
