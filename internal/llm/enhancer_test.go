package llm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/civicpulse/civicpulse/internal/model"
	"github.com/sashabaranov/go-openai"
)

type stubProvider struct {
	response string
	err      error
	lastReq  CompletionRequest
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return &CompletionResponse{Text: s.response, Model: "stub"}, nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEnhancer_Disabled(t *testing.T) {
	e := NewEnhancer(nil, Config{}, 2, 4, discard())

	if e.Enabled() {
		t.Fatal("enhancer with nil provider must report disabled")
	}
	candidate, err := e.Enhance(context.Background(), EnhanceRequest{Query: "qualquer"})
	if candidate != nil || err != nil {
		t.Errorf("disabled enhancer returned (%v, %v), want (nil, nil)", candidate, err)
	}

	var nilEnhancer *Enhancer
	if nilEnhancer.Enabled() {
		t.Error("nil enhancer must report disabled")
	}
}

func TestEnhancer_Success(t *testing.T) {
	text := "A pesquisa registrou 120 respostas com satisfação média de 3.8. " +
		"Os bairros Centro e Jardim concentram os relatos de insatisfação com iluminação pública, " +
		"e a maioria dos munícipes insatisfeitos pediu retorno da prefeitura sobre os reparos em andamento."
	provider := &stubProvider{response: "  " + text + "  "}
	e := NewEnhancer(provider, Config{MaxTokens: 300}, 100, 10, discard())

	candidate, err := e.Enhance(context.Background(), EnhanceRequest{
		Query:         "Mostrar análise de satisfação",
		Deterministic: "Análise de satisfação com base em 120 registros.",
		ResidentNames: []string{"João da Silva"},
		ReportSummary: "média 3.8",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if candidate.Text != text {
		t.Error("candidate text must be trimmed")
	}
	if candidate.Source != model.SourceLLM {
		t.Errorf("source = %s, want llm", candidate.Source)
	}
	if candidate.Quality != model.QualityExcellent {
		t.Errorf("quality = %s, want excellent", candidate.Quality)
	}
	if !strings.Contains(provider.lastReq.Prompt, "João da Silva") {
		t.Error("prompt must list the resident names")
	}
}

func TestEnhancer_EmptyCompletionIsMalformed(t *testing.T) {
	e := NewEnhancer(&stubProvider{response: "   "}, Config{}, 100, 10, discard())

	_, err := e.Enhance(context.Background(), EnhanceRequest{Query: "q", Deterministic: "d"})
	var enhErr *EnhancementError
	if !errors.As(err, &enhErr) || enhErr.Category != FailureMalformed {
		t.Fatalf("error = %v, want malformed enhancement error", err)
	}
}

func TestEnhancer_ProviderErrorIsCategorized(t *testing.T) {
	e := NewEnhancer(&stubProvider{err: context.DeadlineExceeded}, Config{}, 100, 10, discard())

	_, err := e.Enhance(context.Background(), EnhanceRequest{Query: "q", Deterministic: "d"})
	var enhErr *EnhancementError
	if !errors.As(err, &enhErr) || enhErr.Category != FailureTimeout {
		t.Fatalf("error = %v, want timeout enhancement error", err)
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureCategory
	}{
		{"deadline", context.DeadlineExceeded, FailureTimeout},
		{"canceled", context.Canceled, FailureTimeout},
		{"auth 401", &openai.APIError{HTTPStatusCode: 401}, FailureAuth},
		{"auth 403", &openai.APIError{HTTPStatusCode: 403}, FailureAuth},
		{"server 500", &openai.APIError{HTTPStatusCode: 500}, FailureTransient},
		{"network", errors.New("connection refused"), FailureTransient},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Categorize(tc.err); got != tc.want {
				t.Errorf("Categorize = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestGradeQuality(t *testing.T) {
	withNumbers := strings.Repeat("A média de satisfação foi 3.8 no Centro. ", 7)

	tests := []struct {
		name string
		text string
		want string
	}{
		{"refusal", "I cannot help with that request right now, sorry about the inconvenience caused today.", model.QualityPoor},
		{"refusal pt", "Desculpe, não tenho como responder a essa pergunta com os dados fornecidos aqui.", model.QualityPoor},
		{"too short", "Tudo certo.", model.QualityPoor},
		{"thin", "A satisfação média dos munícipes está em um nível considerado razoável.", model.QualityFair},
		{"substantial without numbers", strings.Repeat("Os munícipes relataram problemas variados. ", 4), model.QualityGood},
		{"substantial with numbers", withNumbers, model.QualityExcellent},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := GradeQuality(tc.text); got != tc.want {
				t.Errorf("GradeQuality(%q) = %s, want %s", tc.text, got, tc.want)
			}
		})
	}
}
