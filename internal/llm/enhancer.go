package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/civicpulse/civicpulse/internal/model"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// FailureCategory distinguishes enhancement failures for logging and
// metrics. None of them is ever fatal to the pipeline.
type FailureCategory string

const (
	FailureAuth      FailureCategory = "auth"
	FailureTimeout   FailureCategory = "timeout"
	FailureTransient FailureCategory = "transient"
	FailureMalformed FailureCategory = "malformed"
)

// EnhancementError wraps a provider failure with its category.
type EnhancementError struct {
	Category FailureCategory
	Err      error
}

func (e *EnhancementError) Error() string {
	return fmt.Sprintf("enhancement %s failure: %v", e.Category, e.Err)
}

func (e *EnhancementError) Unwrap() error {
	return e.Err
}

// EnhanceRequest carries the deterministic answer and its supporting
// data into the enhancement call.
type EnhanceRequest struct {
	Query         string
	Deterministic string
	ResidentNames []string
	ReportSummary string
	NameSearch    bool
}

// Enhancer wraps an optional Provider for response enhancement.
// A nil provider disables it for the process lifetime.
type Enhancer struct {
	provider Provider
	limiter  *rate.Limiter
	config   Config
	logger   *slog.Logger
}

// NewEnhancer creates an enhancer. Provider may be nil (disabled).
func NewEnhancer(provider Provider, config Config, perSecond float64, burst int, logger *slog.Logger) *Enhancer {
	if perSecond <= 0 {
		perSecond = 2
	}
	if burst <= 0 {
		burst = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Enhancer{
		provider: provider,
		limiter:  rate.NewLimiter(rate.Limit(perSecond), burst),
		config:   config,
		logger:   logger,
	}
}

// Enabled reports whether enhancement calls will be attempted.
func (e *Enhancer) Enabled() bool {
	return e != nil && e.provider != nil
}

// ProviderName returns the active provider name, or "" when disabled.
func (e *Enhancer) ProviderName() string {
	if !e.Enabled() {
		return ""
	}
	return e.provider.Name()
}

// Enhance requests an alternative phrasing of the deterministic answer.
// The returned candidate is untrusted: arbitration decides whether it
// is ever shown to the caller.
func (e *Enhancer) Enhance(ctx context.Context, req EnhanceRequest) (*model.Candidate, error) {
	if !e.Enabled() {
		return nil, nil
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, &EnhancementError{Category: FailureTimeout, Err: err}
	}

	resp, err := e.provider.Complete(ctx, CompletionRequest{
		System:    enhanceSystemPrompt,
		Prompt:    buildEnhancePrompt(req),
		MaxTokens: e.config.MaxTokens,
	})
	if err != nil {
		return nil, &EnhancementError{Category: Categorize(err), Err: err}
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return nil, &EnhancementError{Category: FailureMalformed, Err: errors.New("empty completion")}
	}

	return &model.Candidate{
		Text:    text,
		Source:  model.SourceLLM,
		Quality: GradeQuality(text),
	}, nil
}

// Categorize maps a provider error to its failure category.
func Categorize(err error) FailureCategory {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return FailureTimeout
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 401, 403:
			return FailureAuth
		}
	}
	return FailureTransient
}

// GradeQuality assigns a coarse quality level to a completion.
// The grade is deterministic so arbitration stays reproducible: short
// or refusal-shaped output is poor, thin output is fair, substantial
// output that cites concrete numbers is excellent.
func GradeQuality(text string) string {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)

	for _, marker := range refusalMarkers {
		if strings.Contains(lower, marker) {
			return model.QualityPoor
		}
	}

	runes := len([]rune(trimmed))
	switch {
	case runes < 40:
		return model.QualityPoor
	case runes < 120:
		return model.QualityFair
	case runes >= 240 && containsDigit(trimmed):
		return model.QualityExcellent
	default:
		return model.QualityGood
	}
}

var refusalMarkers = []string{
	"i cannot", "i can't", "as an ai", "não posso ajudar",
	"desculpe, não", "i'm sorry, but",
}

func containsDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

const enhanceSystemPrompt = `Você é um assistente de análise de pesquisas municipais. ` +
	`Reescreva a resposta determinística de forma clara e natural, em português. ` +
	`Use SOMENTE os dados fornecidos. Não invente nomes, números ou bairros. ` +
	`Se os dados forem insuficientes, diga isso explicitamente.`

// buildEnhancePrompt assembles the user content. Resident names are
// listed so a grounded completion can reference them; the grounding
// check downstream verifies it actually did.
func buildEnhancePrompt(req EnhanceRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Pergunta do usuário: %s\n\n", req.Query)
	fmt.Fprintf(&b, "Resposta determinística:\n%s\n", req.Deterministic)

	if len(req.ResidentNames) > 0 {
		b.WriteString("\nMunícipes encontrados (lista completa, não adicione outros):\n")
		for i, name := range req.ResidentNames {
			if i >= 20 { // Limit to avoid token bloat
				fmt.Fprintf(&b, "... e mais %d\n", len(req.ResidentNames)-20)
				break
			}
			fmt.Fprintf(&b, "- %s\n", name)
		}
	}

	if req.ReportSummary != "" {
		fmt.Fprintf(&b, "\nResumo analítico:\n%s\n", req.ReportSummary)
	}

	if req.NameSearch {
		b.WriteString("\nResponda em no máximo 3 frases, focando apenas nos munícipes listados.")
	} else {
		b.WriteString("\nProduza uma resposta completa em 1-2 parágrafos, citando os números do resumo.")
	}

	return b.String()
}
