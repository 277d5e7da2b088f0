package classify

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/civicpulse/civicpulse/internal/llm"
	"github.com/civicpulse/civicpulse/internal/model"
	"github.com/civicpulse/civicpulse/internal/textutil"
	gocache "github.com/patrickmn/go-cache"
)

// lowConfidenceFloor is the in-scope confidence below which a verdict
// with zero domain anchors is flipped to out-of-scope. The analyzer
// applies the same safeguard again on its own path; the duplication is
// deliberate so neither layer can be weakened alone.
const lowConfidenceFloor = 0.65

// ScopeClassifier judges whether a query is in the municipal survey
// domain. It degrades optimistically: a disabled or failing provider
// never blocks a query by itself.
type ScopeClassifier struct {
	provider llm.Provider
	cache    *gocache.Cache
	logger   *slog.Logger
}

// NewScopeClassifier creates a classifier. Provider may be nil
// (disabled). Verdicts are cached in-process with the given TTL and
// never persisted.
func NewScopeClassifier(provider llm.Provider, ttl, cleanup time.Duration, logger *slog.Logger) *ScopeClassifier {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if cleanup <= 0 {
		cleanup = 2 * ttl
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ScopeClassifier{
		provider: provider,
		cache:    gocache.New(ttl, cleanup),
		logger:   logger,
	}
}

// Classify returns the scope verdict for the query.
func (c *ScopeClassifier) Classify(ctx context.Context, query string) model.ScopeResult {
	if c.provider == nil {
		return model.ScopeResult{
			InScope:    true,
			Confidence: 0.5,
			Reason:     "classifier disabled",
		}
	}

	normalized := textutil.Normalize(query)
	if cached, found := c.cache.Get(normalized); found {
		return cached.(model.ScopeResult)
	}

	resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
		System:    scopeSystemPrompt,
		Prompt:    query,
		MaxTokens: 200,
	})
	if err != nil {
		category := llm.Categorize(err)
		c.logger.Warn("scope classification failed, falling back optimistic",
			"category", string(category), "error", err)
		return model.ScopeResult{
			InScope:    true,
			Confidence: 0.5,
			Reason:     "classifier unavailable (" + string(category) + ")",
		}
	}

	result := parseVerdict(resp.Text)
	result = c.applySafeguard(result, normalized)

	c.cache.Set(normalized, result, gocache.DefaultExpiration)
	return result
}

// applySafeguard flips a weak in-scope verdict to out-of-scope when the
// query carries no municipal-domain anchor words.
func (c *ScopeClassifier) applySafeguard(result model.ScopeResult, normalized string) model.ScopeResult {
	if !result.InScope || result.Confidence >= lowConfidenceFloor {
		return result
	}
	if textutil.ContainsAny(normalized, domainAnchors) {
		return result
	}
	result.InScope = false
	result.Reason = "low confidence without domain anchors"
	return result
}

const scopeSystemPrompt = `Você classifica perguntas para um sistema de análise de pesquisa de satisfação municipal.
O domínio cobre: munícipes cadastrados, respostas de pesquisa, satisfação, bairros, problemas urbanos, engajamento e participação cidadã.

Responda EXATAMENTE neste formato, uma linha por campo:
SCOPE: in|out
CONFIDENCE: 0.0-1.0
CATEGORIES: lista separada por vírgula
INTENT: satisfaction|engagement|geographic|operational|benchmarking|survey
REASON: uma frase curta`

// parseVerdict extracts the structured verdict from the model's text.
// Output that does not carry a SCOPE line is treated as unparsed and
// kept optimistic at reduced confidence.
func parseVerdict(text string) model.ScopeResult {
	result := model.ScopeResult{}
	sawScope := false

	for _, line := range strings.Split(text, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)

		switch strings.ToUpper(strings.TrimSpace(key)) {
		case "SCOPE":
			sawScope = true
			v := strings.ToLower(value)
			result.InScope = v == "in" || strings.HasPrefix(v, "in ") || v == "dentro"
		case "CONFIDENCE":
			if f, err := strconv.ParseFloat(value, 64); err == nil && f >= 0 && f <= 1 {
				result.Confidence = f
			}
		case "CATEGORIES":
			for _, cat := range strings.Split(value, ",") {
				if cat = strings.TrimSpace(cat); cat != "" {
					result.Categories = append(result.Categories, strings.ToLower(cat))
				}
			}
		case "INTENT":
			result.CanonicalIntent = strings.ToLower(value)
		case "REASON":
			result.Reason = value
		}
	}

	if !sawScope {
		return model.ScopeResult{
			InScope:    true,
			Confidence: 0.4,
			Categories: []string{"unparsed"},
			Reason:     "unparsable classifier output",
		}
	}
	return result
}
