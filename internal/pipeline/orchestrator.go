// Package pipeline runs a query end to end: classification, context
// building, routing to a response consumer, optional LLM enhancement
// and arbitration between the deterministic and model-generated answer.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/civicpulse/civicpulse/internal/classify"
	"github.com/civicpulse/civicpulse/internal/filter"
	"github.com/civicpulse/civicpulse/internal/llm"
	"github.com/civicpulse/civicpulse/internal/metrics"
	"github.com/civicpulse/civicpulse/internal/model"
	"github.com/civicpulse/civicpulse/internal/store"
)

// Version tags every result's provenance.
const Version = "1.2.0"

// State names for the per-query pipeline lifecycle. BLOCKED and
// RETURNED are terminal.
type State string

const (
	StateReceived           State = "RECEIVED"
	StateClassified         State = "CLASSIFIED"
	StateBlocked            State = "BLOCKED"
	StateContextBuilt       State = "CONTEXT_BUILT"
	StateRouted             State = "ROUTED"
	StateEnhanced           State = "ENHANCED"
	StateEnhancementSkipped State = "ENHANCEMENT_SKIPPED"
	StateEnhancementFailed  State = "ENHANCEMENT_FAILED"
	StateArbitrated         State = "ARBITRATED"
	StateReturned           State = "RETURNED"
)

const blockedMessage = `Posso ajudar apenas com dados da pesquisa municipal: ` +
	`munícipes cadastrados, satisfação, bairros, engajamento e participação. ` +
	`Reformule sua pergunta dentro desse escopo.`

const retryMessage = `Não foi possível processar sua solicitação no momento. ` +
	`Tente novamente em alguns instantes.`

// Orchestrator is the top-level query pipeline. It holds no per-query
// state, so one instance serves concurrent requests.
type Orchestrator struct {
	analyzer       *classify.Analyzer
	filters        *filter.Service
	engine         analysisEngine
	source         store.Source
	enhancer       *llm.Enhancer
	enhanceTimeout time.Duration
	logger         *slog.Logger
}

// analysisEngine is the slice of the analysis API the pipeline routes
// to.
type analysisEngine interface {
	Satisfaction(records []model.CitizenRecord) *model.AnalysisReport
	AgeBrackets(records []model.CitizenRecord) *model.AnalysisReport
	Neighborhoods(records []model.CitizenRecord) *model.AnalysisReport
	Issues(records []model.CitizenRecord) *model.AnalysisReport
	Engagement(records []model.CitizenRecord) *model.AnalysisReport
	Participation(records []model.CitizenRecord) *model.AnalysisReport
}

// NewOrchestrator wires the pipeline. enhancer may be disabled; the
// pipeline then always answers with the deterministic candidate.
func NewOrchestrator(analyzer *classify.Analyzer, filters *filter.Service, engine analysisEngine, source store.Source, enhancer *llm.Enhancer, enhanceTimeout time.Duration, logger *slog.Logger) *Orchestrator {
	if enhanceTimeout <= 0 {
		enhanceTimeout = 8 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		analyzer:       analyzer,
		filters:        filters,
		engine:         engine,
		source:         source,
		enhancer:       enhancer,
		enhanceTimeout: enhanceTimeout,
		logger:         logger,
	}
}

// Answer runs one query through the full pipeline and always returns a
// result: blocked queries get a fixed redirection message, routing
// failures get an error result, and enhancement failures fall back to
// the deterministic candidate.
func (o *Orchestrator) Answer(ctx context.Context, query string) *model.Result {
	start := time.Now()
	id := uuid.NewString()
	state := StateReceived
	o.transition(id, &state, StateReceived)

	analysis := o.analyzer.Analyze(ctx, query)
	o.transition(id, &state, StateClassified)

	if analysis.Blocked {
		o.transition(id, &state, StateBlocked)
		result := o.blockedResult(id, query, analysis, start)
		metrics.ObserveQuery(time.Since(start), metrics.OutcomeBlocked)
		return result
	}

	records, err := o.source.All(ctx)
	if err != nil {
		return o.errorResult(id, query, analysis, start, err)
	}
	o.transition(id, &state, StateContextBuilt)

	routed, err := o.route(analysis, records, query)
	if err != nil {
		return o.errorResult(id, query, analysis, start, err)
	}
	o.transition(id, &state, StateRouted)

	nameSearch := analysis.HasNeed(model.NeedNameSearch)
	llmCandidate := o.enhance(ctx, id, &state, query, analysis, routed)

	residentNames := make([]string, 0, len(routed.Residents))
	for _, res := range routed.Residents {
		residentNames = append(residentNames, res.Name)
	}

	chosen := arbitrate(routed.Deterministic, llmCandidate, nameSearch, residentNames)
	o.transition(id, &state, StateArbitrated)

	insights := routed.Insights
	recommendations := routed.Recommendations
	if nameSearch {
		// A person lookup answers a narrow question; analytical
		// commentary would only dilute it.
		insights = nil
		recommendations = nil
	}

	result := &model.Result{
		ID:              id,
		Success:         true,
		Query:           query,
		Intent:          analysis.Intent,
		QueryType:       analysis.QueryType,
		Response:        chosen.Text,
		Residents:       routed.Residents,
		Report:          routed.Report,
		Insights:        insights,
		Recommendations: recommendations,
		Confidence:      confidence(len(routed.Residents), llmCandidate),
		Statistics:      snapshot(records),
		Provenance: model.Provenance{
			Agent:   routed.Agent,
			Source:  string(chosen.Source),
			LLMUsed: chosen.Source == model.SourceLLM,
			Quality: chosen.Quality,
			Version: Version,
		},
		ProcessingMs: time.Since(start).Milliseconds(),
		Timestamp:    time.Now().UTC(),
	}
	o.transition(id, &state, StateReturned)
	metrics.ObserveQuery(time.Since(start), metrics.OutcomeSuccess)
	return result
}

// enhance attempts the LLM call unless the intent is a ticket or no
// provider is configured. Failures are logged by category and never
// fatal.
func (o *Orchestrator) enhance(ctx context.Context, id string, state *State, query string, analysis model.QueryAnalysis, routed *routedResponse) *model.Candidate {
	if analysis.Intent == model.IntentTicket || !o.enhancer.Enabled() {
		o.transition(id, state, StateEnhancementSkipped)
		return nil
	}

	names := make([]string, 0, len(routed.Residents))
	for _, res := range routed.Residents {
		names = append(names, res.Name)
	}

	enhanceCtx, cancel := context.WithTimeout(ctx, o.enhanceTimeout)
	defer cancel()

	candidate, err := o.enhancer.Enhance(enhanceCtx, llm.EnhanceRequest{
		Query:         query,
		Deterministic: routed.Deterministic.Text,
		ResidentNames: names,
		ReportSummary: reportSummary(routed.Report),
		NameSearch:    analysis.HasNeed(model.NeedNameSearch),
	})
	if err != nil {
		category := string(llm.FailureTransient)
		var enhErr *llm.EnhancementError
		if errors.As(err, &enhErr) {
			category = string(enhErr.Category)
		}
		o.logger.Warn("enhancement failed",
			"query_id", id, "category", category, "error", err)
		metrics.ObserveEnhancementFailure(category)
		o.transition(id, state, StateEnhancementFailed)
		return nil
	}

	o.transition(id, state, StateEnhanced)
	return candidate
}

func (o *Orchestrator) blockedResult(id, query string, analysis model.QueryAnalysis, start time.Time) *model.Result {
	return &model.Result{
		ID:         id,
		Success:    true,
		Query:      query,
		Intent:     model.IntentOutOfScope,
		QueryType:  model.QueryTypeBlocked,
		Response:   blockedMessage,
		Confidence: analysis.Scope.Confidence,
		Provenance: model.Provenance{
			Agent:   "scope_guard",
			Source:  string(model.SourceDeterministic),
			Version: Version,
		},
		ProcessingMs: time.Since(start).Milliseconds(),
		Timestamp:    time.Now().UTC(),
	}
}

func (o *Orchestrator) errorResult(id, query string, analysis model.QueryAnalysis, start time.Time, err error) *model.Result {
	o.logger.Error("routing failed", "query_id", id, "error", err)
	metrics.ObserveQuery(time.Since(start), metrics.OutcomeError)
	return &model.Result{
		ID:        id,
		Success:   false,
		Query:     query,
		Intent:    analysis.Intent,
		QueryType: analysis.QueryType,
		Response:  retryMessage,
		Error:     err.Error(),
		Provenance: model.Provenance{
			Source:  string(model.SourceDeterministic),
			Version: Version,
		},
		ProcessingMs: time.Since(start).Milliseconds(),
		Timestamp:    time.Now().UTC(),
	}
}

func (o *Orchestrator) transition(id string, state *State, next State) {
	o.logger.Debug("pipeline transition",
		"query_id", id, "from", string(*state), "to", string(next))
	*state = next
}
