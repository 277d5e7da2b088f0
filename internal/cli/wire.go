package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/civicpulse/civicpulse/internal/analysis"
	"github.com/civicpulse/civicpulse/internal/classify"
	"github.com/civicpulse/civicpulse/internal/filter"
	"github.com/civicpulse/civicpulse/internal/llm"
	"github.com/civicpulse/civicpulse/internal/model"
	"github.com/civicpulse/civicpulse/internal/pipeline"
	"github.com/civicpulse/civicpulse/internal/store"
	"github.com/civicpulse/civicpulse/internal/util"
)

// buildPipeline wires the full query pipeline from configuration.
// The returned source must be closed by the caller.
func buildPipeline(ctx context.Context, cfg *model.Config) (*pipeline.Orchestrator, store.Source, *slog.Logger, error) {
	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("configure llm provider: %w", err)
	}
	if provider == nil {
		logger.Info("llm provider disabled, answers stay deterministic")
	}

	source, err := store.NewSource(ctx, cfg.Store)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open record source: %w", err)
	}

	scope := classify.NewScopeClassifier(provider, cfg.Scope.VerdictTTL, cfg.Scope.CleanupInterval, logger)
	analyzer := classify.NewAnalyzer(scope, logger)
	filters := filter.NewService(logger)
	engine := analysis.NewEngine(logger)

	var enhancer *llm.Enhancer
	if provider != nil {
		enhancer = llm.NewEnhancer(provider, llm.ConfigFromModel(cfg.LLM),
			cfg.LLM.RatePerSecond, cfg.LLM.RateBurst, logger)
	}

	orchestrator := pipeline.NewOrchestrator(analyzer, filters, engine, source,
		enhancer, cfg.LLM.Timeout, logger)
	return orchestrator, source, logger, nil
}
