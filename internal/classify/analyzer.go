package classify

import (
	"context"
	"log/slog"
	"strings"

	"github.com/civicpulse/civicpulse/internal/model"
	"github.com/civicpulse/civicpulse/internal/textutil"
)

// Analyzer is the classification orchestrator. It evaluates an ordered
// cascade of heuristic rules, first match wins, and falls back to the
// LLM scope classifier only when no rule fires. The cascade order is a
// first-class artifact: reordering it changes observable classification
// for ambiguous queries.
type Analyzer struct {
	scope     *ScopeClassifier
	cascade   []rule
	overrides []rule
	logger    *slog.Logger
}

// rule is one (predicate, result builder) pair of the cascade. A nil
// return means the rule did not match.
type rule struct {
	name  string
	apply func(*queryContext) *ruleOutcome
}

// ruleOutcome carries a matched rule's result plus post-processing
// directives.
type ruleOutcome struct {
	analysis *model.QueryAnalysis
	// forbidNameSearch strips any name_search tag the heuristic merge
	// would otherwise contribute.
	forbidNameSearch bool
}

// queryContext caches the normalized views of a query shared by every
// rule.
type queryContext struct {
	raw        string
	normalized string
	tokens     []string
}

func newQueryContext(raw string) *queryContext {
	return &queryContext{
		raw:        raw,
		normalized: textutil.Normalize(raw),
		tokens:     textutil.Tokens(raw),
	}
}

// NewAnalyzer creates an analyzer backed by the given scope classifier.
func NewAnalyzer(scope *ScopeClassifier, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Analyzer{scope: scope, logger: logger}

	// Fixed priority order. The statistical rule runs unconditionally
	// first; "quantos moradores chamados Silva" is a count, not a name
	// search.
	a.cascade = []rule{
		{name: "statistical", apply: statisticalRule},
		{name: "analysis_keyword", apply: analysisKeywordRule},
		{name: "segment_filter", apply: segmentFilterRule},
		{name: "name_search", apply: nameSearchRule},
	}

	// Rules re-evaluated when the external classifier votes
	// out-of-scope, protecting against false negatives.
	a.overrides = []rule{
		{name: "statistical", apply: statisticalRule},
		{name: "name_search", apply: nameSearchRule},
	}

	return a
}

// Analyze classifies a free-text query.
func (a *Analyzer) Analyze(ctx context.Context, query string) model.QueryAnalysis {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		res := model.QueryAnalysis{Urgency: model.UrgencyNormal}
		res.Block("empty query")
		return res
	}

	qc := newQueryContext(trimmed)

	for _, r := range a.cascade {
		if out := r.apply(qc); out != nil {
			a.logger.Debug("query matched heuristic rule", "rule", r.name)
			return a.finalize(out, qc, nil)
		}
	}

	scope := a.scope.Classify(ctx, trimmed)

	if !scope.InScope {
		for _, r := range a.overrides {
			if out := r.apply(qc); out != nil {
				a.logger.Debug("heuristic override of out-of-scope verdict", "rule", r.name)
				out.analysis.Scope.Reason = "heuristic override: " + r.name
				return a.finalize(out, qc, nil)
			}
		}
		res := model.QueryAnalysis{Scope: scope, Urgency: model.UrgencyNormal}
		res.Block(scope.Reason)
		return res
	}

	// Confidence safeguard, duplicated from the scope classifier by
	// design so neither layer can be weakened independently.
	if scope.Confidence < lowConfidenceFloor && !textutil.ContainsAny(qc.normalized, domainAnchors) {
		res := model.QueryAnalysis{Scope: scope, Urgency: model.UrgencyNormal}
		res.Block("low confidence without domain anchors")
		return res
	}

	out := &ruleOutcome{analysis: &model.QueryAnalysis{
		Intent: model.IntentKnowledge,
		Scope:  scope,
	}}
	return a.finalize(out, qc, &scope)
}

// finalize runs the path-independent heuristic pass and the canonical
// intent remap, then returns the completed analysis.
func (a *Analyzer) finalize(out *ruleOutcome, qc *queryContext, scope *model.ScopeResult) model.QueryAnalysis {
	res := out.analysis

	if scope != nil {
		res.Scope = *scope
	}

	// Independent heuristic defaults, regardless of which path
	// produced the result.
	res.Urgency = model.UrgencyNormal
	if textutil.ContainsAny(qc.normalized, urgencyTerms) {
		res.Urgency = model.UrgencyHigh
	}
	if res.QueryType == "" {
		if hasDisplayVerb(qc) {
			res.QueryType = model.QueryTypeListing
		} else {
			res.QueryType = model.QueryTypeAnalysis
		}
	}

	for _, tag := range analysisTags(qc) {
		res.AddNeed(tag)
	}
	if hasCountPattern(qc) {
		res.AddNeed(model.NeedTotalCount)
	}
	if seg := segmentTag(qc); seg != "" {
		res.AddNeed(seg)
	}
	if !out.forbidNameSearch && hasSearchVerb(qc) && hasResidualNameToken(qc) {
		res.AddNeed(model.NeedNameSearch)
	}
	if out.forbidNameSearch {
		res.RemoveNeed(model.NeedNameSearch)
	}

	// Canonical intent supplied by the classifier overrides the
	// heuristic intent when the label is known.
	if res.Scope.CanonicalIntent != "" {
		if intent, ok := RemapCanonicalIntent(res.Scope.CanonicalIntent); ok {
			res.Intent = intent
		}
	}

	return *res
}

// --- cascade rules ---

// statisticalRule catches count/total questions about records. It is
// evaluated before everything else, including out-of-scope verdicts.
func statisticalRule(qc *queryContext) *ruleOutcome {
	if !hasCountPattern(qc) || !hasRecordNoun(qc) {
		return nil
	}
	res := &model.QueryAnalysis{
		Scope: model.ScopeResult{
			InScope:    true,
			Confidence: 0.9,
			Categories: []string{"statistical"},
			Reason:     "statistical query pattern",
		},
		Intent:    model.IntentKnowledge,
		QueryType: model.QueryTypeAnalysis,
	}
	res.AddNeed(model.NeedTotalCount)
	return &ruleOutcome{analysis: res}
}

// analysisKeywordRule catches analysis-domain requests: an analysis
// keyword plus either a display verb or a preposition directly after
// the keyword ("analise de satisfacao").
func analysisKeywordRule(qc *queryContext) *ruleOutcome {
	matched, tags := matchAnalysisKeywords(qc)
	if !matched {
		return nil
	}
	if !hasDisplayVerb(qc) && !keywordFollowedByPreposition(qc) {
		return nil
	}
	res := &model.QueryAnalysis{
		Scope: model.ScopeResult{
			InScope:    true,
			Confidence: 0.85,
			Categories: []string{"analysis"},
			Reason:     "analysis keyword pattern",
		},
		Intent:    model.IntentKnowledge,
		QueryType: model.QueryTypeAnalysis,
	}
	for _, tag := range tags {
		res.AddNeed(tag)
	}
	return &ruleOutcome{analysis: res, forbidNameSearch: true}
}

// segmentFilterRule catches requests for a resident segment
// (dissatisfied, satisfied, interested, not interested).
func segmentFilterRule(qc *queryContext) *ruleOutcome {
	seg := segmentTag(qc)
	if seg == "" {
		return nil
	}
	if !hasFilterVerb(qc) && !hasResidentNoun(qc) {
		return nil
	}

	res := &model.QueryAnalysis{
		Scope: model.ScopeResult{
			InScope:    true,
			Confidence: 0.85,
			Categories: []string{"segment"},
			Reason:     "resident segment pattern",
		},
	}
	if hasDisplayVerb(qc) {
		res.Intent = model.IntentNotification
		res.QueryType = model.QueryTypeListing
	} else {
		res.Intent = model.IntentKnowledge
		res.QueryType = model.QueryTypeAnalysis
	}
	res.AddNeed(seg)
	return &ruleOutcome{analysis: res, forbidNameSearch: true}
}

// nameSearchRule catches person lookups: a search verb plus at least
// one residual name-like token once stopwords and verbs are removed.
func nameSearchRule(qc *queryContext) *ruleOutcome {
	if !hasSearchVerb(qc) || !hasResidualNameToken(qc) {
		return nil
	}
	res := &model.QueryAnalysis{
		Scope: model.ScopeResult{
			InScope:    true,
			Confidence: 0.8,
			Categories: []string{"name_search"},
			Reason:     "name search pattern",
		},
		Intent:    model.IntentKnowledge,
		QueryType: model.QueryTypeListing,
	}
	res.AddNeed(model.NeedNameSearch)
	return &ruleOutcome{analysis: res}
}

// --- matchers ---

func hasCountPattern(qc *queryContext) bool {
	return textutil.ContainsAny(qc.normalized, countPatterns)
}

func hasRecordNoun(qc *queryContext) bool {
	for _, tok := range qc.tokens {
		for _, noun := range recordNouns {
			if strings.HasPrefix(tok, noun) {
				return true
			}
		}
	}
	return false
}

func hasDisplayVerb(qc *queryContext) bool {
	for _, tok := range qc.tokens {
		for _, v := range displayVerbs {
			if tok == v {
				return true
			}
		}
	}
	return false
}

func hasFilterVerb(qc *queryContext) bool {
	for _, tok := range qc.tokens {
		for _, v := range filterVerbs {
			if tok == v {
				return true
			}
		}
	}
	return false
}

func hasResidentNoun(qc *queryContext) bool {
	for _, tok := range qc.tokens {
		for _, noun := range residentNouns {
			if strings.HasPrefix(tok, noun) {
				return true
			}
		}
	}
	return false
}

func hasSearchVerb(qc *queryContext) bool {
	for _, tok := range qc.tokens {
		for _, v := range searchVerbs {
			if tok == v {
				return true
			}
		}
		for _, v := range displayVerbs {
			if tok == v {
				return true
			}
		}
	}
	return textutil.ContainsAny(qc.normalized, searchPhrases)
}

// matchAnalysisKeywords reports whether any analysis keyword occurs and
// collects the domain tags of the matched sub-keywords.
func matchAnalysisKeywords(qc *queryContext) (bool, []string) {
	matched := false
	var tags []string
	seen := map[string]bool{}

	for _, kw := range analysisKeywords {
		if strings.Contains(kw.Term, " ") {
			if !strings.Contains(qc.normalized, kw.Term) {
				continue
			}
		} else if !tokenPrefixMatch(qc.tokens, kw.Term) {
			continue
		}
		matched = true
		if kw.Tag != "" && !seen[kw.Tag] {
			seen[kw.Tag] = true
			tags = append(tags, kw.Tag)
		}
	}
	return matched, tags
}

// analysisTags returns only the domain tags, for the heuristic merge.
func analysisTags(qc *queryContext) []string {
	_, tags := matchAnalysisKeywords(qc)
	return tags
}

func tokenPrefixMatch(tokens []string, term string) bool {
	for _, tok := range tokens {
		if strings.HasPrefix(tok, term) {
			return true
		}
	}
	return false
}

// keywordFollowedByPreposition reports whether an analysis keyword is
// directly followed by a preposition token.
func keywordFollowedByPreposition(qc *queryContext) bool {
	for i := 0; i+1 < len(qc.tokens); i++ {
		isKeyword := false
		for _, kw := range analysisKeywords {
			if !strings.Contains(kw.Term, " ") && strings.HasPrefix(qc.tokens[i], kw.Term) {
				isKeyword = true
				break
			}
		}
		if !isKeyword {
			continue
		}
		next := qc.tokens[i+1]
		for _, prep := range keywordPrepositions {
			if next == prep {
				return true
			}
		}
	}
	return false
}

// segmentTag resolves the resident segment a query references, or "".
// Not-interested is checked before interested because its phrasings
// contain the interested terms as substrings; dissatisfied before
// satisfied for the same reason at the token level.
func segmentTag(qc *queryContext) string {
	if textutil.ContainsAny(qc.normalized, notInterestedTerms) {
		return model.NeedParticipationNotWilling
	}
	if textutil.ContainsAny(qc.normalized, interestedTerms) {
		return model.NeedParticipationInterested
	}
	for _, tok := range qc.tokens {
		if strings.HasPrefix(tok, "insatisfeit") || strings.HasPrefix(tok, "dissatisfied") {
			return model.NeedDissatisfied
		}
	}
	for _, tok := range qc.tokens {
		if strings.HasPrefix(tok, "satisfeit") || tok == "satisfied" {
			return model.NeedSatisfied
		}
	}
	return ""
}

// hasResidualNameToken reports whether, after removing stopwords and
// verbs, at least one name-like token remains.
func hasResidualNameToken(qc *queryContext) bool {
	return len(ResidualNameTokens(qc.tokens)) > 0
}

// ResidualNameTokens strips stopwords and every verb vocabulary from
// the token list, keeping only name-like tokens. Shared with the
// resident filter's name extraction.
func ResidualNameTokens(tokens []string) []string {
	var residual []string
	for _, tok := range tokens {
		if stopwords[tok] || isVerbToken(tok) {
			continue
		}
		if textutil.IsNameLike(tok) {
			residual = append(residual, tok)
		}
	}
	return residual
}

// IsNameSearchQuery reports whether the query carries a search verb
// and at least one residual name-like token.
func IsNameSearchQuery(query string) bool {
	qc := newQueryContext(query)
	return hasSearchVerb(qc) && hasResidualNameToken(qc)
}

// NameCandidate extracts the probable person name from a search query:
// the residual tokens joined in their original order.
func NameCandidate(query string) string {
	return strings.Join(ResidualNameTokens(textutil.Tokens(query)), " ")
}

// SegmentTag resolves the resident segment a raw query references, or
// "" when none is mentioned.
func SegmentTag(query string) string {
	return segmentTag(newQueryContext(query))
}

func isVerbToken(tok string) bool {
	for _, v := range searchVerbs {
		if tok == v {
			return true
		}
	}
	for _, v := range displayVerbs {
		if tok == v {
			return true
		}
	}
	for _, v := range filterVerbs {
		if tok == v {
			return true
		}
	}
	// Phrase fragments ("quem e", "who is") surface as single tokens.
	return tok == "quem" || tok == "who" || tok == "is"
}
