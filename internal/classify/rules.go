// Package classify implements the query-understanding layer: a
// fixed-priority heuristic cascade backed by an LLM scope classifier.
package classify

import "github.com/civicpulse/civicpulse/internal/model"

// The vocabulary tables below are immutable static configuration,
// loaded once and shared read-only across requests. Every entry is
// pre-normalized (lowercase, diacritics stripped) because they are
// matched against textutil.Normalize output. Portuguese is the primary
// vocabulary; English terms cover mixed-language queries.

// countPatterns mark statistical/operational questions.
var countPatterns = []string{
	"quantos", "quantas", "quantidade de", "numero de", "total de",
	"contagem", "how many", "total of", "count of", "number of",
}

// recordNouns are the record/contact nouns a statistical question must
// reference.
var recordNouns = []string{
	"municipe", "morador", "cidadao", "cidadaos", "contato", "registro",
	"cadastro", "cadastrado", "pessoa", "resposta", "respondente",
	"resident", "citizen", "contact", "record", "response", "people",
}

// analysisKeywords trigger the analysis-domain rule. The associated tag
// is appended to dataNeeds when the keyword matches; an empty tag means
// the keyword is generic.
var analysisKeywords = []struct {
	Term string
	Tag  string
}{
	{"satisfacao", model.NeedSatisfactionAnalysis},
	{"satisfaction", model.NeedSatisfactionAnalysis},
	{"bairro", model.NeedGeographic},
	{"regiao", model.NeedGeographic},
	{"neighborhood", model.NeedGeographic},
	{"idade", model.NeedAgeAnalysis},
	{"faixa etaria", model.NeedAgeAnalysis},
	{"etaria", model.NeedAgeAnalysis},
	{"age", model.NeedAgeAnalysis},
	{"problema", model.NeedIssueAnalysis},
	{"questao", model.NeedIssueAnalysis},
	{"questoes", model.NeedIssueAnalysis},
	{"issue", model.NeedIssueAnalysis},
	{"engajamento", model.NeedEngagement},
	{"engagement", model.NeedEngagement},
	{"participacao", model.NeedParticipationAnalysis},
	{"participation", model.NeedParticipationAnalysis},
	{"analise", ""},
	{"relatorio", ""},
	{"estatistica", ""},
	{"resumo", ""},
	{"panorama", ""},
	{"analysis", ""},
	{"report", ""},
	{"statistic", ""},
	{"summary", ""},
}

// displayVerbs ask for something to be shown or listed.
var displayVerbs = []string{
	"mostrar", "mostre", "mostra", "exibir", "exiba", "listar", "liste",
	"lista", "trazer", "traga", "apresentar", "apresente",
	"show", "display", "list", "bring", "present",
}

// keywordPrepositions, when directly following an analysis keyword,
// also satisfy the analysis rule ("analise de satisfacao").
var keywordPrepositions = []string{
	"de", "da", "do", "dos", "das", "sobre", "of", "about", "por",
}

// filterVerbs ask for a subset of residents.
var filterVerbs = []string{
	"filtrar", "filtre", "filtra", "selecionar", "selecione",
	"separar", "separe", "filter", "select",
}

// searchVerbs open a name search. Display verbs double as search verbs
// ("traga o Joao"); the analysis rule runs earlier and wins when the
// query is analytical.
var searchVerbs = []string{
	"buscar", "busque", "busca", "procurar", "procure", "procura",
	"encontrar", "encontre", "achar", "ache", "localizar", "localize",
	"find", "search", "lookup",
}

// searchPhrases are multi-token search openers matched as substrings.
var searchPhrases = []string{
	"quem e", "who is",
}

// notInterestedTerms mark the participation-not-interested segment.
// Checked before interestedTerms: every entry here contains an
// interested term as a substring.
var notInterestedTerms = []string{
	"nao interessado", "nao interessada", "nao estao interessados",
	"sem interesse", "nao quer participar", "nao querem participar",
	"not interested", "no interest", "unwilling",
}

// interestedTerms mark the participation-interested segment.
var interestedTerms = []string{
	"interessado", "interessada", "querem participar", "quer participar",
	"interested", "willing",
}

// residentNouns satisfy the segment rule's noun requirement.
var residentNouns = []string{
	"municipe", "morador", "cidadao", "cidadaos", "pessoa", "contato",
	"resident", "citizen", "people",
}

// stopwords are removed before extracting a name candidate.
var stopwords = map[string]bool{
	"de": true, "da": true, "do": true, "dos": true, "das": true,
	"o": true, "a": true, "os": true, "as": true, "um": true,
	"uma": true, "uns": true, "umas": true, "por": true, "para": true,
	"com": true, "em": true, "no": true, "na": true, "nos": true,
	"nas": true, "que": true, "e": true, "ou": true, "se": true,
	"favor": true, "pelo": true, "pela": true, "chamado": true,
	"chamada": true, "the": true, "of": true, "for": true, "in": true,
	"on": true, "an": true, "and": true, "or": true, "to": true,
	"me": true, "please": true, "named": true, "called": true,
}

// domainAnchors are municipal-domain words; a low-confidence in-scope
// verdict with zero anchors is flipped to out-of-scope.
var domainAnchors = []string{
	"municipe", "morador", "bairro", "pesquisa", "satisfacao",
	"prefeitura", "cidadao", "cidade", "municipio", "zeladoria",
	"engajamento", "participacao", "survey", "resident", "neighborhood",
	"citizen", "municipality",
}

// urgencyTerms flip urgency to high.
var urgencyTerms = []string{
	"urgente", "urgencia", "imediatamente", "agora", "hoje",
	"urgent", "immediately", "asap", "right now",
}

// canonicalIntentRemap translates the classifier's domain-level intent
// labels into this system's intent enum.
var canonicalIntentRemap = map[string]model.Intent{
	"satisfaction": model.IntentKnowledge,
	"engagement":   model.IntentNotification,
	"geographic":   model.IntentKnowledge,
	"operational":  model.IntentTicket,
	"benchmarking": model.IntentKnowledge,
	"survey":       model.IntentKnowledge,
}

// RemapCanonicalIntent resolves a classifier intent label, reporting
// whether the label is known.
func RemapCanonicalIntent(label string) (model.Intent, bool) {
	intent, ok := canonicalIntentRemap[label]
	return intent, ok
}
