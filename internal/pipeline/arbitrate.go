package pipeline

import (
	"strings"

	"github.com/civicpulse/civicpulse/internal/model"
)

// llmLengthLimit caps how long a model-generated name-search answer may
// be before it loses to the deterministic one, in runes.
const llmLengthLimit = 500

// generalLengthRatio is how much longer a model-generated answer must be
// than the deterministic one to win on length alone.
const generalLengthRatio = 1.5

// arbitrate picks the final answer between the deterministic candidate
// and the optional model-generated one. The model candidate is
// untrusted: it only wins when it is grounded in the resident names the
// deterministic side produced, or (for general queries) substantially
// longer. Name searches stay strict so a verbose completion can never
// bury a focused person lookup.
func arbitrate(det model.Candidate, llm *model.Candidate, nameSearch bool, residentNames []string) model.Candidate {
	if nameSearch && det.Focused {
		return det
	}

	if llm != nil && (llm.Quality == model.QualityExcellent || llm.Quality == model.QualityGood) {
		llm.Grounded = grounded(llm.Text, residentNames)
		length := len([]rune(llm.Text))

		if nameSearch {
			if llm.Grounded && length < llmLengthLimit {
				return *llm
			}
			return det
		}

		if llm.Grounded || float64(length) >= generalLengthRatio*float64(len([]rune(det.Text))) {
			return *llm
		}
		return det
	}

	if llm != nil && nameSearch {
		if length := len([]rune(llm.Text)); length > 0 && length < llmLengthLimit {
			return *llm
		}
	}

	return det
}

// grounded reports whether the text mentions at least one resident name
// verbatim.
func grounded(text string, residentNames []string) bool {
	for _, name := range residentNames {
		if name != "" && strings.Contains(text, name) {
			return true
		}
	}
	return false
}

// confidence scores the final result: base 0.70, +0.15 when at least
// one resident was found, +0.10/+0.05 for an excellent/good model
// candidate, capped at 0.95. The sum is rounded to two decimals so the
// reported score carries no float dust.
func confidence(residentCount int, llm *model.Candidate) float64 {
	score := 0.70
	if residentCount >= 1 {
		score += 0.15
	}
	if llm != nil {
		switch llm.Quality {
		case model.QualityExcellent:
			score += 0.10
		case model.QualityGood:
			score += 0.05
		}
	}
	if score > 0.95 {
		score = 0.95
	}
	return round2(score)
}
