package analysis

import (
	"strings"

	"NewsCourier/internal/domain"
)

// Phrase lists for the quality heuristic. Multilingual for the same reason
// the relevance scorer is: the analysis language follows the candidate.
var (
	causalConnectives = []string{
		"because", "since", "therefore", "as a result", "due to", "leads to",
		"потому", "так как", "из-за", "вследствие", "поэтому", "приводит",
		"јер", "зато што", "због", "услед", "доводи",
	}
	obligationWords = []string{
		"must", "should", "have to", "need to", "ought",
		"должн", "надо", "нужно", "следует", "обязан",
		"мора", "треба", "дужн",
	}
	genericQuestions = []string{
		"what do you think", "how do you feel",
		"что вы думаете", "как вам",
		"шта мислите", "како вам",
	}
)

// Quality ranks an already-valid analysis; it never rejects one. Each check
// contributes +10: sense within its target window, a causal connective in
// why, view free of obligation language, and a specific question that is
// actually a question.
func Quality(r domain.AnalysisResult) int {
	q := 0

	senseLen := len([]rune(r.Sense))
	if senseLen >= SenseMin && senseLen <= SenseMax {
		q += 10
	}

	if containsAny(r.Why, causalConnectives) {
		q += 10
	}

	if r.View != "" && !containsAny(r.View, obligationWords) {
		q += 10
	}

	if strings.Contains(r.Question, "?") && !containsAny(r.Question, genericQuestions) {
		q += 10
	}

	return q
}

func containsAny(text string, phrases []string) bool {
	lower := strings.ToLower(text)
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
