package analysis

import (
	"encoding/json"
	"regexp"
	"strings"

	"NewsCourier/internal/domain"
)

var (
	fenceExpr   = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	labeledExpr = map[string]*regexp.Regexp{
		"sense":    regexp.MustCompile(`(?im)^\s*"?sense"?\s*[:=]\s*"?(.+?)"?,?\s*$`),
		"why":      regexp.MustCompile(`(?im)^\s*"?why"?\s*[:=]\s*"?(.+?)"?,?\s*$`),
		"view":     regexp.MustCompile(`(?im)^\s*"?view"?\s*[:=]\s*"?(.+?)"?,?\s*$`),
		"question": regexp.MustCompile(`(?im)^\s*"?question"?\s*[:=]\s*"?(.+?)"?,?\s*$`),
	}
)

// ParseResult extracts an AnalysisResult from raw model output. Strict JSON
// is attempted first (with markdown fences stripped); if that fails or any
// field is missing, labeled-field pattern matching on the raw text fills the
// gaps. Returns ok=false when no field could be recovered at all.
func ParseResult(raw string) (domain.AnalysisResult, bool) {
	text := strings.TrimSpace(raw)
	if m := fenceExpr.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}

	var result domain.AnalysisResult
	if body := extractJSONObject(text); body != "" {
		_ = json.Unmarshal([]byte(body), &result)
	}

	if result.Sense == "" {
		result.Sense = extractLabeled(raw, "sense")
	}
	if result.Why == "" {
		result.Why = extractLabeled(raw, "why")
	}
	if result.View == "" {
		result.View = extractLabeled(raw, "view")
	}
	if result.Question == "" {
		result.Question = extractLabeled(raw, "question")
	}

	ok := result.Sense != "" || result.Why != "" || result.View != "" || result.Question != ""
	return result, ok
}

// extractJSONObject returns the outermost {...} block of the text, tolerating
// leading and trailing prose around the object.
func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

func extractLabeled(raw, field string) string {
	if m := labeledExpr[field].FindStringSubmatch(raw); m != nil {
		return strings.Trim(strings.TrimSpace(m[1]), `"`)
	}
	return ""
}

// Fallback boilerplate per language, appended to the candidate's own words
// when the model output is unusable.
var fallbackBoiler = map[string]struct {
	why      string
	view     string
	question string
}{
	"en": {
		why:      "The event touches institutions and people beyond the immediate participants.",
		view:     "The situation is still developing; the available facts are the item's own report.",
		question: "What would change if this turns out to be a lasting shift rather than an episode?",
	},
	"ru": {
		why:      "Событие затрагивает институты и людей за пределами непосредственных участников.",
		view:     "Ситуация продолжает развиваться; доступные факты — собственное сообщение источника.",
		question: "Что изменится, если это окажется устойчивым сдвигом, а не эпизодом?",
	},
	"sr": {
		why:      "Догађај се тиче институција и људи изван непосредних учесника.",
		view:     "Ситуација се и даље развија; доступне чињенице су извештај самог извора.",
		question: "Шта би се променило ако се испостави да је ово трајна промена, а не епизода?",
	},
}

// FallbackResult builds a deterministic analysis from the candidate's own
// title and description plus static localized boilerplate. Guarantees the
// analyze operation never returns empty fields.
func FallbackResult(c domain.Candidate) domain.AnalysisResult {
	boiler, ok := fallbackBoiler[c.Language]
	if !ok {
		boiler = fallbackBoiler["en"]
	}

	sense := strings.TrimSpace(c.Title)
	if desc := strings.TrimSpace(c.Description); desc != "" {
		sense = sense + ". " + desc
	}

	return domain.AnalysisResult{
		Sense:    sense,
		Why:      boiler.why,
		View:     boiler.view,
		Question: boiler.question,
	}
}
