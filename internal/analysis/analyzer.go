package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"NewsCourier/internal/domain"
	"NewsCourier/internal/ports"
)

// Length budgets for the four analysis fields, in characters.
const (
	SenseMin    = 240
	SenseMax    = 360
	WhyMax      = 180
	ViewMax     = 220
	QuestionMax = 160
)

// valueSystemPrompt steers the tone of every generated analysis. The model
// must describe, not moralize: obligation language in the "view" field is
// down-ranked by the quality heuristic.
const valueSystemPrompt = `You are an analytical editor for an independent multilingual news channel.
Your values: human dignity, rule of law, freedom of thought, scientific curiosity.
You explain events calmly and precisely. You never moralize, never tell the
reader what they must do, and never use sensational language. You write in the
language you are asked to write in.`

// Analyzer wraps a TextGenerator with the analysis and translation
// operations shared by the news pipeline.
type Analyzer struct {
	gen         ports.TextGenerator
	maxTokens   int
	temperature float64
	logger      *slog.Logger
}

// New builds an analyzer over the given generator.
func New(gen ports.TextGenerator, maxTokens int, temperature float64, logger *slog.Logger) *Analyzer {
	if maxTokens <= 0 {
		maxTokens = 900
	}
	return &Analyzer{gen: gen, maxTokens: maxTokens, temperature: temperature, logger: logger}
}

// Translate renders text into the target language. Failures propagate: the
// caller skips the affected candidate and continues with the others.
func (a *Analyzer) Translate(ctx context.Context, text, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	system := "You are a precise translator. Translate the user text into " +
		languageName(targetLang) + ". Return only the translation, no commentary."
	out, err := a.gen.Complete(ctx, system, text, a.maxTokens, 0.2)
	if err != nil {
		return "", fmt.Errorf("translate to %s: %w", targetLang, err)
	}
	return strings.TrimSpace(out), nil
}

// Analyze produces the four-field analysis for a candidate. The operation
// never hard-fails on malformed model output: strict JSON parsing degrades
// to labeled-field extraction, and that degrades to a deterministic fallback
// built from the candidate itself. Only a failed completion call is an error.
func (a *Analyzer) Analyze(ctx context.Context, c domain.Candidate) (domain.AnalysisResult, error) {
	user := fmt.Sprintf(`Analyze this news item and answer in %s.

Title: %s
Description: %s

Return strict JSON with exactly these keys:
{"sense": "what happened and what it means, %d-%d characters",
 "why": "why it matters, causal, max %d characters",
 "view": "a descriptive perspective, no imperatives, max %d characters",
 "question": "one open question for the reader, max %d characters"}`,
		languageName(c.Language), c.Title, c.Description,
		SenseMin, SenseMax, WhyMax, ViewMax, QuestionMax)

	raw, err := a.gen.Complete(ctx, valueSystemPrompt, user, a.maxTokens, a.temperature)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("analyze %q: %w", c.Title, err)
	}

	result, ok := ParseResult(raw)
	if !ok {
		if a.logger != nil {
			a.logger.Warn("analysis output unusable, using heuristic fallback",
				slog.String("source", c.SourceID),
				slog.String("lang", c.Language),
			)
		}
		result = FallbackResult(c)
	}
	return Clamp(result), nil
}

// Clamp enforces the per-field length budgets after parsing.
func Clamp(r domain.AnalysisResult) domain.AnalysisResult {
	r.Sense = truncateRunes(r.Sense, SenseMax)
	r.Why = truncateRunes(r.Why, WhyMax)
	r.View = truncateRunes(r.View, ViewMax)
	r.Question = truncateRunes(r.Question, QuestionMax)
	return r
}

func truncateRunes(s string, max int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= max {
		return string(runes)
	}
	return string(runes[:max-1]) + "…"
}

func languageName(code string) string {
	switch code {
	case "ru":
		return "Russian"
	case "sr":
		return "Serbian"
	case "en", "":
		return "English"
	default:
		return code
	}
}
