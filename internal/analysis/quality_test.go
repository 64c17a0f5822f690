package analysis

import (
	"strings"
	"testing"

	"NewsCourier/internal/domain"
)

func TestQualityFullMarks(t *testing.T) {
	t.Parallel()

	r := domain.AnalysisResult{
		Sense:    strings.Repeat("x", 300),
		Why:      "Prices rise because supply contracted.",
		View:     "A slow structural change, visible only in aggregate.",
		Question: "Which sector absorbs the shock first?",
	}
	if got := Quality(r); got != 40 {
		t.Fatalf("Quality = %d, want 40", got)
	}
}

func TestQualityPenalties(t *testing.T) {
	t.Parallel()

	// Sense outside the window.
	r := domain.AnalysisResult{
		Sense:    "too short",
		Why:      "Because of the vote.",
		View:     "Quiet aftermath.",
		Question: "And now?",
	}
	if got := Quality(r); got != 30 {
		t.Fatalf("short sense: Quality = %d, want 30", got)
	}

	// Obligation language in view loses its point.
	r.Sense = strings.Repeat("x", 300)
	r.View = "Readers must demand accountability."
	if got := Quality(r); got != 30 {
		t.Fatalf("obligation view: Quality = %d, want 30", got)
	}

	// Generic question earns nothing even with a question mark.
	r.View = "Quiet aftermath."
	r.Question = "What do you think?"
	if got := Quality(r); got != 30 {
		t.Fatalf("generic question: Quality = %d, want 30", got)
	}

	// Missing causal connective.
	r.Question = "And now?"
	r.Why = "It matters a lot."
	if got := Quality(r); got != 30 {
		t.Fatalf("no connective: Quality = %d, want 30", got)
	}
}

func TestQualityMultilingualConnectives(t *testing.T) {
	t.Parallel()

	r := domain.AnalysisResult{
		Sense:    strings.Repeat("д", 300),
		Why:      "Цены растут из-за сокращения предложения.",
		View:     "Медленный структурный сдвиг.",
		Question: "Какой сектор первым почувствует удар?",
	}
	if got := Quality(r); got != 40 {
		t.Fatalf("russian analysis: Quality = %d, want 40", got)
	}
}

func TestQualityEmptyResult(t *testing.T) {
	t.Parallel()

	if got := Quality(domain.AnalysisResult{}); got != 0 {
		t.Fatalf("empty result: Quality = %d, want 0", got)
	}
}
