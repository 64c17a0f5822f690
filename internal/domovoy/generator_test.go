package domovoy

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type stubGen struct {
	out string
	err error
}

func (s stubGen) Complete(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error) {
	return s.out, s.err
}

func TestGenerateParsesStrictJSON(t *testing.T) {
	t.Parallel()

	gen := NewGenerator(stubGen{out: `{"headline": "H", "quote": "Q", "reflection": "R", "question": "W?"}`})
	post, err := gen.Generate(context.Background(), Seed{Key: "hearth", Text: "seed text"}, "en")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if post.Headline != "H" || post.Quote != "Q" || post.Reflection != "R" || post.Question != "W?" {
		t.Fatalf("post = %+v", post)
	}
}

func TestGenerateFallsBackOnProse(t *testing.T) {
	t.Parallel()

	seed := Seed{Key: "lamp", Text: "A lamp in the window costs little."}
	gen := NewGenerator(stubGen{out: "I would rather not answer in the requested format."})
	post, err := gen.Generate(context.Background(), seed, "ru")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if post.Headline != "Слово от дома" {
		t.Fatalf("localized fallback headline missing: %+v", post)
	}
	if post.Quote != seed.Text {
		t.Fatalf("fallback quote should be the seed text: %q", post.Quote)
	}
	if !strings.Contains(post.Question, "?") {
		t.Fatalf("fallback question wrong: %q", post.Question)
	}
}

func TestGenerateEmptyQuoteBackfilledFromSeed(t *testing.T) {
	t.Parallel()

	seed := Seed{Key: "bread", Text: "Shared bread weighs less."}
	gen := NewGenerator(stubGen{out: `{"headline": "H", "reflection": "R", "question": "W?"}`})
	post, err := gen.Generate(context.Background(), seed, "en")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if post.Quote != seed.Text {
		t.Fatalf("quote = %q, want seed text", post.Quote)
	}
}

func TestGenerateSurfacesCompletionErrors(t *testing.T) {
	t.Parallel()

	gen := NewGenerator(stubGen{err: errors.New("rate limited")})
	if _, err := gen.Generate(context.Background(), Seed{Key: "quiet", Text: "t"}, "en"); err == nil {
		t.Fatal("completion failure must propagate")
	}
}
