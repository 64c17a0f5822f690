package score

import (
	"testing"

	"NewsCourier/internal/domain"
)

func TestRelevanceBuckets(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		title string
		want  int
	}{
		{"no signal", "Local bakery opens second branch downtown", 0},
		{"international", "New sanctions announced ahead of summit", 25},
		{"institutional", "Parliament passes election law amendments", 20},
		{"rights", "Journalist released after week in detention", 15},
		{"science", "Research team reports quantum computing advance", 10},
		{"precedent only", "First time a private lander reaches the far side", 10},
		{"stacked buckets", "Parliament debates sanctions over human rights, a first time precedent", 70},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Relevance(domain.Candidate{Title: tc.title})
			if got != tc.want {
				t.Fatalf("Relevance(%q) = %d, want %d", tc.title, got, tc.want)
			}
		})
	}
}

func TestRelevanceCrimePenalty(t *testing.T) {
	t.Parallel()

	// Plain crime news drops below zero and clamps at 0.
	got := Relevance(domain.Candidate{Title: "Murder suspect arrested after robbery"})
	if got != 0 {
		t.Fatalf("plain crime should clamp to 0, got %d", got)
	}

	// Crime with institutional framing keeps its institutional score.
	got = Relevance(domain.Candidate{Title: "Parliament reacts to journalist murder with new legislation"})
	if got != 35 {
		t.Fatalf("systemic crime story: got %d, want 35", got)
	}
}

func TestRelevanceSensationalFloor(t *testing.T) {
	t.Parallel()

	// Sensational wording on a weak story applies the penalty.
	got := Relevance(domain.Candidate{Title: "Shocking discovery in research lab"})
	if got != 0 {
		t.Fatalf("weak sensational story: got %d, want 0", got)
	}

	// Above the floor the penalty is suppressed.
	got = Relevance(domain.Candidate{Title: "Shocking sanctions announced at international summit"})
	if got != 25 {
		t.Fatalf("strong story with clickbait word: got %d, want 25", got)
	}
}

func TestRelevanceMultilingual(t *testing.T) {
	t.Parallel()

	got := Relevance(domain.Candidate{Title: "Парламент обсуждает новые санкции", Language: "ru"})
	if got != 45 {
		t.Fatalf("russian institutional+international: got %d, want 45", got)
	}

	got = Relevance(domain.Candidate{Title: "Нови самит: људска права у фокусу", Language: "sr"})
	if got != 40 {
		t.Fatalf("serbian international+rights: got %d, want 40", got)
	}
}

func TestRelevanceDescriptionCounts(t *testing.T) {
	t.Parallel()

	c := domain.Candidate{
		Title:       "Weekly policy roundup",
		Description: "The supreme court heard arguments on censorship this week.",
	}
	if got := Relevance(c); got != 35 {
		t.Fatalf("description keywords: got %d, want 35", got)
	}
}
