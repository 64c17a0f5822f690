package publish

import (
	"strings"
	"testing"

	"NewsCourier/internal/domain"
)

func baseInput() MessageInput {
	return MessageInput{
		Title:    "Parliament approves sweeping media reform",
		SourceID: "bbc",
		Age:      "2h",
		Analysis: domain.AnalysisResult{
			Sense:    "The national parliament passed a package of media laws after months of debate.",
			Why:      "Because licensing now sits with an independent body.",
			View:     "A structural shift rather than a news cycle event.",
			Question: "Who applies for the first license?",
		},
		OriginalLink: "https://example.com/article",
		SiteLink:     "https://example.org/en",
		Lang:         "en",
	}
}

func TestComposeSectionOrder(t *testing.T) {
	t.Parallel()

	msg := Compose(baseInput())

	sections := []string{
		"<b>Parliament approves sweeping media reform</b>",
		"<i>Source: bbc · 2h</i>",
		"The national parliament passed",
		"<b>Why it matters:</b>",
		"<b>Perspective:</b>",
		"<b>Question:</b>",
		`<a href="https://example.com/article">Read the original</a>`,
		`<a href="https://example.org/en">More on the site</a>`,
	}
	pos := -1
	for _, section := range sections {
		idx := strings.Index(msg, section)
		if idx < 0 {
			t.Fatalf("missing section %q in:\n%s", section, msg)
		}
		if idx < pos {
			t.Fatalf("section %q out of order in:\n%s", section, msg)
		}
		pos = idx
	}
}

func TestComposeLocalizedLabels(t *testing.T) {
	t.Parallel()

	in := baseInput()
	in.Lang = "ru"
	msg := Compose(in)
	if !strings.Contains(msg, "<b>Почему это важно:</b>") {
		t.Fatalf("russian labels missing:\n%s", msg)
	}

	in.Lang = "xx"
	msg = Compose(in)
	if !strings.Contains(msg, "<b>Why it matters:</b>") {
		t.Fatalf("unknown language should fall back to english labels:\n%s", msg)
	}
}

func TestComposeStripsFeedHTML(t *testing.T) {
	t.Parallel()

	in := baseInput()
	in.Analysis.Sense = `<p>Plain <script>alert(1)</script>text &amp; more</p>`
	msg := Compose(in)
	if strings.Contains(msg, "<script>") || strings.Contains(msg, "<p>") {
		t.Fatalf("feed html leaked into message:\n%s", msg)
	}
	if !strings.Contains(msg, "Plain") || !strings.Contains(msg, "text &amp; more") {
		t.Fatalf("text content lost:\n%s", msg)
	}
}

func TestComposeDegradationOrder(t *testing.T) {
	t.Parallel()

	in := baseInput()
	in.Analysis.Sense = strings.Repeat("s", 2600)
	in.Analysis.Why = strings.Repeat("w", 400)
	in.Analysis.View = strings.Repeat("v", 400)

	// Over budget with everything: why goes first.
	msg := Compose(in)
	if length(msg) > MaxMessageLen {
		t.Fatalf("message over cap: %d", length(msg))
	}
	if strings.Contains(msg, "Why it matters") {
		t.Fatalf("why should be dropped first:\n%s", msg[:200])
	}
	if !strings.Contains(msg, "Perspective") {
		t.Fatal("view should survive when dropping why is enough")
	}
	if !strings.Contains(msg, "Question") {
		t.Fatal("question is never dropped")
	}

	// Push further: view goes next, sense survives.
	in.Analysis.Sense = strings.Repeat("s", 3100)
	msg = Compose(in)
	if length(msg) > MaxMessageLen {
		t.Fatalf("message over cap: %d", length(msg))
	}
	if strings.Contains(msg, "Perspective") {
		t.Fatalf("view should be dropped at this size")
	}
	if !strings.Contains(msg, "sss") {
		t.Fatal("sense must survive longest")
	}
}

func TestComposeSenseTruncatedAtParagraph(t *testing.T) {
	t.Parallel()

	in := baseInput()
	in.Analysis.Why = ""
	in.Analysis.View = ""
	in.Analysis.Sense = strings.Repeat("a", 2000) + "\n\n" + strings.Repeat("b", 2000)

	msg := Compose(in)
	if length(msg) > MaxMessageLen {
		t.Fatalf("message over cap: %d", length(msg))
	}
	if strings.Contains(msg, "bbbb") {
		t.Fatalf("second paragraph should be cut at the boundary")
	}
	if !strings.Contains(msg, "aaaa") {
		t.Fatal("first paragraph lost")
	}
}

func TestComposeHardCap(t *testing.T) {
	t.Parallel()

	in := baseInput()
	in.Title = strings.Repeat("t", 4000)
	msg := Compose(in)
	if length(msg) > MaxMessageLen {
		t.Fatalf("hard cap violated: %d", length(msg))
	}
	if !strings.Contains(msg, "…") {
		t.Fatal("hard truncation should leave an ellipsis")
	}
}

func TestComposeOmitsEmptySections(t *testing.T) {
	t.Parallel()

	in := MessageInput{
		Title:    "Quiet evening in the house",
		Analysis: domain.AnalysisResult{Sense: "The kettle hums."},
		Lang:     "en",
	}
	msg := Compose(in)
	if strings.Contains(msg, "Source:") {
		t.Fatal("source line should be omitted without a source")
	}
	if strings.Contains(msg, "Why it matters") || strings.Contains(msg, "href") {
		t.Fatalf("empty sections leaked:\n%s", msg)
	}
}
