package domovoy

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"NewsCourier/internal/ports"
)

// Post is the four-field house-voice composition.
type Post struct {
	Headline   string `json:"headline"`
	Quote      string `json:"quote"`
	Reflection string `json:"reflection"`
	Question   string `json:"question"`
}

// housePrompt fixes the narrator: a domovoy, the hearth spirit of the house,
// speaking gently about everyday life.
const housePrompt = `You are the domovoy, the old guardian spirit of a shared house.
You speak softly and concretely about everyday life: warmth, work, neighbors,
small kindnesses. No politics, no news, no moralizing commands. You write in
the language you are asked to write in.`

// Generator turns a seed into a post via the shared text generator.
type Generator struct {
	gen ports.TextGenerator
}

// NewGenerator wires the LLM abstraction shared with the news pipeline.
func NewGenerator(gen ports.TextGenerator) *Generator {
	return &Generator{gen: gen}
}

// Generate produces a post riffing on the seed. Like the news analyzer it
// never hard-fails on malformed output; the seed itself is the fallback.
func (g *Generator) Generate(ctx context.Context, seed Seed, lang string) (Post, error) {
	user := fmt.Sprintf(`Write a short house-voice post in %s, riffing on this thought:

%q

Return strict JSON: {"headline": "...", "quote": "the thought, possibly polished",
"reflection": "2-3 calm sentences on what it means in daily life", "question": "one gentle question to the reader"}`,
		languageName(lang), seed.Text)

	raw, err := g.gen.Complete(ctx, housePrompt, user, 500, 0.9)
	if err != nil {
		return Post{}, fmt.Errorf("generate domovoy post: %w", err)
	}

	post, ok := parsePost(raw)
	if !ok {
		post = fallbackPost(seed, lang)
	}
	if post.Quote == "" {
		post.Quote = seed.Text
	}
	return post, nil
}

var postFieldExprs = map[string]*regexp.Regexp{
	"headline":   regexp.MustCompile(`(?im)^\s*"?headline"?\s*[:=]\s*"?(.+?)"?,?\s*$`),
	"quote":      regexp.MustCompile(`(?im)^\s*"?quote"?\s*[:=]\s*"?(.+?)"?,?\s*$`),
	"reflection": regexp.MustCompile(`(?im)^\s*"?reflection"?\s*[:=]\s*"?(.+?)"?,?\s*$`),
	"question":   regexp.MustCompile(`(?im)^\s*"?question"?\s*[:=]\s*"?(.+?)"?,?\s*$`),
}

func parsePost(raw string) (Post, bool) {
	text := strings.TrimSpace(raw)
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		var post Post
		if err := json.Unmarshal([]byte(text[start:end+1]), &post); err == nil && post.Headline != "" {
			return post, true
		}
	}

	var post Post
	post.Headline = extractField(raw, "headline")
	post.Quote = extractField(raw, "quote")
	post.Reflection = extractField(raw, "reflection")
	post.Question = extractField(raw, "question")
	ok := post.Headline != "" || post.Reflection != ""
	return post, ok
}

func extractField(raw, field string) string {
	if m := postFieldExprs[field].FindStringSubmatch(raw); m != nil {
		return strings.Trim(strings.TrimSpace(m[1]), `"`)
	}
	return ""
}

var fallbackHeadline = map[string]string{
	"en": "A word from the house",
	"ru": "Слово от дома",
	"sr": "Реч из куће",
}

var fallbackQuestion = map[string]string{
	"en": "What does your house keep warm today?",
	"ru": "Что сегодня хранит тепло вашего дома?",
	"sr": "Шта данас чува топлину ваше куће?",
}

func fallbackPost(seed Seed, lang string) Post {
	headline, ok := fallbackHeadline[lang]
	if !ok {
		headline = fallbackHeadline["en"]
	}
	question, ok := fallbackQuestion[lang]
	if !ok {
		question = fallbackQuestion["en"]
	}
	return Post{Headline: headline, Quote: seed.Text, Question: question}
}

func languageName(code string) string {
	switch code {
	case "ru":
		return "Russian"
	case "sr":
		return "Serbian"
	default:
		return "English"
	}
}
