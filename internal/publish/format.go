package publish

import (
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"NewsCourier/internal/domain"
)

// MaxMessageLen is the hard cap for a composed channel message.
const MaxMessageLen = 3500

// Labels localizes the fixed section headers of a channel message.
type Labels struct {
	Source   string
	Why      string
	View     string
	Question string
	ReadMore string
	Site     string
}

var labelsByLang = map[string]Labels{
	"en": {Source: "Source", Why: "Why it matters", View: "Perspective", Question: "Question", ReadMore: "Read the original", Site: "More on the site"},
	"ru": {Source: "Источник", Why: "Почему это важно", View: "Взгляд", Question: "Вопрос", ReadMore: "Читать оригинал", Site: "Больше на сайте"},
	"sr": {Source: "Извор", Why: "Зашто је важно", View: "Поглед", Question: "Питање", ReadMore: "Прочитај оригинал", Site: "Више на сајту"},
}

// LabelsFor returns the localized labels for lang, defaulting to English.
func LabelsFor(lang string) Labels {
	if l, ok := labelsByLang[lang]; ok {
		return l
	}
	return labelsByLang["en"]
}

// MessageInput carries everything needed to compose one channel message.
type MessageInput struct {
	Title        string
	SourceID     string
	Age          string
	Analysis     domain.AnalysisResult
	OriginalLink string
	SiteLink     string
	Lang         string
}

var stripPolicy = bluemonday.StrictPolicy()

// Compose builds the channel-ready HTML message in the fixed section order:
// title, source line, sense, why, view, question, source link, site link.
// Length enforcement is a priority-ordered degradation: drop why, then view,
// then cut sense at a paragraph boundary, and only as a last resort truncate
// the whole message. Sense carries the primary meaning and survives longest.
func Compose(in MessageInput) string {
	msg := compose(in, true, true, -1)
	if length(msg) <= MaxMessageLen {
		return msg
	}

	msg = compose(in, false, true, -1)
	if length(msg) <= MaxMessageLen {
		return msg
	}

	msg = compose(in, false, false, -1)
	if length(msg) <= MaxMessageLen {
		return msg
	}

	// Cut sense down to whatever budget the fixed sections leave over.
	overflow := length(msg) - MaxMessageLen
	senseBudget := length(clean(in.Analysis.Sense)) - overflow
	if senseBudget > 0 {
		msg = compose(in, false, false, senseBudget)
		if length(msg) <= MaxMessageLen {
			return msg
		}
	}

	return hardTruncate(msg, MaxMessageLen)
}

func compose(in MessageInput, includeWhy, includeView bool, senseBudget int) string {
	labels := LabelsFor(in.Lang)

	var b strings.Builder

	title := clean(in.Title)
	if title != "" {
		b.WriteString("<b>" + title + "</b>\n\n")
	}

	if in.SourceID != "" {
		line := labels.Source + ": " + clean(in.SourceID)
		if in.Age != "" {
			line += " · " + in.Age
		}
		b.WriteString("<i>" + line + "</i>\n\n")
	}

	sense := clean(in.Analysis.Sense)
	if senseBudget >= 0 {
		sense = truncateAtParagraph(sense, senseBudget)
	}
	if sense != "" {
		b.WriteString(sense + "\n\n")
	}

	if includeWhy {
		if why := clean(in.Analysis.Why); why != "" {
			b.WriteString("<b>" + labels.Why + ":</b> " + why + "\n\n")
		}
	}
	if includeView {
		if view := clean(in.Analysis.View); view != "" {
			b.WriteString("<b>" + labels.View + ":</b> " + view + "\n\n")
		}
	}

	if question := clean(in.Analysis.Question); question != "" {
		b.WriteString("<b>" + labels.Question + ":</b> " + question + "\n\n")
	}

	if in.OriginalLink != "" {
		b.WriteString(fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(in.OriginalLink), labels.ReadMore) + "\n")
	}
	if in.SiteLink != "" {
		b.WriteString(fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(in.SiteLink), labels.Site) + "\n")
	}

	return strings.TrimSpace(b.String())
}

// clean strips any feed-borne HTML and escapes what remains for Telegram's
// HTML parse mode.
func clean(text string) string {
	stripped := stripPolicy.Sanitize(text)
	return strings.TrimSpace(html.EscapeString(html.UnescapeString(stripped)))
}

// truncateAtParagraph cuts text to at most budget runes, preferring the last
// paragraph boundary that fits, otherwise hard-truncating with an ellipsis.
func truncateAtParagraph(text string, budget int) string {
	if length(text) <= budget {
		return text
	}
	if budget <= 1 {
		return ""
	}

	head := string([]rune(text)[:budget])
	if idx := strings.LastIndex(head, "\n\n"); idx > 0 {
		return strings.TrimSpace(head[:idx])
	}
	return hardTruncate(text, budget)
}

func hardTruncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return strings.TrimSpace(string(runes[:max-1])) + "…"
}

func length(text string) int {
	return len([]rune(text))
}
