package filter

import (
	"regexp"
	"strings"

	"NewsCourier/internal/domain"
)

// Rejection reasons reported by IsJunk. Kept stable: they end up in
// telemetry events and metrics labels.
const (
	ReasonMissingFields = "missing_title_or_link"
	ReasonShortTitle    = "title_too_short"
	ReasonSourceWindow  = "source_published_recently"
	ReasonTitleWindow   = "title_published_recently"
)

const minTitleLength = 35

// Verdict is the outcome of a junk check.
type Verdict struct {
	IsJunk bool
	Reason string
}

var (
	whitespaceExpr = regexp.MustCompile(`\s+`)
	curlyQuotes    = strings.NewReplacer(
		"‘", "'", "’", "'",
		"“", "'", "”", "'",
		"«", "'", "»", "'",
	)
	unsafePathChars = strings.NewReplacer(
		".", "", "#", "", "$", "", "[", "", "]", "", "/", "",
	)
)

// NormalizeKey derives a store-path-safe key from arbitrary text: lowercase,
// collapsed whitespace, straight quotes, no path-hostile characters, spaces
// as underscores, capped at 120 characters. Every key written into dedup
// state goes through this, malformed document paths being the alternative.
func NormalizeKey(text string) string {
	key := strings.ToLower(strings.TrimSpace(text))
	key = curlyQuotes.Replace(key)
	key = whitespaceExpr.ReplaceAllString(key, " ")
	key = unsafePathChars.Replace(key)
	key = strings.ReplaceAll(key, " ", "_")
	if runes := []rune(key); len(runes) > 120 {
		key = string(runes[:120])
	}
	return key
}

// IsJunk rejects candidates that are structurally unusable or fall inside a
// dedup window. publishedSources holds source IDs published within the last
// 24h, publishedTitles normalized title keys within the last 48h; the caller
// computes both from persisted state. The two-tier window trades source
// diversity against story repetition on purpose; this is a heuristic, not a
// content hash.
func IsJunk(c domain.Candidate, publishedSources, publishedTitles map[string]bool) Verdict {
	if strings.TrimSpace(c.Title) == "" || strings.TrimSpace(c.Link) == "" {
		return Verdict{IsJunk: true, Reason: ReasonMissingFields}
	}
	if len([]rune(strings.TrimSpace(c.Title))) < minTitleLength {
		return Verdict{IsJunk: true, Reason: ReasonShortTitle}
	}
	if publishedSources[c.SourceID] {
		return Verdict{IsJunk: true, Reason: ReasonSourceWindow}
	}
	if publishedTitles[NormalizeKey(c.Title)] {
		return Verdict{IsJunk: true, Reason: ReasonTitleWindow}
	}
	return Verdict{}
}
