package feed

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"NewsCourier/internal/domain"
)

// Parser turns raw feed markup into candidates. gofeed handles RSS, Atom and
// JSON Feed tolerantly; field extraction applies the fallback chains from the
// ingestion contract so every candidate field is a string, never nil.
type Parser struct {
	inner *gofeed.Parser
}

// NewParser builds a parser instance. Safe for reuse across fetches.
func NewParser() *Parser {
	return &Parser{inner: gofeed.NewParser()}
}

// Parse extracts candidates from raw feed bytes. Items without any usable
// field still produce a candidate with empty strings; junk filtering decides
// their fate downstream.
func (p *Parser) Parse(raw []byte, sourceID, lang string) ([]domain.Candidate, error) {
	parsed, err := p.inner.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	candidates := make([]domain.Candidate, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		candidates = append(candidates, convertItem(item, sourceID, lang))
	}
	return candidates, nil
}

func convertItem(item *gofeed.Item, sourceID, lang string) domain.Candidate {
	candidate := domain.Candidate{
		SourceID: sourceID,
		Title:    strings.TrimSpace(item.Title),
		Link:     strings.TrimSpace(item.Link),
		GUID:     strings.TrimSpace(item.GUID),
		Language: lang,
	}

	// description -> summary -> content:encoded
	description := strings.TrimSpace(item.Description)
	if description == "" {
		description = strings.TrimSpace(item.Content)
	}
	candidate.Description = description

	if item.PublishedParsed != nil {
		candidate.PubDate = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		candidate.PubDate = *item.UpdatedParsed
	}

	// Link can legitimately be absent when the GUID is a permalink URL.
	if candidate.Link == "" && strings.HasPrefix(candidate.GUID, "http") {
		candidate.Link = candidate.GUID
	}

	candidate.ImageURL = resolveImageURL(item, description)
	return candidate
}

// resolveImageURL walks the ordered image heuristics: an enclosure declared
// as image/*, a media:thumbnail or media:content url attribute, then an
// og:image meta tag or bare <img src> inside the description HTML.
func resolveImageURL(item *gofeed.Item, description string) string {
	for _, enc := range item.Enclosures {
		if enc == nil {
			continue
		}
		if strings.HasPrefix(strings.ToLower(enc.Type), "image/") && enc.URL != "" {
			return enc.URL
		}
	}

	if media, ok := item.Extensions["media"]; ok {
		for _, tag := range []string{"thumbnail", "content"} {
			for _, ext := range media[tag] {
				if u := ext.Attrs["url"]; u != "" {
					return u
				}
			}
		}
	}

	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}

	return imageFromHTML(description)
}

func imageFromHTML(html string) string {
	if !strings.Contains(html, "<") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	if og, ok := doc.Find(`meta[property="og:image"]`).First().Attr("content"); ok && og != "" {
		return og
	}
	if src, ok := doc.Find("img[src]").First().Attr("src"); ok {
		return src
	}
	return ""
}

// RelativeAge renders a compact human age like "3h" or "2d" for the source
// line of a formatted message.
func RelativeAge(pub, now time.Time) string {
	if pub.IsZero() || pub.After(now) {
		return ""
	}
	age := now.Sub(pub)
	switch {
	case age < time.Hour:
		return fmt.Sprintf("%dm", int(age.Minutes()))
	case age < 48*time.Hour:
		return fmt.Sprintf("%dh", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd", int(age.Hours()/24))
	}
}
