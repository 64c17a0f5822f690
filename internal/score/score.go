package score

import (
	"strings"

	"NewsCourier/internal/domain"
)

// Keyword buckets are multilingual on purpose: every list is checked against
// every candidate regardless of its declared language, so loanwords and
// cognates carry signal across feeds.
var (
	internationalWords = []string{
		"международ", "санкци", "переговор", "саммит", "нато", "оон",
		"international", "sanction", "summit", "treaty", "diplomat", "nato",
		"united nations", "geopolit",
		"међународ", "санкциј", "преговор", "самит",
	}
	institutionalWords = []string{
		"парламент", "конституц", "выбор", "правительств", "закон", "реформ",
		"parliament", "constitution", "election", "government", "legislation",
		"reform", "supreme court", "minister",
		"парламент", "устав", "избор", "влада", "закон",
	}
	rightsWords = []string{
		"свобод", "права человека", "цензур", "журналист", "активист",
		"freedom", "human rights", "censorship", "journalist", "activist",
		"civil liberties", "protest",
		"слобод", "људска права", "цензур", "новинар",
	}
	scienceWords = []string{
		"исследован", "учёные", "ученые", "технолог", "космос", "искусственный интеллект",
		"research", "scientist", "technology", "space", "artificial intelligence",
		"quantum", "vaccine", "discovery",
		"истраживањ", "научниц", "технологиј", "свемир",
	}
	precedentWords = []string{
		"впервые", "прецедент", "прорыв", "рекорд",
		"first time", "precedent", "breakthrough", "unprecedented", "record",
		"први пут", "преседан", "пробој",
	}
	crimeWords = []string{
		"убийств", "ограблен", "изнасилован", "наркотик", "резня",
		"murder", "robbery", "stabbing", "homicide", "assault",
		"убиств", "пљачк", "напад",
	}
	sensationalWords = []string{
		"шок", "сенсаци", "скандал", "вы не поверите", "срочно",
		"shocking", "sensational", "scandal", "you won't believe", "breaking!!",
		"шокантн", "скандал",
	}
)

// Bucket weights. Each bucket is counted at most once no matter how many of
// its keywords match.
const (
	internationalWeight = 25
	institutionalWeight = 20
	rightsWeight        = 15
	scienceWeight       = 10
	precedentWeight     = 10
	crimePenalty        = 15
	sensationalPenalty  = 10
	sensationalFloor    = 20
)

// Relevance scores a candidate into [0,100] from keyword buckets matched
// against the lowercased title+description. The crime penalty is suppressed
// when an international or institutional keyword also matched: violent news
// with systemic relevance should not lose rank. The sensational penalty only
// applies while the running score is still below 20, so one clickbait word
// cannot sink a substantive story.
func Relevance(c domain.Candidate) int {
	text := strings.ToLower(c.Title + " " + c.Description)

	score := 0
	international := matchAny(text, internationalWords)
	institutional := matchAny(text, institutionalWords)

	if international {
		score += internationalWeight
	}
	if institutional {
		score += institutionalWeight
	}
	if matchAny(text, rightsWords) {
		score += rightsWeight
	}
	if matchAny(text, scienceWords) {
		score += scienceWeight
	}
	if matchAny(text, precedentWords) {
		score += precedentWeight
	}

	if matchAny(text, crimeWords) && !international && !institutional {
		score -= crimePenalty
	}
	if score < sensationalFloor && matchAny(text, sensationalWords) {
		score -= sensationalPenalty
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func matchAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
