package domain

import "time"

// Candidate is a single feed item under consideration. It is ephemeral:
// nothing is persisted unless the candidate survives filtering and analysis.
type Candidate struct {
	SourceID    string
	Title       string
	Link        string
	GUID        string
	PubDate     time.Time
	Description string
	ImageURL    string
	Language    string
}

// ScoredCandidate pairs a candidate with its relevance score in [0,100].
type ScoredCandidate struct {
	Candidate
	Score int
}

// Key returns the candidate identity used for dedup bookkeeping: the GUID
// when present, otherwise the link.
func (c Candidate) Key() string {
	if c.GUID != "" {
		return c.GUID
	}
	return c.Link
}

// Age reports how long ago the item was published relative to now.
func (c Candidate) Age(now time.Time) time.Duration {
	if c.PubDate.IsZero() {
		return 0
	}
	return now.Sub(c.PubDate)
}
