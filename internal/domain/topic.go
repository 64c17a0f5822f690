package domain

// Sections a Topic can belong to.
const (
	SectionNews    = "news"
	SectionDomovoy = "domovoy"
)

// AnalysisResult is the four-field structured analysis produced once per
// selected candidate. Length budgets: Sense 240-360, Why <=180, View <=220,
// Question <=160 characters.
type AnalysisResult struct {
	Sense    string `json:"sense"`
	Why      string `json:"why"`
	View     string `json:"view"`
	Question string `json:"question"`
}

// TelegramRef holds delivery metadata attached after a confirmed send.
type TelegramRef struct {
	ChatID    string `json:"chatId,omitempty"`
	MessageID int64  `json:"messageId,omitempty"`
	Permalink string `json:"permalink,omitempty"`
}

// Topic is the persisted record produced by the ingestion pipeline and later
// consumed by the delivery cron. It is append-only: after creation the only
// mutation is flipping Posted and attaching delivery metadata. All timestamps
// are epoch milliseconds to match the document store's number representation.
type Topic struct {
	ID             string         `json:"id,omitempty"`
	Title          string         `json:"title"`
	Content        string         `json:"content,omitempty"`
	Sense          string         `json:"sense"`
	Why            string         `json:"why"`
	View           string         `json:"view"`
	Question       string         `json:"question"`
	Section        string         `json:"section"`
	Lang           string         `json:"lang"`
	SourceID       string         `json:"sourceId,omitempty"`
	OriginalLink   string         `json:"originalLink,omitempty"`
	OriginalGUID   string         `json:"originalGuid,omitempty"`
	PubDate        int64          `json:"pubDate,omitempty"`
	ImageURL       string         `json:"imageUrl,omitempty"`
	CreatedAt      int64          `json:"createdAt"`
	ScheduledFor   int64          `json:"scheduledFor"`
	Posted         bool           `json:"posted"`
	PostedAt       int64          `json:"postedAt,omitempty"`
	Telegram       *TelegramRef   `json:"telegram,omitempty"`
	TranslatedFrom bool           `json:"translatedFrom"`
	SourceTopicID  string         `json:"sourceTopicId,omitempty"`
	Channel        string         `json:"channel,omitempty"`
}

// Analysis extracts the four analysis fields from a persisted topic.
func (t Topic) Analysis() AnalysisResult {
	return AnalysisResult{Sense: t.Sense, Why: t.Why, View: t.View, Question: t.Question}
}
