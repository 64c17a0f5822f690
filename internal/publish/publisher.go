package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"NewsCourier/internal/analysis"
	"NewsCourier/internal/domain"
	"NewsCourier/internal/feed"
	"NewsCourier/internal/ports"
	"NewsCourier/internal/schedule"
	"NewsCourier/internal/telemetry"
)

// Options carries the per-language delivery configuration.
type Options struct {
	Channels  map[string]string // lang -> chat id
	Usernames map[string]string // lang -> public channel username, for permalinks
	SiteLinks map[string]string // lang -> canonical site link
	PivotLang string            // language preferred when borrowing, normally "en"
}

// Result reports the outcome of one language's delivery pass.
type Result struct {
	Lang      string `json:"lang"`
	TopicID   string `json:"topicId,omitempty"`
	Delivered bool   `json:"delivered"`
	Borrowed  bool   `json:"borrowed,omitempty"`
	Skipped   string `json:"skipped,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Publisher runs the delivery state machine per language:
// SelectDue -> Format -> Deliver -> MarkPosted, with a fallback borrow path
// that translates another language's topic when nothing native is due.
type Publisher struct {
	store    *schedule.Store
	channel  ports.ChannelPublisher
	analyzer *analysis.Analyzer
	recorder ports.Recorder
	opts     Options
	logger   *slog.Logger
}

// New wires the publisher.
func New(store *schedule.Store, channel ports.ChannelPublisher, analyzer *analysis.Analyzer, recorder ports.Recorder, opts Options, logger *slog.Logger) *Publisher {
	if opts.PivotLang == "" {
		opts.PivotLang = "en"
	}
	return &Publisher{store: store, channel: channel, analyzer: analyzer, recorder: recorder, opts: opts, logger: logger}
}

// PublishLanguage evaluates one language independently. A failure here never
// propagates past the Result: sibling languages continue regardless. When dry
// is set the message is composed but not delivered and nothing is marked.
func (p *Publisher) PublishLanguage(ctx context.Context, lang string, now time.Time, dry bool) Result {
	result := Result{Lang: lang}

	chatID := p.opts.Channels[lang]
	if chatID == "" {
		result.Skipped = "channel not configured"
		return result
	}

	topic, err := p.store.DueTopic(ctx, lang, now)
	if errors.Is(err, schedule.ErrAlreadyPublished) {
		result.Skipped = "already published this hour"
		return result
	}
	if errors.Is(err, schedule.ErrNoDue) {
		topic, err = p.borrow(ctx, lang, now)
		if errors.Is(err, schedule.ErrNoDue) {
			result.Skipped = "nothing due"
			return result
		}
		if err != nil {
			result.Error = err.Error()
			telemetry.DeliveriesTotal.WithLabelValues(lang, "error").Inc()
			return result
		}
		result.Borrowed = true
	} else if err != nil {
		result.Error = err.Error()
		telemetry.DeliveriesTotal.WithLabelValues(lang, "error").Inc()
		return result
	}

	result.TopicID = topic.ID
	message := p.format(topic, now)

	if dry {
		result.Skipped = "dry run"
		return result
	}

	messageID, err := p.deliver(ctx, chatID, topic.ImageURL, message)
	if err != nil {
		result.Error = err.Error()
		telemetry.DeliveriesTotal.WithLabelValues(lang, "error").Inc()
		p.recorder.Event(ctx, "publisher", "error", fmt.Sprintf("delivery failed for %s: %v", lang, err),
			map[string]string{"topic": topic.ID})
		return result
	}
	result.Delivered = true
	telemetry.DeliveriesTotal.WithLabelValues(lang, "ok").Inc()

	ref := domain.TelegramRef{ChatID: chatID, MessageID: messageID}
	if username := p.opts.Usernames[lang]; username != "" {
		ref.Permalink = fmt.Sprintf("https://t.me/%s/%d", strings.TrimPrefix(username, "@"), messageID)
	}

	// Delivery already happened; a failed write here means the next run may
	// deliver again. Logged, not propagated.
	if err := p.store.MarkPosted(ctx, topic.ID, ref, now); err != nil {
		p.logger.Error("posted write-back failed",
			slog.String("lang", lang),
			slog.String("topic", topic.ID),
			slog.String("error", err.Error()),
		)
		p.recorder.Event(ctx, "publisher", "error", "posted write-back failed: "+err.Error(),
			map[string]string{"topic": topic.ID, "lang": lang})
	}

	return result
}

// borrow implements the cross-language fallback: take the most recent
// eligible topic from another language (preferring the pivot), translate the
// title and all four analysis fields, and persist the derived topic. The
// source topic is never mutated.
func (p *Publisher) borrow(ctx context.Context, lang string, now time.Time) (domain.Topic, error) {
	source, err := p.store.BorrowTopic(ctx, lang, p.opts.PivotLang)
	if err != nil {
		return domain.Topic{}, err
	}

	title, err := p.analyzer.Translate(ctx, source.Title, lang)
	if err != nil {
		return domain.Topic{}, fmt.Errorf("borrow for %s: %w", lang, err)
	}

	fields := [4]string{source.Sense, source.Why, source.View, source.Question}
	for i, text := range fields {
		translated, err := p.analyzer.Translate(ctx, text, lang)
		if err != nil {
			return domain.Topic{}, fmt.Errorf("borrow for %s: %w", lang, err)
		}
		fields[i] = translated
	}

	bucketStart, _ := schedule.CurrentHourBucket(now)
	derived := domain.Topic{
		Title:          title,
		Sense:          fields[0],
		Why:            fields[1],
		View:           fields[2],
		Question:       fields[3],
		Section:        domain.SectionNews,
		Lang:           lang,
		SourceID:       source.SourceID,
		OriginalLink:   source.OriginalLink,
		OriginalGUID:   source.OriginalGUID,
		PubDate:        source.PubDate,
		ImageURL:       source.ImageURL,
		CreatedAt:      now.UnixMilli(),
		ScheduledFor:   bucketStart,
		TranslatedFrom: true,
		SourceTopicID:  source.ID,
	}
	if _, err := p.store.ScheduleTopic(ctx, &derived); err != nil {
		return domain.Topic{}, err
	}

	p.recorder.Event(ctx, "publisher", "info", "borrowed topic for "+lang,
		map[string]string{"source_topic": source.ID, "source_lang": source.Lang})
	return derived, nil
}

func (p *Publisher) format(topic domain.Topic, now time.Time) string {
	var age string
	if topic.PubDate > 0 {
		age = feed.RelativeAge(time.UnixMilli(topic.PubDate), now)
	}
	return Compose(MessageInput{
		Title:        topic.Title,
		SourceID:     topic.SourceID,
		Age:          age,
		Analysis:     topic.Analysis(),
		OriginalLink: topic.OriginalLink,
		SiteLink:     p.opts.SiteLinks[topic.Lang],
		Lang:         topic.Lang,
	})
}

// deliver attempts the photo send when an image is present and falls back to
// a text send exactly once when the channel API rejects the request.
func (p *Publisher) deliver(ctx context.Context, chatID, imageURL, message string) (int64, error) {
	if imageURL != "" {
		messageID, err := p.channel.SendPhoto(ctx, chatID, imageURL, message)
		if err == nil {
			return messageID, nil
		}
		if !errors.Is(err, ports.ErrRejected) {
			return 0, err
		}
		if p.logger != nil {
			p.logger.Warn("photo send rejected, retrying as text", slog.String("error", err.Error()))
		}
	}
	return p.channel.SendText(ctx, chatID, message)
}
