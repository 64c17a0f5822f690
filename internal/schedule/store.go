package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"NewsCourier/internal/domain"
	"NewsCourier/internal/filter"
	"NewsCourier/internal/ports"
)

// Store paths in the document backend.
const (
	topicsPath   = "forum/topics"
	newsMetaPath = "newsMeta"
)

// ErrNoDue signals that no topic is due for the requested language in the
// current hour bucket.
var ErrNoDue = errors.New("no due topic")

// ErrAlreadyPublished signals that the language already had a topic (native
// or borrowed) delivered inside the current hour bucket. The caller must not
// fall back to borrowing in this case or a re-invocation would deliver twice.
var ErrAlreadyPublished = errors.New("already published this hour")

// Store owns DedupState and the scheduledFor/posted lifecycle of topics.
// The publisher only ever flips posted and attaches delivery metadata; every
// other mutation funnels through here.
type Store struct {
	backend ports.StateStore
	logger  *slog.Logger
}

// New builds the scheduling store over a document backend.
func New(backend ports.StateStore, logger *slog.Logger) *Store {
	return &Store{backend: backend, logger: logger}
}

// NextHourBucket returns the start of the next full hour in epoch ms. All
// languages scheduled in a single run share the same bucket.
func NextHourBucket(now time.Time) int64 {
	return now.Truncate(time.Hour).Add(time.Hour).UnixMilli()
}

// CurrentHourBucket returns the [start, end) bounds of the hour containing
// now, in epoch ms.
func CurrentHourBucket(now time.Time) (int64, int64) {
	start := now.Truncate(time.Hour)
	return start.UnixMilli(), start.Add(time.Hour).UnixMilli()
}

// LoadDedup reads the per-language dedup state. A missing document is an
// empty state, not an error.
func (s *Store) LoadDedup(ctx context.Context, lang string) (domain.DedupState, error) {
	var state domain.DedupState
	err := s.backend.Get(ctx, newsMetaPath+"/"+lang, &state)
	if errors.Is(err, ports.ErrNotFound) {
		return domain.DedupState{}, nil
	}
	if err != nil {
		return domain.DedupState{}, fmt.Errorf("load dedup state for %s: %w", lang, err)
	}
	return state, nil
}

// ScheduleTopic persists a new topic and returns its generated id.
func (s *Store) ScheduleTopic(ctx context.Context, topic *domain.Topic) (string, error) {
	id, err := s.backend.Post(ctx, topicsPath, topic)
	if err != nil {
		return "", fmt.Errorf("persist topic %q: %w", topic.Title, err)
	}
	topic.ID = id
	return id, nil
}

// CommitDedup appends the candidate's derived keys into the state and writes
// it back. The working set is recomputed from non-expired entries on every
// write, and every key passes the same normalization as the junk filter so a
// raw title can never produce a malformed document path.
func (s *Store) CommitDedup(ctx context.Context, lang string, state domain.DedupState, c domain.Candidate, now time.Time) error {
	compact := state.Compact(now)

	sourceKey := filter.NormalizeKey(c.Key())
	if sourceKey != "" {
		compact.ProcessedKeys[sourceKey] = domain.DedupEntry{
			ProcessedAt: now.UnixMilli(),
			SourceID:    c.SourceID,
		}
	}
	titleKey := filter.NormalizeKey(c.Title)
	if titleKey != "" {
		compact.TitleKeys[titleKey] = domain.DedupEntry{ProcessedAt: now.UnixMilli()}
	}

	if err := s.backend.Put(ctx, newsMetaPath+"/"+lang, compact); err != nil {
		return fmt.Errorf("write dedup state for %s: %w", lang, err)
	}
	return nil
}

// DueTopic selects the topic to publish for lang inside the current hour
// bucket: section news, not yet posted, not itself a translation, most
// recently created first. Returns ErrAlreadyPublished when a topic for lang
// (native or derived) was already posted in this bucket, ErrNoDue when
// nothing qualifies at all.
func (s *Store) DueTopic(ctx context.Context, lang string, now time.Time) (domain.Topic, error) {
	topics, err := s.allTopics(ctx)
	if err != nil {
		return domain.Topic{}, err
	}

	bucketStart, bucketEnd := CurrentHourBucket(now)
	var best domain.Topic
	found := false
	published := false
	for _, t := range topics {
		if t.Section != domain.SectionNews || t.Lang != lang {
			continue
		}
		if t.ScheduledFor < bucketStart || t.ScheduledFor >= bucketEnd {
			continue
		}
		if t.Posted {
			published = true
			continue
		}
		if t.TranslatedFrom {
			continue
		}
		if !found || t.CreatedAt > best.CreatedAt {
			best = t
			found = true
		}
	}
	if found {
		return best, nil
	}
	if published {
		return domain.Topic{}, ErrAlreadyPublished
	}
	return domain.Topic{}, ErrNoDue
}

// BorrowTopic picks the most recent eligible topic from any language for a
// cross-language fallback, preferring preferLang (normally "en"). The source
// topic is never mutated; the caller persists a derived translation.
func (s *Store) BorrowTopic(ctx context.Context, excludeLang, preferLang string) (domain.Topic, error) {
	topics, err := s.allTopics(ctx)
	if err != nil {
		return domain.Topic{}, err
	}

	var best domain.Topic
	found := false
	for _, t := range topics {
		if t.Section != domain.SectionNews || t.Lang == excludeLang || t.TranslatedFrom {
			continue
		}
		if t.Sense == "" {
			continue
		}
		better := false
		switch {
		case !found:
			better = true
		case t.Lang == preferLang && best.Lang != preferLang:
			better = true
		case (t.Lang == preferLang) == (best.Lang == preferLang) && t.CreatedAt > best.CreatedAt:
			better = true
		}
		if better {
			best = t
			found = true
		}
	}
	if !found {
		return domain.Topic{}, ErrNoDue
	}
	return best, nil
}

// MarkPosted flips posted and attaches delivery metadata. This patch is the
// sole idempotency guard against re-delivery on the next invocation.
func (s *Store) MarkPosted(ctx context.Context, topicID string, ref domain.TelegramRef, at time.Time) error {
	patch := map[string]any{
		"posted":   true,
		"postedAt": at.UnixMilli(),
		"telegram": ref,
	}
	if err := s.backend.Patch(ctx, topicsPath+"/"+topicID, patch); err != nil {
		return fmt.Errorf("mark topic %s posted: %w", topicID, err)
	}
	return nil
}

func (s *Store) allTopics(ctx context.Context) (map[string]domain.Topic, error) {
	raw := make(map[string]domain.Topic)
	err := s.backend.Get(ctx, topicsPath, &raw)
	if errors.Is(err, ports.ErrNotFound) {
		return map[string]domain.Topic{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load topics: %w", err)
	}
	for id, t := range raw {
		t.ID = id
		raw[id] = t
	}
	return raw, nil
}
