package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"NewsCourier/internal/domain"
	"NewsCourier/internal/filter"
	"NewsCourier/internal/ports"
)

type memStore struct {
	mu   sync.Mutex
	docs map[string]json.RawMessage
	seq  int
}

func newMemStore() *memStore {
	return &memStore{docs: map[string]json.RawMessage{}}
}

func (m *memStore) Get(ctx context.Context, path string, out any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if raw, ok := m.docs[path]; ok {
		return json.Unmarshal(raw, out)
	}
	children := map[string]json.RawMessage{}
	prefix := path + "/"
	for key, raw := range m.docs {
		if strings.HasPrefix(key, prefix) {
			children[strings.TrimPrefix(key, prefix)] = raw
		}
	}
	if len(children) == 0 {
		return ports.ErrNotFound
	}
	raw, err := json.Marshal(children)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (m *memStore) Put(ctx context.Context, path string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[path] = raw
	return nil
}

func (m *memStore) Patch(ctx context.Context, path string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc := map[string]any{}
	if raw, ok := m.docs[path]; ok {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return err
		}
	}
	patchRaw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	patch := map[string]any{}
	if err := json.Unmarshal(patchRaw, &patch); err != nil {
		return err
	}
	for k, v := range patch {
		doc[k] = v
	}
	merged, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	m.docs[path] = merged
	return nil
}

func (m *memStore) Post(ctx context.Context, path string, value any) (string, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	id := fmt.Sprintf("-T%03d", m.seq)
	m.docs[path+"/"+id] = raw
	return id, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHourBuckets(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 11, 10, 14, 37, 12, 0, time.UTC)

	next := NextHourBucket(now)
	if want := time.Date(2025, 11, 10, 15, 0, 0, 0, time.UTC).UnixMilli(); next != want {
		t.Fatalf("NextHourBucket = %d, want %d", next, want)
	}

	start, end := CurrentHourBucket(now)
	if want := time.Date(2025, 11, 10, 14, 0, 0, 0, time.UTC).UnixMilli(); start != want {
		t.Fatalf("bucket start = %d, want %d", start, want)
	}
	if end != next {
		t.Fatalf("bucket end %d should equal next bucket %d", end, next)
	}
}

func TestLoadDedupMissingIsEmpty(t *testing.T) {
	t.Parallel()

	store := New(newMemStore(), testLogger())
	state, err := store.LoadDedup(context.Background(), "en")
	if err != nil {
		t.Fatalf("missing state should not error: %v", err)
	}
	if len(state.ProcessedKeys) != 0 || len(state.TitleKeys) != 0 {
		t.Fatalf("expected empty state, got %+v", state)
	}
}

func TestCommitDedupNormalizesAndCompacts(t *testing.T) {
	t.Parallel()

	backend := newMemStore()
	store := New(backend, testLogger())
	now := time.Date(2025, 11, 10, 14, 0, 0, 0, time.UTC)

	state := domain.DedupState{
		ProcessedKeys: map[string]domain.DedupEntry{
			"old": {ProcessedAt: now.Add(-25 * time.Hour).UnixMilli(), SourceID: "rts"},
		},
	}
	c := domain.Candidate{
		SourceID: "bbc",
		Title:    "It’s Official: Parliament Approves The Reform",
		Link:     "https://example.com/a#frag",
		GUID:     "https://example.com/guid.html",
	}
	if err := store.CommitDedup(context.Background(), "en", state, c, now); err != nil {
		t.Fatalf("commit: %v", err)
	}

	loaded, err := store.LoadDedup(context.Background(), "en")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}

	if _, ok := loaded.ProcessedKeys["old"]; ok {
		t.Fatal("expired entry should be compacted away on write")
	}
	sourceKey := filter.NormalizeKey(c.GUID)
	if _, ok := loaded.ProcessedKeys[sourceKey]; !ok {
		t.Fatalf("normalized GUID key %q missing: %+v", sourceKey, loaded.ProcessedKeys)
	}
	titleKey := filter.NormalizeKey(c.Title)
	if strings.ContainsAny(titleKey, ".#$[]/") {
		t.Fatalf("title key not path-safe: %q", titleKey)
	}
	if _, ok := loaded.TitleKeys[titleKey]; !ok {
		t.Fatalf("title key %q missing: %+v", titleKey, loaded.TitleKeys)
	}
}

func TestDueTopicSelection(t *testing.T) {
	t.Parallel()

	backend := newMemStore()
	store := New(backend, testLogger())
	now := time.Date(2025, 11, 10, 14, 30, 0, 0, time.UTC)
	bucket := time.Date(2025, 11, 10, 14, 0, 0, 0, time.UTC).UnixMilli()

	add := func(t *testing.T, topic domain.Topic) string {
		t.Helper()
		id, err := store.ScheduleTopic(context.Background(), &topic)
		if err != nil {
			t.Fatalf("schedule: %v", err)
		}
		return id
	}

	add(t, domain.Topic{Section: domain.SectionNews, Lang: "en", ScheduledFor: bucket, CreatedAt: 1, Title: "older"})
	newest := add(t, domain.Topic{Section: domain.SectionNews, Lang: "en", ScheduledFor: bucket, CreatedAt: 2, Title: "newest"})
	add(t, domain.Topic{Section: domain.SectionNews, Lang: "en", ScheduledFor: bucket, CreatedAt: 9, Posted: true})
	add(t, domain.Topic{Section: domain.SectionNews, Lang: "en", ScheduledFor: bucket, CreatedAt: 9, TranslatedFrom: true})
	add(t, domain.Topic{Section: domain.SectionNews, Lang: "ru", ScheduledFor: bucket, CreatedAt: 9})
	add(t, domain.Topic{Section: domain.SectionDomovoy, Lang: "en", ScheduledFor: bucket, CreatedAt: 9})
	add(t, domain.Topic{Section: domain.SectionNews, Lang: "en", ScheduledFor: bucket - 3600_000, CreatedAt: 9})

	got, err := store.DueTopic(context.Background(), "en", now)
	if err != nil {
		t.Fatalf("due: %v", err)
	}
	if got.ID != newest {
		t.Fatalf("selected %s (%q), want %s", got.ID, got.Title, newest)
	}

	if _, err := store.DueTopic(context.Background(), "sr", now); !errors.Is(err, ErrNoDue) {
		t.Fatalf("expected ErrNoDue for sr, got %v", err)
	}

	// A language whose only topic in the bucket is already posted is done for
	// the hour, which is distinct from having nothing scheduled.
	add(t, domain.Topic{Section: domain.SectionNews, Lang: "de", ScheduledFor: bucket, CreatedAt: 3, Posted: true})
	if _, err := store.DueTopic(context.Background(), "de", now); !errors.Is(err, ErrAlreadyPublished) {
		t.Fatalf("expected ErrAlreadyPublished for de, got %v", err)
	}
}

func TestBorrowTopicPrefersPivot(t *testing.T) {
	t.Parallel()

	backend := newMemStore()
	store := New(backend, testLogger())

	add := func(t *testing.T, topic domain.Topic) string {
		t.Helper()
		id, err := store.ScheduleTopic(context.Background(), &topic)
		if err != nil {
			t.Fatalf("schedule: %v", err)
		}
		return id
	}

	add(t, domain.Topic{Section: domain.SectionNews, Lang: "ru", Sense: "s", CreatedAt: 9})
	pivot := add(t, domain.Topic{Section: domain.SectionNews, Lang: "en", Sense: "s", CreatedAt: 1})
	add(t, domain.Topic{Section: domain.SectionNews, Lang: "en", Sense: "", CreatedAt: 8})
	add(t, domain.Topic{Section: domain.SectionNews, Lang: "sr", Sense: "s", CreatedAt: 9, TranslatedFrom: true})

	got, err := store.BorrowTopic(context.Background(), "sr", "en")
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}
	if got.ID != pivot {
		t.Fatalf("borrowed %s (lang %s), want pivot %s", got.ID, got.Lang, pivot)
	}

	// Excluding the pivot language falls back to the newest other topic.
	got, err = store.BorrowTopic(context.Background(), "en", "en")
	if err != nil {
		t.Fatalf("borrow excluding en: %v", err)
	}
	if got.Lang != "ru" {
		t.Fatalf("expected ru topic, got %+v", got)
	}
}

func TestMarkPostedPatchesLifecycleFields(t *testing.T) {
	t.Parallel()

	backend := newMemStore()
	store := New(backend, testLogger())
	now := time.Date(2025, 11, 10, 14, 30, 0, 0, time.UTC)

	topic := domain.Topic{Section: domain.SectionNews, Lang: "en", Title: "t", Sense: "s"}
	id, err := store.ScheduleTopic(context.Background(), &topic)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	ref := domain.TelegramRef{ChatID: "@ch", MessageID: 42, Permalink: "https://t.me/ch/42"}
	if err := store.MarkPosted(context.Background(), id, ref, now); err != nil {
		t.Fatalf("mark posted: %v", err)
	}

	var stored domain.Topic
	if err := backend.Get(context.Background(), "forum/topics/"+id, &stored); err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !stored.Posted || stored.PostedAt != now.UnixMilli() {
		t.Fatalf("lifecycle fields wrong: %+v", stored)
	}
	if stored.Telegram == nil || stored.Telegram.MessageID != 42 {
		t.Fatalf("telegram ref wrong: %+v", stored.Telegram)
	}
	// The rest of the document survives the patch.
	if stored.Title != "t" || stored.Sense != "s" {
		t.Fatalf("patch clobbered document: %+v", stored)
	}
}
