package usecase

import (
	"context"
	"sync"
	"testing"

	"NewsCourier/internal/config"
	"NewsCourier/internal/domain"
	"NewsCourier/internal/domovoy"
	"NewsCourier/internal/schedule"
	"NewsCourier/internal/telemetry"
)

type recordingChannel struct {
	mu    sync.Mutex
	texts []string
}

func (r *recordingChannel) SendText(ctx context.Context, chatID, text string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return int64(len(r.texts)), nil
}

func (r *recordingChannel) SendPhoto(ctx context.Context, chatID, photoURL, caption string) (int64, error) {
	return 0, nil
}

type houseGen struct{}

func (houseGen) Complete(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error) {
	return `{"headline": "A word from the hearth", "quote": "Q", "reflection": "R", "question": "W?"}`, nil
}

func domovoyConfig() config.Config {
	cfg := config.Config{Languages: []string{"en"}}
	cfg.Telegram.Channels = map[string]string{"en": "@house_en"}
	return cfg
}

func newDomovoyJob(backend *memStore, channel *recordingChannel) *Domovoy {
	cfg := domovoyConfig()
	topics := schedule.New(backend, testLogger())
	recorder := telemetry.New(nil, testLogger())
	return NewDomovoy(cfg, domovoy.NewGenerator(houseGen{}), topics, backend, channel, recorder, testLogger())
}

func TestDomovoyDeliversAndPersists(t *testing.T) {
	t.Parallel()

	backend := newMemStore()
	channel := &recordingChannel{}
	job := newDomovoyJob(backend, channel)

	reports := job.Run(context.Background(), DomovoyOptions{})
	if len(reports) != 1 || reports[0].Error != "" {
		t.Fatalf("reports = %+v", reports)
	}
	report := reports[0]
	if !report.Delivered || report.TopicID == "" || report.SeedKey == "" {
		t.Fatalf("report = %+v", report)
	}
	if len(channel.texts) != 1 {
		t.Fatalf("expected 1 send, got %d", len(channel.texts))
	}

	var topic domain.Topic
	if err := backend.Get(context.Background(), "forum/topics/"+report.TopicID, &topic); err != nil {
		t.Fatalf("read topic: %v", err)
	}
	if topic.Section != domain.SectionDomovoy || !topic.Posted {
		t.Fatalf("topic = %+v", topic)
	}
	if topic.Telegram == nil || topic.Telegram.ChatID != "@house_en" {
		t.Fatalf("delivery metadata missing: %+v", topic.Telegram)
	}

	var state domain.SeedRotationState
	if err := backend.Get(context.Background(), "domovoy/state/recent_en", &state); err != nil {
		t.Fatalf("read seed state: %v", err)
	}
	if len(state.Recent) != 1 || state.Recent[0].SeedKey != report.SeedKey {
		t.Fatalf("seed state = %+v", state)
	}
}

func TestDomovoyRotatesSeeds(t *testing.T) {
	t.Parallel()

	backend := newMemStore()
	channel := &recordingChannel{}
	job := newDomovoyJob(backend, channel)

	pool := domovoy.Seeds("en")
	seen := map[string]bool{}
	// One full pool cycle plus one: the extra run restarts after a clear.
	for i := 0; i <= len(pool); i++ {
		reports := job.Run(context.Background(), DomovoyOptions{})
		if reports[0].Error != "" {
			t.Fatalf("run %d: %+v", i, reports[0])
		}
		if i < len(pool) && seen[reports[0].SeedKey] {
			t.Fatalf("run %d repeated seed %q before exhausting the pool", i, reports[0].SeedKey)
		}
		seen[reports[0].SeedKey] = true
	}
	if len(seen) != len(pool) {
		t.Fatalf("covered %d of %d seeds", len(seen), len(pool))
	}
}

func TestDomovoyDryRunSendsNothing(t *testing.T) {
	t.Parallel()

	backend := newMemStore()
	channel := &recordingChannel{}
	job := newDomovoyJob(backend, channel)

	reports := job.Run(context.Background(), DomovoyOptions{Dry: true})
	if reports[0].Delivered || reports[0].Error != "" {
		t.Fatalf("dry run: %+v", reports[0])
	}
	if len(channel.texts) != 0 || len(backend.docs) != 0 {
		t.Fatalf("dry run wrote: %d sends, %d docs", len(channel.texts), len(backend.docs))
	}
}

func TestDomovoyUnconfiguredChannelIsError(t *testing.T) {
	t.Parallel()

	backend := newMemStore()
	channel := &recordingChannel{}
	cfg := config.Config{Languages: []string{"sr"}}
	topics := schedule.New(backend, testLogger())
	job := NewDomovoy(cfg, domovoy.NewGenerator(houseGen{}), topics, backend, channel,
		telemetry.New(nil, testLogger()), testLogger())

	reports := job.Run(context.Background(), DomovoyOptions{})
	if reports[0].Error == "" || reports[0].Delivered {
		t.Fatalf("expected config error: %+v", reports[0])
	}
}
