package ports

import (
	"context"
	"errors"

	"NewsCourier/internal/domain"
)

// ErrNotFound is returned by StateStore.Get when a path holds no document.
var ErrNotFound = errors.New("document not found")

// ErrRejected is wrapped by ChannelPublisher implementations when the
// channel API refuses the request itself (client-side 4xx), signalling the
// caller to fall back rather than retry.
var ErrRejected = errors.New("channel rejected request")

// FeedSource pulls fresh candidates from upstream feeds for one language.
type FeedSource interface {
	Fetch(ctx context.Context, sourceID, feedURL, lang string) ([]domain.Candidate, error)
}

// TextGenerator is the single LLM capability shared by the news pipeline and
// the domovoy generator.
type TextGenerator interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error)
}

// ChannelPublisher delivers formatted messages to a per-language channel.
// SendPhoto is attempted first when an image is available; implementations
// report a typed error for client-side rejections so callers can fall back
// to a plain text send.
type ChannelPublisher interface {
	SendText(ctx context.Context, chatID, text string) (messageID int64, err error)
	SendPhoto(ctx context.Context, chatID, photoURL, caption string) (messageID int64, err error)
}

// StateStore is a path-addressed JSON document store. The REST specifics of
// any particular backend are an adapter concern; paths are hierarchical
// (e.g. "forum/topics", "newsMeta/en"). Get returns ErrNotFound via the
// adapter when the document is absent.
type StateStore interface {
	Get(ctx context.Context, path string, out any) error
	Put(ctx context.Context, path string, value any) error
	Patch(ctx context.Context, path string, value any) error
	Post(ctx context.Context, path string, value any) (id string, err error)
}

// Recorder is the operational telemetry sink shared by all jobs.
type Recorder interface {
	Heartbeat(ctx context.Context, component string, runErr error, metrics map[string]int)
	Event(ctx context.Context, component, level, message string, meta map[string]string)
}

// Scheduler controls when jobs execute in daemon mode.
type Scheduler interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
