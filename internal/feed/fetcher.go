package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/doyensec/safeurl"

	"NewsCourier/internal/domain"
	"NewsCourier/internal/ports"
)

const (
	fetchTimeout = 15 * time.Second
	maxBodySize  = 5 << 20
	userAgent    = "NewsCourier/1.0 (+https://github.com/newscourier)"
)

// Fetcher downloads feed documents and turns them into candidates.
// The HTTP client is SSRF-guarded: private, loopback, link-local and
// metadata addresses are blocked at the dialer level.
type Fetcher struct {
	client *http.Client
	parser *Parser
	logger *slog.Logger
}

var _ ports.FeedSource = (*Fetcher)(nil)

// NewFetcher builds a fetcher with a safe HTTP client. Pass a nil client to
// use the guarded default; tests inject httptest clients directly.
func NewFetcher(client *http.Client, logger *slog.Logger) *Fetcher {
	if client == nil {
		config := safeurl.GetConfigBuilder().
			SetTimeout(fetchTimeout).
			SetAllowedSchemes("http", "https").
			SetAllowedPorts(80, 443).
			Build()
		client = safeurl.Client(config).Client
	}
	return &Fetcher{client: client, parser: NewParser(), logger: logger}
}

// Fetch downloads one feed and extracts its candidates. A non-2xx status or
// transport failure is a source-scoped error: the caller logs it and moves
// on to the next source.
func (f *Fetcher) Fetch(ctx context.Context, sourceID, feedURL, lang string) ([]domain.Candidate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", sourceID, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", sourceID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", sourceID, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", sourceID, err)
	}

	candidates, err := f.parser.Parse(body, sourceID, lang)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", sourceID, err)
	}

	if f.logger != nil {
		f.logger.Debug("feed fetched",
			slog.String("source", sourceID),
			slog.Int("items", len(candidates)),
		)
	}
	return candidates, nil
}
