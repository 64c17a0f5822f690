package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"NewsCourier/internal/analysis"
	"NewsCourier/internal/config"
	"NewsCourier/internal/domain"
	"NewsCourier/internal/filter"
	"NewsCourier/internal/ports"
	"NewsCourier/internal/schedule"
	"NewsCourier/internal/score"
	"NewsCourier/internal/telemetry"
)

const (
	// Candidates older than this are stale news, not worth scheduling.
	maxCandidateAge = 6 * time.Hour

	defaultTopN = 5
	pivotLang   = "en"
)

// IngestOptions narrows a run: specific languages, a smaller analysis
// window, or a dry pass that persists nothing.
type IngestOptions struct {
	Langs []string
	Limit int
	Dry   bool
}

// LangReport is the per-language outcome of one ingest run.
type LangReport struct {
	Lang     string `json:"lang"`
	Fetched  int    `json:"fetched"`
	Junk     int    `json:"junk"`
	Analyzed int    `json:"analyzed"`
	TopicID  string `json:"topicId,omitempty"`
	Fallback bool   `json:"fallback,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Ingest is the hourly news ingestion job: fetch feeds, filter, score,
// analyze, and schedule one topic per language into the next hour bucket.
// Execution is strictly sequential; per-source and per-item failures are
// contained so a single broken feed never blocks sibling languages.
type Ingest struct {
	cfg      config.Config
	source   ports.FeedSource
	analyzer *analysis.Analyzer
	store    *schedule.Store
	recorder ports.Recorder
	logger   *slog.Logger
}

// NewIngest wires the ingestion job.
func NewIngest(cfg config.Config, source ports.FeedSource, analyzer *analysis.Analyzer, store *schedule.Store, recorder ports.Recorder, logger *slog.Logger) *Ingest {
	return &Ingest{cfg: cfg, source: source, analyzer: analyzer, store: store, recorder: recorder, logger: logger}
}

// Run executes one ingest pass. All languages scheduled in this run share
// the same hour bucket.
func (j *Ingest) Run(ctx context.Context, opts IngestOptions) []LangReport {
	now := time.Now()
	bucket := schedule.NextHourBucket(now)

	langs := opts.Langs
	if len(langs) == 0 {
		langs = j.cfg.Languages
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultTopN
	}

	reports := make([]LangReport, 0, len(langs))
	var runErr error
	scheduled := 0

	for _, lang := range langs {
		report := j.runLanguage(ctx, lang, bucket, limit, opts.Dry, now)
		if report.Error != "" {
			runErr = fmt.Errorf("lang %s: %s", lang, report.Error)
		}
		if report.TopicID != "" {
			scheduled++
		}
		reports = append(reports, report)
	}

	outcome := "ok"
	if runErr != nil {
		outcome = "error"
	}
	telemetry.RunsTotal.WithLabelValues("ingest", outcome).Inc()
	j.recorder.Heartbeat(ctx, "newsbot", runErr, map[string]int{
		"languages": len(langs),
		"scheduled": scheduled,
	})
	return reports
}

func (j *Ingest) runLanguage(ctx context.Context, lang string, bucket int64, limit int, dry bool, now time.Time) LangReport {
	report := LangReport{Lang: lang}

	state, err := j.store.LoadDedup(ctx, lang)
	if err != nil {
		report.Error = err.Error()
		return report
	}
	publishedSources := state.LiveSources(now)
	publishedTitles := state.LiveTitles(now)

	candidates := j.collect(ctx, lang)
	report.Fetched = len(candidates)
	telemetry.ItemsFetched.WithLabelValues(lang).Add(float64(len(candidates)))

	var scored []domain.ScoredCandidate
	for _, c := range candidates {
		if !c.PubDate.IsZero() && c.Age(now) > maxCandidateAge {
			continue
		}
		verdict := filter.IsJunk(c, publishedSources, publishedTitles)
		if verdict.IsJunk {
			report.Junk++
			telemetry.JunkTotal.WithLabelValues(verdict.Reason).Inc()
			continue
		}
		scored = append(scored, domain.ScoredCandidate{Candidate: c, Score: score.Relevance(c)})
	}

	sort.SliceStable(scored, func(a, b int) bool { return scored[a].Score > scored[b].Score })
	if len(scored) > limit {
		scored = scored[:limit]
	}

	best, bestResult, found := j.analyzeBest(ctx, lang, scored, &report)
	if !found {
		// No native survivor: the publish run borrows a pivot-language topic.
		report.Fallback = true
		j.recorder.Event(ctx, "newsbot", "warn", "no survivor for "+lang+", fallback flagged", nil)
		return report
	}

	if dry {
		return report
	}

	topic := domain.Topic{
		Title:        best.Title,
		Sense:        bestResult.Sense,
		Why:          bestResult.Why,
		View:         bestResult.View,
		Question:     bestResult.Question,
		Section:      domain.SectionNews,
		Lang:         lang,
		SourceID:     best.SourceID,
		OriginalLink: best.Link,
		OriginalGUID: best.GUID,
		ImageURL:     best.ImageURL,
		CreatedAt:    now.UnixMilli(),
		ScheduledFor: bucket,
	}
	if !best.PubDate.IsZero() {
		topic.PubDate = best.PubDate.UnixMilli()
	}

	id, err := j.store.ScheduleTopic(ctx, &topic)
	if err != nil {
		report.Error = err.Error()
		return report
	}
	report.TopicID = id

	if err := j.store.CommitDedup(ctx, lang, state, best.Candidate, now); err != nil {
		// The topic is already scheduled; losing one dedup write only widens
		// the next run's window. Telemetry, not failure.
		j.recorder.Event(ctx, "newsbot", "error", "dedup write failed: "+err.Error(),
			map[string]string{"lang": lang})
	}

	return report
}

// collect fetches all configured sources for a language. A failing source is
// logged and skipped; the others proceed.
func (j *Ingest) collect(ctx context.Context, lang string) []domain.Candidate {
	var all []domain.Candidate
	for _, src := range j.cfg.SourcesFor(lang) {
		candidates, err := j.source.Fetch(ctx, src.ID, src.URL, lang)
		if err != nil {
			j.logger.Warn("source fetch failed",
				slog.String("source", src.ID),
				slog.String("lang", lang),
				slog.String("error", err.Error()),
			)
			j.recorder.Event(ctx, "newsbot", "warn", "source fetch failed: "+err.Error(),
				map[string]string{"source": src.ID, "lang": lang})
			continue
		}
		all = append(all, candidates...)
	}
	return all
}

// analyzeBest analyzes the top candidates and picks the single winner by
// quality + relevance. Non-pivot candidates are translated to the pivot
// language first; a failed translation or analysis drops that candidate and
// the loop continues with the rest.
func (j *Ingest) analyzeBest(ctx context.Context, lang string, scored []domain.ScoredCandidate, report *LangReport) (domain.ScoredCandidate, domain.AnalysisResult, bool) {
	var (
		best       domain.ScoredCandidate
		bestResult domain.AnalysisResult
		bestRank   = -1
	)

	for _, sc := range scored {
		candidate := sc.Candidate
		if lang != pivotLang {
			title, err := j.analyzer.Translate(ctx, candidate.Title, pivotLang)
			if err != nil {
				j.logger.Warn("pivot translation failed, skipping candidate",
					slog.String("lang", lang), slog.String("error", err.Error()))
				continue
			}
			description, err := j.analyzer.Translate(ctx, candidate.Description, pivotLang)
			if err != nil {
				j.logger.Warn("pivot translation failed, skipping candidate",
					slog.String("lang", lang), slog.String("error", err.Error()))
				continue
			}
			// Analysis sees pivot-language text but answers in the
			// candidate's own language.
			candidate.Title = title
			candidate.Description = description
		}

		started := time.Now()
		result, err := j.analyzer.Analyze(ctx, candidate)
		telemetry.LLMCallDuration.WithLabelValues("analyze").Observe(time.Since(started).Seconds())
		if err != nil {
			j.logger.Warn("analysis failed, dropping candidate",
				slog.String("lang", lang), slog.String("error", err.Error()))
			continue
		}
		report.Analyzed++

		rank := analysis.Quality(result) + sc.Score
		if rank > bestRank {
			best = sc
			bestResult = result
			bestRank = rank
		}
	}

	return best, bestResult, bestRank >= 0
}
