package domain

import "time"

// Dedup windows: a source may not be re-selected within SourceWindow of its
// last publication, a normalized title within TitleWindow.
const (
	SourceWindow = 24 * time.Hour
	TitleWindow  = 48 * time.Hour
)

// DedupEntry records one publish-to-forum event for a source or title key.
type DedupEntry struct {
	ProcessedAt int64  `json:"processedAt"`
	SourceID    string `json:"sourceId,omitempty"`
}

// DedupState is the per-language dedup bookkeeping persisted between runs.
// Entries older than their window are logically expired: they are filtered at
// read time and dropped on write-back, never eagerly deleted.
type DedupState struct {
	ProcessedKeys map[string]DedupEntry `json:"processedKeys,omitempty"`
	TitleKeys     map[string]DedupEntry `json:"titleKeys,omitempty"`
}

// LiveSources returns the source IDs with a non-expired processed entry.
func (s DedupState) LiveSources(now time.Time) map[string]bool {
	live := make(map[string]bool)
	cutoff := now.Add(-SourceWindow).UnixMilli()
	for _, entry := range s.ProcessedKeys {
		if entry.ProcessedAt > cutoff && entry.SourceID != "" {
			live[entry.SourceID] = true
		}
	}
	return live
}

// LiveTitles returns the normalized title keys with a non-expired entry.
func (s DedupState) LiveTitles(now time.Time) map[string]bool {
	live := make(map[string]bool)
	cutoff := now.Add(-TitleWindow).UnixMilli()
	for key, entry := range s.TitleKeys {
		if entry.ProcessedAt > cutoff {
			live[key] = true
		}
	}
	return live
}

// Compact returns a copy holding only non-expired entries. Used on write-back
// so the persisted working set never grows without bound.
func (s DedupState) Compact(now time.Time) DedupState {
	out := DedupState{
		ProcessedKeys: make(map[string]DedupEntry),
		TitleKeys:     make(map[string]DedupEntry),
	}
	sourceCutoff := now.Add(-SourceWindow).UnixMilli()
	for key, entry := range s.ProcessedKeys {
		if entry.ProcessedAt > sourceCutoff {
			out.ProcessedKeys[key] = entry
		}
	}
	titleCutoff := now.Add(-TitleWindow).UnixMilli()
	for key, entry := range s.TitleKeys {
		if entry.ProcessedAt > titleCutoff {
			out.TitleKeys[key] = entry
		}
	}
	return out
}

// SeedEntry marks one use of a quote seed.
type SeedEntry struct {
	SeedKey   string `json:"seedKey"`
	Timestamp int64  `json:"timestamp"`
}

// SeedRotationState is the per-language history of recently used seeds.
// No seed repeats within SeedWindow unless the whole pool is exhausted,
// in which case the history is cleared.
type SeedRotationState struct {
	Recent []SeedEntry `json:"recent,omitempty"`
}

// SeedWindow is the non-repetition horizon for quote seeds.
const SeedWindow = 48 * time.Hour

// UsedWithin returns the seed keys used inside the window.
func (s SeedRotationState) UsedWithin(now time.Time) map[string]bool {
	used := make(map[string]bool)
	cutoff := now.Add(-SeedWindow).UnixMilli()
	for _, entry := range s.Recent {
		if entry.Timestamp > cutoff {
			used[entry.SeedKey] = true
		}
	}
	return used
}
