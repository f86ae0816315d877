// Package history persists the bot's posting state between runs: which
// article links have been posted, when the last post went out, and the
// running analytics counters. State lives in a single JSON file rewritten
// wholesale after every successful publish.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Store tracks posted articles and the time of the last publish.
type Store struct {
	path string

	posted       map[string]bool
	lastPostTime time.Time
	analytics    *Analytics
}

type historyFile struct {
	PostedURLs   []string       `json:"posted_urls"`
	LastPostTime string         `json:"last_post_time,omitempty"`
	Analytics    *analyticsData `json:"analytics,omitempty"`
}

// Load reads posting history from path. A missing or unreadable file is not
// an error; the bot simply starts with a fresh history.
func Load(path string) *Store {
	s := &Store{
		path:      path,
		posted:    make(map[string]bool),
		analytics: NewAnalytics(),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("could not read posting history, starting fresh", "path", path, "error", err)
		}
		return s
	}

	var file historyFile
	if err := json.Unmarshal(data, &file); err != nil {
		slog.Warn("corrupt posting history, starting fresh", "path", path, "error", err)
		return s
	}

	for _, u := range file.PostedURLs {
		s.posted[u] = true
	}
	if file.LastPostTime != "" {
		if t, err := time.Parse(time.RFC3339, file.LastPostTime); err == nil {
			s.lastPostTime = t
		}
	}
	if file.Analytics != nil {
		s.analytics = &Analytics{data: *file.Analytics}
		s.analytics.ensureMaps()
	}

	slog.Info("loaded posting history", "posted", len(s.posted))
	return s
}

// Save rewrites the history file with the current state.
func (s *Store) Save() error {
	urls := make([]string, 0, len(s.posted))
	for u := range s.posted {
		urls = append(urls, u)
	}

	file := historyFile{
		PostedURLs: urls,
		Analytics:  &s.analytics.data,
	}
	if !s.lastPostTime.IsZero() {
		file.LastPostTime = s.lastPostTime.Format(time.RFC3339)
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create history dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

// Posted reports whether link has already been published.
func (s *Store) Posted(link string) bool {
	return s.posted[link]
}

// PostedLinks returns the set of published links keyed by URL.
func (s *Store) PostedLinks() map[string]bool {
	out := make(map[string]bool, len(s.posted))
	for u := range s.posted {
		out[u] = true
	}
	return out
}

// RecordPost marks a link as published at the given time.
func (s *Store) RecordPost(link string, at time.Time) {
	s.posted[link] = true
	s.lastPostTime = at
}

// LastPostTime returns the time of the most recent publish, zero if none.
func (s *Store) LastPostTime() time.Time {
	return s.lastPostTime
}

// Analytics returns the running counters stored alongside the history.
func (s *Store) Analytics() *Analytics {
	return s.analytics
}
