// Package ranker scores candidate articles and picks the most relevant.
package ranker

import (
	"sort"
	"strings"

	"linkedin-news-bot/news"
)

// DefaultLimit is how many articles Filter returns when not overridden.
const DefaultLimit = 5

// Scoring weights for key-term and entity matches.
const (
	termTitleScore     = 2.0
	termSummaryScore   = 1.0
	entityTitleScore   = 1.0
	entitySummaryScore = 0.5
)

// Ranker deduplicates and scores articles by keyword and entity matches.
type Ranker struct {
	keyTerms []string
	entities []string
}

// NewRanker creates a ranker for the given key phrases and entity names.
// Matching is case-insensitive substring matching.
func NewRanker(keyTerms, entities []string) *Ranker {
	return &Ranker{
		keyTerms: lowerAll(keyTerms),
		entities: lowerAll(entities),
	}
}

// Filter deduplicates articles by link (first occurrence wins), drops any
// link already in posted, scores the remainder, and returns up to limit
// articles sorted by descending (score, published). The published tie-break
// compares the raw timestamp strings lexically, as the sources formatted
// them; mixed formats therefore sort arbitrarily relative to one another.
func (r *Ranker) Filter(articles []news.Article, posted map[string]bool, limit int) []news.Article {
	if limit <= 0 {
		limit = DefaultLimit
	}

	seen := make(map[string]bool, len(articles))
	unique := make([]news.Article, 0, len(articles))
	for _, a := range articles {
		if seen[a.Link] || posted[a.Link] {
			continue
		}
		seen[a.Link] = true
		a.RelevanceScore = r.score(a)
		unique = append(unique, a)
	}

	sort.SliceStable(unique, func(i, j int) bool {
		if unique[i].RelevanceScore != unique[j].RelevanceScore {
			return unique[i].RelevanceScore > unique[j].RelevanceScore
		}
		return unique[i].Published > unique[j].Published
	})

	if len(unique) > limit {
		unique = unique[:limit]
	}
	return unique
}

func (r *Ranker) score(a news.Article) float64 {
	title := strings.ToLower(a.Title)
	summary := strings.ToLower(a.Summary)

	var score float64
	for _, term := range r.keyTerms {
		if strings.Contains(title, term) {
			score += termTitleScore
		}
		if summary != "" && strings.Contains(summary, term) {
			score += termSummaryScore
		}
	}
	for _, entity := range r.entities {
		if strings.Contains(title, entity) {
			score += entityTitleScore
		}
		if summary != "" && strings.Contains(summary, entity) {
			score += entitySummaryScore
		}
	}
	return score
}

func lowerAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strings.ToLower(s)
	}
	return out
}
