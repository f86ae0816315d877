// Package evaluator rates generated post text against a fixed rubric.
package evaluator

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"linkedin-news-bot/news"
)

// MaxScore is the highest score the rubric can award.
const MaxScore = 9

var wordRegex = regexp.MustCompile(`\w+`)

// emojiRanges covers the pictographic blocks counted by the rubric.
var emojiRanges = [][2]rune{
	{0x1F600, 0x1F64F}, // emoticons
	{0x1F300, 0x1F5FF}, // symbols & pictographs
	{0x1F680, 0x1F6FF}, // transport & map symbols
	{0x1F700, 0x1F77F}, // alchemical symbols
	{0x1F780, 0x1F7FF}, // geometric shapes extended
	{0x1F800, 0x1F8FF}, // supplemental arrows-C
	{0x1F900, 0x1F9FF}, // supplemental symbols and pictographs
	{0x1FA00, 0x1FA6F}, // chess symbols
	{0x1FA70, 0x1FAFF}, // symbols and pictographs extended-A
	{0x2702, 0x27B0},   // dingbats
}

// Score rates content for the given article on a 0-9 scale. Every
// criterion is evaluated independently; nothing short-circuits. The score
// is advisory: callers log and report it but never reject a post on it.
func Score(content string, article news.Article) int {
	score := 0

	// Posts between 700-1300 chars tend to perform best. Measured in
	// characters, not bytes; emoji and typographic punctuation count once.
	length := utf8.RuneCountInString(content)
	switch {
	case length >= 700 && length <= 1300:
		score += 2
	case length >= 500 && length <= 1500:
		score++
	}

	if len(strings.Split(content, "\n\n")) >= 3 {
		score++
	}

	if n := strings.Count(content, "#"); n >= 3 && n <= 5 {
		score++
	}

	if strings.Contains(content, "?") {
		score++
	}

	if article.Link != "" && strings.Contains(content, article.Link) {
		score += 2
	}

	if n := countEmoji(content); n >= 1 && n <= 3 {
		score++
	}

	if titleKeywordsCovered(article.Title, content) {
		score++
	}

	return score
}

// countEmoji counts maximal runs of adjacent emoji, so a cluster like
// "🚀🚀🚀" registers as a single use.
func countEmoji(s string) int {
	count := 0
	inRun := false
	for _, r := range s {
		if isEmoji(r) {
			if !inRun {
				count++
				inRun = true
			}
		} else {
			inRun = false
		}
	}
	return count
}

func isEmoji(r rune) bool {
	for _, rng := range emojiRanges {
		if r >= rng[0] && r <= rng[1] {
			return true
		}
	}
	return false
}

// titleKeywordsCovered reports whether at least half of the meaningful
// title words (longer than 4 runes, case-folded) appear in the content.
func titleKeywordsCovered(title, content string) bool {
	titleWords := make(map[string]bool)
	for _, w := range wordRegex.FindAllString(strings.ToLower(title), -1) {
		titleWords[w] = true
	}
	contentWords := make(map[string]bool)
	for _, w := range wordRegex.FindAllString(strings.ToLower(content), -1) {
		contentWords[w] = true
	}

	keywords, matches := 0, 0
	for w := range titleWords {
		if utf8.RuneCountInString(w) <= 4 {
			continue
		}
		keywords++
		if contentWords[w] {
			matches++
		}
	}
	return matches >= keywords/2
}
