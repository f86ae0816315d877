// Package news fetches candidate articles from the configured sources.
package news

// Article is one candidate news item. Link doubles as the article's
// identity: the history store records it as the dedup fingerprint.
type Article struct {
	Title          string
	Link           string
	Summary        string // optional
	Source         string // optional
	Published      string // raw timestamp string as the source formatted it
	RelevanceScore float64
}
