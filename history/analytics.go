package history

import "sort"

type analyticsData struct {
	PostsGenerated  int            `json:"posts_generated"`
	SuccessfulPosts int            `json:"successful_posts"`
	FailedPosts     int            `json:"failed_posts"`
	Sources         map[string]int `json:"sources"`
	Topics          map[string]int `json:"topics"`
}

// Analytics accumulates counters about the bot's performance. Counters are
// saved with the posting history and survive restarts.
type Analytics struct {
	data analyticsData
}

// NewAnalytics returns an empty counter set.
func NewAnalytics() *Analytics {
	a := &Analytics{}
	a.ensureMaps()
	return a
}

func (a *Analytics) ensureMaps() {
	if a.data.Sources == nil {
		a.data.Sources = make(map[string]int)
	}
	if a.data.Topics == nil {
		a.data.Topics = make(map[string]int)
	}
}

// TrackGenerated counts one generated post.
func (a *Analytics) TrackGenerated() { a.data.PostsGenerated++ }

// TrackSuccess counts one successful publish.
func (a *Analytics) TrackSuccess() { a.data.SuccessfulPosts++ }

// TrackFailure counts one failed publish.
func (a *Analytics) TrackFailure() { a.data.FailedPosts++ }

// TrackSource counts one post drawn from the named source.
func (a *Analytics) TrackSource(name string) {
	if name != "" {
		a.data.Sources[name]++
	}
}

// TrackTopic counts one post on the named topic.
func (a *Analytics) TrackTopic(topic string) {
	if topic != "" {
		a.data.Topics[topic]++
	}
}

// Ranked is a name with its usage count, for top-N listings.
type Ranked struct {
	Name  string
	Count int
}

// Summary is a point-in-time view of the counters.
type Summary struct {
	PostsGenerated  int
	SuccessfulPosts int
	FailedPosts     int
	SuccessRate     float64 // percent
	TopSources      []Ranked
	TopTopics       []Ranked
}

// Summary computes success rate and top sources/topics from the counters.
func (a *Analytics) Summary() Summary {
	s := Summary{
		PostsGenerated:  a.data.PostsGenerated,
		SuccessfulPosts: a.data.SuccessfulPosts,
		FailedPosts:     a.data.FailedPosts,
		TopSources:      topN(a.data.Sources, 5),
		TopTopics:       topN(a.data.Topics, 10),
	}
	if s.PostsGenerated > 0 {
		s.SuccessRate = float64(s.SuccessfulPosts) / float64(s.PostsGenerated) * 100
	}
	return s
}

func topN(counts map[string]int, n int) []Ranked {
	ranked := make([]Ranked, 0, len(counts))
	for name, count := range counts {
		ranked = append(ranked, Ranked{Name: name, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
