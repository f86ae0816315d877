package news

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/mmcdole/gofeed"
)

const (
	maxEntriesPerFeed  = 20
	maxNewsAPIArticles = 15
)

// NewsAPIQuery holds the request parameters for the NewsAPI source.
type NewsAPIQuery struct {
	URL      string
	Query    string
	Language string
	SortBy   string
}

// Fetcher aggregates articles from RSS feeds and the NewsAPI endpoint.
// Every source is optional; a fetcher with no sources returns an empty list.
type Fetcher struct {
	feeds      []string
	newsAPI    NewsAPIQuery
	newsAPIKey string
	parser     *gofeed.Parser
	httpClient *http.Client
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithRSSFeeds sets the RSS feed URLs to poll.
func WithRSSFeeds(urls []string) Option {
	return func(f *Fetcher) {
		f.feeds = urls
	}
}

// WithNewsAPI enables the NewsAPI source. An empty key disables it at
// fetch time without error.
func WithNewsAPI(q NewsAPIQuery, apiKey string) Option {
	return func(f *Fetcher) {
		f.newsAPI = q
		f.newsAPIKey = apiKey
	}
}

// WithTimeout sets the HTTP timeout for all source calls.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.httpClient.Timeout = d
	}
}

// NewFetcher creates an article fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		parser:     gofeed.NewParser(),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(f)
	}
	f.parser.Client = f.httpClient
	return f
}

// FetchAll merges results from every configured source. Individual source
// failures are logged and skipped; an empty result is valid.
func (f *Fetcher) FetchAll(ctx context.Context) []Article {
	articles := f.fetchRSS(ctx)
	articles = append(articles, f.fetchNewsAPI(ctx)...)

	slog.Info("fetched candidate articles", "count", len(articles))
	return articles
}

func (f *Fetcher) fetchRSS(ctx context.Context) []Article {
	var articles []Article

	for _, feedURL := range f.feeds {
		feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			slog.Warn("failed to fetch RSS feed", "url", feedURL, "error", err)
			continue
		}

		source := feed.Title
		if source == "" {
			source = feedURL
		}

		items := feed.Items
		if len(items) > maxEntriesPerFeed {
			items = items[:maxEntriesPerFeed]
		}
		for _, item := range items {
			if item.Link == "" {
				continue
			}
			articles = append(articles, Article{
				Title:     item.Title,
				Link:      item.Link,
				Summary:   item.Description,
				Source:    source,
				Published: item.Published,
			})
		}
	}

	return articles
}

// newsAPIResponse mirrors the subset of the NewsAPI payload we consume.
type newsAPIResponse struct {
	Articles []struct {
		Title       string `json:"title"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
		Description string `json:"description"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

func (f *Fetcher) fetchNewsAPI(ctx context.Context) []Article {
	if f.newsAPIKey == "" || f.newsAPI.URL == "" {
		return nil
	}

	articles, err := f.queryNewsAPI(ctx)
	if err != nil {
		slog.Warn("failed to fetch from NewsAPI", "error", err)
		return nil
	}
	return articles
}

func (f *Fetcher) queryNewsAPI(ctx context.Context) ([]Article, error) {
	params := url.Values{}
	params.Set("q", f.newsAPI.Query)
	params.Set("language", f.newsAPI.Language)
	params.Set("sortBy", f.newsAPI.SortBy)
	params.Set("from", time.Now().AddDate(0, 0, -7).Format("2006-01-02"))
	params.Set("apiKey", f.newsAPIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.newsAPI.URL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var payload newsAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	items := payload.Articles
	if len(items) > maxNewsAPIArticles {
		items = items[:maxNewsAPIArticles]
	}

	articles := make([]Article, 0, len(items))
	for _, a := range items {
		if a.URL == "" {
			continue
		}
		source := a.Source.Name
		if source == "" {
			source = "NewsAPI"
		}
		articles = append(articles, Article{
			Title:     a.Title,
			Link:      a.URL,
			Summary:   a.Description,
			Source:    source,
			Published: a.PublishedAt,
		})
	}
	return articles, nil
}
