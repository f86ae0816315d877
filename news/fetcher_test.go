package news

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Test AI Feed</title>
<item>
<title>New model beats benchmarks</title>
<link>https://example.com/a</link>
<description>A breakthrough result</description>
<pubDate>Mon, 24 Aug 2026 10:00:00 GMT</pubDate>
</item>
<item>
<title>Second story</title>
<link>https://example.com/b</link>
<description>More details</description>
<pubDate>Tue, 25 Aug 2026 10:00:00 GMT</pubDate>
</item>
</channel>
</rss>`

func TestFetchAllRSS(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, testFeed)
	}))
	defer srv.Close()

	f := NewFetcher(WithRSSFeeds([]string{srv.URL}))
	articles := f.FetchAll(context.Background())

	if len(articles) != 2 {
		t.Fatalf("got %d articles, want 2", len(articles))
	}
	if articles[0].Link != "https://example.com/a" {
		t.Errorf("Link = %q", articles[0].Link)
	}
	if articles[0].Source != "Test AI Feed" {
		t.Errorf("Source = %q, want feed title", articles[0].Source)
	}
	if articles[0].Published == "" {
		t.Error("Published should carry the raw pubDate string")
	}
}

func TestFetchAllNewsAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("apiKey") != "k" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"articles":[
			{"title":"API story","url":"https://example.com/api","publishedAt":"2026-08-26T00:00:00Z","description":"d","source":{"name":"Wire"}},
			{"title":"No URL story","url":"","description":"dropped"}
		]}`)
	}))
	defer srv.Close()

	f := NewFetcher(WithNewsAPI(NewsAPIQuery{URL: srv.URL, Query: "ai", Language: "en", SortBy: "publishedAt"}, "k"))
	articles := f.FetchAll(context.Background())

	if len(articles) != 1 {
		t.Fatalf("got %d articles, want 1", len(articles))
	}
	if articles[0].Source != "Wire" {
		t.Errorf("Source = %q, want Wire", articles[0].Source)
	}
}

func TestFetchAllNoSources(t *testing.T) {
	f := NewFetcher()
	if got := f.FetchAll(context.Background()); len(got) != 0 {
		t.Errorf("got %d articles with no sources, want 0", len(got))
	}
}

func TestFetchAllNewsAPIWithoutKey(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	f := NewFetcher(WithNewsAPI(NewsAPIQuery{URL: srv.URL}, ""))
	f.FetchAll(context.Background())

	if called {
		t.Error("NewsAPI should be skipped entirely without a key")
	}
}

func TestFetchAllFeedErrorIsSoft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewFetcher(WithRSSFeeds([]string{srv.URL}))
	if got := f.FetchAll(context.Background()); len(got) != 0 {
		t.Errorf("got %d articles from a failing feed, want 0", len(got))
	}
}
