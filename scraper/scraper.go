// Package scraper pulls readable article text to enrich generation prompts.
package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
)

// maxExcerptLen caps the excerpt handed to the prompt builder. Prompts
// carry the feed summary too; more page text past this point stops helping.
const maxExcerptLen = 3000

const defaultTimeout = 15 * time.Second

// Scraper extracts a prompt-sized excerpt from article pages.
type Scraper struct {
	httpClient *http.Client
}

// NewScraper creates a scraper. A zero timeout uses the default.
func NewScraper(timeout time.Duration) *Scraper {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Scraper{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Scrape fetches the page at rawURL and returns its readable text as a
// whitespace-normalized excerpt. Callers treat any error as "use the feed
// summary instead"; a failed scrape never blocks post generation.
func (s *Scraper) Scrape(ctx context.Context, rawURL string) (string, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return "", fmt.Errorf("invalid URL: %s", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; linkedin-news-bot/1.0)")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	article, err := readability.FromReader(resp.Body, parsedURL)
	if err != nil {
		return "", fmt.Errorf("parse content: %w", err)
	}

	return excerpt(article.TextContent), nil
}

// excerpt collapses the whitespace runs readability leaves behind and cuts
// at a word boundary within maxExcerptLen.
func excerpt(text string) string {
	words := strings.Fields(text)

	var b strings.Builder
	for i, w := range words {
		need := len(w)
		if i > 0 {
			need++
		}
		if b.Len()+need > maxExcerptLen {
			break
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(w)
	}
	return b.String()
}
