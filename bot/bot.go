// Package bot orchestrates the posting pipeline: fetch candidate articles,
// rank them against posting history, generate a post, publish it, and hand
// the new post to the comment watcher.
package bot

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"linkedin-news-bot/config"
	"linkedin-news-bot/evaluator"
	"linkedin-news-bot/history"
	"linkedin-news-bot/news"
	"linkedin-news-bot/storage"
)

// NewsFetcher collects candidate articles from the configured sources.
type NewsFetcher interface {
	FetchAll(ctx context.Context) []news.Article
}

// ArticleRanker filters and orders candidates against posting history.
type ArticleRanker interface {
	Filter(articles []news.Article, posted map[string]bool, limit int) []news.Article
}

// ContentScraper extracts article body text for richer prompts.
type ContentScraper interface {
	Scrape(ctx context.Context, rawURL string) (string, error)
}

// PostGenerator produces post text for an article.
type PostGenerator interface {
	GeneratePost(ctx context.Context, article news.Article, extraContent string) string
	GenerateVariation(ctx context.Context, article news.Article, variant string) string
}

// Publisher creates posts on the network and returns their IDs.
type Publisher interface {
	CreatePost(ctx context.Context, content string) (string, error)
}

// Notifier receives pipeline and scheduling events.
type Notifier interface {
	BotStarted(ctx context.Context, days int)
	PostSuccess(ctx context.Context, articleTitle string, qualityScore int, postedAt time.Time)
	PostFailure(ctx context.Context, articleTitle string, failedAt time.Time)
	ScheduleUpdate(ctx context.Context, day int, wait time.Duration, scheduledAt time.Time)
	DayComplete(ctx context.Context, day int, untilNext time.Duration, nextDayAt time.Time)
	StatusUpdate(ctx context.Context, updateNumber int, remaining time.Duration, percentComplete float64, now, target time.Time, what string)
	Send(ctx context.Context, message string) error
}

// Bot runs the publishing pipeline and the daily schedule.
type Bot struct {
	cfg       *config.Config
	fetcher   NewsFetcher
	ranker    ArticleRanker
	scraper   ContentScraper
	generator PostGenerator
	publisher Publisher
	hist      *history.Store
	archive   *storage.DB // optional
	notifier  Notifier

	// spawnWatcher starts comment monitoring for a freshly published post.
	spawnWatcher func(ctx context.Context, postID, articleTitle string)

	rngMu sync.Mutex
	rng   *rand.Rand
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// Deps are the collaborators a Bot needs. Archive and SpawnWatcher are
// optional.
type Deps struct {
	Fetcher      NewsFetcher
	Ranker       ArticleRanker
	Scraper      ContentScraper
	Generator    PostGenerator
	Publisher    Publisher
	History      *history.Store
	Archive      *storage.DB
	Notifier     Notifier
	SpawnWatcher func(ctx context.Context, postID, articleTitle string)
}

// Option configures a Bot.
type Option func(*Bot)

// WithRand injects the random source used for article selection and
// schedule jitter. Defaults to a time-seeded source.
func WithRand(rng *rand.Rand) Option {
	return func(b *Bot) {
		b.rng = rng
	}
}

// WithClock overrides the wall clock and sleeper, for tests.
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(b *Bot) {
		b.now = now
		b.sleep = sleep
	}
}

// New creates a Bot from its configuration and collaborators.
func New(cfg *config.Config, deps Deps, opts ...Option) *Bot {
	b := &Bot{
		cfg:          cfg,
		fetcher:      deps.Fetcher,
		ranker:       deps.Ranker,
		scraper:      deps.Scraper,
		generator:    deps.Generator,
		publisher:    deps.Publisher,
		hist:         deps.History,
		archive:      deps.Archive,
		notifier:     deps.Notifier,
		spawnWatcher: deps.SpawnWatcher,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		now:          time.Now,
		sleep: func(ctx context.Context, d time.Duration) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d):
				return nil
			}
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// RunOnce executes one publish cycle. It returns true when a post went out.
// force bypasses the minimum-interval guard.
func (b *Bot) RunOnce(ctx context.Context, force bool) bool {
	now := b.now()

	if !force {
		if last := b.hist.LastPostTime(); !last.IsZero() {
			if elapsed := now.Sub(last); elapsed < b.cfg.MinPostInterval() {
				slog.Info("too soon to post again",
					"elapsed", elapsed, "minimum", b.cfg.MinPostInterval())
				return false
			}
		}
	}

	slog.Info("fetching news")
	articles := b.fetcher.FetchAll(ctx)
	if len(articles) == 0 {
		slog.Warn("no articles found")
		return false
	}

	best := b.ranker.Filter(articles, b.hist.PostedLinks(), 0)
	if len(best) == 0 {
		slog.Info("no suitable articles after filtering")
		return false
	}

	article := b.selectArticle(best)
	slog.Info("selected article", "title", article.Title, "score", article.RelevanceScore)

	extra := ""
	if b.scraper != nil {
		if text, err := b.scraper.Scrape(ctx, article.Link); err == nil {
			extra = text
		} else {
			slog.Debug("article scrape failed, using feed summary", "error", err)
		}
	}

	var content string
	if isWeekend(now) {
		slog.Info("weekend detected, using weekend post style")
		content = b.generator.GenerateVariation(ctx, article, "weekend")
	} else {
		content = b.generator.GeneratePost(ctx, article, extra)
	}

	quality := evaluator.Score(content, article)
	slog.Info("post quality", "score", quality, "max", evaluator.MaxScore)
	if quality < b.cfg.QualityThreshold {
		slog.Warn("post quality below threshold, publishing anyway",
			"score", quality, "threshold", b.cfg.QualityThreshold)
	}

	b.hist.Analytics().TrackGenerated()
	b.countArchive(ctx, storage.CounterGenerated)

	postID, err := b.publisher.CreatePost(ctx, content)
	if err != nil {
		slog.Error("publish failed", "error", err)
		b.hist.Analytics().TrackFailure()
		b.countArchive(ctx, storage.CounterFailed)
		b.notifier.PostFailure(ctx, article.Title, b.now())
		return false
	}

	b.hist.Analytics().TrackSuccess()
	b.hist.Analytics().TrackSource(article.Source)
	b.hist.RecordPost(article.Link, b.now())
	if err := b.hist.Save(); err != nil {
		slog.Error("could not save posting history", "error", err)
	}

	b.countArchive(ctx, storage.CounterSucceeded)
	if b.archive != nil {
		_, err := b.archive.ArchivePost(ctx, &storage.PostRecord{
			ArticleTitle: article.Title,
			ArticleLink:  article.Link,
			Source:       article.Source,
			Content:      content,
			QualityScore: quality,
			PostID:       postID,
			PostedAt:     b.now(),
		})
		if err != nil {
			slog.Error("could not archive post", "error", err)
		}
	}

	slog.Info("published to LinkedIn", "post_id", postID)
	b.notifier.PostSuccess(ctx, article.Title, quality, b.now())

	if b.spawnWatcher != nil && postID != "" {
		b.spawnWatcher(ctx, postID, article.Title)
	}
	return true
}

// selectArticle picks randomly among the top three when at least three
// candidates exist, otherwise takes the best one.
func (b *Bot) selectArticle(best []news.Article) news.Article {
	if len(best) < 3 {
		return best[0]
	}
	b.rngMu.Lock()
	defer b.rngMu.Unlock()
	return best[b.rng.Intn(3)]
}

func (b *Bot) countArchive(ctx context.Context, key string) {
	if b.archive == nil {
		return
	}
	if err := b.archive.IncrementCounter(ctx, key); err != nil {
		slog.Warn("could not update archive counter", "key", key, "error", err)
	}
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func (b *Bot) randDuration(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	b.rngMu.Lock()
	defer b.rngMu.Unlock()
	return time.Duration(b.rng.Int63n(int64(max)))
}

func (b *Bot) randHours(n int) time.Duration {
	b.rngMu.Lock()
	defer b.rngMu.Unlock()
	return time.Duration(b.rng.Intn(n)) * time.Hour
}
