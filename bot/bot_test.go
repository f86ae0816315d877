package bot

import (
	"context"
	"errors"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"linkedin-news-bot/config"
	"linkedin-news-bot/history"
	"linkedin-news-bot/news"
)

type fakeFetcher struct {
	articles []news.Article
	calls    int
}

func (f *fakeFetcher) FetchAll(ctx context.Context) []news.Article {
	f.calls++
	return f.articles
}

type passRanker struct{}

func (passRanker) Filter(articles []news.Article, posted map[string]bool, limit int) []news.Article {
	var out []news.Article
	for _, a := range articles {
		if !posted[a.Link] {
			out = append(out, a)
		}
	}
	return out
}

type fakeGenerator struct {
	posts      int
	variations []string
}

func (f *fakeGenerator) GeneratePost(ctx context.Context, article news.Article, extra string) string {
	f.posts++
	return "Generated post about " + article.Title + "\n\nRead more: " + article.Link
}

func (f *fakeGenerator) GenerateVariation(ctx context.Context, article news.Article, variant string) string {
	f.variations = append(f.variations, variant)
	return "Variation post about " + article.Title
}

type fakePublisher struct {
	calls int
	err   error
}

func (f *fakePublisher) CreatePost(ctx context.Context, content string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "urn:li:share:77", nil
}

type eventNotifier struct {
	started   int
	successes []string
	failures  []string
	scheduled []int
	days      []int
	statuses  int
	sent      []string
}

func (n *eventNotifier) BotStarted(ctx context.Context, days int) { n.started++ }
func (n *eventNotifier) PostSuccess(ctx context.Context, title string, score int, at time.Time) {
	n.successes = append(n.successes, title)
}
func (n *eventNotifier) PostFailure(ctx context.Context, title string, at time.Time) {
	n.failures = append(n.failures, title)
}
func (n *eventNotifier) ScheduleUpdate(ctx context.Context, day int, wait time.Duration, at time.Time) {
	n.scheduled = append(n.scheduled, day)
}
func (n *eventNotifier) DayComplete(ctx context.Context, day int, untilNext time.Duration, at time.Time) {
	n.days = append(n.days, day)
}
func (n *eventNotifier) StatusUpdate(ctx context.Context, num int, remaining time.Duration, pct float64, now, target time.Time, what string) {
	n.statuses++
}
func (n *eventNotifier) Send(ctx context.Context, msg string) error {
	n.sent = append(n.sent, msg)
	return nil
}

// weekday returns a fixed Wednesday so tests are not weekend-sensitive.
func weekday() time.Time {
	return time.Date(2026, 5, 6, 10, 0, 0, 0, time.UTC)
}

func instantSleep(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}

func testBot(t *testing.T, deps Deps, now time.Time) (*Bot, *eventNotifier) {
	t.Helper()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}

	notifier := &eventNotifier{}
	if deps.Notifier == nil {
		deps.Notifier = notifier
	}
	if deps.History == nil {
		deps.History = history.Load(filepath.Join(t.TempDir(), "history.json"))
	}
	if deps.Ranker == nil {
		deps.Ranker = passRanker{}
	}

	b := New(cfg, deps,
		WithRand(rand.New(rand.NewSource(1))),
		WithClock(func() time.Time { return now }, instantSleep))
	return b, notifier
}

func sampleArticles() []news.Article {
	return []news.Article{
		{Title: "AI Breakthrough", Link: "https://example.com/a", Source: "Wired"},
	}
}

func TestRunOncePublishes(t *testing.T) {
	publisher := &fakePublisher{}
	gen := &fakeGenerator{}
	var watchedPost, watchedTitle string

	deps := Deps{
		Fetcher:   &fakeFetcher{articles: sampleArticles()},
		Generator: gen,
		Publisher: publisher,
		SpawnWatcher: func(ctx context.Context, postID, title string) {
			watchedPost, watchedTitle = postID, title
		},
	}
	b, notifier := testBot(t, deps, weekday())

	if !b.RunOnce(context.Background(), false) {
		t.Fatal("RunOnce = false, want published")
	}
	if publisher.calls != 1 {
		t.Errorf("publisher calls = %d, want 1", publisher.calls)
	}
	if gen.posts != 1 || len(gen.variations) != 0 {
		t.Errorf("generator posts=%d variations=%v, want standard generation", gen.posts, gen.variations)
	}
	if !b.hist.Posted("https://example.com/a") {
		t.Error("published link not recorded in history")
	}
	if len(notifier.successes) != 1 || notifier.successes[0] != "AI Breakthrough" {
		t.Errorf("success notifications = %v", notifier.successes)
	}
	if watchedPost != "urn:li:share:77" || watchedTitle != "AI Breakthrough" {
		t.Errorf("watcher spawned with %q/%q", watchedPost, watchedTitle)
	}
}

func TestRunOnceEmptyFetchDoesNotPublish(t *testing.T) {
	publisher := &fakePublisher{}
	deps := Deps{
		Fetcher:   &fakeFetcher{},
		Generator: &fakeGenerator{},
		Publisher: publisher,
	}
	b, notifier := testBot(t, deps, weekday())

	if b.RunOnce(context.Background(), false) {
		t.Fatal("RunOnce = true with no articles")
	}
	if publisher.calls != 0 {
		t.Errorf("publisher called %d times with no articles", publisher.calls)
	}
	if len(notifier.failures) != 0 {
		t.Errorf("failure notifications = %v, want none before publish stage", notifier.failures)
	}
}

func TestRunOnceMinIntervalGuard(t *testing.T) {
	publisher := &fakePublisher{}
	hist := history.Load(filepath.Join(t.TempDir(), "history.json"))
	now := weekday()
	hist.RecordPost("https://example.com/old", now.Add(-2*time.Hour))

	deps := Deps{
		Fetcher:   &fakeFetcher{articles: sampleArticles()},
		Generator: &fakeGenerator{},
		Publisher: publisher,
		History:   hist,
	}
	b, _ := testBot(t, deps, now)

	if b.RunOnce(context.Background(), false) {
		t.Fatal("RunOnce published inside the minimum interval")
	}
	if publisher.calls != 0 {
		t.Error("publisher touched inside the minimum interval")
	}

	if !b.RunOnce(context.Background(), true) {
		t.Fatal("forced RunOnce should bypass the interval guard")
	}
}

func TestRunOncePublishFailure(t *testing.T) {
	publisher := &fakePublisher{err: errors.New("api down")}
	deps := Deps{
		Fetcher:   &fakeFetcher{articles: sampleArticles()},
		Generator: &fakeGenerator{},
		Publisher: publisher,
	}
	b, notifier := testBot(t, deps, weekday())

	if b.RunOnce(context.Background(), false) {
		t.Fatal("RunOnce = true despite publish failure")
	}
	if b.hist.Posted("https://example.com/a") {
		t.Error("failed publish recorded in history")
	}
	if len(notifier.failures) != 1 {
		t.Errorf("failure notifications = %v", notifier.failures)
	}

	sum := b.hist.Analytics().Summary()
	if sum.PostsGenerated != 1 || sum.FailedPosts != 1 || sum.SuccessfulPosts != 0 {
		t.Errorf("analytics = %+v", sum)
	}
}

func TestRunOnceWeekendVariation(t *testing.T) {
	gen := &fakeGenerator{}
	deps := Deps{
		Fetcher:   &fakeFetcher{articles: sampleArticles()},
		Generator: gen,
		Publisher: &fakePublisher{},
	}
	saturday := time.Date(2026, 5, 9, 10, 0, 0, 0, time.UTC)
	b, _ := testBot(t, deps, saturday)

	if !b.RunOnce(context.Background(), false) {
		t.Fatal("RunOnce = false")
	}
	if len(gen.variations) != 1 || gen.variations[0] != "weekend" {
		t.Errorf("variations = %v, want one weekend variation", gen.variations)
	}
	if gen.posts != 0 {
		t.Error("standard generation used on a weekend")
	}
}

func TestRunOnceSkipsPostedLinks(t *testing.T) {
	hist := history.Load(filepath.Join(t.TempDir(), "history.json"))
	hist.RecordPost("https://example.com/a", time.Time{})

	deps := Deps{
		Fetcher:   &fakeFetcher{articles: sampleArticles()},
		Generator: &fakeGenerator{},
		Publisher: &fakePublisher{},
		History:   hist,
	}
	b, _ := testBot(t, deps, weekday())

	if b.RunOnce(context.Background(), true) {
		t.Fatal("RunOnce republished an already-posted link")
	}
}

func TestSelectArticle(t *testing.T) {
	b, _ := testBot(t, Deps{
		Fetcher:   &fakeFetcher{},
		Generator: &fakeGenerator{},
		Publisher: &fakePublisher{},
	}, weekday())

	two := []news.Article{{Title: "first"}, {Title: "second"}}
	if got := b.selectArticle(two); got.Title != "first" {
		t.Errorf("with <3 candidates selected %q, want the top one", got.Title)
	}

	three := []news.Article{{Title: "a"}, {Title: "b"}, {Title: "c"}}
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		seen[b.selectArticle(three).Title] = true
	}
	if len(seen) < 2 {
		t.Errorf("selection never varied across 50 draws: %v", seen)
	}
	for title := range seen {
		if title != "a" && title != "b" && title != "c" {
			t.Errorf("selected %q outside top three", title)
		}
	}
}

func TestRunSchedulerPostsEachDay(t *testing.T) {
	publisher := &fakePublisher{}
	deps := Deps{
		Fetcher: &fakeFetcher{articles: []news.Article{
			{Title: "A", Link: "https://example.com/a"},
			{Title: "B", Link: "https://example.com/b"},
			{Title: "C", Link: "https://example.com/c"},
		}},
		Generator: &fakeGenerator{},
		Publisher: publisher,
	}
	b, notifier := testBot(t, deps, weekday())

	if err := b.RunScheduler(context.Background(), 2); err != nil {
		t.Fatalf("RunScheduler: %v", err)
	}
	if notifier.started != 1 {
		t.Errorf("BotStarted calls = %d", notifier.started)
	}
	// Day two still runs even though the interval guard would block: a full
	// day (at minimum until next midnight) has not passed in fake time, so
	// only day one actually publishes here.
	if publisher.calls != 1 {
		t.Errorf("publisher calls = %d", publisher.calls)
	}
	if len(notifier.scheduled) != 1 || notifier.scheduled[0] != 2 {
		t.Errorf("schedule updates = %v, want day 2 only", notifier.scheduled)
	}
	if len(notifier.days) != 1 || notifier.days[0] != 1 {
		t.Errorf("day-complete notifications = %v", notifier.days)
	}
}

func TestRunSchedulerStopsOnCancel(t *testing.T) {
	deps := Deps{
		Fetcher:   &fakeFetcher{},
		Generator: &fakeGenerator{},
		Publisher: &fakePublisher{},
	}
	b, notifier := testBot(t, deps, weekday())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := b.RunScheduler(ctx, 5); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(notifier.sent) != 1 {
		t.Errorf("stop notifications = %v", notifier.sent)
	}
}

func TestWaitWithUpdates(t *testing.T) {
	var slept []time.Duration
	deps := Deps{
		Fetcher:   &fakeFetcher{},
		Generator: &fakeGenerator{},
		Publisher: &fakePublisher{},
	}
	b, notifier := testBot(t, deps, weekday())
	b.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	// 75 minutes in 30-minute increments: 30 + 30 + 15.
	if err := b.waitWithUpdates(context.Background(), 75*time.Minute, "Next post"); err != nil {
		t.Fatalf("waitWithUpdates: %v", err)
	}
	want := []time.Duration{30 * time.Minute, 30 * time.Minute, 15 * time.Minute}
	if len(slept) != len(want) {
		t.Fatalf("slept %v, want %v", slept, want)
	}
	for i := range want {
		if slept[i] != want[i] {
			t.Errorf("sleep %d = %v, want %v", i, slept[i], want[i])
		}
	}
	// Updates fire between increments, not after the final one.
	if notifier.statuses != 2 {
		t.Errorf("status updates = %d, want 2", notifier.statuses)
	}
}

func TestUntilNextMidnight(t *testing.T) {
	now := time.Date(2026, 5, 6, 22, 30, 0, 0, time.UTC)
	if got := untilNextMidnight(now); got != 90*time.Minute {
		t.Errorf("untilNextMidnight = %v, want 90m", got)
	}
}

func TestCronSpec(t *testing.T) {
	spec, err := cronSpec("09:30")
	if err != nil {
		t.Fatalf("cronSpec: %v", err)
	}
	if spec != "30 9 * * *" {
		t.Errorf("spec = %q", spec)
	}

	if _, err := cronSpec("25:00"); err == nil {
		t.Error("expected error for out-of-range hour")
	}
	if _, err := cronSpec("oops"); err == nil {
		t.Error("expected error for malformed time")
	}
}
