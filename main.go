package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"linkedin-news-bot/bot"
	"linkedin-news-bot/config"
	"linkedin-news-bot/generator"
	"linkedin-news-bot/history"
	"linkedin-news-bot/linkedin"
	"linkedin-news-bot/news"
	"linkedin-news-bot/notify"
	"linkedin-news-bot/ranker"
	"linkedin-news-bot/scraper"
	"linkedin-news-bot/storage"
	"linkedin-news-bot/watcher"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "linkedin-news-bot",
		Short:         "Fetches AI news and posts about it on LinkedIn",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	var force bool
	postCmd := &cobra.Command{
		Use:   "post",
		Short: "Publish a single post now",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := setup(configPath)
			if err != nil {
				return err
			}
			defer app.close()
			return app.post(force)
		},
	}
	postCmd.Flags().BoolVar(&force, "force", false, "bypass the minimum-interval guard")

	var days, intervalMins int
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the daily posting schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := setup(configPath)
			if err != nil {
				return err
			}
			defer app.close()
			if intervalMins > 0 {
				app.cfg.StatusIntervalMins = intervalMins
			}
			return app.run(days)
		},
	}
	runCmd.Flags().IntVar(&days, "days", 30, "number of days to run")
	runCmd.Flags().IntVar(&intervalMins, "interval", 0, "status update interval in minutes")

	analyticsCmd := &cobra.Command{
		Use:   "analytics",
		Short: "Show posting analytics",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := setup(configPath)
			if err != nil {
				return err
			}
			defer app.close()
			return app.analytics()
		},
	}

	root.AddCommand(postCmd, runCmd, analyticsCmd)
	return root
}

// app holds the wired components shared by the subcommands.
type app struct {
	cfg      *config.Config
	auth     *linkedin.Auth
	client   *linkedin.Client
	gen      *generator.Generator
	hist     *history.Store
	comments *history.CommentLog
	archive  *storage.DB
	notifier *notify.Notifier

	watchers sync.WaitGroup
}

func setup(configPath string) (*app, error) {
	if configPath == "" {
		configPath = config.Path()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	setupLogging(cfg.LogLevel)
	slog.Info("config loaded", "path", configPath)

	// Fail before any work when required credentials are missing.
	missing := []string{}
	if cfg.LinkedInClientID == "" {
		missing = append(missing, "LINKEDIN_CLIENT_ID")
	}
	if cfg.LinkedInClientSecret == "" {
		missing = append(missing, "LINKEDIN_CLIENT_SECRET")
	}
	if cfg.LLMAPIKey == "" {
		missing = append(missing, "LLM_API_KEY")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %v", missing)
	}
	if cfg.NewsAPIKey == "" {
		slog.Warn("NEWSAPI_KEY not set, NewsAPI source disabled")
	}

	archive, err := storage.NewDB(cfg.ArchivePath)
	if err != nil {
		return nil, fmt.Errorf("open post archive: %w", err)
	}

	auth := linkedin.NewAuth(cfg.LinkedInClientID, cfg.LinkedInClientSecret)
	gen := generator.NewGenerator(cfg.LLMAPIKey, cfg.Styles,
		generator.WithModels(cfg.PrimaryModel, cfg.SecondaryModel, cfg.PrimaryModelWeight),
		generator.WithMaxAttempts(cfg.MaxGenerationAttempts),
	)

	return &app{
		cfg:      cfg,
		auth:     auth,
		client:   linkedin.NewClient(auth),
		gen:      gen,
		hist:     history.Load(cfg.HistoryPath),
		comments: history.LoadComments(cfg.CommentsPath),
		archive:  archive,
		notifier: notify.NewNotifier(cfg.DiscordWebhookURL),
	}, nil
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
}

func (a *app) close() {
	if err := a.archive.Close(); err != nil {
		slog.Warn("closing post archive", "error", err)
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()
	return ctx, cancel
}

func (a *app) newBot() *bot.Bot {
	fetcher := news.NewFetcher(
		news.WithRSSFeeds(a.cfg.RSSFeeds),
		news.WithNewsAPI(news.NewsAPIQuery{
			URL:      a.cfg.NewsAPI.URL,
			Query:    a.cfg.NewsAPI.Query,
			Language: a.cfg.NewsAPI.Language,
			SortBy:   a.cfg.NewsAPI.SortBy,
		}, a.cfg.NewsAPIKey),
		news.WithTimeout(a.cfg.FetchTimeout()),
	)

	deps := bot.Deps{
		Fetcher:      fetcher,
		Ranker:       ranker.NewRanker(a.cfg.KeyTerms, a.cfg.Entities),
		Scraper:      scraper.NewScraper(a.cfg.FetchTimeout()),
		Generator:    a.gen,
		Publisher:    a.client,
		History:      a.hist,
		Archive:      a.archive,
		Notifier:     a.notifier,
		SpawnWatcher: a.spawnWatcher,
	}
	return bot.New(a.cfg, deps)
}

// spawnWatcher starts comment monitoring for a new post in a goroutine
// tied to the caller's context. Watchers for consecutive posts can overlap
// (24h window, publishes as little as 20h apart), so they all share the one
// comment log; per-spawn loads would rewrite the file from disjoint sets.
func (a *app) spawnWatcher(ctx context.Context, postID, articleTitle string) {
	w := watcher.New(a.client, a.gen, a.comments, a.notifier,
		watcher.WithPost(postID, articleTitle),
		watcher.WithIntervals(a.cfg.CommentCheckInterval(), a.cfg.CommentWatchDuration()),
		watcher.WithReplyDelay(a.cfg.CommentReplyDelay()),
		watcher.WithErrorThreshold(a.cfg.CommentErrorBackoff),
	)
	a.watchers.Add(1)
	go func() {
		defer a.watchers.Done()
		w.Watch(ctx)
	}()
}

func (a *app) authenticate(ctx context.Context) error {
	if a.auth.Authenticated() {
		return nil
	}
	if err := a.auth.Authenticate(ctx); err != nil {
		return fmt.Errorf("linkedin authentication: %w", err)
	}
	return nil
}

func (a *app) post(force bool) error {
	ctx, cancel := signalContext()
	defer cancel()

	if err := a.authenticate(ctx); err != nil {
		return err
	}

	b := a.newBot()
	if !b.RunOnce(ctx, force) {
		return fmt.Errorf("no post published")
	}

	// Keep running while the comment watcher monitors the new post;
	// Ctrl-C stops it early.
	a.watchers.Wait()
	return nil
}

func (a *app) run(days int) error {
	ctx, cancel := signalContext()
	defer cancel()

	if err := a.authenticate(ctx); err != nil {
		return err
	}

	b := a.newBot()
	var err error
	if a.cfg.PostTime != "" {
		err = b.RunFixedSchedule(ctx)
	} else {
		err = b.RunScheduler(ctx, days)
	}

	a.watchers.Wait()
	if err != nil && ctx.Err() != nil {
		// Interrupted on purpose; the orderly-stop notification already
		// went out.
		return nil
	}
	return err
}

func (a *app) analytics() error {
	ctx, cancel := signalContext()
	defer cancel()

	sum := a.hist.Analytics().Summary()

	generated, _ := a.archive.GetCounter(ctx, storage.CounterGenerated)
	succeeded, _ := a.archive.GetCounter(ctx, storage.CounterSucceeded)
	failed, _ := a.archive.GetCounter(ctx, storage.CounterFailed)
	topSources, err := a.archive.TopSources(ctx, 5)
	if err != nil {
		return fmt.Errorf("read post archive: %w", err)
	}

	fmt.Println("=== LinkedIn AI News Bot Analytics ===")
	fmt.Printf("total_posts_generated: %d\n", sum.PostsGenerated)
	fmt.Printf("successful_posts: %d\n", sum.SuccessfulPosts)
	fmt.Printf("failed_posts: %d\n", sum.FailedPosts)
	fmt.Printf("success_rate: %.1f%%\n", sum.SuccessRate)
	fmt.Printf("archive_counters: generated=%d succeeded=%d failed=%d\n", generated, succeeded, failed)
	for _, src := range topSources {
		fmt.Printf("source %s: %d\n", src.Source, src.Count)
	}
	if !a.hist.LastPostTime().IsZero() {
		fmt.Printf("last_post_time: %s\n", a.hist.LastPostTime().Format(time.RFC3339))
	}

	fields := []notify.AnalyticsField{
		{Name: "total_posts_generated", Value: fmt.Sprint(sum.PostsGenerated)},
		{Name: "successful_posts", Value: fmt.Sprint(sum.SuccessfulPosts)},
		{Name: "failed_posts", Value: fmt.Sprint(sum.FailedPosts)},
		{Name: "success_rate", Value: fmt.Sprintf("%.1f%%", sum.SuccessRate)},
	}
	for _, src := range topSources {
		fields = append(fields, notify.AnalyticsField{
			Name: "source " + src.Source, Value: fmt.Sprint(src.Count),
		})
	}
	a.notifier.Analytics(ctx, fields)
	return nil
}
