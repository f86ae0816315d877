// Package watcher polls a published post for new comments and replies to
// them. A watcher runs as a goroutine supervised by the caller's context
// and stops on its own once the watch window ends.
package watcher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"linkedin-news-bot/history"
	"linkedin-news-bot/linkedin"
)

// State is the watcher lifecycle state.
type State int

const (
	StateIdle State = iota
	StateAuthenticated
	StateMonitoring
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAuthenticated:
		return "authenticated"
	case StateMonitoring:
		return "monitoring"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// CommentSource lists posts and their comments and submits replies.
type CommentSource interface {
	ListRecentPosts(ctx context.Context, daysBack, maxPosts int) ([]string, error)
	GetComments(ctx context.Context, postID string) ([]linkedin.Comment, error)
	ReplyToComment(ctx context.Context, postID, parentID, text string) error
}

// ReplyGenerator produces reply text for a comment.
type ReplyGenerator interface {
	GenerateReply(ctx context.Context, commentText, articleTitle string) string
}

// Notifier receives watcher lifecycle and reply events.
type Notifier interface {
	MonitoringStarted(ctx context.Context, duration time.Duration)
	MonitoringCompleted(ctx context.Context)
	CommentReplied(ctx context.Context, commentText, replyText string)
}

// Watcher monitors one post (or the member's recent posts) for comments.
type Watcher struct {
	source   CommentSource
	replies  ReplyGenerator
	log      *history.CommentLog
	notifier Notifier

	postID        string // empty: watch recent posts instead
	articleTitle  string
	checkInterval time.Duration
	watchDuration time.Duration
	replyLimiter  *rate.Limiter

	// fetch errors tolerated before the poll interval backs off
	errorThreshold int

	mu    sync.Mutex
	state State
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithPost pins the watcher to a single post ID with the article title used
// as reply context.
func WithPost(postID, articleTitle string) Option {
	return func(w *Watcher) {
		w.postID = postID
		w.articleTitle = articleTitle
	}
}

// WithIntervals sets the poll cadence and total watch window.
func WithIntervals(check, total time.Duration) Option {
	return func(w *Watcher) {
		w.checkInterval = check
		w.watchDuration = total
	}
}

// WithReplyDelay sets the minimum spacing between consecutive replies.
func WithReplyDelay(d time.Duration) Option {
	return func(w *Watcher) {
		w.replyLimiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithErrorThreshold sets how many consecutive fetch errors trigger backoff.
func WithErrorThreshold(n int) Option {
	return func(w *Watcher) {
		w.errorThreshold = n
	}
}

// New creates a watcher. The comment log persists processed comment IDs so
// restarts never reply twice.
func New(source CommentSource, replies ReplyGenerator, log *history.CommentLog, notifier Notifier, opts ...Option) *Watcher {
	w := &Watcher{
		source:         source,
		replies:        replies,
		log:            log,
		notifier:       notifier,
		checkInterval:  30 * time.Minute,
		watchDuration:  24 * time.Hour,
		replyLimiter:   rate.NewLimiter(rate.Every(2*time.Second), 1),
		errorThreshold: 3,
		state:          StateAuthenticated,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// State returns the current lifecycle state.
func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Watcher) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

// Watch polls for comments until the watch window ends or ctx is cancelled.
// It blocks; run it in a goroutine and cancel the context to stop early.
func (w *Watcher) Watch(ctx context.Context) {
	w.setState(StateMonitoring)
	w.notifier.MonitoringStarted(ctx, w.watchDuration)
	slog.Info("comment monitoring started",
		"post_id", w.postID, "interval", w.checkInterval, "duration", w.watchDuration)

	defer func() {
		w.setState(StateStopped)
		w.notifier.MonitoringCompleted(context.WithoutCancel(ctx))
		slog.Info("comment monitoring completed", "post_id", w.postID)
	}()

	deadline := time.Now().Add(w.watchDuration)
	interval := w.checkInterval
	consecutiveErrors := 0

	for {
		if err := w.tick(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			consecutiveErrors++
			slog.Warn("comment check failed", "error", err, "consecutive", consecutiveErrors)
			if next := nextInterval(interval, w.checkInterval, consecutiveErrors, w.errorThreshold); next != interval {
				interval = next
				slog.Info("backing off comment checks", "interval", interval)
			}
		} else {
			consecutiveErrors = 0
			interval = w.checkInterval
		}

		if time.Now().Add(interval).After(deadline) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

// nextInterval doubles the poll interval once consecutive fetch errors hit
// the threshold, capped at four times the base interval.
func nextInterval(current, base time.Duration, consecutiveErrors, threshold int) time.Duration {
	if consecutiveErrors < threshold {
		return current
	}
	doubled := current * 2
	if max := 4 * base; doubled > max {
		doubled = max
	}
	return doubled
}

// tick runs one poll cycle: resolve post IDs, fetch comments, reply to the
// new ones. Reply failures are logged per comment; only fetch errors count
// toward backoff.
func (w *Watcher) tick(ctx context.Context) error {
	postIDs := []string{w.postID}
	if w.postID == "" {
		ids, err := w.source.ListRecentPosts(ctx, 7, 10)
		if err != nil {
			return err
		}
		postIDs = ids
	}

	for _, postID := range postIDs {
		comments, err := w.source.GetComments(ctx, postID)
		if err != nil {
			return err
		}

		for _, comment := range comments {
			if w.log.Seen(comment.ID) {
				continue
			}
			if err := w.reply(ctx, comment); err != nil {
				if ctx.Err() != nil {
					return err
				}
				slog.Warn("could not reply to comment", "comment_id", comment.ID, "error", err)
			}
		}
	}
	return nil
}

func (w *Watcher) reply(ctx context.Context, comment linkedin.Comment) error {
	if err := w.replyLimiter.Wait(ctx); err != nil {
		return err
	}

	text := w.replies.GenerateReply(ctx, comment.Text, w.articleTitle)
	if err := w.source.ReplyToComment(ctx, comment.PostID, comment.ID, text); err != nil {
		return err
	}

	if err := w.log.Mark(comment.ID); err != nil {
		slog.Warn("could not persist comment log", "error", err)
	}
	w.notifier.CommentReplied(ctx, comment.Text, text)
	slog.Info("replied to comment", "comment_id", comment.ID, "post_id", comment.PostID)
	return nil
}
