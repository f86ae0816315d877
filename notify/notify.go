// Package notify reports bot activity to a Discord channel over an incoming
// webhook. When no webhook URL is configured every send is a silent no-op,
// so callers never need to guard their notification calls.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Notifier posts messages to a Discord webhook.
type Notifier struct {
	webhookURL string
	httpClient *http.Client
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(n *Notifier) {
		n.httpClient = c
	}
}

// NewNotifier creates a notifier for the given webhook URL. An empty URL
// disables notifications.
func NewNotifier(webhookURL string, opts ...Option) *Notifier {
	n := &Notifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.webhookURL == "" {
		slog.Info("discord notifications disabled, no webhook URL configured")
	}
	return n
}

// Enabled reports whether a webhook URL is configured.
func (n *Notifier) Enabled() bool {
	return n.webhookURL != ""
}

// Send delivers a raw message to the webhook. Disabled notifiers return nil.
func (n *Notifier) Send(ctx context.Context, message string) error {
	if !n.Enabled() {
		return nil
	}

	payload, err := json.Marshal(map[string]string{"content": message})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}
	return nil
}

// sendf logs delivery failures instead of returning them; notifications are
// best-effort and never interrupt the pipeline.
func (n *Notifier) sendf(ctx context.Context, format string, args ...any) {
	if err := n.Send(ctx, fmt.Sprintf(format, args...)); err != nil {
		slog.Warn("discord notification failed", "error", err)
	}
}

// BotStarted announces a scheduler run.
func (n *Notifier) BotStarted(ctx context.Context, days int) {
	n.sendf(ctx, "🤖 LinkedIn AI News Bot started for %d days", days)
}

// PostSuccess announces a successful publish.
func (n *Notifier) PostSuccess(ctx context.Context, articleTitle string, qualityScore int, postedAt time.Time) {
	n.sendf(ctx, "✅ LinkedIn Post Success!\n\n**Article:** %s\n**Quality Score:** %d/9\n**Posted at:** %s",
		articleTitle, qualityScore, postedAt.Format("2006-01-02 15:04:05"))
}

// PostFailure announces a failed publish attempt.
func (n *Notifier) PostFailure(ctx context.Context, articleTitle string, failedAt time.Time) {
	n.sendf(ctx, "❌ LinkedIn Post Failed!\n\n**Article:** %s\n**Failed at:** %s",
		articleTitle, failedAt.Format("2006-01-02 15:04:05"))
}

// ScheduleUpdate announces when the next post will go out.
func (n *Notifier) ScheduleUpdate(ctx context.Context, day int, wait time.Duration, scheduledAt time.Time) {
	n.sendf(ctx, "📅 Post Scheduled\n\nDay %d: Will post in %.1f hours\nScheduled time: %s",
		day, wait.Hours(), scheduledAt.Format("2006-01-02 15:04:05"))
}

// DayComplete announces the end of a scheduler day.
func (n *Notifier) DayComplete(ctx context.Context, day int, untilNext time.Duration, nextDayAt time.Time) {
	n.sendf(ctx, "🔄 Day %d Complete\n\nWaiting %.1f hours until day %d\nNext day begins at: %s",
		day, untilNext.Hours(), day+1, nextDayAt.Format("2006-01-02 15:04:05"))
}

// MonitoringStarted announces that the comment watcher is running.
func (n *Notifier) MonitoringStarted(ctx context.Context, duration time.Duration) {
	n.sendf(ctx, "🔍 Started monitoring LinkedIn comments for %.0f hours", duration.Hours())
}

// MonitoringCompleted announces that the comment watcher has stopped.
func (n *Notifier) MonitoringCompleted(ctx context.Context) {
	n.sendf(ctx, "✅ LinkedIn comment monitoring completed")
}

// CommentReplied announces a published reply, truncating long texts.
func (n *Notifier) CommentReplied(ctx context.Context, commentText, replyText string) {
	n.sendf(ctx, "💬 Replied to LinkedIn comment\n\n**Comment:** %s\n**Reply:** %s",
		truncate(commentText, 100), truncate(replyText, 100))
}

// Analytics sends a formatted counter dump.
func (n *Notifier) Analytics(ctx context.Context, fields []AnalyticsField) {
	var b strings.Builder
	b.WriteString("📊 **LinkedIn AI News Bot Analytics**\n\n")
	for _, f := range fields {
		fmt.Fprintf(&b, "**%s**: %s\n", f.Name, f.Value)
	}
	n.sendf(ctx, "%s", b.String())
}

// AnalyticsField is one labelled value in the analytics dump.
type AnalyticsField struct {
	Name  string
	Value string
}

// StatusUpdate sends a progress report while waiting for a scheduled event.
func (n *Notifier) StatusUpdate(ctx context.Context, updateNumber int, remaining time.Duration, percentComplete float64, now, target time.Time, what string) {
	n.sendf(ctx,
		"⏱️ **Status Update #%d**\n\n⏳ Waiting: %s until %s\n🕒 Current time: `%s`\n🏁 Target time: `%s`\n📊 Progress: `%.1f%%` complete\n```\n%s %.1f%%\n```",
		updateNumber,
		FormatRemaining(remaining),
		what,
		now.Format("2006-01-02 15:04:05"),
		target.Format("2006-01-02 15:04:05"),
		percentComplete,
		progressBar(percentComplete),
		percentComplete,
	)
}

// FormatRemaining renders a wait duration as "Xh Ym" above an hour and
// "N minutes" below it.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	if hours < 1 {
		return fmt.Sprintf("%d minutes", minutes)
	}
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

const progressBarLength = 20

func progressBar(percent float64) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := int(percent / 100 * progressBarLength)
	return strings.Repeat("█", filled) + strings.Repeat("░", progressBarLength-filled)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
