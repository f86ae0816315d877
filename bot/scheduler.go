package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// RunScheduler posts once per day for the given number of days. Day one
// posts immediately; later days post at a random hour. Returns early with
// the context error when interrupted.
func (b *Bot) RunScheduler(ctx context.Context, days int) error {
	slog.Info("starting scheduler", "days", days)
	b.notifier.BotStarted(ctx, days)

	for day := 0; day < days; day++ {
		slog.Info("scheduler day", "day", day+1, "of", days)

		if day == 0 {
			slog.Info("first run, posting immediately")
		} else {
			delay := b.randHours(24)
			scheduledAt := b.now().Add(delay)
			slog.Info("scheduled today's post", "in", delay, "at", scheduledAt)
			b.notifier.ScheduleUpdate(ctx, day+1, delay, scheduledAt)

			if err := b.waitWithUpdates(ctx, delay, "Next post"); err != nil {
				return b.stopped(ctx, err)
			}
		}

		if b.RunOnce(ctx, day == 0) {
			slog.Info("posted for day", "day", day+1)
		} else {
			slog.Warn("no post published for day", "day", day+1)
		}
		if ctx.Err() != nil {
			return b.stopped(ctx, ctx.Err())
		}

		if day == days-1 {
			break
		}

		untilNext := untilNextMidnight(b.now()) + b.randDuration(time.Hour)
		nextDayAt := b.now().Add(untilNext)
		slog.Info("day complete", "day", day+1, "next_day_at", nextDayAt)
		b.notifier.DayComplete(ctx, day+1, untilNext, nextDayAt)

		if err := b.waitWithUpdates(ctx, untilNext, fmt.Sprintf("day %d", day+2)); err != nil {
			return b.stopped(ctx, err)
		}
	}

	slog.Info("scheduler finished", "days", days)
	return nil
}

func (b *Bot) stopped(ctx context.Context, err error) error {
	slog.Info("scheduler interrupted")
	if nerr := b.notifier.Send(context.WithoutCancel(ctx), "🛑 LinkedIn AI News Bot stopped"); nerr != nil {
		slog.Warn("stop notification failed", "error", nerr)
	}
	return err
}

// waitWithUpdates sleeps for total in bounded increments, emitting a status
// update after each one so long waits stay observable.
func (b *Bot) waitWithUpdates(ctx context.Context, total time.Duration, what string) error {
	if total <= 0 {
		return nil
	}

	increment := b.cfg.StatusInterval()
	if increment <= 0 {
		increment = 30 * time.Minute
	}

	target := b.now().Add(total)
	remaining := total
	updateNumber := 0

	for remaining > 0 {
		step := increment
		if step > remaining {
			step = remaining
		}
		if err := b.sleep(ctx, step); err != nil {
			return err
		}
		remaining -= step

		if remaining > 0 {
			updateNumber++
			elapsed := total - remaining
			percent := float64(elapsed) / float64(total) * 100
			slog.Info("waiting", "remaining", remaining, "for", what)
			b.notifier.StatusUpdate(ctx, updateNumber, remaining, percent, b.now(), target, what)
		}
	}
	return nil
}

// untilNextMidnight returns the wait from now to the start of the next day.
func untilNextMidnight(now time.Time) time.Duration {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	return midnight.Sub(now)
}

// RunFixedSchedule posts daily at the configured wall-clock time instead of
// the random-hour walk. It blocks until ctx is cancelled.
func (b *Bot) RunFixedSchedule(ctx context.Context) error {
	spec, err := cronSpec(b.cfg.PostTime)
	if err != nil {
		return err
	}

	c := cron.New()
	_, err = c.AddFunc(spec, func() {
		if b.RunOnce(ctx, false) {
			slog.Info("posted on fixed schedule")
		}
	})
	if err != nil {
		return fmt.Errorf("add cron job: %w", err)
	}

	slog.Info("starting fixed schedule", "post_time", b.cfg.PostTime)
	b.notifier.BotStarted(ctx, 0)
	c.Start()

	<-ctx.Done()
	stopCtx := c.Stop()
	<-stopCtx.Done()
	return b.stopped(ctx, ctx.Err())
}

// cronSpec converts an HH:MM wall-clock time to a daily cron expression.
func cronSpec(postTime string) (string, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(postTime, "%d:%d", &hour, &minute); err != nil {
		return "", fmt.Errorf("parse post time %q: %w", postTime, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return "", fmt.Errorf("post time %q out of range", postTime)
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}
