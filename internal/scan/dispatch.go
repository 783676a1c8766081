package scan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kiranze/FPVNoobBot/internal/engine"
	"github.com/kiranze/FPVNoobBot/internal/model"
	"github.com/kiranze/FPVNoobBot/internal/notify"
)

// Forum is the slice of the forum API the scanners and dispatcher need.
type Forum interface {
	ListNew(ctx context.Context, subreddit string, limit int) ([]model.Item, error)
	Reply(ctx context.Context, parentFullname, text string) error
	Remove(ctx context.Context, fullname string, spam bool) error
	Report(ctx context.Context, fullname, reason string) error
	Delete(ctx context.Context, fullname string) error
	Comment(ctx context.Context, fullname string) (*model.Item, error)
}

// Dispatcher executes rule actions against the forum. Transient forum
// errors are retried a bounded number of times with a fixed delay;
// anything else fails the action immediately.
type Dispatcher struct {
	forum    Forum
	notifier notify.Notifier
	sleeper  engine.Sleeper
	retries  int
	delay    time.Duration
	logger   *slog.Logger
}

func NewDispatcher(forum Forum, notifier notify.Notifier, retries int, delay time.Duration, logger *slog.Logger) *Dispatcher {
	if retries < 1 {
		retries = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		forum:    forum,
		notifier: notifier,
		sleeper:  engine.RealSleeper{},
		retries:  retries,
		delay:    delay,
		logger:   logger,
	}
}

// Dispatch performs the action bound to rule on item and, on success,
// sends a single notification. The error reports the final attempt.
func (d *Dispatcher) Dispatch(ctx context.Context, item model.Item, rule *engine.Rule) error {
	fullname := item.Fullname()
	action := rule.Action
	var err error
	switch action.Kind {
	case model.ActionNoOp:
		return nil
	case model.ActionReply:
		err = d.ReplyWithRetry(ctx, fullname, action.Text)
	case model.ActionReplyAndReport:
		// Each step retries on its own so a flaky report never
		// duplicates the reply.
		err = d.ReplyWithRetry(ctx, fullname, action.Text)
		if err == nil {
			err = d.withRetry(ctx, func(ctx context.Context) error {
				return d.forum.Report(ctx, fullname, action.Reason)
			})
		}
	case model.ActionRemoveAsSpam:
		err = d.withRetry(ctx, func(ctx context.Context) error {
			return d.forum.Remove(ctx, fullname, true)
		})
	default:
		return fmt.Errorf("unknown action kind %q", action.Kind)
	}
	if err != nil {
		return err
	}
	d.notify(rule.Subject, item)
	return nil
}

// ReplyWithRetry posts text under parentFullname with the same bounded
// retry policy Dispatch uses.
func (d *Dispatcher) ReplyWithRetry(ctx context.Context, parentFullname, text string) error {
	return d.withRetry(ctx, func(ctx context.Context) error {
		return d.forum.Reply(ctx, parentFullname, text)
	})
}

// DeleteWithRetry removes one of the bot's own items.
func (d *Dispatcher) DeleteWithRetry(ctx context.Context, fullname string) error {
	return d.withRetry(ctx, func(ctx context.Context) error {
		return d.forum.Delete(ctx, fullname)
	})
}

// Notify forwards a notification, logging instead of failing when the
// channel is down.
func (d *Dispatcher) Notify(subject string, item model.Item) {
	d.notify(subject, item)
}

func (d *Dispatcher) withRetry(ctx context.Context, fn func(context.Context) error) error {
	var err error
	for attempt := 1; attempt <= d.retries; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if !model.IsTransient(err) {
			return err
		}
		if attempt == d.retries {
			break
		}
		d.logger.Warn("forum action failed, retrying",
			"attempt", attempt, "max_attempts", d.retries, "error", err)
		if serr := d.sleeper.Sleep(ctx, d.delay); serr != nil {
			return serr
		}
	}
	return fmt.Errorf("gave up after %d attempts: %w", d.retries, err)
}

func (d *Dispatcher) notify(subject string, item model.Item) {
	if d.notifier == nil {
		return
	}
	body := fmt.Sprintf("Title: %s\n\nAuthor: %s\n\nLink: https://www.reddit.com%s",
		item.Title, item.Author, item.Permalink)
	if item.Kind == model.KindComment {
		body = fmt.Sprintf("Comment by %s:\n\n%s\n\nLink: https://www.reddit.com%s",
			item.Author, item.Body, item.Permalink)
	}
	if err := d.notifier.Send(subject, body); err != nil {
		d.logger.Error("notification failed", "subject", subject, "error", err)
	}
}
