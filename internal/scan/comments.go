package scan

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kiranze/FPVNoobBot/internal/engine"
	"github.com/kiranze/FPVNoobBot/internal/ledger"
	"github.com/kiranze/FPVNoobBot/internal/model"
	"github.com/kiranze/FPVNoobBot/internal/store"
)

// CommentSource yields new comments one at a time, blocking until the
// next one arrives or ctx is cancelled.
type CommentSource interface {
	Next(ctx context.Context) (model.Item, error)
}

// Trigger is a chat command anyone can drop in a comment to make the
// bot post one of its canned replies on the parent post.
type Trigger struct {
	Token   string
	Reply   string
	Subject string
}

// DefaultTriggers maps the supported commands to the canned replies.
func DefaultTriggers() []Trigger {
	return []Trigger{
		{Token: "!flippost", Reply: engine.FlipReply, Subject: "Bot Reply - Command !flippost"},
		{Token: "!motorspin", Reply: engine.MotorSpinReply, Subject: "Bot Reply - Command !motorspin"},
		{Token: "!soldering", Reply: engine.SolderingReply, Subject: "Bot Reply - Command !soldering"},
	}
}

const (
	goodBotReply       = "Good human."
	goodBotFriendReply = "Good human, %s. Always a pleasure."
	badBotApology      = "My apologies. I have removed my comment."
	badBotRebuke       = "No."
)

// CommentScanner watches the live comment stream for trigger commands
// and for feedback on the bot's own replies.
type CommentScanner struct {
	source     CommentSource
	forum      Forum
	ledger     ledger.Ledger
	dispatcher *Dispatcher
	outcomes   OutcomeRecorder
	triggers   []Trigger
	sleeper    engine.Sleeper

	botUser   string
	pause     time.Duration
	allowlist map[string]bool
	denylist  map[string]bool
	logger    *slog.Logger
}

type CommentScannerConfig struct {
	BotUser   string
	ItemPause time.Duration
	Allowlist []string
	Denylist  []string
}

func NewCommentScanner(source CommentSource, forum Forum, led ledger.Ledger,
	dispatcher *Dispatcher, outcomes OutcomeRecorder, cfg CommentScannerConfig, logger *slog.Logger) *CommentScanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommentScanner{
		source:     source,
		forum:      forum,
		ledger:     led,
		dispatcher: dispatcher,
		outcomes:   outcomes,
		triggers:   DefaultTriggers(),
		sleeper:    engine.RealSleeper{},
		botUser:    cfg.BotUser,
		pause:      cfg.ItemPause,
		allowlist:  toSet(cfg.Allowlist),
		denylist:   toSet(cfg.Denylist),
		logger:     logger,
	}
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[strings.ToLower(strings.TrimSpace(n))] = true
	}
	return set
}

// Run consumes the stream until ctx is cancelled, pausing for ItemPause
// after each handled comment so a drained page cannot burst API calls.
// Stream errors are returned so the supervisor restarts the loop with a
// fresh backoff.
func (s *CommentScanner) Run(ctx context.Context) error {
	for {
		item, err := s.source.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("comment stream: %w", err)
		}
		if s.Process(ctx, item) {
			if err := s.sleeper.Sleep(ctx, s.pause); err != nil {
				return err
			}
		}
	}
}

// Process handles one comment and reports whether it was handled.
// Already-seen comments and the bot's own comments are skipped without
// touching the ledger; everything else is recorded exactly once, whatever
// the handling did.
func (s *CommentScanner) Process(ctx context.Context, item model.Item) bool {
	if s.ledger.Contains(item.ID) {
		return false
	}
	if item.Author != "" && strings.EqualFold(item.Author, s.botUser) {
		return false
	}
	if ctx.Err() != nil {
		return false
	}

	outcome := s.handle(ctx, item)
	if err := s.ledger.Record(item.ID); err != nil {
		s.logger.Error("ledger write failed", "id", item.ID, "error", err)
	}
	if s.outcomes != nil {
		if err := s.outcomes.RecordOutcome(ctx, outcome); err != nil {
			s.logger.Error("outcome write failed", "id", item.ID, "error", err)
		}
	}
	return true
}

func (s *CommentScanner) handle(ctx context.Context, item model.Item) store.Outcome {
	body := strings.ToLower(item.Body)

	for _, trig := range s.triggers {
		if !strings.Contains(body, trig.Token) {
			continue
		}
		return s.runTrigger(ctx, item, trig)
	}

	// Feedback only counts on direct replies to one of the bot's
	// comments.
	if strings.HasPrefix(item.ParentID, "t1_") {
		parent, err := s.forum.Comment(ctx, item.ParentID)
		if err != nil {
			s.logger.Warn("parent lookup failed", "id", item.ID, "parent", item.ParentID, "error", err)
			o := store.NewOutcome(item, store.ResultFailed)
			o.Detail = err.Error()
			return o
		}
		if parent != nil && strings.EqualFold(parent.Author, s.botUser) {
			switch {
			case strings.Contains(body, "good bot"):
				return s.handleGoodBot(ctx, item)
			case strings.Contains(body, "bad bot"):
				return s.handleBadBot(ctx, item, *parent)
			}
		}
	}

	return store.NewOutcome(item, store.ResultNoMatch)
}

// runTrigger posts the canned reply on the comment's root post.
func (s *CommentScanner) runTrigger(ctx context.Context, item model.Item, trig Trigger) store.Outcome {
	target := item.LinkID
	if target == "" {
		target = item.Fullname()
	}
	s.logger.Info("trigger command", "token", trig.Token, "id", item.ID, "author", item.Author)

	if err := s.dispatcher.ReplyWithRetry(ctx, target, trig.Reply); err != nil {
		s.logger.Error("trigger reply failed", "token", trig.Token, "id", item.ID, "error", err)
		o := store.NewOutcome(item, store.ResultFailed)
		o.Rule = trig.Token
		o.Detail = err.Error()
		return o
	}
	s.dispatcher.Notify(trig.Subject, item)

	o := store.NewOutcome(item, store.ResultCommand)
	o.Rule = trig.Token
	o.Action = string(model.ActionReply)
	return o
}

func (s *CommentScanner) handleGoodBot(ctx context.Context, item model.Item) store.Outcome {
	reply := goodBotReply
	if s.allowlist[strings.ToLower(item.Author)] {
		reply = fmt.Sprintf(goodBotFriendReply, item.Author)
	}
	s.logger.Info("good bot feedback", "id", item.ID, "author", item.Author)

	if err := s.dispatcher.ReplyWithRetry(ctx, item.Fullname(), reply); err != nil {
		s.logger.Error("feedback reply failed", "id", item.ID, "error", err)
		o := store.NewOutcome(item, store.ResultFailed)
		o.Rule = "good bot"
		o.Detail = err.Error()
		return o
	}
	o := store.NewOutcome(item, store.ResultCommand)
	o.Rule = "good bot"
	o.Action = string(model.ActionReply)
	return o
}

// handleBadBot retracts the bot comment the feedback replied to, unless
// the author is on the denylist, in which case the comment stays up.
func (s *CommentScanner) handleBadBot(ctx context.Context, item model.Item, parent model.Item) store.Outcome {
	s.logger.Info("bad bot feedback", "id", item.ID, "author", item.Author, "parent", parent.ID)

	if s.denylist[strings.ToLower(item.Author)] {
		if err := s.dispatcher.ReplyWithRetry(ctx, item.Fullname(), badBotRebuke); err != nil {
			s.logger.Error("feedback reply failed", "id", item.ID, "error", err)
		}
		o := store.NewOutcome(item, store.ResultCommand)
		o.Rule = "bad bot"
		o.Detail = "denylisted author, comment kept"
		return o
	}

	if err := s.dispatcher.DeleteWithRetry(ctx, parent.Fullname()); err != nil {
		s.logger.Error("comment retraction failed", "id", item.ID, "parent", parent.ID, "error", err)
		o := store.NewOutcome(item, store.ResultFailed)
		o.Rule = "bad bot"
		o.Detail = err.Error()
		return o
	}
	if err := s.dispatcher.ReplyWithRetry(ctx, item.Fullname(), badBotApology); err != nil {
		s.logger.Error("feedback reply failed", "id", item.ID, "error", err)
	}
	s.dispatcher.Notify("Bot Comment Retracted", item)

	o := store.NewOutcome(item, store.ResultCommand)
	o.Rule = "bad bot"
	o.Action = "delete"
	return o
}
