package scan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kiranze/FPVNoobBot/internal/engine"
	"github.com/kiranze/FPVNoobBot/internal/ledger"
	"github.com/kiranze/FPVNoobBot/internal/model"
	"github.com/kiranze/FPVNoobBot/internal/store"
)

// OutcomeRecorder persists the audit trail of scan decisions.
type OutcomeRecorder interface {
	RecordOutcome(ctx context.Context, o store.Outcome) error
}

// Classifier decides which rule, if any, an item matches.
type Classifier interface {
	Classify(ctx context.Context, title, body string) (*engine.Rule, error)
}

// PostScanner sweeps the newest posts of a subreddit, classifies the
// ones that pass the keyword pre-filter and dispatches the matched
// rule's action. Every post is handled at most once across restarts.
type PostScanner struct {
	forum      Forum
	ledger     ledger.Ledger
	filter     *engine.Prefilter
	classifier Classifier
	dispatcher *Dispatcher
	outcomes   OutcomeRecorder
	sleeper    engine.Sleeper

	subreddit string
	limit     int
	pause     time.Duration
	interval  time.Duration
	logger    *slog.Logger
}

type PostScannerConfig struct {
	Subreddit     string
	Limit         int
	ItemPause     time.Duration
	SweepInterval time.Duration
}

func NewPostScanner(forum Forum, led ledger.Ledger, filter *engine.Prefilter, classifier Classifier,
	dispatcher *Dispatcher, outcomes OutcomeRecorder, cfg PostScannerConfig, logger *slog.Logger) *PostScanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostScanner{
		forum:      forum,
		ledger:     led,
		filter:     filter,
		classifier: classifier,
		dispatcher: dispatcher,
		outcomes:   outcomes,
		sleeper:    engine.RealSleeper{},
		subreddit:  cfg.Subreddit,
		limit:      cfg.Limit,
		pause:      cfg.ItemPause,
		interval:   cfg.SweepInterval,
		logger:     logger,
	}
}

// Run sweeps until ctx is cancelled. A failed sweep is returned to the
// caller so the supervisor can log it and restart the loop.
func (s *PostScanner) Run(ctx context.Context) error {
	for {
		if err := s.Sweep(ctx); err != nil {
			return err
		}
		if err := s.sleeper.Sleep(ctx, s.interval); err != nil {
			return err
		}
	}
}

// Sweep fetches one page of new posts and processes the ones the
// ledger has not seen. Each handled post is paced by ItemPause.
func (s *PostScanner) Sweep(ctx context.Context) error {
	items, err := s.forum.ListNew(ctx, s.subreddit, s.limit)
	if err != nil {
		return fmt.Errorf("list new posts: %w", err)
	}
	for _, item := range items {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if s.ledger.Contains(item.ID) {
			continue
		}
		outcome, err := s.process(ctx, item)
		if err != nil {
			// Shutdown mid-decision; leave the post for the
			// next run.
			return err
		}
		s.finish(ctx, item, outcome)
		if err := s.sleeper.Sleep(ctx, s.pause); err != nil {
			return err
		}
	}
	return nil
}

// process decides and acts on a single post. It only fails when ctx is
// cancelled before a decision was reached; every other path yields an
// outcome that the caller commits to the ledger.
func (s *PostScanner) process(ctx context.Context, item model.Item) (store.Outcome, error) {
	if !s.filter.Relevant(item.Title, item.Body) {
		s.logger.Info("skipping post", "id", item.ID, "title", item.Title)
		return store.NewOutcome(item, store.ResultFiltered), nil
	}

	rule, cerr := s.classifier.Classify(ctx, item.Title, item.Body)
	if cerr != nil && ctx.Err() != nil {
		return store.Outcome{}, ctx.Err()
	}
	if rule == nil {
		o := store.NewOutcome(item, store.ResultNoMatch)
		if cerr != nil {
			s.logger.Warn("classification incomplete, treating as no match",
				"id", item.ID, "error", cerr)
			o.Result = store.ResultFailed
			o.Detail = cerr.Error()
		}
		return o, nil
	}

	s.logger.Info("rule matched", "rule", rule.Name, "id", item.ID, "title", item.Title)
	if err := s.dispatcher.Dispatch(ctx, item, rule); err != nil {
		s.logger.Error("action failed", "rule", rule.Name, "id", item.ID, "error", err)
		o := store.NewOutcome(item, store.ResultFailed)
		o.Rule = rule.Name
		o.Action = string(rule.Action.Kind)
		o.Detail = err.Error()
		return o, nil
	}
	o := store.NewOutcome(item, store.ResultActioned)
	o.Rule = rule.Name
	o.Action = string(rule.Action.Kind)
	return o, nil
}

// finish commits the decision. Ledger and audit failures are logged
// and swallowed so one bad write cannot wedge the sweep.
func (s *PostScanner) finish(ctx context.Context, item model.Item, o store.Outcome) {
	if err := s.ledger.Record(item.ID); err != nil {
		s.logger.Error("ledger write failed", "id", item.ID, "error", err)
	}
	if s.outcomes == nil {
		return
	}
	if err := s.outcomes.RecordOutcome(ctx, o); err != nil {
		s.logger.Error("outcome write failed", "id", item.ID, "error", err)
	}
}
