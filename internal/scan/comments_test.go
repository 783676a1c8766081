package scan

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kiranze/FPVNoobBot/internal/engine"
	"github.com/kiranze/FPVNoobBot/internal/model"
	"github.com/kiranze/FPVNoobBot/internal/store"
)

func comment(id, author, body string) model.Item {
	return model.Item{
		ID:       id,
		Kind:     model.KindComment,
		Body:     body,
		Author:   author,
		ParentID: "t3_root",
		LinkID:   "t3_root",
	}
}

func newTestCommentScanner(forum *fakeForum, cfg CommentScannerConfig, t *testing.T) (*CommentScanner, *fakeRecorder, *fakeNotifier) {
	t.Helper()
	if cfg.BotUser == "" {
		cfg.BotUser = "FPVNoobBot"
	}
	rec := &fakeRecorder{}
	notifier := &fakeNotifier{}
	d, _ := newTestDispatcher(forum, notifier, 3)
	s := NewCommentScanner(nil, forum, tempLedger(t), d, rec, cfg, discardLogger())
	return s, rec, notifier
}

func TestProcessSkipsOwnComments(t *testing.T) {
	forum := &fakeForum{}
	s, rec, _ := newTestCommentScanner(forum, CommentScannerConfig{}, t)

	s.Process(context.Background(), comment("c1", "fpvnoobbot", "!flippost"))

	if len(forum.calls) != 0 {
		t.Fatalf("forum calls = %+v, want none", forum.calls)
	}
	if s.ledger.Contains("c1") {
		t.Fatal("own comment must not be ledgered")
	}
	if len(rec.outcomes) != 0 {
		t.Fatalf("outcomes = %+v, want none", rec.outcomes)
	}
}

func TestProcessSkipsSeenComments(t *testing.T) {
	forum := &fakeForum{}
	s, rec, _ := newTestCommentScanner(forum, CommentScannerConfig{}, t)
	if err := s.ledger.Record("c1"); err != nil {
		t.Fatalf("Record: %v", err)
	}

	s.Process(context.Background(), comment("c1", "pilot42", "!flippost"))

	if len(forum.calls) != 0 {
		t.Fatalf("forum calls = %+v, want none", forum.calls)
	}
	if len(rec.outcomes) != 0 {
		t.Fatalf("outcomes = %+v, want none", rec.outcomes)
	}
}

func TestProcessTriggerRepliesOnRootPost(t *testing.T) {
	forum := &fakeForum{}
	s, rec, notifier := newTestCommentScanner(forum, CommentScannerConfig{}, t)

	s.Process(context.Background(), comment("c1", "pilot42", "someone should run !flippost here"))

	replies := forum.callsTo("reply")
	if len(replies) != 1 {
		t.Fatalf("replies = %+v, want one", replies)
	}
	if replies[0].fullname != "t3_root" {
		t.Fatalf("reply target = %s, want the root post t3_root", replies[0].fullname)
	}
	if replies[0].text != engine.FlipReply {
		t.Fatalf("reply text = %q, want the canned flip reply", replies[0].text)
	}
	if len(notifier.subjects) != 1 || !strings.Contains(notifier.subjects[0], "!flippost") {
		t.Fatalf("subjects = %v, want one naming !flippost", notifier.subjects)
	}
	if !s.ledger.Contains("c1") {
		t.Fatal("handled comment not ledgered")
	}
	if len(rec.outcomes) != 1 || rec.outcomes[0].Result != store.ResultCommand || rec.outcomes[0].Rule != "!flippost" {
		t.Fatalf("outcomes = %+v, want one COMMAND for !flippost", rec.outcomes)
	}
}

func TestProcessGoodBotFeedback(t *testing.T) {
	parent := comment("bot1", "FPVNoobBot", "canned reply")
	forum := &fakeForum{parents: map[string]*model.Item{"t1_bot1": &parent}}
	s, rec, _ := newTestCommentScanner(forum, CommentScannerConfig{}, t)

	item := comment("c1", "pilot42", "Good bot!")
	item.ParentID = "t1_bot1"
	s.Process(context.Background(), item)

	replies := forum.callsTo("reply")
	if len(replies) != 1 || replies[0].fullname != "t1_c1" {
		t.Fatalf("replies = %+v, want one to t1_c1", replies)
	}
	if replies[0].text != goodBotReply {
		t.Fatalf("reply text = %q, want %q", replies[0].text, goodBotReply)
	}
	if len(rec.outcomes) != 1 || rec.outcomes[0].Rule != "good bot" {
		t.Fatalf("outcomes = %+v, want one good-bot COMMAND", rec.outcomes)
	}
}

func TestProcessGoodBotAllowlistedAuthor(t *testing.T) {
	parent := comment("bot1", "FPVNoobBot", "canned reply")
	forum := &fakeForum{parents: map[string]*model.Item{"t1_bot1": &parent}}
	s, _, _ := newTestCommentScanner(forum, CommentScannerConfig{Allowlist: []string{"QuadQueen"}}, t)

	item := comment("c1", "quadqueen", "good bot")
	item.ParentID = "t1_bot1"
	s.Process(context.Background(), item)

	replies := forum.callsTo("reply")
	if len(replies) != 1 {
		t.Fatalf("replies = %+v, want one", replies)
	}
	if !strings.Contains(replies[0].text, "quadqueen") {
		t.Fatalf("reply text = %q, want it personalised for quadqueen", replies[0].text)
	}
}

func TestProcessBadBotRetractsComment(t *testing.T) {
	parent := comment("bot1", "FPVNoobBot", "canned reply")
	forum := &fakeForum{parents: map[string]*model.Item{"t1_bot1": &parent}}
	s, rec, notifier := newTestCommentScanner(forum, CommentScannerConfig{}, t)

	item := comment("c1", "pilot42", "bad bot")
	item.ParentID = "t1_bot1"
	s.Process(context.Background(), item)

	deletes := forum.callsTo("delete")
	if len(deletes) != 1 || deletes[0].fullname != "t1_bot1" {
		t.Fatalf("deletes = %+v, want one of t1_bot1", deletes)
	}
	replies := forum.callsTo("reply")
	if len(replies) != 1 || replies[0].text != badBotApology {
		t.Fatalf("replies = %+v, want one apology", replies)
	}
	if len(notifier.subjects) != 1 {
		t.Fatalf("subjects = %v, want one retraction notice", notifier.subjects)
	}
	if len(rec.outcomes) != 1 || rec.outcomes[0].Rule != "bad bot" {
		t.Fatalf("outcomes = %+v, want one bad-bot COMMAND", rec.outcomes)
	}
}

func TestProcessBadBotDenylistedAuthorKeepsComment(t *testing.T) {
	parent := comment("bot1", "FPVNoobBot", "canned reply")
	forum := &fakeForum{parents: map[string]*model.Item{"t1_bot1": &parent}}
	s, _, _ := newTestCommentScanner(forum, CommentScannerConfig{Denylist: []string{"troll9"}}, t)

	item := comment("c1", "troll9", "bad bot")
	item.ParentID = "t1_bot1"
	s.Process(context.Background(), item)

	if got := len(forum.callsTo("delete")); got != 0 {
		t.Fatalf("deletes = %d, want 0", got)
	}
	replies := forum.callsTo("reply")
	if len(replies) != 1 || replies[0].text != badBotRebuke {
		t.Fatalf("replies = %+v, want one rebuke", replies)
	}
}

func TestProcessFeedbackIgnoredWhenParentNotBot(t *testing.T) {
	parent := comment("other1", "someoneelse", "unrelated")
	forum := &fakeForum{parents: map[string]*model.Item{"t1_other1": &parent}}
	s, rec, _ := newTestCommentScanner(forum, CommentScannerConfig{}, t)

	item := comment("c1", "pilot42", "good bot")
	item.ParentID = "t1_other1"
	s.Process(context.Background(), item)

	if len(forum.callsTo("reply")) != 0 {
		t.Fatal("replied to feedback on someone else's comment")
	}
	if len(rec.outcomes) != 1 || rec.outcomes[0].Result != store.ResultNoMatch {
		t.Fatalf("outcomes = %+v, want one NO_MATCH", rec.outcomes)
	}
	if !s.ledger.Contains("c1") {
		t.Fatal("comment not ledgered")
	}
}

func TestProcessParentLookupFailureStillLedgered(t *testing.T) {
	forum := &fakeForum{parentErr: errors.New("info endpoint down")}
	s, rec, _ := newTestCommentScanner(forum, CommentScannerConfig{}, t)

	item := comment("c1", "pilot42", "good bot")
	item.ParentID = "t1_bot1"
	s.Process(context.Background(), item)

	if !s.ledger.Contains("c1") {
		t.Fatal("comment not ledgered after lookup failure")
	}
	if len(rec.outcomes) != 1 || rec.outcomes[0].Result != store.ResultFailed {
		t.Fatalf("outcomes = %+v, want one FAILED", rec.outcomes)
	}
}

type fakeSource struct {
	items []model.Item
	err   error
}

func (f *fakeSource) Next(ctx context.Context) (model.Item, error) {
	if len(f.items) == 0 {
		if f.err != nil {
			return model.Item{}, f.err
		}
		<-ctx.Done()
		return model.Item{}, ctx.Err()
	}
	item := f.items[0]
	f.items = f.items[1:]
	return item, nil
}

func TestRunDrainsSourceThenReturnsStreamError(t *testing.T) {
	forum := &fakeForum{}
	rec := &fakeRecorder{}
	d, _ := newTestDispatcher(forum, &fakeNotifier{}, 3)
	source := &fakeSource{
		items: []model.Item{comment("c1", "pilot42", "just chatting")},
		err:   errors.New("stream reset"),
	}
	s := NewCommentScanner(source, forum, tempLedger(t), d, rec,
		CommentScannerConfig{BotUser: "FPVNoobBot"}, discardLogger())
	s.sleeper = &fakeSleeper{}

	err := s.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "stream reset") {
		t.Fatalf("Run error = %v, want wrapped stream reset", err)
	}
	if !s.ledger.Contains("c1") {
		t.Fatal("comment consumed before the failure was not ledgered")
	}
}

func TestRunPacesHandledComments(t *testing.T) {
	forum := &fakeForum{}
	rec := &fakeRecorder{}
	d, _ := newTestDispatcher(forum, &fakeNotifier{}, 3)
	source := &fakeSource{
		items: []model.Item{
			comment("c1", "pilot42", "just chatting"),
			comment("c2", "FPVNoobBot", "one of the bot's own replies"),
			comment("c3", "quadqueen", "more chatter"),
		},
		err: errors.New("stream reset"),
	}
	s := NewCommentScanner(source, forum, tempLedger(t), d, rec,
		CommentScannerConfig{BotUser: "FPVNoobBot", ItemPause: 10 * time.Second}, discardLogger())
	fs := &fakeSleeper{}
	s.sleeper = fs

	if err := s.Run(context.Background()); err == nil {
		t.Fatal("Run returned nil, want stream error")
	}

	// c1 and c3 were handled; the bot's own c2 was skipped without a pause.
	if len(fs.slept) != 2 {
		t.Fatalf("pacing sleeps = %v, want 2", fs.slept)
	}
	for _, d := range fs.slept {
		if d != 10*time.Second {
			t.Fatalf("slept %v, want 10s", d)
		}
	}
}
