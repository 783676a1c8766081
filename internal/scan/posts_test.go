package scan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kiranze/FPVNoobBot/internal/engine"
	"github.com/kiranze/FPVNoobBot/internal/ledger"
	"github.com/kiranze/FPVNoobBot/internal/model"
	"github.com/kiranze/FPVNoobBot/internal/store"
)

type fakeClassifier struct {
	rule  *engine.Rule
	err   error
	calls int
}

func (f *fakeClassifier) Classify(ctx context.Context, title, body string) (*engine.Rule, error) {
	f.calls++
	return f.rule, f.err
}

func newTestPostScanner(forum *fakeForum, led *ledger.FileLedger, cls *fakeClassifier) (*PostScanner, *fakeRecorder, *fakeForum) {
	rec := &fakeRecorder{}
	d, _ := newTestDispatcher(forum, &fakeNotifier{}, 3)
	s := NewPostScanner(forum, led, engine.NewPrefilter(engine.DefaultKeywords), cls, d, rec,
		PostScannerConfig{Subreddit: "fpv", Limit: 5, ItemPause: time.Second, SweepInterval: time.Minute},
		discardLogger())
	s.sleeper = &fakeSleeper{}
	return s, rec, forum
}

func TestSweepFiltersIrrelevantPosts(t *testing.T) {
	forum := &fakeForum{items: []model.Item{{
		ID: "p1", Kind: model.KindPost, Title: "look at my new goggles", Body: "they are great",
	}}}
	led := tempLedger(t)
	cls := &fakeClassifier{}
	s, rec, _ := newTestPostScanner(forum, led, cls)

	if err := s.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if cls.calls != 0 {
		t.Fatalf("classifier calls = %d, want 0", cls.calls)
	}
	if !led.Contains("p1") {
		t.Fatal("filtered post not recorded in ledger")
	}
	if len(rec.outcomes) != 1 || rec.outcomes[0].Result != store.ResultFiltered {
		t.Fatalf("outcomes = %+v, want one FILTERED", rec.outcomes)
	}
}

func TestSweepSkipsAlreadySeenPosts(t *testing.T) {
	forum := &fakeForum{items: []model.Item{post("p1")}}
	led := tempLedger(t)
	if err := led.Record("p1"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	cls := &fakeClassifier{}
	s, rec, _ := newTestPostScanner(forum, led, cls)

	if err := s.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if cls.calls != 0 {
		t.Fatalf("classifier calls = %d, want 0", cls.calls)
	}
	if len(rec.outcomes) != 0 {
		t.Fatalf("outcomes = %+v, want none", rec.outcomes)
	}
}

func TestSweepMatchedRuleIsActioned(t *testing.T) {
	forum := &fakeForum{items: []model.Item{post("p1")}}
	led := tempLedger(t)
	rules := engine.DefaultRules()
	cls := &fakeClassifier{rule: &rules[0]}
	s, rec, _ := newTestPostScanner(forum, led, cls)

	if err := s.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if got := len(forum.callsTo("reply")); got != 1 {
		t.Fatalf("replies = %d, want 1", got)
	}
	if got := len(forum.callsTo("report")); got != 1 {
		t.Fatalf("reports = %d, want 1", got)
	}
	if !led.Contains("p1") {
		t.Fatal("actioned post not recorded in ledger")
	}
	if len(rec.outcomes) != 1 {
		t.Fatalf("outcomes = %+v, want one", rec.outcomes)
	}
	o := rec.outcomes[0]
	if o.Result != store.ResultActioned || o.Rule != rules[0].Name {
		t.Fatalf("outcome = %+v, want ACTIONED by %s", o, rules[0].Name)
	}
}

func TestSweepFailedActionStillLedgered(t *testing.T) {
	forum := &fakeForum{
		items:     []model.Item{post("p1")},
		replyErrs: []error{errors.New("comment removed by admins")},
	}
	led := tempLedger(t)
	rules := engine.DefaultRules()
	cls := &fakeClassifier{rule: &rules[0]}
	s, rec, _ := newTestPostScanner(forum, led, cls)

	if err := s.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if !led.Contains("p1") {
		t.Fatal("failed post not recorded in ledger; would be retried forever")
	}
	if len(rec.outcomes) != 1 || rec.outcomes[0].Result != store.ResultFailed {
		t.Fatalf("outcomes = %+v, want one FAILED", rec.outcomes)
	}
}

func TestSweepClassifierErrorMeansNoAction(t *testing.T) {
	forum := &fakeForum{items: []model.Item{post("p1")}}
	led := tempLedger(t)
	cls := &fakeClassifier{err: errors.New("model unreachable")}
	s, rec, _ := newTestPostScanner(forum, led, cls)

	if err := s.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if got := len(forum.callsTo("reply")); got != 0 {
		t.Fatalf("replies = %d, want 0", got)
	}
	if !led.Contains("p1") {
		t.Fatal("post not recorded in ledger")
	}
	if len(rec.outcomes) != 1 || rec.outcomes[0].Result != store.ResultFailed {
		t.Fatalf("outcomes = %+v, want one FAILED", rec.outcomes)
	}
}

func TestRunReturnsListError(t *testing.T) {
	forum := &fakeForum{listErr: errors.New("gateway down")}
	s, _, _ := newTestPostScanner(forum, tempLedger(t), &fakeClassifier{})

	err := s.Run(context.Background())
	if err == nil {
		t.Fatal("Run returned nil, want list error")
	}
}

func TestSweepStopsOnCancelWithoutLedgering(t *testing.T) {
	forum := &fakeForum{items: []model.Item{post("p1"), post("p2")}}
	led := tempLedger(t)
	cls := &fakeClassifier{}
	s, _, _ := newTestPostScanner(forum, led, cls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Sweep(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Sweep error = %v, want context.Canceled", err)
	}
	if led.Contains("p1") || led.Contains("p2") {
		t.Fatal("cancelled sweep must not mark posts as handled")
	}
}
