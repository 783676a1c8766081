package engine

import (
	"context"
	"log/slog"
	"strings"
)

// minContextWords is the combined title+body word count below which an item
// is too short to classify and short-circuits to no match.
const minContextWords = 4

// Pipeline evaluates an ordered rule list against an item, first affirmative
// answer wins.
type Pipeline struct {
	rules  []Rule
	model  ModelClient
	logger *slog.Logger
}

// NewPipeline creates a pipeline over the given rules and model client.
func NewPipeline(rules []Rule, mc ModelClient, logger *slog.Logger) *Pipeline {
	return &Pipeline{rules: rules, model: mc, logger: logger}
}

// Classify returns the first rule whose classifier answers yes, or nil when
// none matches. Items with too little context never reach the model.
//
// A non-rate-limit classifier error counts as a No for that rule and
// evaluation continues; the last such error is returned alongside the result
// so the caller can log it. A nil rule with a nil error is an ordinary
// no-match.
func (p *Pipeline) Classify(ctx context.Context, title, body string) (*Rule, error) {
	words := len(strings.Fields(title)) + len(strings.Fields(body))
	if words < minContextWords {
		p.logger.Debug("skipping item: not enough context", "words", words)
		return nil, nil
	}

	var lastErr error
	for i := range p.rules {
		rule := &p.rules[i]

		answer, err := p.model.Complete(ctx, systemPrompt, rule.Prompt(title, body))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Fail safe: an uncertain classification is a No.
			lastErr = err
			continue
		}

		if isAffirmative(answer) {
			return rule, lastErr
		}
	}
	return nil, lastErr
}

// isAffirmative interprets the constrained Yes/No reply, tolerating
// whitespace, quotes and a trailing period.
func isAffirmative(answer string) bool {
	a := strings.ToLower(strings.TrimSpace(answer))
	a = strings.Trim(a, `"'.`)
	return a == "yes"
}
