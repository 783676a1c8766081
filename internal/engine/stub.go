package engine

import "context"

// StubModelClient returns a fixed answer without any network call. With the
// default "No" answer the bot observes traffic but never acts, which is the
// safe mode when no API key is configured.
type StubModelClient struct {
	// Answer overrides the response; empty means "No".
	Answer string
}

func (m *StubModelClient) Complete(_ context.Context, _, _ string) (string, error) {
	if m.Answer == "" {
		return "No", nil
	}
	return m.Answer, nil
}
