package model

// ActionKind enumerates the closed set of actions a rule can bind to.
type ActionKind string

const (
	ActionNoOp           ActionKind = "none"
	ActionReply          ActionKind = "reply"
	ActionReplyAndReport ActionKind = "reply_report"
	ActionRemoveAsSpam   ActionKind = "remove_spam"
)

// Action describes the single forum mutation to perform for a matched item.
// Text is the reply body for reply actions; Reason is the report reason or
// removal note.
type Action struct {
	Kind   ActionKind
	Text   string
	Reason string
}

// NoOp takes no forum action.
func NoOp() Action { return Action{Kind: ActionNoOp} }

// Reply posts text as a comment on the item.
func Reply(text string) Action { return Action{Kind: ActionReply, Text: text} }

// ReplyAndReport posts text as a comment and then reports the item with the
// given reason.
func ReplyAndReport(text, reason string) Action {
	return Action{Kind: ActionReplyAndReport, Text: text, Reason: reason}
}

// RemoveAsSpam removes the item and marks it as spam. No reply is posted.
func RemoveAsSpam(note string) Action {
	return Action{Kind: ActionRemoveAsSpam, Reason: note}
}
