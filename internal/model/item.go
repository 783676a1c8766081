package model

import "strings"

// ItemKind identifies which ledger namespace an item belongs to.
type ItemKind string

const (
	KindPost    ItemKind = "post"
	KindComment ItemKind = "comment"
)

// Item is a single post or comment pulled from the forum. Items are created
// by forum users and are read-only to the bot; the only mutation path is the
// moderation actions in the dispatcher.
type Item struct {
	ID        string
	Kind      ItemKind
	Title     string // posts only
	Body      string
	Permalink string
	Author    string // empty when the account was deleted
	ParentID  string // comments only: fullname of the parent comment or root post
	LinkID    string // comments only: fullname of the root post
}

// Fullname returns the API thing name for the item (t3_<id> for posts,
// t1_<id> for comments). IDs that already carry a type prefix are returned
// unchanged.
func (it Item) Fullname() string {
	if strings.Contains(it.ID, "_") {
		return it.ID
	}
	if it.Kind == KindComment {
		return "t1_" + it.ID
	}
	return "t3_" + it.ID
}
