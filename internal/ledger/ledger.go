// Package ledger tracks which item ids have already been processed so an
// item is acted on at most once, in the current run and across restarts.
//
// Two independent ledgers exist, one for posts and one for comments. They
// are disjoint namespaces and never cross-check each other.
package ledger

// Ledger is a durable set of processed item ids.
//
// A failure to load prior state is fatal at startup: the bot cannot safely
// run without knowing what it already handled. A failure during Record is
// returned to the caller for logging but must not abort processing; the
// worst consequence is a possible reprocessing on the next run.
type Ledger interface {
	// Contains reports whether id was already recorded.
	Contains(id string) bool

	// Record marks id as processed. Recording an already-present id is a
	// no-op, not an error.
	Record(id string) error
}
