package ledger

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/kiranze/FPVNoobBot/internal/model"
)

// SQLiteLedger stores processed ids in a shared SQLite database, namespaced
// by item kind. Like FileLedger it keeps the id set in memory so Contains
// never touches the database on the hot path.
type SQLiteLedger struct {
	db   *sql.DB
	kind model.ItemKind

	mu   sync.Mutex
	seen map[string]struct{}
}

var _ Ledger = (*SQLiteLedger)(nil)

// OpenSQLiteLedger creates the ledger table if needed and loads all ids
// recorded under kind. Load errors should be treated as fatal.
func OpenSQLiteLedger(db *sql.DB, kind model.ItemKind) (*SQLiteLedger, error) {
	const schema = `CREATE TABLE IF NOT EXISTS processed_ids (
		kind        TEXT NOT NULL,
		id          TEXT NOT NULL,
		recorded_at TEXT NOT NULL,
		PRIMARY KEY (kind, id)
	)`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create processed_ids table: %w", err)
	}

	l := &SQLiteLedger{
		db:   db,
		kind: kind,
		seen: make(map[string]struct{}),
	}

	rows, err := db.Query(`SELECT id FROM processed_ids WHERE kind = ?`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("load %s ledger: %w", kind, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan %s ledger row: %w", kind, err)
		}
		l.seen[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s ledger: %w", kind, err)
	}
	return l, nil
}

// Contains reports whether id was already recorded under this kind.
func (l *SQLiteLedger) Contains(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.seen[id]
	return ok
}

// Record inserts id under this ledger's kind. Already-recorded ids are
// ignored.
func (l *SQLiteLedger) Record(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.seen[id]; ok {
		return nil
	}

	_, err := l.db.Exec(
		`INSERT OR IGNORE INTO processed_ids (kind, id, recorded_at) VALUES (?, ?, ?)`,
		string(l.kind), id, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("record %s id %s: %w", l.kind, id, err)
	}

	l.seen[id] = struct{}{}
	return nil
}
