// Package store persists the audit trail: one outcome row per processed
// item. The ledgers answer "was this id handled"; the audit trail answers
// "what happened to it": matched rule, action taken, or why it was skipped.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kiranze/FPVNoobBot/internal/model"
)

// Outcome result constants.
const (
	ResultActioned = "ACTIONED" // a rule matched and the action succeeded
	ResultFiltered = "FILTERED" // culled by the lexical pre-filter
	ResultNoMatch  = "NO_MATCH" // reached the pipeline, no rule matched
	ResultFailed   = "FAILED"   // classification or mutation error
	ResultCommand  = "COMMAND"  // comment trigger or feedback token handled
)

// Outcome records what happened to a single item.
type Outcome struct {
	ID        string
	ItemID    string
	Kind      string
	Rule      string // matched rule name or trigger token, empty otherwise
	Action    string // model.ActionKind of the executed action
	Result    string
	Detail    string // error text or extra context
	CreatedAt string
}

// NewOutcome builds an Outcome for the given item with a fresh id.
func NewOutcome(item model.Item, result string) Outcome {
	return Outcome{
		ID:        uuid.New().String(),
		ItemID:    item.ID,
		Kind:      string(item.Kind),
		Result:    result,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// Store provides data access to the audit database.
type Store struct {
	db *sql.DB
}

// New creates a Store and initialises the schema.
func New(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// currentSchemaVersion is bumped whenever the schema changes.
const currentSchemaVersion = 1

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var version int
	err := s.db.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := s.db.Exec(`INSERT INTO schema_version (version) VALUES (0)`); err != nil {
			return fmt.Errorf("init schema version: %w", err)
		}
		version = 0
	} else if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	migrations := []func() error{
		s.migrateV1, // v0 → v1: outcomes table
	}

	for i := version; i < len(migrations); i++ {
		if err := migrations[i](); err != nil {
			return fmt.Errorf("migration v%d→v%d: %w", i, i+1, err)
		}
		if _, err := s.db.Exec(`UPDATE schema_version SET version = ?`, i+1); err != nil {
			return fmt.Errorf("update schema version to %d: %w", i+1, err)
		}
	}

	return nil
}

func (s *Store) migrateV1() error {
	schema := `
	CREATE TABLE IF NOT EXISTS outcomes (
		id         TEXT PRIMARY KEY,
		item_id    TEXT NOT NULL,
		kind       TEXT NOT NULL,
		rule       TEXT,
		action     TEXT,
		result     TEXT NOT NULL,
		detail     TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_outcomes_result ON outcomes(result, created_at);
	CREATE INDEX IF NOT EXISTS idx_outcomes_item ON outcomes(kind, item_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordOutcome inserts one audit row.
func (s *Store) RecordOutcome(ctx context.Context, o Outcome) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outcomes (id, item_id, kind, rule, action, result, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.ItemID, o.Kind, o.Rule, o.Action, o.Result, o.Detail, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record outcome for %s: %w", o.ItemID, err)
	}
	return nil
}

// CountByResult returns the number of outcomes per result value.
func (s *Store) CountByResult(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT result, COUNT(*) FROM outcomes GROUP BY result`)
	if err != nil {
		return nil, fmt.Errorf("count outcomes: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var result string
		var n int
		if err := rows.Scan(&result, &n); err != nil {
			return nil, fmt.Errorf("scan outcome count: %w", err)
		}
		counts[result] = n
	}
	return counts, rows.Err()
}

// RecentOutcomes returns the newest limit outcomes, newest first.
func (s *Store) RecentOutcomes(ctx context.Context, limit int) ([]Outcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, item_id, kind, rule, action, result, detail, created_at
		 FROM outcomes ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	defer rows.Close()

	var out []Outcome
	for rows.Next() {
		var o Outcome
		if err := rows.Scan(&o.ID, &o.ItemID, &o.Kind, &o.Rule, &o.Action, &o.Result, &o.Detail, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
