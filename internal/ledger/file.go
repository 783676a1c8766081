package ledger

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileLedger stores processed ids as an append-only file with one id per
// line. A missing file is an empty ledger. The full id set is kept in
// memory; Record appends a single line.
type FileLedger struct {
	path string

	mu   sync.Mutex
	seen map[string]struct{}
}

var _ Ledger = (*FileLedger)(nil)

// OpenFileLedger loads the ledger at path. The file not existing is fine;
// any other read error is returned and should be treated as fatal.
func OpenFileLedger(path string) (*FileLedger, error) {
	l := &FileLedger{
		path: path,
		seen: make(map[string]struct{}),
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		id := scanner.Text()
		if id == "" {
			continue
		}
		l.seen[id] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ledger %s: %w", path, err)
	}
	return l, nil
}

// Contains reports whether id was already recorded.
func (l *FileLedger) Contains(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.seen[id]
	return ok
}

// Record appends id to the ledger file, creating parent directories as
// needed. Already-recorded ids are ignored.
func (l *FileLedger) Record(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.seen[id]; ok {
		return nil
	}

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create ledger dir: %w", err)
		}
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger %s for append: %w", l.path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(id + "\n"); err != nil {
		return fmt.Errorf("append to ledger %s: %w", l.path, err)
	}

	l.seen[id] = struct{}{}
	return nil
}

// Len returns the number of recorded ids.
func (l *FileLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.seen)
}
