package discussion

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Ledger persists the pending discussions as a JSON array on disk.
type Ledger struct {
	path        string
	defaultFile string
	warnWriter  io.Writer
}

// NewLedger creates a Ledger over the given file. defaultFile is assigned
// to entries missing a file path (with a warning to warn, which may be
// nil to silence).
func NewLedger(path, defaultFile string, warn io.Writer) *Ledger {
	if warn == nil {
		warn = io.Discard
	}
	return &Ledger{path: path, defaultFile: defaultFile, warnWriter: warn}
}

// Path returns the ledger file location.
func (l *Ledger) Path() string {
	return l.path
}

// Load reads and validates every discussion. Validation failures are
// fatal for the whole run: a ledger that cannot be trusted must not be
// partially processed.
func (l *Ledger) Load() ([]Discussion, error) {
	raw, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger %s: %w", l.path, err)
	}

	var discussions []Discussion
	if err := json.Unmarshal(raw, &discussions); err != nil {
		return nil, fmt.Errorf("failed to parse ledger %s: %w", l.path, err)
	}

	for i := range discussions {
		d := &discussions[i]
		if d.ID == 0 {
			return nil, fmt.Errorf("ledger entry %d: missing id", i)
		}
		if d.Comment == "" {
			return nil, fmt.Errorf("ledger entry %d (id %d): missing comment", i, d.ID)
		}
		if len(d.Lines) == 0 {
			return nil, fmt.Errorf("ledger entry %d (id %d): empty lines", i, d.ID)
		}
		for _, line := range d.Lines {
			if line < 1 {
				return nil, fmt.Errorf("ledger entry %d (id %d): invalid line %d", i, d.ID, line)
			}
		}
		if d.File == "" {
			d.File = l.defaultFile
			fmt.Fprintf(l.warnWriter, "[!] discussion %d has no file, defaulting to %s\n", d.ID, l.defaultFile)
		}
	}

	return discussions, nil
}

// Save writes the full list of discussions, replacing the previous ledger
// atomically (temp file + rename) so a crash never leaves a partial
// write behind.
func (l *Ledger) Save(discussions []Discussion) error {
	if discussions == nil {
		discussions = []Discussion{}
	}

	data, err := json.MarshalIndent(discussions, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(l.path)
	tmp, err := os.CreateTemp(dir, ".ledger-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp ledger: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp ledger: %w", err)
	}

	if err := os.Rename(tmpName, l.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace ledger: %w", err)
	}
	return nil
}

// RemoveResolved filters out every discussion whose id is in resolvedIDs,
// preserving the order of the rest, persists the result and returns it.
// Removing ids that are not present is a no-op.
func (l *Ledger) RemoveResolved(all []Discussion, resolvedIDs []int64) ([]Discussion, error) {
	resolved := make(map[int64]struct{}, len(resolvedIDs))
	for _, id := range resolvedIDs {
		resolved[id] = struct{}{}
	}

	remaining := make([]Discussion, 0, len(all))
	for _, d := range all {
		if _, ok := resolved[d.ID]; ok {
			continue
		}
		remaining = append(remaining, d)
	}

	if err := l.Save(remaining); err != nil {
		return nil, err
	}
	return remaining, nil
}

// Append adds discussions to the ledger, creating it when absent. Used by
// the import path; entries with ids already present are skipped.
func (l *Ledger) Append(incoming []Discussion) (added int, err error) {
	var existing []Discussion
	if _, statErr := os.Stat(l.path); statErr == nil {
		existing, err = l.Load()
		if err != nil {
			return 0, err
		}
	}

	seen := make(map[int64]struct{}, len(existing))
	for _, d := range existing {
		seen[d.ID] = struct{}{}
	}

	for _, d := range incoming {
		if _, dup := seen[d.ID]; dup {
			continue
		}
		existing = append(existing, d)
		seen[d.ID] = struct{}{}
		added++
	}

	if err := l.Save(existing); err != nil {
		return 0, err
	}
	return added, nil
}
