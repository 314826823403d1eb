// Package undo keeps a single-slot backup of the last file touched by an
// applied fix. Exactly one change is reversible at a time: every new
// backup overwrites the previous record, and a performed undo consumes
// the slot. Multi-level undo is deliberately out of scope.
package undo

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Record is the persisted undo state. BackupConsumed distinguishes an
// armed record (revert available) from one that has already been used.
type Record struct {
	Timestamp      time.Time `json:"timestamp"`
	FilePath       string    `json:"filePath"`
	BackupPath     string    `json:"backupPath"`
	DiscussionID   int64     `json:"discussionId"`
	Description    string    `json:"description"`
	BackupConsumed bool      `json:"backupConsumed"`
	UndoneAt       time.Time `json:"undoneAt,omitempty"`
}

// Reasons reported by CanUndo when no revert is possible.
const (
	ReasonNoRecord      = "nothing to undo"
	ReasonConsumed      = "last change already undone"
	ReasonBackupMissing = "backup file no longer exists"
	ReasonTargetMissing = "target file no longer exists"
)

// Manager owns the undo-state file and the backup directory.
type Manager struct {
	stateFile string
	backupDir string
}

// NewManager creates a Manager rooted at dir: the state file lives at
// dir/undo.json and snapshots under dir/backups/.
func NewManager(dir string) *Manager {
	return &Manager{
		stateFile: filepath.Join(dir, "undo.json"),
		backupDir: filepath.Join(dir, "backups"),
	}
}

// BackupDir returns the snapshot directory.
func (m *Manager) BackupDir() string {
	return m.backupDir
}

// CreateBackup snapshots originalContent before a fix touches filePath
// and arms the undo slot. Any previous record, armed or consumed, is
// discarded.
func (m *Manager) CreateBackup(filePath, originalContent string, discussionID int64, description string) (*Record, error) {
	if err := os.MkdirAll(m.backupDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup dir: %w", err)
	}

	now := time.Now()
	name := fmt.Sprintf("%s.%s.bak", filepath.Base(filePath), now.Format("20060102-150405.000000000"))
	backupPath := filepath.Join(m.backupDir, name)

	if err := os.WriteFile(backupPath, []byte(originalContent), 0644); err != nil {
		return nil, fmt.Errorf("failed to write backup: %w", err)
	}

	rec := &Record{
		Timestamp:    now,
		FilePath:     filePath,
		BackupPath:   backupPath,
		DiscussionID: discussionID,
		Description:  description,
	}
	if err := m.saveRecord(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// CanUndo reports whether the armed slot can be reverted. When it cannot,
// reason carries a user-facing explanation.
func (m *Manager) CanUndo() (ok bool, reason string) {
	rec, err := m.loadRecord()
	if err != nil || rec == nil {
		return false, ReasonNoRecord
	}
	if rec.BackupConsumed {
		return false, ReasonConsumed
	}
	if _, err := os.Stat(rec.BackupPath); err != nil {
		return false, ReasonBackupMissing
	}
	if _, err := os.Stat(rec.FilePath); err != nil {
		return false, ReasonTargetMissing
	}
	return true, ""
}

// Current returns the persisted record, or nil when none exists.
func (m *Manager) Current() (*Record, error) {
	return m.loadRecord()
}

// PerformUndo restores the target file from the armed backup and marks
// the slot consumed. A second call fails with ReasonConsumed.
func (m *Manager) PerformUndo() (*Record, error) {
	if ok, reason := m.CanUndo(); !ok {
		return nil, fmt.Errorf("cannot undo: %s", reason)
	}

	rec, err := m.loadRecord()
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(rec.BackupPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup: %w", err)
	}
	if err := os.WriteFile(rec.FilePath, content, 0644); err != nil {
		return nil, fmt.Errorf("failed to restore %s: %w", rec.FilePath, err)
	}

	rec.BackupConsumed = true
	rec.UndoneAt = time.Now()
	if err := m.saveRecord(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// CleanupOldBackups keeps the `keep` most-recently-modified snapshots and
// deletes the rest. The backup referenced by a still-armed record is
// always kept regardless of its age: deleting it would break undo.
func (m *Manager) CleanupOldBackups(keep int) (deleted int, err error) {
	if keep < 0 {
		keep = 0
	}

	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read backup dir: %w", err)
	}

	var protected string
	if rec, _ := m.loadRecord(); rec != nil && !rec.BackupConsumed {
		protected = rec.BackupPath
	}

	type candidate struct {
		path    string
		modTime time.Time
	}
	var candidates []candidate
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{
			path:    filepath.Join(m.backupDir, e.Name()),
			modTime: info.ModTime(),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].modTime.After(candidates[j].modTime)
	})

	for i, c := range candidates {
		if i < keep || c.path == protected {
			continue
		}
		if err := os.Remove(c.path); err != nil {
			return deleted, fmt.Errorf("failed to delete %s: %w", c.path, err)
		}
		deleted++
	}
	return deleted, nil
}

func (m *Manager) loadRecord() (*Record, error) {
	raw, err := os.ReadFile(m.stateFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read undo state: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse undo state: %w", err)
	}
	return &rec, nil
}

func (m *Manager) saveRecord(rec *Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode undo state: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(m.stateFile), 0755); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}
	if err := os.WriteFile(m.stateFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write undo state: %w", err)
	}
	return nil
}
