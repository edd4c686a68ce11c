// Package rollback inverts an executed Proposal: for each of its Move
// rows, in ascending id order, it either renames the file back to its
// original path or restores it from backup. A Rollback is idempotent —
// calling it twice on the same proposal is a no-op the second time — and
// tolerant of individual unresolvable files, which are returned in
// Result.Unresolvable rather than aborting the whole operation. Their
// paths are not written to the audit store or operations.log.
package rollback

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gaI-observe-online/SmartFileOrganizer/internal/audit"
	orgerrors "github.com/gaI-observe-online/SmartFileOrganizer/internal/errors"
)

// ErrProposalNotFound is returned when the given proposal ID has no row.
var ErrProposalNotFound = fmt.Errorf("rollback: proposal not found")

// ErrNoApprovedProposal is returned by Last when there is nothing eligible
// to roll back.
var ErrNoApprovedProposal = fmt.Errorf("rollback: no approved, unrolled proposal exists")

// Result summarizes one Rollback call.
type Result struct {
	FilesRestored int
	Unresolvable  []string // original paths that could not be restored
	AlreadyDone   bool     // true when the proposal was already rolled back
}

// Manager rolls back proposals using the audit store's moves, each of
// which already carries the exact backup path Executor wrote it to.
type Manager struct {
	store        *audit.Store
	organizerDir string
}

// New builds a Manager.
func New(store *audit.Store, organizerDir string) *Manager {
	return &Manager{store: store, organizerDir: organizerDir}
}

// Rollback inverts proposalID's moves. A second call against an
// already-rolled-back proposal returns Result{AlreadyDone: true} and
// touches no files.
func (m *Manager) Rollback(proposalID int64) (Result, error) {
	p, err := m.store.ProposalByID(proposalID)
	if err != nil {
		return Result{}, err
	}
	if p == nil {
		return Result{}, ErrProposalNotFound
	}
	if p.RolledBack {
		return Result{AlreadyDone: true}, nil
	}

	moves, err := m.store.MovesByProposal(proposalID)
	if err != nil {
		return Result{}, err
	}

	restored := 0
	var unresolvable []string

	for _, mv := range moves {
		ok, err := restoreOne(mv.NewPath, mv.OriginalPath, mv.BackupPath)
		if err != nil {
			unresolvable = append(unresolvable, mv.OriginalPath)
			continue
		}
		if ok {
			restored++
		} else {
			unresolvable = append(unresolvable, mv.OriginalPath)
		}
	}

	if err := m.store.LogRollback(proposalID, restored); err != nil {
		return Result{FilesRestored: restored, Unresolvable: unresolvable}, err
	}

	return Result{FilesRestored: restored, Unresolvable: unresolvable}, nil
}

// Last rolls back the newest proposal with approved=true and
// rolled_back=false.
func (m *Manager) Last() (int64, Result, error) {
	p, err := m.store.LatestApprovedUnrolled()
	if err != nil {
		return 0, Result{}, err
	}
	if p == nil {
		return 0, Result{}, ErrNoApprovedProposal
	}
	res, err := m.Rollback(p.ID)
	return p.ID, res, err
}

// History returns up to limit approved proposals, most recent first.
func (m *Manager) History(limit int) ([]audit.HistoryEntry, error) {
	return m.store.ApprovedHistory(limit)
}

// restoreOne restores a single file to originalPath, preferring the live
// file at newPath and falling back to the backup copy named by
// backupPath (the exact path Executor recorded for this move — never
// recomputed from originalPath's basename, since two files sharing a
// basename get distinct, timestamp-suffixed backup names). ok is false
// when neither source is available — the caller records that as
// unresolvable, not as an error.
func restoreOne(newPath, originalPath, backupPath string) (ok bool, err error) {
	if _, statErr := os.Stat(newPath); statErr == nil {
		if err := os.MkdirAll(filepath.Dir(originalPath), 0o755); err != nil {
			return false, orgerrors.Filesystem("create restore directory", originalPath, err)
		}
		if err := os.Rename(newPath, originalPath); err != nil {
			return false, orgerrors.Filesystem("restore move", originalPath, err)
		}
		return true, nil
	}

	if backupPath == "" {
		return false, nil
	}
	if _, statErr := os.Stat(backupPath); statErr != nil {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(originalPath), 0o755); err != nil {
		return false, orgerrors.Filesystem("create restore directory", originalPath, err)
	}
	if err := copyFile(backupPath, originalPath); err != nil {
		return false, orgerrors.Filesystem("restore from backup", originalPath, err)
	}
	return true, nil
}

func copyFile(src, dest string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dest, data, info.Mode())
}
