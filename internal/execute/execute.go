// Package execute performs the moves described by a persisted Proposal:
// per file, backup then rename then audit row, in proposal order, never
// suspended mid-file. A failed move unwinds that one file's partial state
// (backup and any partial destination are removed); a failed audit row
// after a successful move leaves the file at its destination and keeps
// its backup. Either way the loop continues with the next file — one bad
// file never aborts the batch.
package execute

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gaI-observe-online/SmartFileOrganizer/internal/audit"
	orgerrors "github.com/gaI-observe-online/SmartFileOrganizer/internal/errors"
	"github.com/gaI-observe-online/SmartFileOrganizer/internal/plan"
)

// BackupEntry records where one file's pre-move bytes were copied, for
// RollbackManager to fall back on when the destination has since been
// removed or overwritten.
type BackupEntry struct {
	ProposalID int64
	SourcePath string
	BackupPath string
	Physical   bool // false when the file was too large for a physical copy
}

// FileResult is the per-file outcome of one Execute call.
type FileResult struct {
	Source      string
	Destination string
	Moved       bool
	Backup      *BackupEntry
	Err         error
}

// Outcome is the summary an Execute call returns.
type Outcome struct {
	FilesMoved int
	Success    bool // true only when every file in the proposal moved
	Results    []FileResult
}

// Executor moves files according to a Proposal, backing them up first and
// recording every success in the audit store.
type Executor struct {
	store             *audit.Store
	organizerDir      string
	backupEnabled     bool
	skipLargeFilesMB  int
	dryRun            bool
}

// New builds an Executor. skipLargeFilesMB files at or above that size get
// a metadata-only ("skipped") backup instead of a physical copy.
func New(store *audit.Store, organizerDir string, backupEnabled bool, skipLargeFilesMB int, dryRun bool) *Executor {
	return &Executor{
		store:            store,
		organizerDir:     organizerDir,
		backupEnabled:    backupEnabled,
		skipLargeFilesMB: skipLargeFilesMB,
		dryRun:           dryRun,
	}
}

// Execute moves every file in p in proposal order. Cancellation via ctx is
// only observed between files — once a file's backup→move→audit sequence
// starts, it runs to completion or failure before ctx is checked again.
func (e *Executor) Execute(ctx context.Context, p *plan.Proposal) (Outcome, error) {
	if e.dryRun {
		return Outcome{FilesMoved: len(p.Files), Success: true}, nil
	}

	backupDir := filepath.Join(e.organizerDir, "backups", fmt.Sprintf("%d", p.ProposalID))
	results := make([]FileResult, 0, len(p.Files))
	filesMoved := 0
	allSucceeded := true

	for _, fm := range p.Files {
		select {
		case <-ctx.Done():
			allSucceeded = false
			if err := e.store.LogExecute(p.ProposalID, filesMoved, false); err != nil {
				return Outcome{FilesMoved: filesMoved, Success: false, Results: results}, err
			}
			return Outcome{FilesMoved: filesMoved, Success: false, Results: results}, ctx.Err()
		default:
		}

		res := e.moveOne(p.ProposalID, fm, backupDir)
		results = append(results, res)
		if res.Moved {
			filesMoved++
		} else {
			allSucceeded = false
		}
	}

	if err := e.store.LogExecute(p.ProposalID, filesMoved, allSucceeded); err != nil {
		return Outcome{FilesMoved: filesMoved, Success: allSucceeded, Results: results}, err
	}

	return Outcome{FilesMoved: filesMoved, Success: allSucceeded, Results: results}, nil
}

func (e *Executor) moveOne(proposalID int64, fm plan.FileMove, backupDir string) FileResult {
	source := fm.Record.Path
	dest := fm.Destination

	res := FileResult{Source: source, Destination: dest}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		res.Err = orgerrors.Filesystem("create destination directory", dest, err)
		return res
	}

	var backup *BackupEntry
	if e.backupEnabled {
		b, err := e.backupFile(proposalID, source, backupDir, fm.Record.Size)
		if err != nil {
			res.Err = orgerrors.Filesystem("backup file", source, err)
			return res
		}
		backup = b
	}

	if err := moveFile(source, dest); err != nil {
		if backup != nil && backup.Physical {
			os.Remove(backup.BackupPath)
		}
		os.Remove(dest)
		res.Err = orgerrors.Filesystem("move file", source, err)
		return res
	}

	backupPath := ""
	if backup != nil && backup.Physical {
		backupPath = backup.BackupPath
	}
	if _, err := e.store.LogMove(proposalID, source, dest, backupPath); err != nil {
		// The file is already at dest with no Move row; leave it in place
		// rather than attempting an unaudited reverse move — a missing
		// row is discoverable and fixable, a silent reversal is not.
		res.Err = err
		return res
	}

	res.Moved = true
	res.Backup = backup
	return res
}

// backupFile copies source into backupDir, unless size is at or above the
// skip-large-files threshold, in which case it records a metadata-only
// entry and copies no bytes.
func (e *Executor) backupFile(proposalID int64, source, backupDir string, size int64) (*BackupEntry, error) {
	skipLarge := int64(e.skipLargeFilesMB) * 1024 * 1024
	if e.skipLargeFilesMB > 0 && size >= skipLarge {
		return &BackupEntry{ProposalID: proposalID, SourcePath: source, Physical: false}, nil
	}

	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return nil, err
	}
	backupPath := filepath.Join(backupDir, filepath.Base(source))
	if _, err := os.Stat(backupPath); err == nil {
		backupPath = filepath.Join(backupDir, fmt.Sprintf("%d-%s", time.Now().UnixNano(), filepath.Base(source)))
	}

	if err := copyFile(source, backupPath); err != nil {
		return nil, err
	}
	return &BackupEntry{ProposalID: proposalID, SourcePath: source, BackupPath: backupPath, Physical: true}, nil
}

// moveFile renames source to dest, falling back to copy+fsync+remove when
// the two paths are on different filesystems.
func moveFile(source, dest string) error {
	err := os.Rename(source, dest)
	if err == nil {
		return nil
	}
	if !isCrossDevice(err) {
		return err
	}

	if err := copyFile(source, dest); err != nil {
		os.Remove(dest)
		return err
	}
	return os.Remove(source)
}

func copyFile(source, dest string) error {
	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	modTime := info.ModTime()
	return os.Chtimes(dest, modTime, modTime)
}
