// Package recovery owns everything under .organizer/state/ plus the
// process lock: the in-flight scan snapshot, the crash log, the safe-mode
// sentinel, and organizer.lock itself. Only this package may write those
// files — the CLI commands record scan start, completion and crashes
// through it, and read through it to decide whether to offer recovery.
package recovery

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ScanState snapshots one in-flight scan so it can be reported and
// abandoned after a crash.
type ScanState struct {
	ScanID         int64     `json:"scan_id"`
	Path           string    `json:"path"`
	StartedAt      time.Time `json:"started_at"`
	TotalFiles     int       `json:"total_files"`
	ProcessedFiles int       `json:"processed_files"`
	Completed      bool      `json:"completed"`
}

// Manager reads and atomically writes the recovery-owned files beneath
// stateDir (".organizer/state").
type Manager struct {
	stateDir string
}

// New builds a Manager, creating stateDir if it does not yet exist.
func New(stateDir string) (*Manager, error) {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("recovery: create state directory: %w", err)
	}
	return &Manager{stateDir: stateDir}, nil
}

func (m *Manager) currentScanPath() string  { return filepath.Join(m.stateDir, "current_scan.json") }
func (m *Manager) crashLogPath() string     { return filepath.Join(m.stateDir, "crash.log") }
func (m *Manager) recoveryStatePath() string { return filepath.Join(m.stateDir, "recovery_state.json") }

// atomicWriteJSON writes data to path via write-temp, fsync(file),
// rename, fsync(parent dir) — two fsyncs on top of a plain
// write-temp-then-rename, because a scan snapshot must survive a crash,
// not just a process exit: the path holds either the old or the new
// contents, and a completed rename is durable.
func atomicWriteJSON(path string, data any) error {
	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("recovery: marshal: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("recovery: create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("recovery: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("recovery: fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("recovery: close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("recovery: rename temp file: %w", err)
	}

	dirHandle, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("recovery: open directory for fsync: %w", err)
	}
	defer dirHandle.Close()
	if err := dirHandle.Sync(); err != nil {
		return fmt.Errorf("recovery: fsync directory: %w", err)
	}

	return nil
}

// StartScan persists the initial snapshot of a new scan.
func (m *Manager) StartScan(scanID int64, path string, totalFiles int) error {
	state := ScanState{
		ScanID:     scanID,
		Path:       path,
		StartedAt:  time.Now(),
		TotalFiles: totalFiles,
	}
	return atomicWriteJSON(m.currentScanPath(), state)
}

// UpdateProgress rewrites the snapshot's processed-file count.
func (m *Manager) UpdateProgress(processedFiles int) error {
	state, err := m.readScanState()
	if err != nil {
		return err
	}
	if state == nil {
		return nil // nothing to update, no scan in flight
	}
	state.ProcessedFiles = processedFiles
	return atomicWriteJSON(m.currentScanPath(), state)
}

// CompleteScan marks the snapshot completed; the caller should follow up
// with ClearScanState once it no longer needs the record.
func (m *Manager) CompleteScan() error {
	state, err := m.readScanState()
	if err != nil {
		return err
	}
	if state == nil {
		return nil
	}
	state.Completed = true
	return atomicWriteJSON(m.currentScanPath(), state)
}

// ClearScanState removes current_scan.json, the signal that the last scan
// completed cleanly.
func (m *Manager) ClearScanState() error {
	err := os.Remove(m.currentScanPath())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("recovery: clear scan state: %w", err)
	}
	return nil
}

// InterruptedScan returns the persisted ScanState if one exists and has
// not been marked completed, or (nil, nil) otherwise.
func (m *Manager) InterruptedScan() (*ScanState, error) {
	state, err := m.readScanState()
	if err != nil {
		return nil, err
	}
	if state == nil || state.Completed {
		return nil, nil
	}
	return state, nil
}

func (m *Manager) readScanState() (*ScanState, error) {
	data, err := os.ReadFile(m.currentScanPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("recovery: read scan state: %w", err)
	}

	var state ScanState
	if err := json.Unmarshal(data, &state); err != nil {
		m.archiveCorrupted(m.currentScanPath())
		return nil, fmt.Errorf("recovery: parse scan state: %w", err)
	}
	return &state, nil
}

func (m *Manager) archiveCorrupted(path string) {
	archivePath := fmt.Sprintf("%s.corrupt.%d", path, time.Now().Unix())
	os.Rename(path, archivePath)
}
