package recovery

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gaI-observe-online/SmartFileOrganizer/internal/redact"
)

// CrashEntry is one line of crash.log.
type CrashEntry struct {
	Timestamp       time.Time  `json:"timestamp"`
	ErrorType       string     `json:"error_type"`
	ErrorMessage    string     `json:"error_message"`
	InterruptedScan *ScanState `json:"interrupted_scan,omitempty"`
}

// RecordCrash appends one entry to crash.log. Paths inside the error
// message and the interrupted scan's path are redacted when redactPaths
// is true.
func (m *Manager) RecordCrash(errType string, cause error, interrupted *ScanState, redactPaths bool) error {
	r := redact.New(redactPaths, 0)

	entry := CrashEntry{
		Timestamp:    time.Now(),
		ErrorType:    errType,
		ErrorMessage: r.RedactPath(cause.Error()),
	}
	if interrupted != nil {
		clone := *interrupted
		clone.Path = r.RedactPath(clone.Path)
		entry.InterruptedScan = &clone
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("recovery: marshal crash entry: %w", err)
	}

	f, err := os.OpenFile(m.crashLogPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("recovery: open crash log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("recovery: append crash log: %w", err)
	}
	return nil
}

// CrashHistory returns up to limit most-recent crash entries, skipping
// any line that fails to parse rather than aborting the whole read.
func (m *Manager) CrashHistory(limit int) ([]CrashEntry, error) {
	f, err := os.Open(m.crashLogPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("recovery: open crash log: %w", err)
	}
	defer f.Close()

	var all []CrashEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry CrashEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		all = append(all, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("recovery: read crash log: %w", err)
	}

	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

type safeModeState struct {
	Mode      string    `json:"mode"`
	Timestamp time.Time `json:"timestamp"`
}

// EnterSafeMode writes the safe-mode sentinel that IsSafeMode reports.
// Writing it changes nothing else: no command reads the sentinel back,
// and the restrictions of safe mode apply only to the invocation that
// runs with the CLI's --safe-mode flag set.
func (m *Manager) EnterSafeMode() error {
	return atomicWriteJSON(m.recoveryStatePath(), safeModeState{Mode: "safe_mode", Timestamp: time.Now()})
}

// ExitSafeMode removes the sentinel.
func (m *Manager) ExitSafeMode() error {
	err := os.Remove(m.recoveryStatePath())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("recovery: exit safe mode: %w", err)
	}
	return nil
}

// IsSafeMode reports whether the safe-mode sentinel is present.
func (m *Manager) IsSafeMode() bool {
	data, err := os.ReadFile(m.recoveryStatePath())
	if err != nil {
		return false
	}
	var state safeModeState
	if err := json.Unmarshal(data, &state); err != nil {
		return false
	}
	return state.Mode == "safe_mode"
}

// ReconstructIncident renders a human-readable summary of an interrupted
// scan plus, if present, the most recent crash log entry — the text the
// CLI prints before asking whether to continue or enter safe mode.
func (m *Manager) ReconstructIncident(state *ScanState, redactPaths bool) string {
	path := redact.New(redactPaths, 0).RedactPath(state.Path)

	var b strings.Builder
	fmt.Fprintf(&b, "Incident Reconstruction\n")
	fmt.Fprintf(&b, "%s\n\n", strings.Repeat("=", 40))
	fmt.Fprintf(&b, "Scan ID: %d\n", state.ScanID)
	fmt.Fprintf(&b, "Path: %s\n", path)
	fmt.Fprintf(&b, "Started: %s\n", state.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Progress: %d/%d files\n", state.ProcessedFiles, state.TotalFiles)
	if state.TotalFiles > 0 {
		pct := float64(state.ProcessedFiles) / float64(state.TotalFiles) * 100
		fmt.Fprintf(&b, "Completion: %.1f%%\n", pct)
	}

	crashes, _ := m.CrashHistory(1)
	if len(crashes) > 0 {
		c := crashes[0]
		fmt.Fprintf(&b, "\nLast Error:\n  Type: %s\n  Message: %s\n  Time: %s\n",
			c.ErrorType, c.ErrorMessage, c.Timestamp.Format(time.RFC3339))
	}

	fmt.Fprintf(&b, "\nRecovery Options:\n  1. Continue (clear the interrupted scan state)\n  2. Enter safe mode for diagnostics\n")
	if redactPaths {
		fmt.Fprintf(&b, "\nPaths are redacted for privacy.\n")
	}
	return b.String()
}
