package recovery

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/uuid"
)

// lockPath puts organizer.lock directly under .organizer, a sibling of state/ rather
// than inside it — the lock protects the whole organizer directory, not
// just the recovery state.
func lockPath(organizerDir string) string { return filepath.Join(organizerDir, "organizer.lock") }

// Lock represents ownership of the organizer directory, identified by the
// owning process's PID plus a random session token (distinguishing two
// processes that happen to reuse the same PID after a reboot).
type Lock struct {
	organizerDir string
	token        string
}

// ErrLockHeld is returned by Acquire when another live process holds the
// lock.
var ErrLockHeld = fmt.Errorf("recovery: organizer directory is locked by another process")

// Acquire claims the process lock for organizerDir, reclaiming a stale
// lock (owner PID no longer alive) automatically.
func Acquire(organizerDir string) (*Lock, error) {
	path := lockPath(organizerDir)

	if data, err := os.ReadFile(path); err == nil {
		pid, _, ok := parseLockContents(string(data))
		if ok && processAlive(pid) {
			return nil, ErrLockHeld
		}
		// Stale or corrupted lock: reclaim it.
		os.Remove(path)
	}

	token := uuid.NewString()
	contents := fmt.Sprintf("%d\n%s\n", os.Getpid(), token)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		return nil, fmt.Errorf("recovery: write lock file: %w", err)
	}

	return &Lock{organizerDir: organizerDir, token: token}, nil
}

// Release removes the lock file, but only if it still names this
// process's token — a defense against releasing a lock another process
// has since reclaimed.
func (l *Lock) Release() error {
	path := lockPath(l.organizerDir)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("recovery: read lock file: %w", err)
	}

	_, token, ok := parseLockContents(string(data))
	if !ok || token != l.token {
		return nil // someone else's lock now; not ours to remove
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("recovery: remove lock file: %w", err)
	}
	return nil
}

func parseLockContents(contents string) (pid int, token string, ok bool) {
	lines := strings.Split(strings.TrimSpace(contents), "\n")
	if len(lines) == 0 {
		return 0, "", false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil {
		return 0, "", false
	}
	if len(lines) > 1 {
		token = strings.TrimSpace(lines[1])
	}
	return pid, token, true
}

// processAlive probes liveness with signal 0, which performs error
// checking without actually sending a signal.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
