// Package audit is the organizer's dual log: a relational store (scans,
// proposals, moves, learning_data) backed by SQLite, mirrored into an
// append-only audit.jsonl transition stream and a human-readable
// operations.log. The relational store is the source of truth — every
// logging method that writes both commits the relational row first and
// only then appends the JSONL record, so a crash between the two leaves
// JSONL replayable against a relational state that is never ahead of it.
// LogMove and LogLearning write only the relational row; LogExecute writes
// only the JSONL record.
//
// Store serializes every write behind a single mutex: the lock file in
// internal/recovery keeps two processes from touching an organizer
// directory at once, and this mutex keeps two goroutines in the same
// process from interleaving relational commits with JSONL appends.
package audit

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	orgerrors "github.com/gaI-observe-online/SmartFileOrganizer/internal/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS scans (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp DATETIME NOT NULL,
	path TEXT NOT NULL,
	file_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS proposals (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	scan_id INTEGER NOT NULL,
	plan TEXT NOT NULL,
	confidence REAL NOT NULL,
	timestamp DATETIME NOT NULL,
	user_approved BOOLEAN,
	rolled_back BOOLEAN DEFAULT 0,
	FOREIGN KEY (scan_id) REFERENCES scans(id)
);

CREATE TABLE IF NOT EXISTS moves (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	proposal_id INTEGER NOT NULL,
	original_path TEXT NOT NULL,
	new_path TEXT NOT NULL,
	backup_path TEXT NOT NULL DEFAULT '',
	timestamp DATETIME NOT NULL,
	FOREIGN KEY (proposal_id) REFERENCES proposals(id)
);

CREATE TABLE IF NOT EXISTS learning_data (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	file_type TEXT NOT NULL,
	target_folder TEXT NOT NULL,
	user_approved BOOLEAN NOT NULL,
	timestamp DATETIME NOT NULL
);
`

// Scan is one row of the scans table.
type Scan struct {
	ID        int64
	Timestamp time.Time
	Path      string
	FileCount int
}

// Proposal is one row of the proposals table.
type Proposal struct {
	ID           int64
	ScanID       int64
	Plan         string
	Confidence   float64
	Timestamp    time.Time
	UserApproved sql.NullBool
	RolledBack   bool
}

// Move is one row of the moves table. BackupPath is the stored filename
// backupFile actually wrote to — never recomputed from OriginalPath,
// since a timestamp suffix may have been appended to dodge a collision
// with another file's backup in the same proposal — and is empty when no
// physical backup was made for this move.
type Move struct {
	ID           int64
	ProposalID   int64
	OriginalPath string
	NewPath      string
	BackupPath   string
	Timestamp    time.Time
}

// LearningPattern summarizes approval history for a (file_type,
// target_folder) pair, as returned by LearningPatterns. The Categorizer
// does not read it.
type LearningPattern struct {
	TargetFolder string
	Count        int
	ApprovalRate float64
}

// Store is the organizer's audit trail: one *sql.DB plus the JSONL and
// human-log files that mirror it.
type Store struct {
	mu sync.Mutex

	db       *sql.DB
	jsonlF   *os.File
	logger   *log.Logger
	closeLog func() error
}

// Open creates (or reuses) audit.db, audit.jsonl, and operations.log under
// organizerDir, running the schema migration idempotently.
func Open(organizerDir string) (*Store, error) {
	if err := os.MkdirAll(organizerDir, 0o755); err != nil {
		return nil, orgerrors.AuditStore("create organizer directory", err)
	}

	dbPath := filepath.Join(organizerDir, "audit.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, orgerrors.AuditStore("open audit.db", err)
	}
	db.SetMaxOpenConns(1) // sqlite3 driver does not support concurrent writers

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, orgerrors.AuditStore("migrate schema", err)
	}

	jsonlF, err := os.OpenFile(filepath.Join(organizerDir, "audit.jsonl"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		db.Close()
		return nil, orgerrors.AuditStore("open audit.jsonl", err)
	}

	logF, err := os.OpenFile(filepath.Join(organizerDir, "operations.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		db.Close()
		jsonlF.Close()
		return nil, orgerrors.AuditStore("open operations.log", err)
	}

	return &Store{
		db:       db,
		jsonlF:   jsonlF,
		logger:   log.New(logF, "", log.Ldate|log.Ltime),
		closeLog: logF.Close,
	}, nil
}

// Close releases the database handle and log files.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	if err := s.db.Close(); err != nil {
		firstErr = err
	}
	if err := s.jsonlF.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := s.closeLog(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func (s *Store) writeJSONL(entry map[string]any) error {
	entry["timestamp"] = time.Now().Format(time.RFC3339)
	entry["trace_id"] = traceID()
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("audit: marshal jsonl entry: %w", err)
	}
	line = append(line, '\n')
	if _, err := s.jsonlF.Write(line); err != nil {
		return orgerrors.AuditStore("append audit.jsonl", err)
	}
	return s.jsonlF.Sync()
}

// LogScan records a completed enumeration: one row in scans, one JSONL
// "scan" entry, and a human log line. Returns the assigned scan ID.
func (s *Store) LogScan(path string, fileCount int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		"INSERT INTO scans (timestamp, path, file_count) VALUES (?, ?, ?)",
		time.Now(), path, fileCount,
	)
	if err != nil {
		return 0, orgerrors.AuditStore("insert scan", err)
	}
	scanID, err := res.LastInsertId()
	if err != nil {
		return 0, orgerrors.AuditStore("read scan id", err)
	}

	if err := s.writeJSONL(map[string]any{
		"action":     "scan",
		"path":       path,
		"file_count": fileCount,
		"scan_id":    scanID,
	}); err != nil {
		return scanID, err
	}

	s.logger.Printf("SCAN: %s -> %d files discovered", path, fileCount)
	return scanID, nil
}

// LogPropose records a generated plan: one row in proposals, one JSONL
// "propose" entry. Returns the assigned proposal ID.
func (s *Store) LogPropose(scanID int64, planJSON string, confidence float64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		"INSERT INTO proposals (scan_id, plan, confidence, timestamp) VALUES (?, ?, ?, ?)",
		scanID, planJSON, confidence, time.Now(),
	)
	if err != nil {
		return 0, orgerrors.AuditStore("insert proposal", err)
	}
	proposalID, err := res.LastInsertId()
	if err != nil {
		return 0, orgerrors.AuditStore("read proposal id", err)
	}

	if err := s.writeJSONL(map[string]any{
		"action":      "propose",
		"scan_id":     scanID,
		"proposal_id": proposalID,
		"confidence":  confidence,
	}); err != nil {
		return proposalID, err
	}

	s.logger.Printf("PROPOSE: plan #%d generated (confidence: %.0f%%)", proposalID, confidence*100)
	return proposalID, nil
}

// LogApproval records the user's approve/reject decision for a proposal.
// approved moves only false->true elsewhere; Store does not itself enforce
// monotonicity, it only records what it's told.
func (s *Store) LogApproval(proposalID int64, approved bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(
		"UPDATE proposals SET user_approved = ? WHERE id = ?",
		approved, proposalID,
	); err != nil {
		return orgerrors.AuditStore("update proposal approval", err)
	}

	if err := s.writeJSONL(map[string]any{
		"action":      "approval",
		"proposal_id": proposalID,
		"approved":    approved,
	}); err != nil {
		return err
	}

	status := "REJECTED"
	if approved {
		status = "APPROVED"
	}
	s.logger.Printf("%s: proposal #%d", status, proposalID)
	return nil
}

// LogMove records one successful file move. Called once per file,
// immediately after the rename/copy completes — never before. backupPath
// is the exact path Executor wrote the pre-move backup to (possibly
// timestamp-suffixed to avoid colliding with another file's backup in the
// same proposal), or "" when no physical backup was made.
func (s *Store) LogMove(proposalID int64, originalPath, newPath, backupPath string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		"INSERT INTO moves (proposal_id, original_path, new_path, backup_path, timestamp) VALUES (?, ?, ?, ?, ?)",
		proposalID, originalPath, newPath, backupPath, time.Now(),
	)
	if err != nil {
		return 0, orgerrors.AuditStore("insert move", err)
	}
	moveID, err := res.LastInsertId()
	if err != nil {
		return 0, orgerrors.AuditStore("read move id", err)
	}

	s.logger.Printf("MOVE: %s -> %s", originalPath, newPath)
	return moveID, nil
}

// LogExecute records the batch-level outcome of an Executor run: the
// number of files moved and whether every attempted move succeeded.
func (s *Store) LogExecute(proposalID int64, filesMoved int, success bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeJSONL(map[string]any{
		"action":      "execute",
		"proposal_id": proposalID,
		"files_moved": filesMoved,
		"success":     success,
	}); err != nil {
		return err
	}

	if success {
		s.logger.Printf("EXECUTE: moved %d files for proposal #%d", filesMoved, proposalID)
	} else {
		s.logger.Printf("EXECUTE: proposal #%d finished with failures (%d files moved)", proposalID, filesMoved)
	}
	return nil
}

// LogRollback marks a proposal rolled back and records the count of files
// restored.
func (s *Store) LogRollback(proposalID int64, filesRestored int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(
		"UPDATE proposals SET rolled_back = 1 WHERE id = ?",
		proposalID,
	); err != nil {
		return orgerrors.AuditStore("mark proposal rolled back", err)
	}

	if err := s.writeJSONL(map[string]any{
		"action":         "rollback",
		"proposal_id":    proposalID,
		"files_restored": filesRestored,
	}); err != nil {
		return err
	}

	s.logger.Printf("ROLLBACK: restored %d files from proposal #%d", filesRestored, proposalID)
	return nil
}

// LogLearning records one approval/rejection of a (file_type,
// target_folder) pairing in learning_data. LearningPatterns is the only
// reader of that table; the Categorizer does not consult it.
func (s *Store) LogLearning(fileType, targetFolder string, approved bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(
		"INSERT INTO learning_data (file_type, target_folder, user_approved, timestamp) VALUES (?, ?, ?, ?)",
		fileType, targetFolder, approved, time.Now(),
	); err != nil {
		return orgerrors.AuditStore("insert learning data", err)
	}
	return nil
}

// RecentScans returns up to limit scans, most recent first.
func (s *Store) RecentScans(limit int) ([]Scan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		"SELECT id, timestamp, path, file_count FROM scans ORDER BY timestamp DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, orgerrors.AuditStore("query recent scans", err)
	}
	defer rows.Close()

	var out []Scan
	for rows.Next() {
		var sc Scan
		if err := rows.Scan(&sc.ID, &sc.Timestamp, &sc.Path, &sc.FileCount); err != nil {
			return nil, orgerrors.AuditStore("scan recent scans row", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// ProposalByID fetches one proposal, or (nil, nil) if it does not exist.
func (s *Store) ProposalByID(proposalID int64) (*Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(
		"SELECT id, scan_id, plan, confidence, timestamp, user_approved, rolled_back FROM proposals WHERE id = ?",
		proposalID,
	)
	var p Proposal
	if err := row.Scan(&p.ID, &p.ScanID, &p.Plan, &p.Confidence, &p.Timestamp, &p.UserApproved, &p.RolledBack); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, orgerrors.AuditStore("query proposal", err)
	}
	return &p, nil
}

// LatestApprovedUnrolled returns the newest proposal with approved=true and
// rolled_back=false, used to implement "rollback --last". Returns (nil,
// nil) when none exists.
func (s *Store) LatestApprovedUnrolled() (*Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(
		`SELECT id, scan_id, plan, confidence, timestamp, user_approved, rolled_back
		 FROM proposals WHERE user_approved = 1 AND rolled_back = 0
		 ORDER BY timestamp DESC LIMIT 1`,
	)
	var p Proposal
	if err := row.Scan(&p.ID, &p.ScanID, &p.Plan, &p.Confidence, &p.Timestamp, &p.UserApproved, &p.RolledBack); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, orgerrors.AuditStore("query latest approved proposal", err)
	}
	return &p, nil
}

// MovesByProposal returns a proposal's moves in ascending id order, the
// order RollbackManager must walk them in.
func (s *Store) MovesByProposal(proposalID int64) ([]Move, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		"SELECT id, proposal_id, original_path, new_path, backup_path, timestamp FROM moves WHERE proposal_id = ? ORDER BY id ASC",
		proposalID,
	)
	if err != nil {
		return nil, orgerrors.AuditStore("query moves", err)
	}
	defer rows.Close()

	var out []Move
	for rows.Next() {
		var m Move
		if err := rows.Scan(&m.ID, &m.ProposalID, &m.OriginalPath, &m.NewPath, &m.BackupPath, &m.Timestamp); err != nil {
			return nil, orgerrors.AuditStore("scan move row", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// HistoryEntry summarizes one approved proposal for the rollback/audit
// CLI views: how many files it moved and whether it has since been rolled
// back.
type HistoryEntry struct {
	ProposalID int64
	Timestamp  time.Time
	RolledBack bool
	FileCount  int
}

// ApprovedHistory returns up to limit approved proposals, most recent
// first, each with its move count.
func (s *Store) ApprovedHistory(limit int) ([]HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT p.id, p.timestamp, p.rolled_back, COUNT(m.id) as file_count
		FROM proposals p
		LEFT JOIN moves m ON m.proposal_id = p.id
		WHERE p.user_approved = 1
		GROUP BY p.id
		ORDER BY p.timestamp DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, orgerrors.AuditStore("query approved history", err)
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var h HistoryEntry
		if err := rows.Scan(&h.ProposalID, &h.Timestamp, &h.RolledBack, &h.FileCount); err != nil {
			return nil, orgerrors.AuditStore("scan history row", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// Stats is the aggregate counters behind `organizer stats --summary`.
type Stats struct {
	TotalScans      int
	TotalProposals  int
	TotalMoves      int
	ApprovedCount   int
	RolledBackCount int
}

// Summary computes the aggregate counters across the whole audit trail.
func (s *Store) Summary() (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var st Stats
	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM scans", &st.TotalScans},
		{"SELECT COUNT(*) FROM proposals", &st.TotalProposals},
		{"SELECT COUNT(*) FROM moves", &st.TotalMoves},
		{"SELECT COUNT(*) FROM proposals WHERE user_approved = 1", &st.ApprovedCount},
		{"SELECT COUNT(*) FROM proposals WHERE rolled_back = 1", &st.RolledBackCount},
	}
	for _, c := range counts {
		if err := s.db.QueryRow(c.query).Scan(c.dest); err != nil {
			return Stats{}, orgerrors.AuditStore("query stats", err)
		}
	}
	return st, nil
}

// LearningPatterns returns target folders previously used for fileType,
// with at least minCount occurrences, ranked by frequency then approval
// rate. Nothing in the Categorizer calls it; categorization uses the
// configured rules only.
func (s *Store) LearningPatterns(fileType string, minCount int) ([]LearningPattern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT
			target_folder,
			COUNT(*) as count,
			SUM(CASE WHEN user_approved = 1 THEN 1 ELSE 0 END) * 1.0 / COUNT(*) as approval_rate
		FROM learning_data
		WHERE file_type = ?
		GROUP BY target_folder
		HAVING count >= ?
		ORDER BY count DESC, approval_rate DESC
	`, fileType, minCount)
	if err != nil {
		return nil, orgerrors.AuditStore("query learning patterns", err)
	}
	defer rows.Close()

	var out []LearningPattern
	for rows.Next() {
		var lp LearningPattern
		if err := rows.Scan(&lp.TargetFolder, &lp.Count, &lp.ApprovalRate); err != nil {
			return nil, orgerrors.AuditStore("scan learning pattern row", err)
		}
		out = append(out, lp)
	}
	return out, rows.Err()
}
