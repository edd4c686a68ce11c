package audit

import (
	"os"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenCreatesStoreFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	for _, name := range []string{"audit.db", "audit.jsonl", "operations.log"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s to exist: %v", name, err)
		}
	}
}

func TestLogScanAssignsIncreasingIDs(t *testing.T) {
	s := openTestStore(t)

	id1, err := s.LogScan("/home/user", 3)
	if err != nil {
		t.Fatalf("LogScan failed: %v", err)
	}
	id2, err := s.LogScan("/home/user", 5)
	if err != nil {
		t.Fatalf("LogScan failed: %v", err)
	}
	if id2 <= id1 {
		t.Errorf("expected increasing scan ids, got %d then %d", id1, id2)
	}

	scans, err := s.RecentScans(10)
	if err != nil {
		t.Fatalf("RecentScans failed: %v", err)
	}
	if len(scans) != 2 {
		t.Fatalf("got %d scans, want 2", len(scans))
	}
}

func TestProposeApproveExecuteFlow(t *testing.T) {
	s := openTestStore(t)

	scanID, err := s.LogScan("/home/user", 1)
	if err != nil {
		t.Fatalf("LogScan failed: %v", err)
	}

	proposalID, err := s.LogPropose(scanID, `{"files":[]}`, 0.75)
	if err != nil {
		t.Fatalf("LogPropose failed: %v", err)
	}

	if err := s.LogApproval(proposalID, true); err != nil {
		t.Fatalf("LogApproval failed: %v", err)
	}

	p, err := s.ProposalByID(proposalID)
	if err != nil {
		t.Fatalf("ProposalByID failed: %v", err)
	}
	if p == nil {
		t.Fatal("expected proposal to exist")
	}
	if !p.UserApproved.Valid || !p.UserApproved.Bool {
		t.Errorf("expected user_approved = true, got %+v", p.UserApproved)
	}

	if err := s.LogExecute(proposalID, 1, true); err != nil {
		t.Fatalf("LogExecute failed: %v", err)
	}
}

func TestMovesByProposalAscendingOrder(t *testing.T) {
	s := openTestStore(t)

	scanID, _ := s.LogScan("/base", 2)
	proposalID, _ := s.LogPropose(scanID, "{}", 0.8)

	id1, err := s.LogMove(proposalID, "/base/a.txt", "/base/Documents/a.txt", "/organizer/backups/1/a.txt")
	if err != nil {
		t.Fatalf("LogMove failed: %v", err)
	}
	id2, err := s.LogMove(proposalID, "/base/b.txt", "/base/Documents/b.txt", "")
	if err != nil {
		t.Fatalf("LogMove failed: %v", err)
	}

	moves, err := s.MovesByProposal(proposalID)
	if err != nil {
		t.Fatalf("MovesByProposal failed: %v", err)
	}
	if len(moves) != 2 {
		t.Fatalf("got %d moves, want 2", len(moves))
	}
	if moves[0].ID != id1 || moves[1].ID != id2 {
		t.Errorf("moves not in ascending id order: %+v", moves)
	}
	if moves[0].BackupPath != "/organizer/backups/1/a.txt" {
		t.Errorf("moves[0].BackupPath = %q, want the recorded backup path", moves[0].BackupPath)
	}
	if moves[1].BackupPath != "" {
		t.Errorf("moves[1].BackupPath = %q, want empty (no backup recorded)", moves[1].BackupPath)
	}
}

func TestRollbackMarksProposal(t *testing.T) {
	s := openTestStore(t)

	scanID, _ := s.LogScan("/base", 1)
	proposalID, _ := s.LogPropose(scanID, "{}", 0.8)
	_ = s.LogApproval(proposalID, true)

	if err := s.LogRollback(proposalID, 1); err != nil {
		t.Fatalf("LogRollback failed: %v", err)
	}

	p, err := s.ProposalByID(proposalID)
	if err != nil {
		t.Fatalf("ProposalByID failed: %v", err)
	}
	if !p.RolledBack {
		t.Error("expected proposal to be marked rolled back")
	}
}

func TestLatestApprovedUnrolledSkipsRolledBack(t *testing.T) {
	s := openTestStore(t)

	scanID, _ := s.LogScan("/base", 1)

	oldProposal, _ := s.LogPropose(scanID, "{}", 0.8)
	_ = s.LogApproval(oldProposal, true)
	_ = s.LogRollback(oldProposal, 1)

	newProposal, _ := s.LogPropose(scanID, "{}", 0.8)
	_ = s.LogApproval(newProposal, true)

	latest, err := s.LatestApprovedUnrolled()
	if err != nil {
		t.Fatalf("LatestApprovedUnrolled failed: %v", err)
	}
	if latest == nil {
		t.Fatal("expected a latest approved proposal")
	}
	if latest.ID != newProposal {
		t.Errorf("latest.ID = %d, want %d", latest.ID, newProposal)
	}
}

func TestLearningPatternsRespectsMinCount(t *testing.T) {
	s := openTestStore(t)

	for i := 0; i < 3; i++ {
		if err := s.LogLearning("pdf", "Documents/Work", true); err != nil {
			t.Fatalf("LogLearning failed: %v", err)
		}
	}

	patterns, err := s.LearningPatterns("pdf", 5)
	if err != nil {
		t.Fatalf("LearningPatterns failed: %v", err)
	}
	if len(patterns) != 0 {
		t.Errorf("expected no patterns below min count, got %+v", patterns)
	}

	patterns, err = s.LearningPatterns("pdf", 3)
	if err != nil {
		t.Fatalf("LearningPatterns failed: %v", err)
	}
	if len(patterns) != 1 || patterns[0].TargetFolder != "Documents/Work" {
		t.Fatalf("got %+v, want one pattern for Documents/Work", patterns)
	}
	if patterns[0].ApprovalRate != 1.0 {
		t.Errorf("ApprovalRate = %v, want 1.0", patterns[0].ApprovalRate)
	}
}

func TestProposalByIDMissingReturnsNil(t *testing.T) {
	s := openTestStore(t)

	p, err := s.ProposalByID(999)
	if err != nil {
		t.Fatalf("ProposalByID failed: %v", err)
	}
	if p != nil {
		t.Errorf("expected nil for missing proposal, got %+v", p)
	}
}

func TestSummaryCountsAcrossTables(t *testing.T) {
	s := openTestStore(t)

	scanID, err := s.LogScan("/home/user", 2)
	if err != nil {
		t.Fatalf("LogScan failed: %v", err)
	}
	proposalID, err := s.LogPropose(scanID, `{"files":[]}`, 0.9)
	if err != nil {
		t.Fatalf("LogPropose failed: %v", err)
	}
	if err := s.LogApproval(proposalID, true); err != nil {
		t.Fatalf("LogApproval failed: %v", err)
	}
	if _, err := s.LogMove(proposalID, "/a", "/b", ""); err != nil {
		t.Fatalf("LogMove failed: %v", err)
	}
	if err := s.LogRollback(proposalID, 1); err != nil {
		t.Fatalf("LogRollback failed: %v", err)
	}

	st, err := s.Summary()
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if st.TotalScans != 1 || st.TotalProposals != 1 || st.TotalMoves != 1 {
		t.Errorf("got %+v, want 1/1/1 scans/proposals/moves", st)
	}
	if st.ApprovedCount != 1 || st.RolledBackCount != 1 {
		t.Errorf("got %+v, want approved=1 rolledBack=1", st)
	}
}
