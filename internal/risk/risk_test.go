package risk

import (
	"strings"
	"testing"
	"time"

	"github.com/gaI-observe-online/SmartFileOrganizer/internal/types"
)

func TestScoreSensitiveContentHighRisk(t *testing.T) {
	a := New()
	score, reasons := a.Score("/home/alice/notes.txt", "SSN: 123-45-6789 password: hunter2", 100, time.Time{})

	if score < 90 {
		t.Fatalf("score = %d, want >= 90 (40 SSN + 50 password)", score)
	}
	if a.Level(score) != types.RiskHigh {
		t.Errorf("Level(%d) = %q, want high", score, a.Level(score))
	}
	if len(reasons) != 2 {
		t.Errorf("reasons = %v, want 2 entries", reasons)
	}
	if !a.RequiresApproval(score, 30) {
		t.Error("expected RequiresApproval with threshold 30")
	}
}

func TestScoreCleanFileIsZero(t *testing.T) {
	a := New()
	score, reasons := a.Score("/home/alice/photo.jpg", "", 1024, time.Time{})
	if score != 0 {
		t.Errorf("score = %d, want 0", score)
	}
	if len(reasons) != 0 {
		t.Errorf("reasons = %v, want none", reasons)
	}
	if a.Level(score) != types.RiskLow {
		t.Errorf("Level(0) = %q, want low", a.Level(score))
	}
}

func TestScoreClampsAt100(t *testing.T) {
	a := New()
	score, _ := a.Score(
		"/home/alice/secrets.dll",
		"SSN: 123-45-6789, card 4111-1111-1111-1111, password: hunter2, key: "+strings.Repeat("a", 45)+", a@b.com, 555-123-4567",
		600*1024*1024,
		time.Now(),
	)
	if score != 100 {
		t.Errorf("score = %d, want clamped to 100", score)
	}
}

func TestScoreIsMonotonic(t *testing.T) {
	a := New()
	base, _ := a.Score("/home/alice/notes.txt", "", 100, time.Time{})
	withSSN, _ := a.Score("/home/alice/notes.txt", "SSN: 123-45-6789", 100, time.Time{})
	if withSSN < base {
		t.Fatalf("adding a sensitive match must never decrease score: base=%d withSSN=%d", base, withSSN)
	}
}

func TestScoreSystemFileExtension(t *testing.T) {
	a := New()
	score, reasons := a.Score("/usr/lib/libfoo.dll", "", 100, time.Time{})
	if score != 30 {
		t.Errorf("score = %d, want 30 for system extension", score)
	}
	if len(reasons) != 1 {
		t.Errorf("reasons = %v, want exactly one", reasons)
	}
}

func TestScoreRecentlyModified(t *testing.T) {
	a := New()
	score, _ := a.Score("/home/alice/notes.txt", "", 100, time.Now().Add(-time.Hour))
	if score != 20 {
		t.Errorf("score = %d, want 20 for recent mtime", score)
	}
}

func TestLevelBands(t *testing.T) {
	a := New()
	if a.Level(30) != types.RiskLow {
		t.Error("30 should band to low")
	}
	if a.Level(70) != types.RiskMedium {
		t.Error("70 should band to medium")
	}
	if a.Level(71) != types.RiskHigh {
		t.Error("71 should band to high")
	}
}
