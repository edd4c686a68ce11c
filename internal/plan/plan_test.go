package plan

import (
	"context"
	"testing"

	"github.com/gaI-observe-online/SmartFileOrganizer/internal/categorize"
	"github.com/gaI-observe-online/SmartFileOrganizer/internal/config"
	"github.com/gaI-observe-online/SmartFileOrganizer/internal/scan"
	"github.com/gaI-observe-online/SmartFileOrganizer/internal/suggest"
)

func newPlanner() *Planner {
	cfg := config.DefaultConfig()
	return New(categorize.New(cfg), suggest.Unavailable{})
}

func TestPlanRuleBasedNoSuggester(t *testing.T) {
	pl := newPlanner()

	records := []scan.FileRecord{
		{Path: "/base/photo.jpg", Categories: categorize.Result{Type: "Images"}},
		{Path: "/base/report.pdf", Categories: categorize.Result{Type: "Documents"}},
		{Path: "/base/script.py", Categories: categorize.Result{Type: "Code"}},
	}

	p := pl.Plan(context.Background(), 1, records, "/base")

	if p.Confidence != suggest.FallbackConfidence {
		t.Errorf("Confidence = %v, want %v", p.Confidence, suggest.FallbackConfidence)
	}
	if p.Reasoning != "Rule-based organization" {
		t.Errorf("Reasoning = %q", p.Reasoning)
	}
	if len(p.Files) != 3 {
		t.Fatalf("got %d files, want 3", len(p.Files))
	}
	if !UniqueDestinations(p.Files) {
		t.Error("expected unique destinations")
	}

	want := map[string]string{
		"/base/photo.jpg":  "/base/Images/photo.jpg",
		"/base/report.pdf": "/base/Documents/report.pdf",
		"/base/script.py":  "/base/Code/script.py",
	}
	for _, fm := range p.Files {
		if fm.Destination != want[fm.Record.Path] {
			t.Errorf("destination for %s = %q, want %q", fm.Record.Path, fm.Destination, want[fm.Record.Path])
		}
	}
}

func TestPlanDeduplicatesCollisions(t *testing.T) {
	pl := newPlanner()
	records := []scan.FileRecord{
		{Path: "/a/name.txt", Categories: categorize.Result{Type: "Documents"}},
		{Path: "/b/name.txt", Categories: categorize.Result{Type: "Documents"}},
	}
	// Force a collision: both categorize to the same destination filename.
	p := &Proposal{}
	moves := []FileMove{
		{Record: records[0], Destination: "/base/Documents/name.txt"},
		{Record: records[1], Destination: "/base/Documents/name.txt"},
	}
	dedupe(moves)
	p.Files = moves

	if moves[0].Destination == moves[1].Destination {
		t.Fatal("expected collision to be deduplicated")
	}
	if moves[1].Destination != "/base/Documents/name (1).txt" {
		t.Errorf("second destination = %q, want '.../name (1).txt'", moves[1].Destination)
	}
	if !UniqueDestinations(p.Files) {
		t.Error("expected unique destinations after dedupe")
	}
}

type fakeSuggester struct {
	batch suggest.Batch
	err   error
}

func (f fakeSuggester) Suggest(ctx context.Context, records []scan.FileRecord) (suggest.Batch, error) {
	return f.batch, f.err
}

func TestPlanSuggesterOverridesRuleBased(t *testing.T) {
	cfg := config.DefaultConfig()
	sg := fakeSuggester{batch: suggest.Batch{
		Confidence: 0.92,
		Destinations: []suggest.Destination{
			{SourcePath: "/base/report.pdf", Path: "/base/Work/Reports/report.pdf"},
		},
	}}
	pl := New(categorize.New(cfg), sg)

	records := []scan.FileRecord{
		{Path: "/base/report.pdf", Categories: categorize.Result{Type: "Documents"}},
	}
	p := pl.Plan(context.Background(), 1, records, "/base")

	if p.Files[0].Destination != "/base/Work/Reports/report.pdf" {
		t.Errorf("destination = %q, want suggester override", p.Files[0].Destination)
	}
	if p.Confidence != 0.92 {
		t.Errorf("Confidence = %v, want 0.92", p.Confidence)
	}
	if p.Reasoning != "AI-generated organization plan" {
		t.Errorf("Reasoning = %q", p.Reasoning)
	}
}

func TestPlanSuggesterOutsideBaseDirRejected(t *testing.T) {
	cfg := config.DefaultConfig()
	sg := fakeSuggester{batch: suggest.Batch{
		Confidence: 0.9,
		Destinations: []suggest.Destination{
			{SourcePath: "/base/report.pdf", Path: "/etc/report.pdf"},
		},
	}}
	pl := New(categorize.New(cfg), sg)

	records := []scan.FileRecord{
		{Path: "/base/report.pdf", Categories: categorize.Result{Type: "Documents"}},
	}
	p := pl.Plan(context.Background(), 1, records, "/base")

	if p.Files[0].Destination != "/base/Documents/report.pdf" {
		t.Errorf("destination = %q, want rule-based fallback for out-of-base suggestion", p.Files[0].Destination)
	}
}

func TestPlanSuggesterUnavailableFallsBack(t *testing.T) {
	cfg := config.DefaultConfig()
	pl := New(categorize.New(cfg), suggest.Unavailable{})

	records := []scan.FileRecord{
		{Path: "/base/notes.txt", Categories: categorize.Result{Type: "Documents"}},
	}
	p := pl.Plan(context.Background(), 1, records, "/base")

	if p.Confidence != suggest.FallbackConfidence {
		t.Errorf("Confidence = %v, want fallback", p.Confidence)
	}
	if p.Reasoning != "Rule-based organization" {
		t.Errorf("Reasoning = %q", p.Reasoning)
	}
}

func TestMarshalAndFromPlanJSONRoundTrip(t *testing.T) {
	pl := newPlanner()
	records := []scan.FileRecord{
		{Path: "/base/notes.txt", Categories: categorize.Result{Type: "Documents"}, RiskScore: 10},
	}
	p := pl.Plan(context.Background(), 1, records, "/base")

	data, err := p.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	reconstructed, err := FromPlanJSON(1, 42, data, true, false)
	if err != nil {
		t.Fatalf("FromPlanJSON failed: %v", err)
	}
	if len(reconstructed.Files) != 1 {
		t.Fatalf("got %d files, want 1", len(reconstructed.Files))
	}
	if reconstructed.Files[0].Destination != p.Files[0].Destination {
		t.Errorf("reconstructed destination = %q, want %q", reconstructed.Files[0].Destination, p.Files[0].Destination)
	}
	if reconstructed.ProposalID != 42 || !reconstructed.Approved {
		t.Errorf("reconstructed proposal metadata incorrect: %+v", reconstructed)
	}
}
