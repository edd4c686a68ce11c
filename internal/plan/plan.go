// Package plan combines rule-based destinations from the Categorizer with
// an optional Suggester's output into an immutable Proposal. Once built,
// a Proposal's file/destination pairs never change; only its approved and
// rolled_back flags move, and only forward.
package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gaI-observe-online/SmartFileOrganizer/internal/categorize"
	"github.com/gaI-observe-online/SmartFileOrganizer/internal/scan"
	"github.com/gaI-observe-online/SmartFileOrganizer/internal/suggest"
)

// FileMove is one file's assigned destination within a Proposal.
type FileMove struct {
	Record      scan.FileRecord
	Destination string
}

// PlanFile is the JSON-serializable shape of one file entry in
// proposals.plan_json.
type PlanFile struct {
	Source     string `json:"source"`
	Destination string `json:"destination"`
	RiskScore  int    `json:"risk_score"`
	RiskLevel  string `json:"risk_level"`
}

// PlanJSON is the JSON-serializable shape of proposals.plan_json.
type PlanJSON struct {
	Files      []PlanFile `json:"files"`
	Confidence float64    `json:"confidence"`
	Reasoning  string     `json:"reasoning"`
}

// Proposal is an immutable, in-memory plan of moves for one scan. Its
// ProposalID, Approved, and RolledBack fields are the only ones AuditStore
// mutates after persist; Files and Confidence/Reasoning are fixed once
// returned from Plan.
type Proposal struct {
	ProposalID int64
	ScanID     int64
	Files      []FileMove
	Confidence float64
	Reasoning  string
	Approved   bool
	RolledBack bool
}

// ToPlanJSON renders the persisted plan_json shape.
func (p *Proposal) ToPlanJSON() PlanJSON {
	files := make([]PlanFile, len(p.Files))
	for i, fm := range p.Files {
		files[i] = PlanFile{
			Source:      fm.Record.Path,
			Destination: fm.Destination,
			RiskScore:   fm.Record.RiskScore,
			RiskLevel:   string(fm.Record.RiskLevel()),
		}
	}
	return PlanJSON{Files: files, Confidence: p.Confidence, Reasoning: p.Reasoning}
}

// Marshal serializes the proposal's plan_json.
func (p *Proposal) Marshal() ([]byte, error) {
	return json.Marshal(p.ToPlanJSON())
}

// FromPlanJSON deterministically reconstructs a Proposal's file/destination
// pairs from its already-persisted plan_json, rather than re-running the
// Categorizer — source, destination, and risk fields are all embedded in
// that JSON, so this is the deterministic reconstruction path an executor
// restarted after a crash uses (see the open question on re-deriving
// destinations after restart).
func FromPlanJSON(scanID, proposalID int64, data []byte, approved, rolledBack bool) (*Proposal, error) {
	var pj PlanJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return nil, fmt.Errorf("plan: parse plan_json: %w", err)
	}

	files := make([]FileMove, len(pj.Files))
	for i, f := range pj.Files {
		files[i] = FileMove{
			Record: scan.FileRecord{
				Path:      f.Source,
				RiskScore: f.RiskScore,
			},
			Destination: f.Destination,
		}
	}

	return &Proposal{
		ProposalID: proposalID,
		ScanID:     scanID,
		Files:      files,
		Confidence: pj.Confidence,
		Reasoning:  pj.Reasoning,
		Approved:   approved,
		RolledBack: rolledBack,
	}, nil
}

// Planner builds Proposals from scanned records.
type Planner struct {
	categorizer *categorize.Categorizer
	suggester   suggest.Suggester
}

// New builds a Planner. suggester may be suggest.Unavailable{} when no
// provider is configured.
func New(categorizer *categorize.Categorizer, suggester suggest.Suggester) *Planner {
	if suggester == nil {
		suggester = suggest.Unavailable{}
	}
	return &Planner{categorizer: categorizer, suggester: suggester}
}

// Plan produces an in-memory Proposal (not yet persisted — the caller is
// expected to hand it to AuditStore for an assigned ProposalID).
//
// The rule-based destination is always computed first and never skipped.
// When the Suggester is available and its batch parses, its destinations
// override the rule-based ones for the files it covered; a destination
// outside baseDir is rejected and the rule-based destination is kept for
// that file, per the policy decided for that open question. On any
// Suggester failure the rule-based destinations are kept wholesale and
// confidence falls back to suggest.FallbackConfidence.
func (pl *Planner) Plan(ctx context.Context, scanID int64, records []scan.FileRecord, baseDir string) *Proposal {
	moves := make([]FileMove, len(records))
	for i, r := range records {
		moves[i] = FileMove{
			Record:      r,
			Destination: pl.ruleBasedDestination(r, baseDir),
		}
	}

	confidence := suggest.FallbackConfidence
	reasoning := "Rule-based organization"

	batchSize := len(records)
	if batchSize > suggest.MaxBatchSize {
		batchSize = suggest.MaxBatchSize
	}

	if batchSize > 0 {
		batch, err := pl.suggester.Suggest(ctx, records[:batchSize])
		if err == nil {
			byName := make(map[string]string, len(batch.Destinations))
			for _, d := range batch.Destinations {
				byName[d.SourcePath] = d.Path
			}
			applied := false
			for i := range moves {
				dest, ok := byName[moves[i].Record.Path]
				if !ok {
					continue
				}
				if !withinBase(baseDir, dest) {
					continue
				}
				moves[i].Destination = dest
				applied = true
			}
			if applied {
				confidence = batch.Confidence
				reasoning = "AI-generated organization plan"
			}
		}
	}

	dedupe(moves)

	return &Proposal{
		ScanID:     scanID,
		Files:      moves,
		Confidence: confidence,
		Reasoning:  reasoning,
	}
}

func (pl *Planner) ruleBasedDestination(r scan.FileRecord, baseDir string) string {
	dir := pl.categorizer.BuildPath(baseDir, r.Categories)
	return filepath.Join(dir, filepath.Base(r.Path))
}

func withinBase(baseDir, dest string) bool {
	rel, err := filepath.Rel(baseDir, dest)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// dedupe makes destinations unique within the proposal by appending
// " (n)" before the extension, n increasing until unique.
func dedupe(moves []FileMove) {
	seen := make(map[string]int)
	for i := range moves {
		dest := moves[i].Destination
		if _, taken := seen[dest]; !taken {
			seen[dest] = 0
			continue
		}
		ext := filepath.Ext(dest)
		stem := strings.TrimSuffix(dest, ext)
		n := seen[dest] + 1
		candidate := fmt.Sprintf("%s (%d)%s", stem, n, ext)
		for {
			if _, taken := seen[candidate]; !taken {
				break
			}
			n++
			candidate = fmt.Sprintf("%s (%d)%s", stem, n, ext)
		}
		seen[dest] = n
		seen[candidate] = 0
		moves[i].Destination = candidate
	}
}

// UniqueDestinations reports whether every file in the proposal has a
// distinct destination — the invariant dedupe is responsible for
// maintaining.
func UniqueDestinations(moves []FileMove) bool {
	seen := make(map[string]bool, len(moves))
	for _, m := range moves {
		if seen[m.Destination] {
			return false
		}
		seen[m.Destination] = true
	}
	return true
}
