package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/gaI-observe-online/SmartFileOrganizer/internal/audit"
	"github.com/gaI-observe-online/SmartFileOrganizer/internal/categorize"
	"github.com/gaI-observe-online/SmartFileOrganizer/internal/display"
	"github.com/gaI-observe-online/SmartFileOrganizer/internal/execute"
	"github.com/gaI-observe-online/SmartFileOrganizer/internal/extract"
	"github.com/gaI-observe-online/SmartFileOrganizer/internal/plan"
	"github.com/gaI-observe-online/SmartFileOrganizer/internal/recovery"
	"github.com/gaI-observe-online/SmartFileOrganizer/internal/scan"
	"github.com/gaI-observe-online/SmartFileOrganizer/internal/suggest"
)

var (
	scanDryRun               bool
	scanBatch                bool
	scanRecursive            bool
	scanAutoApproveThreshold int
)

var scanCmd = &cobra.Command{
	Use:   "scan <path>",
	Short: "Scan a directory and propose an organization plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if _, err := os.Stat(path); err != nil {
			return invalidInputErrorf("path does not exist: %s", path)
		}

		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		if scanAutoApproveThreshold > 0 {
			cfg.Preferences.AutoApproveThreshold = scanAutoApproveThreshold
		}
		if scanDryRun || safeModeFlag {
			cfg.Preferences.DryRun = true
		}

		store, orgDir, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		lock, err := recovery.Acquire(orgDir)
		if err != nil {
			return err
		}
		defer lock.Release()

		recMgr, err := recovery.New(filepath.Join(orgDir, "state"))
		if err != nil {
			return err
		}

		disp := newDisplay()
		disp.Info("Scanning", path)

		scanner := scan.New(cfg, extract.NewDefault(), nil)
		ctx := context.Background()

		started := time.Now()
		records, err := scanner.Scan(ctx, path, scanRecursive)
		if err != nil {
			recMgr.RecordCrash("scan_error", err, nil, !showTechnicalFlag)
			return err
		}

		scanID, err := store.LogScan(path, len(records))
		if err != nil {
			return err
		}
		if err := recMgr.StartScan(scanID, path, len(records)); err != nil {
			return err
		}

		if len(records) == 0 {
			disp.Warning("No files found to organize")
			return recMgr.CompleteScan()
		}

		disp.ScanSummary(path, len(records), time.Since(started))
		printFileStats(records)

		categorizer := categorize.New(cfg)
		planner := plan.New(categorizer, suggest.Unavailable{})

		baseDir := filepath.Join(filepath.Dir(filepath.Clean(path)), "Organized")
		proposal := planner.Plan(ctx, scanID, records, baseDir)

		planJSON, err := proposal.Marshal()
		if err != nil {
			return err
		}
		proposalID, err := store.LogPropose(scanID, string(planJSON), proposal.Confidence)
		if err != nil {
			return err
		}
		proposal.ProposalID = proposalID

		disp.ProposalSummary(proposalID, len(proposal.Files), proposal.Confidence, proposal.Reasoning)
		printProposalLines(disp, proposal)

		exec := execute.New(store, orgDir, cfg.Backup.Enabled, cfg.Backup.SkipLargeFilesMB, cfg.Preferences.DryRun)

		var approvalErr error
		if scanBatch {
			approvalErr = runBatchApproval(ctx, disp, store, exec, proposal, cfg.Preferences.AutoApproveThreshold)
		} else {
			approvalErr = runInteractiveApproval(ctx, disp, store, exec, proposal)
		}

		if err := recMgr.CompleteScan(); err != nil {
			return err
		}
		return approvalErr
	},
}

func init() {
	scanCmd.Flags().BoolVar(&scanDryRun, "dry-run", false, "preview changes without moving files")
	scanCmd.Flags().BoolVar(&scanBatch, "batch", false, "batch mode: auto-approve low-risk files, queue the rest")
	scanCmd.Flags().BoolVar(&scanRecursive, "recursive", false, "scan subdirectories")
	scanCmd.Flags().IntVar(&scanAutoApproveThreshold, "auto-approve-threshold", 0, "override preferences.auto_approve_threshold (0-100)")
	rootCmd.AddCommand(scanCmd)
}

func printFileStats(records []scan.FileRecord) {
	var totalSize int64
	byType := map[string]int{}
	var low, medium, high int
	for _, r := range records {
		totalSize += r.Size
		byType[r.Categories.Type]++
		switch r.RiskLevel() {
		case "low":
			low++
		case "medium":
			medium++
		default:
			high++
		}
	}
	fmt.Printf("  Total size: %s\n", humanize.Bytes(uint64(totalSize)))
	for t, n := range byType {
		fmt.Printf("  %s: %d\n", t, n)
	}
	fmt.Printf("  Risk — low: %d, medium: %d, high: %d\n", low, medium, high)
}

func printProposalLines(disp *display.Display, p *plan.Proposal) {
	shown := p.Files
	if len(shown) > 20 {
		shown = shown[:20]
	}
	for _, fm := range shown {
		disp.ProposalLine(fm.Record.Path, fm.Destination, fm.Record.RiskLevel(), fm.Record.RiskScore)
	}
	if len(p.Files) > len(shown) {
		fmt.Printf("  ... and %d more files\n", len(p.Files)-len(shown))
	}
}

// runBatchApproval auto-approves and executes the low-risk subset of a
// proposal, leaving the rest queued for a later interactive review. The
// returned error is non-nil whenever any file in that low-risk subset
// failed to move, so scan's exit code reflects an execute failure.
func runBatchApproval(ctx context.Context, disp *display.Display, store *audit.Store, exec *execute.Executor, p *plan.Proposal, threshold int) error {
	var lowRisk, highRisk []plan.FileMove
	for _, fm := range p.Files {
		if fm.Record.RiskScore <= threshold {
			lowRisk = append(lowRisk, fm)
		} else {
			highRisk = append(highRisk, fm)
		}
	}

	if len(lowRisk) == 0 {
		disp.Warning("No low-risk files to auto-approve")
		return nil
	}

	if err := store.LogApproval(p.ProposalID, true); err != nil {
		return fmt.Errorf("approval failed: %w", err)
	}

	sub := &plan.Proposal{
		ProposalID: p.ProposalID,
		ScanID:     p.ScanID,
		Files:      lowRisk,
		Confidence: p.Confidence,
		Reasoning:  p.Reasoning,
	}
	outcome, err := exec.Execute(ctx, sub)
	if err != nil {
		return fmt.Errorf("execute failed: %w", err)
	}
	disp.ExecuteSummary(outcome.FilesMoved, outcome.Success)

	if len(highRisk) > 0 {
		disp.Warning(fmt.Sprintf("%d files queued for manual review (above threshold %d)", len(highRisk), threshold))
	}

	if !outcome.Success {
		return fmt.Errorf("%d of %d low-risk files failed to move", len(lowRisk)-outcome.FilesMoved, len(lowRisk))
	}
	return nil
}

// runInteractiveApproval prompts once for the whole proposal. The
// returned error is non-nil whenever any file failed to move, so scan's
// exit code reflects an execute failure; declining the prompt is not an
// error.
func runInteractiveApproval(ctx context.Context, disp *display.Display, store *audit.Store, exec *execute.Executor, p *plan.Proposal) error {
	if !confirm("Proceed with organization?") {
		store.LogApproval(p.ProposalID, false)
		disp.Warning("Organization cancelled")
		return nil
	}

	if err := store.LogApproval(p.ProposalID, true); err != nil {
		return fmt.Errorf("approval failed: %w", err)
	}

	outcome, err := exec.Execute(ctx, p)
	if err != nil {
		return fmt.Errorf("execute failed: %w", err)
	}
	disp.ExecuteSummary(outcome.FilesMoved, outcome.Success)

	if !outcome.Success {
		return fmt.Errorf("%d of %d files failed to move", len(p.Files)-outcome.FilesMoved, len(p.Files))
	}
	return nil
}
