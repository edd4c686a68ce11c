package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gaI-observe-online/SmartFileOrganizer/internal/audit"
	"github.com/gaI-observe-online/SmartFileOrganizer/internal/categorize"
	"github.com/gaI-observe-online/SmartFileOrganizer/internal/config"
	"github.com/gaI-observe-online/SmartFileOrganizer/internal/display"
	"github.com/gaI-observe-online/SmartFileOrganizer/internal/execute"
	"github.com/gaI-observe-online/SmartFileOrganizer/internal/extract"
	"github.com/gaI-observe-online/SmartFileOrganizer/internal/plan"
	"github.com/gaI-observe-online/SmartFileOrganizer/internal/recovery"
	"github.com/gaI-observe-online/SmartFileOrganizer/internal/scan"
	"github.com/gaI-observe-online/SmartFileOrganizer/internal/suggest"
	"github.com/gaI-observe-online/SmartFileOrganizer/internal/watch"
)

var (
	watchImmediate      bool
	watchQueueForReview bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <path>",
	Short: "Watch a directory and organize new files as they appear",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := args[0]
		if safeModeFlag {
			return fmt.Errorf("watch is not available in safe mode")
		}
		if _, err := os.Stat(root); err != nil {
			return invalidInputErrorf("path does not exist: %s", root)
		}

		cfg, _, err := loadConfig()
		if err != nil {
			return err
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

		interval := time.Duration(cfg.Watch.BatchIntervalSeconds) * time.Second
		w, err := watch.New(root, interval)
		if err != nil {
			return err
		}
		defer w.Close()

		disp := newDisplay()
		mode := "batch"
		switch {
		case watchImmediate:
			mode = "immediate"
		case watchQueueForReview:
			mode = "queue"
		}
		disp.Info("Watching", root)
		fmt.Printf("Mode: %s (press Ctrl+C to stop)\n", mode)

		scanner := scan.New(cfg, extract.NewDefault(), nil)
		categorizer := categorize.New(cfg)
		planner := plan.New(categorizer, suggest.Unavailable{})
		exec := execute.New(store, orgDir, cfg.Backup.Enabled, cfg.Backup.SkipLargeFilesMB, cfg.Preferences.DryRun)
		baseDir := filepath.Join(filepath.Dir(filepath.Clean(root)), "Organized")

		ctx, cancel := context.WithCancel(context.Background())
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigCh
			cancel()
		}()

		onBatch := func(paths []string) {
			handleWatchBatch(ctx, disp, cfg, scanner, planner, exec, store, paths, baseDir, mode)
		}
		onError := func(err error) {
			disp.Error(fmt.Sprintf("watch error: %v", err))
		}

		runErr := w.Run(ctx, onBatch, onError)
		if runErr == context.Canceled {
			return nil
		}
		return runErr
	},
}

// handleWatchBatch runs the same scan/categorize/risk-score/propose
// pipeline a manual "organizer scan" would, restricted to the batch of
// newly-created paths fsnotify reported, then routes the resulting
// proposal per the watcher's configured mode: "immediate" executes
// auto-approved low-risk files right away, "queue" and "batch" only log
// the proposal for later review via `organizer scan --batch` semantics.
func handleWatchBatch(ctx context.Context, disp *display.Display, cfg *config.Config, scanner *scan.Scanner, planner *plan.Planner, exec *execute.Executor, store *audit.Store, paths []string, baseDir string, mode string) {
	if len(paths) == 0 {
		return
	}

	records := make([]scan.FileRecord, 0, len(paths))
	for _, p := range paths {
		rec, err := scanner.AnalyzeOne(p)
		if err != nil {
			continue
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return
	}

	scanID, err := store.LogScan(filepath.Dir(paths[0]), len(records))
	if err != nil {
		disp.Error(fmt.Sprintf("watch: log scan failed: %v", err))
		return
	}

	proposal := planner.Plan(ctx, scanID, records, baseDir)
	planJSON, err := proposal.Marshal()
	if err != nil {
		disp.Error(fmt.Sprintf("watch: marshal plan failed: %v", err))
		return
	}
	proposalID, err := store.LogPropose(scanID, string(planJSON), proposal.Confidence)
	if err != nil {
		disp.Error(fmt.Sprintf("watch: log propose failed: %v", err))
		return
	}
	proposal.ProposalID = proposalID

	disp.ProposalSummary(proposalID, len(proposal.Files), proposal.Confidence, proposal.Reasoning)

	if mode != "immediate" {
		disp.Warning(fmt.Sprintf("%d new files queued for review (run 'organizer scan --batch' to process)", len(proposal.Files)))
		return
	}

	var autoApprove []plan.FileMove
	for _, fm := range proposal.Files {
		if cfg.Watch.AutoApproveLowRisk && fm.Record.RiskLevel() == "low" {
			autoApprove = append(autoApprove, fm)
		}
	}
	if len(autoApprove) == 0 {
		disp.Warning("no low-risk files eligible for immediate execution")
		return
	}

	if err := store.LogApproval(proposalID, true); err != nil {
		disp.Error(fmt.Sprintf("watch: approval failed: %v", err))
		return
	}
	sub := &plan.Proposal{ProposalID: proposalID, ScanID: scanID, Files: autoApprove, Confidence: proposal.Confidence, Reasoning: proposal.Reasoning}
	outcome, err := exec.Execute(ctx, sub)
	if err != nil {
		disp.Error(fmt.Sprintf("watch: execute failed: %v", err))
		return
	}
	disp.ExecuteSummary(outcome.FilesMoved, outcome.Success)
}

func init() {
	watchCmd.Flags().BoolVar(&watchImmediate, "immediate", false, "execute auto-approved low-risk moves immediately")
	watchCmd.Flags().BoolVar(&watchQueueForReview, "queue-for-review", false, "queue every detected file for manual review")
	rootCmd.AddCommand(watchCmd)
}
