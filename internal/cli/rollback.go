package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gaI-observe-online/SmartFileOrganizer/internal/display"
	"github.com/gaI-observe-online/SmartFileOrganizer/internal/rollback"
)

var (
	rollbackLast        bool
	rollbackProposalID  int64
	rollbackShowHistory bool
)

var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Undo a previously executed organization plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, orgDir, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		mgr := rollback.New(store, orgDir)
		disp := newDisplay()

		switch {
		case rollbackShowHistory:
			history, err := mgr.History(50)
			if err != nil {
				return err
			}
			if len(history) == 0 {
				fmt.Println("No approved proposals yet.")
				return nil
			}
			fmt.Printf("%-6s %-25s %-8s %s\n", "ID", "Timestamp", "Files", "Status")
			for _, h := range history {
				status := "Active"
				if h.RolledBack {
					status = "Rolled Back"
				}
				fmt.Printf("%-6d %-25s %-8d %s\n", h.ProposalID, h.Timestamp.Format("2006-01-02 15:04:05"), h.FileCount, status)
			}
			return nil

		case rollbackLast:
			if !confirm("Rollback last operation?") {
				return nil
			}
			id, result, err := mgr.Last()
			if err != nil {
				return err
			}
			reportRollback(disp, id, result)
			return nil

		case rollbackProposalID != 0:
			if !confirm(fmt.Sprintf("Rollback proposal %d?", rollbackProposalID)) {
				return nil
			}
			result, err := mgr.Rollback(rollbackProposalID)
			if err != nil {
				return err
			}
			reportRollback(disp, rollbackProposalID, result)
			return nil

		default:
			fmt.Println("Please specify --last, --proposal, or --show-history")
			return nil
		}
	},
}

func reportRollback(disp *display.Display, id int64, result rollback.Result) {
	if result.AlreadyDone {
		disp.Warning(fmt.Sprintf("Proposal #%d was already rolled back", id))
		return
	}
	disp.RollbackSummary(id, result.FilesRestored, result.Unresolvable)
}

func init() {
	rollbackCmd.Flags().BoolVar(&rollbackLast, "last", false, "rollback the most recent approved proposal")
	rollbackCmd.Flags().Int64Var(&rollbackProposalID, "proposal", 0, "rollback a specific proposal ID")
	rollbackCmd.Flags().BoolVar(&rollbackShowHistory, "show-history", false, "show rollback history")
	rootCmd.AddCommand(rollbackCmd)
}
