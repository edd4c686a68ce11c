package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsSummary bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate statistics across the audit trail",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		st, err := store.Summary()
		if err != nil {
			return err
		}

		fmt.Printf("Total Scans:       %d\n", st.TotalScans)
		fmt.Printf("Total Proposals:   %d\n", st.TotalProposals)
		fmt.Printf("Approved:          %d\n", st.ApprovedCount)
		fmt.Printf("Rolled Back:       %d\n", st.RolledBackCount)
		fmt.Printf("Total Files Moved: %d\n", st.TotalMoves)
		return nil
	},
}

func init() {
	statsCmd.Flags().BoolVar(&statsSummary, "summary", false, "show summary statistics")
	rootCmd.AddCommand(statsCmd)
}
