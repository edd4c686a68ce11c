package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	auditLast int
	auditDate string
	auditFile string
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show the audit trail",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		scans, err := store.RecentScans(auditLast)
		if err != nil {
			return err
		}

		fmt.Printf("%-6s %-20s %-8s %s\n", "ID", "Timestamp", "Files", "Path")
		for _, sc := range scans {
			ts := sc.Timestamp.Format("2006-01-02 15:04:05")
			if auditDate != "" && !strings.HasPrefix(ts, auditDate) {
				continue
			}
			if auditFile != "" && !strings.Contains(sc.Path, auditFile) {
				continue
			}
			fmt.Printf("%-6d %-20s %-8d %s\n", sc.ID, ts, sc.FileCount, sc.Path)
		}
		return nil
	},
}

func init() {
	auditCmd.Flags().IntVar(&auditLast, "last", 100, "show last N scans")
	auditCmd.Flags().StringVar(&auditDate, "date", "", "filter by date (YYYY-MM-DD)")
	auditCmd.Flags().StringVar(&auditFile, "file", "", "filter by scan path substring")
	rootCmd.AddCommand(auditCmd)
}
