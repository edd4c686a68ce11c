// Package cli wires cobra commands onto the core packages: one file per
// command, the shared helpers (config loading, confirmation prompts,
// component wiring) in helpers.go.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version is set via ldflags at release build time.
	Version = "dev"

	cfgFile            string
	noColor            bool
	safeModeFlag       bool
	showTechnicalFlag  bool
)

var rootCmd = &cobra.Command{
	Use:   "organizer",
	Short: "AI-assisted local file organization with a reviewable, reversible plan",
	Long: `organizer scans a directory, proposes an organization plan, and only
moves files once you approve it. Every move is backed up and logged so it
can be rolled back.

Core commands:
  scan <path>   Scan a directory and propose (then optionally execute) a plan
  rollback      Undo a previously executed plan
  config        View or change configuration
  audit         Show the audit trail
  stats         Show aggregate statistics
  watch <path>  Watch a directory and organize new files as they appear`,
	Version:           Version,
	SilenceUsage:      true,
	PersistentPreRunE: checkForCrash,
}

// Execute runs the CLI, returning the first command error.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.organizer/config.json)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&safeModeFlag, "safe-mode", false, "run with minimal functionality (no suggester, no watch, scan runs as a dry run)")
	rootCmd.PersistentFlags().BoolVar(&showTechnicalFlag, "show-technical-details", false, "include full paths and technical detail in error output")
	rootCmd.SetVersionTemplate(fmt.Sprintf("organizer version %s\n", Version))
}

// invalidInputError marks err as an invalid-input failure: scan's
// documented exit contract is 0 on success, 1 on any execute failure, 2
// on invalid inputs, so RunE returns this instead of every other error
// and ExitCode, called from main.go, tells the two apart.
type invalidInputError struct {
	msg string
}

func (e *invalidInputError) Error() string { return e.msg }

func invalidInputErrorf(format string, args ...any) error {
	return &invalidInputError{msg: fmt.Sprintf(format, args...)}
}

// ExitCode maps an error returned from Execute to the process exit code:
// 2 for invalid input, 1 for anything else, 0 for nil.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ic *invalidInputError
	if errors.As(err, &ic) {
		return 2
	}
	return 1
}
